package authapi

import (
	"encoding/json"

	"github.com/arcanahq/arcana-go/pkg/session"
)

// maxResponseBytes caps how much of a response body is read. Auth payloads
// are small; anything bigger is not worth buffering.
const maxResponseBytes = 1 << 20

// envelope covers every response shape the backend emits. Some endpoints
// answer flat {user, token}, others wrap the same pair in {data: {...}};
// error bodies carry either "message" or "error". This is the single place
// that branches on shape; callers only ever see the normalized result.
type envelope struct {
	User  *session.User `json:"user"`
	Token string        `json:"token"`
	Data  *struct {
		User  *session.User `json:"user"`
		Token string        `json:"token"`
	} `json:"data"`
	Message  string `json:"message"`
	ErrorMsg string `json:"error"`
}

// decodeCredentials normalizes a successful auth response into Credentials.
// A body missing either field is a malformed response, never a silent
// success.
func decodeCredentials(body []byte) (session.Credentials, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return session.Credentials{}, session.NewError(session.KindMalformedResponse, "undecodable auth response")
	}

	creds := session.Credentials{User: env.User, Token: env.Token}
	if creds.User == nil && env.Data != nil {
		creds = session.Credentials{User: env.Data.User, Token: env.Data.Token}
	}

	if creds.User == nil || creds.Token == "" {
		return session.Credentials{}, session.NewError(session.KindMalformedResponse, "auth response missing user or token")
	}
	return creds, nil
}

// decodeUser normalizes a successful current-user response.
func decodeUser(body []byte) (*session.User, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, session.NewError(session.KindMalformedResponse, "undecodable user response")
	}

	user := env.User
	if user == nil && env.Data != nil {
		user = env.Data.User
	}
	if user == nil {
		return nil, session.NewError(session.KindMalformedResponse, "user response missing user")
	}
	return user, nil
}

// serverMessage extracts the human-readable error message from a response
// body, tolerating both the "message" and "error" conventions.
func serverMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	if env.Message != "" {
		return env.Message
	}
	return env.ErrorMsg
}
