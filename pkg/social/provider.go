package social

import (
	"context"
	"errors"

	"github.com/arcanahq/arcana-go/pkg/session"
)

var (
	// ErrInvalidCode indicates the provider rejected the authorization code
	ErrInvalidCode = errors.New("social: invalid authorization code")

	// ErrNoAccessToken indicates the exchange completed without yielding a
	// usable access token
	ErrNoAccessToken = errors.New("social: provider returned no access token")
)

// Provider runs the browser-side half of a social login flow: it builds
// the authorization URL and exchanges the returned code for the
// provider-issued payload that session.SocialLogin forwards to the
// backend. Identity resolution happens server-side; adapters never fetch
// provider profiles.
type Provider interface {
	// ID returns the provider identifier, matching the session package's
	// supported set.
	ID() string

	// AuthCodeURL builds the provider authorization URL with CSRF state.
	AuthCodeURL(state string) string

	// Exchange trades the authorization code for a SocialPayload.
	Exchange(ctx context.Context, code string) (session.SocialPayload, error)
}
