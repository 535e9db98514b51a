package session

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Supported social identity providers.
const (
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

// RoleAdmin is the role the backend assigns to back-office accounts.
const RoleAdmin = "admin"

// ID is the backend's user identifier. The API is inconsistent about the
// wire type (numeric ids from the primary database, string ids minted for
// social sign-ups), so ID accepts both and marshals back in the original
// form.
type ID string

// UnmarshalJSON accepts both JSON numbers and JSON strings.
func (id *ID) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*id = ID(n.String())
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("user id must be a number or a string: %w", err)
	}
	*id = ID(s)
	return nil
}

// MarshalJSON re-emits numeric ids as numbers so a persisted snapshot
// round-trips byte-compatible with what the backend sent. Only canonical
// numbers qualify: an all-digit string id with a leading zero must stay a
// string, since raw 0123 is not valid JSON.
func (id ID) MarshalJSON() ([]byte, error) {
	if isCanonicalNumber(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func isCanonicalNumber(s string) bool {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// User is the authenticated account as reported by the backend. The session
// layer never interprets profile fields beyond the ones named here; unknown
// fields are preserved verbatim so that persisting and rehydrating a user
// snapshot is lossless.
type User struct {
	ID    ID
	Email string
	Name  string
	Role  string
	Admin bool

	extra map[string]json.RawMessage
}

// Known wire keys; everything else lands in the extra set.
const (
	keyUserID    = "id"
	keyUserEmail = "email"
	keyUserName  = "name"
	keyUserRole  = "role"
	keyUserAdmin = "isAdmin"
)

// UnmarshalJSON decodes the named fields and keeps every unrecognized
// profile field for later re-serialization.
func (u *User) UnmarshalJSON(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*u = User{}
	if v, ok := raw[keyUserID]; ok {
		if err := json.Unmarshal(v, &u.ID); err != nil {
			return err
		}
		delete(raw, keyUserID)
	}
	if v, ok := raw[keyUserEmail]; ok {
		if err := json.Unmarshal(v, &u.Email); err != nil {
			return err
		}
		delete(raw, keyUserEmail)
	}
	if v, ok := raw[keyUserName]; ok {
		if err := json.Unmarshal(v, &u.Name); err != nil {
			return err
		}
		delete(raw, keyUserName)
	}
	if v, ok := raw[keyUserRole]; ok {
		if err := json.Unmarshal(v, &u.Role); err != nil {
			return err
		}
		delete(raw, keyUserRole)
	}
	if v, ok := raw[keyUserAdmin]; ok {
		if err := json.Unmarshal(v, &u.Admin); err != nil {
			return err
		}
		delete(raw, keyUserAdmin)
	}

	if len(raw) > 0 {
		u.extra = raw
	}
	return nil
}

// MarshalJSON emits the named fields plus all preserved profile fields.
func (u User) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(u.extra)+5)
	maps.Copy(out, u.extra)

	idRaw, err := u.ID.MarshalJSON()
	if err != nil {
		return nil, err
	}
	out[keyUserID] = idRaw

	for key, val := range map[string]string{
		keyUserEmail: u.Email,
		keyUserName:  u.Name,
		keyUserRole:  u.Role,
	} {
		if val == "" {
			continue
		}
		raw, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		out[key] = raw
	}
	if u.Admin {
		out[keyUserAdmin] = json.RawMessage("true")
	}

	return json.Marshal(out)
}

// IsAdmin reports whether the account is an elevated-privilege account.
// Route guards consume this; the session layer itself never enforces roles.
func (u *User) IsAdmin() bool {
	return u != nil && (u.Admin || u.Role == RoleAdmin)
}

// Extra returns a preserved profile field that the session layer does not
// model, such as avatar URLs or subscription flags.
func (u *User) Extra(key string) (json.RawMessage, bool) {
	if u == nil || u.extra == nil {
		return nil, false
	}
	v, ok := u.extra[key]
	return v, ok
}

// Clone returns a deep copy safe to hand out of the manager.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.extra != nil {
		c.extra = make(map[string]json.RawMessage, len(u.extra))
		maps.Copy(c.extra, u.extra)
	}
	return &c
}

// Credentials is the normalized result of any transport call that
// establishes an authenticated session.
type Credentials struct {
	User  *User
	Token string
}

// SocialPayload carries the provider-issued fragment forwarded to the
// backend's social exchange endpoint. Exactly one of Code, AccessToken or
// IDToken is typically set, depending on the provider flow.
type SocialPayload struct {
	Provider    string `json:"provider"`
	Code        string `json:"code,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
	IDToken     string `json:"idToken,omitempty"`
	RedirectURI string `json:"redirectUri,omitempty"`
}

// Registration is the profile/credential bundle for account creation.
// Password strength is a concern of the caller, not of this layer.
type Registration struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Name     string         `json:"name,omitempty"`
	Extra    map[string]any `json:"-"`
}

// MarshalJSON folds Extra into the top-level object so arbitrary sign-up
// fields reach the backend without schema changes here.
func (r Registration) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+3)
	maps.Copy(out, r.Extra)
	out["email"] = r.Email
	out["password"] = r.Password
	if r.Name != "" {
		out["name"] = r.Name
	}
	return json.Marshal(out)
}

// State is a point-in-time snapshot of the session. Snapshots are values;
// mutating one has no effect on the manager.
type State struct {
	User    *User
	Token   string
	Loading bool
	Err     error
}

// IsAuthenticated reports whether a user is attached to the session. It is
// derived rather than stored, so it can never disagree with User.
func (s State) IsAuthenticated() bool {
	return s.User != nil
}

func knownProvider(p string) bool {
	switch p {
	case ProviderGoogle, ProviderFacebook:
		return true
	}
	return false
}
