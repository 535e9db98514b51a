package session

import "context"

// Transport abstracts the authentication backend. A REST implementation
// ships in pkg/authapi; tests substitute stubs. Implementations classify
// raw failures (HTTP statuses, timeouts, undecodable bodies) into the
// package's error taxonomy; the manager never inspects transport detail.
type Transport interface {
	// Login authenticates with an email/password pair.
	Login(ctx context.Context, email, password string) (Credentials, error)

	// LoginAdmin authenticates against the back-office endpoint. Role
	// enforcement on the returned user is the caller's concern.
	LoginAdmin(ctx context.Context, email, password string) (Credentials, error)

	// Register creates an account; a successful registration also logs in.
	Register(ctx context.Context, reg Registration) (Credentials, error)

	// ExchangeSocial trades a provider-issued payload for a session.
	ExchangeSocial(ctx context.Context, payload SocialPayload) (Credentials, error)

	// CurrentUser fetches the account behind the current bearer token.
	CurrentUser(ctx context.Context) (*User, error)

	// ChangePassword rotates the password of the authenticated account.
	ChangePassword(ctx context.Context, current, next string) error

	// RequestPasswordReset asks the backend to email a reset link.
	RequestPasswordReset(ctx context.Context, email string) error

	// ResetPassword redeems a reset token for a new password.
	ResetPassword(ctx context.Context, token, newPassword string) error

	// SetAuthorization sets the bearer token attached to subsequent calls
	// on this transport instance. An empty token clears it. The header
	// state belongs to the instance; no global mutation.
	SetAuthorization(token string)
}

// Revoker is an optional transport capability. When present, Logout invokes
// it fire-and-forget; its failure never blocks or fails the local logout.
type Revoker interface {
	RevokeSession(ctx context.Context) error
}
