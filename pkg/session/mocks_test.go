package session_test

import (
	"context"
	"sync"

	"github.com/arcanahq/arcana-go/pkg/session"
)

// stubTransport is a controllable session.Transport. Unset call fields
// fail the operation with a generic error so tests only wire what they
// exercise.
type stubTransport struct {
	mu        sync.Mutex
	token     string
	callCount int

	loginFn       func(ctx context.Context, email, password string) (session.Credentials, error)
	loginAdminFn  func(ctx context.Context, email, password string) (session.Credentials, error)
	registerFn    func(ctx context.Context, reg session.Registration) (session.Credentials, error)
	socialFn      func(ctx context.Context, payload session.SocialPayload) (session.Credentials, error)
	currentUserFn func(ctx context.Context) (*session.User, error)
	changePassFn  func(ctx context.Context, current, next string) error
	requestFn     func(ctx context.Context, email string) error
	resetFn       func(ctx context.Context, token, newPassword string) error
}

func (t *stubTransport) record() {
	t.mu.Lock()
	t.callCount++
	t.mu.Unlock()
}

func (t *stubTransport) calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.callCount
}

func (t *stubTransport) authorization() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.token
}

func (t *stubTransport) Login(ctx context.Context, email, password string) (session.Credentials, error) {
	t.record()
	if t.loginFn == nil {
		return session.Credentials{}, session.NewError(session.KindUnknown, "login not stubbed")
	}
	return t.loginFn(ctx, email, password)
}

func (t *stubTransport) LoginAdmin(ctx context.Context, email, password string) (session.Credentials, error) {
	t.record()
	if t.loginAdminFn == nil {
		return session.Credentials{}, session.NewError(session.KindUnknown, "admin login not stubbed")
	}
	return t.loginAdminFn(ctx, email, password)
}

func (t *stubTransport) Register(ctx context.Context, reg session.Registration) (session.Credentials, error) {
	t.record()
	if t.registerFn == nil {
		return session.Credentials{}, session.NewError(session.KindUnknown, "register not stubbed")
	}
	return t.registerFn(ctx, reg)
}

func (t *stubTransport) ExchangeSocial(ctx context.Context, payload session.SocialPayload) (session.Credentials, error) {
	t.record()
	if t.socialFn == nil {
		return session.Credentials{}, session.NewError(session.KindUnknown, "social exchange not stubbed")
	}
	return t.socialFn(ctx, payload)
}

func (t *stubTransport) CurrentUser(ctx context.Context) (*session.User, error) {
	t.record()
	if t.currentUserFn == nil {
		return nil, session.NewError(session.KindUnknown, "current user not stubbed")
	}
	return t.currentUserFn(ctx)
}

func (t *stubTransport) ChangePassword(ctx context.Context, current, next string) error {
	t.record()
	if t.changePassFn == nil {
		return session.NewError(session.KindUnknown, "change password not stubbed")
	}
	return t.changePassFn(ctx, current, next)
}

func (t *stubTransport) RequestPasswordReset(ctx context.Context, email string) error {
	t.record()
	if t.requestFn == nil {
		return session.NewError(session.KindUnknown, "request reset not stubbed")
	}
	return t.requestFn(ctx, email)
}

func (t *stubTransport) ResetPassword(ctx context.Context, token, newPassword string) error {
	t.record()
	if t.resetFn == nil {
		return session.NewError(session.KindUnknown, "reset not stubbed")
	}
	return t.resetFn(ctx, token, newPassword)
}

func (t *stubTransport) SetAuthorization(token string) {
	t.mu.Lock()
	t.token = token
	t.mu.Unlock()
}

// revokingTransport adds the optional Revoker capability.
type revokingTransport struct {
	stubTransport

	revoked chan struct{}
}

func (t *revokingTransport) RevokeSession(ctx context.Context) error {
	close(t.revoked)
	return nil
}

func mustUser(id session.ID, email string) *session.User {
	return &session.User{ID: id, Email: email}
}
