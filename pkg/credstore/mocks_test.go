package credstore_test

import (
	"context"

	"github.com/arcanahq/arcana-go/pkg/session"
)

// staticTransport satisfies session.Transport with canned credentials, just
// enough to drive a manager against a real store.
type staticTransport struct {
	creds session.Credentials
	token string
}

func (t *staticTransport) Login(ctx context.Context, email, password string) (session.Credentials, error) {
	return t.creds, nil
}

func (t *staticTransport) LoginAdmin(ctx context.Context, email, password string) (session.Credentials, error) {
	return t.creds, nil
}

func (t *staticTransport) Register(ctx context.Context, reg session.Registration) (session.Credentials, error) {
	return t.creds, nil
}

func (t *staticTransport) ExchangeSocial(ctx context.Context, payload session.SocialPayload) (session.Credentials, error) {
	return t.creds, nil
}

func (t *staticTransport) CurrentUser(ctx context.Context) (*session.User, error) {
	return t.creds.User, nil
}

func (t *staticTransport) ChangePassword(ctx context.Context, current, next string) error {
	return nil
}

func (t *staticTransport) RequestPasswordReset(ctx context.Context, email string) error {
	return nil
}

func (t *staticTransport) ResetPassword(ctx context.Context, token, newPassword string) error {
	return nil
}

func (t *staticTransport) SetAuthorization(token string) {
	t.token = token
}
