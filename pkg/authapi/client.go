package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/arcanahq/arcana-go/pkg/logger"
	"github.com/arcanahq/arcana-go/pkg/session"
)

// API endpoints, relative to the configured base URL.
const (
	epLogin          = "/auth/login"
	epAdminLogin     = "/auth/admin/login"
	epRegister       = "/auth/register"
	epSocial         = "/auth/social/" // + provider
	epCurrentUser    = "/auth/me"
	epPasswordChange = "/auth/password/change"
	epPasswordForgot = "/auth/password/forgot"
	epPasswordReset  = "/auth/password/reset"
	epLogout         = "/auth/logout"
)

// Client is the REST+JSON binding of session.Transport. The bearer header
// belongs to the instance and is guarded by a mutex; nothing global is
// mutated.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	logger    *slog.Logger
	userAgent string

	mu    sync.RWMutex
	token string
}

// Option is a functional option for configuring the Client
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client, e.g. to add a
// proxy or instrumented transport. The config timeout is not applied to a
// substituted client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.logger = log
		}
	}
}

// New creates a REST client for the Arcana authentication API.
func New(cfg Config, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("authapi: base URL is required")
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("authapi: invalid base URL %q", cfg.BaseURL)
	}

	c := &Client{
		baseURL:   u,
		logger:    logger.NewDiscard(),
		userAgent: cfg.UserAgent,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = &http.Client{Timeout: cfg.Timeout}
	}
	if c.userAgent == "" {
		c.userAgent = "arcana-go"
	}

	return c, nil
}

// SetAuthorization sets or clears the bearer token attached to subsequent
// calls on this client.
func (c *Client) SetAuthorization(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Login authenticates with an email/password pair.
func (c *Client) Login(ctx context.Context, email, password string) (session.Credentials, error) {
	return c.credentials(ctx, epLogin, credentialsRequest{Email: email, Password: password})
}

// LoginAdmin authenticates against the back-office login endpoint.
func (c *Client) LoginAdmin(ctx context.Context, email, password string) (session.Credentials, error) {
	return c.credentials(ctx, epAdminLogin, credentialsRequest{Email: email, Password: password})
}

// Register creates an account; the backend logs the new user in.
func (c *Client) Register(ctx context.Context, reg session.Registration) (session.Credentials, error) {
	return c.credentials(ctx, epRegister, reg)
}

// ExchangeSocial trades a provider-issued payload for a session.
func (c *Client) ExchangeSocial(ctx context.Context, payload session.SocialPayload) (session.Credentials, error) {
	return c.credentials(ctx, epSocial+url.PathEscape(payload.Provider), payload)
}

// CurrentUser fetches the account behind the attached bearer token.
func (c *Client) CurrentUser(ctx context.Context) (*session.User, error) {
	body, status, err := c.do(ctx, http.MethodGet, epCurrentUser, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.classify(status, body, session.KindUnauthorized)
	}
	return decodeUser(body)
}

// ChangePassword rotates the authenticated account's password.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	return c.message(ctx, epPasswordChange, passwordChangeRequest{Current: current, New: next})
}

// RequestPasswordReset asks the backend to email a reset link.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.message(ctx, epPasswordForgot, passwordForgotRequest{Email: email})
}

// ResetPassword redeems a reset token for a new password.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	return c.message(ctx, epPasswordReset, passwordResetRequest{Token: token, Password: newPassword})
}

// RevokeSession invalidates the server-side session. The session manager
// calls it fire-and-forget during logout.
func (c *Client) RevokeSession(ctx context.Context) error {
	_, status, err := c.do(ctx, http.MethodPost, epLogout, struct{}{})
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("authapi: logout returned status %d", status)
	}
	return nil
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordChangeRequest struct {
	Current string `json:"currentPassword"`
	New     string `json:"newPassword"`
}

type passwordForgotRequest struct {
	Email string `json:"email"`
}

type passwordResetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// credentials POSTs the body and normalizes a {user, token} result.
func (c *Client) credentials(ctx context.Context, path string, reqBody any) (session.Credentials, error) {
	body, status, err := c.do(ctx, http.MethodPost, path, reqBody)
	if err != nil {
		return session.Credentials{}, err
	}
	if status < 200 || status >= 300 {
		return session.Credentials{}, c.classify(status, body, session.KindInvalidCredentials)
	}
	return decodeCredentials(body)
}

// message POSTs the body and expects only an acknowledgement.
func (c *Client) message(ctx context.Context, path string, reqBody any) error {
	body, status, err := c.do(ctx, http.MethodPost, path, reqBody)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return c.classify(status, body, session.KindUnauthorized)
	}
	return nil
}

// do performs a single round-trip. Transport-level failures (refused
// connection, timeout, canceled context) come back as network errors; the
// caller classifies everything that produced a status code.
func (c *Client) do(ctx context.Context, method, path string, reqBody any) ([]byte, int, error) {
	var payload io.Reader
	if reqBody != nil {
		raw, err := json.Marshal(reqBody)
		if err != nil {
			return nil, 0, fmt.Errorf("authapi: encode request: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, payload)
	if err != nil {
		return nil, 0, fmt.Errorf("authapi: build request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			logger.Endpoint(path),
			logger.RequestID(requestID),
			logger.Error(err),
			logger.Component("authapi"),
		)
		return nil, 0, session.NewError(session.KindNetworkUnreachable, "no response from server: "+err.Error())
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, session.NewError(session.KindNetworkUnreachable, "reading response: "+err.Error())
	}

	c.logger.Debug("request completed",
		logger.Endpoint(path),
		logger.RequestID(requestID),
		logger.Status(resp.StatusCode),
		logger.Component("authapi"),
	)

	return body, resp.StatusCode, nil
}

// classify maps a non-2xx status onto the session error taxonomy. kind401
// distinguishes a rejected password (login endpoints) from a rejected
// bearer token (authenticated endpoints).
func (c *Client) classify(status int, body []byte, kind401 session.Kind) error {
	msg := serverMessage(body)

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return session.NewError(kind401, msg)
	case http.StatusConflict:
		return session.NewError(session.KindConflict, msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return session.NewError(session.KindValidation, msg)
	default:
		if msg == "" {
			msg = fmt.Sprintf("unexpected status %d", status)
		}
		return session.NewError(session.KindUnknown, msg)
	}
}

var _ session.Transport = (*Client)(nil)
var _ session.Revoker = (*Client)(nil)
