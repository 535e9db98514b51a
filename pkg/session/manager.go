package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/arcanahq/arcana-go/pkg/logger"
)

// operation identifies a transition kind for the staleness guard.
type operation int

const (
	opLogin operation = iota
	opLoginAdmin
	opSocialLogin
	opRegister
	opFetchUser
	opChangePassword
	opRequestReset
	opResetPassword
	opCount
)

// revokeTimeout bounds the fire-and-forget server-side logout call.
const revokeTimeout = 5 * time.Second

// Manager is the single authority over the authenticated-user lifecycle.
// It owns the credential used by the transport and the two persisted keys;
// everything else reads session state through State().
//
// Each operation runs the same transition: mark loading and clear the last
// error, suspend on exactly one transport call, then apply the result. A
// per-operation sequence number discards resolutions that were overtaken by
// a newer call of the same kind, so overlapping invocations cannot clobber
// fresher state; the overtaken caller gets ErrSuperseded.
type Manager struct {
	transport Transport
	store     CredentialStore
	logger    *slog.Logger
	onChange  func(State)

	mu    sync.Mutex
	state State
	seq   [opCount]uint64
}

// New creates a manager bound to the given transport and hydrates it from
// the credential store best-effort: a persisted token is re-attached to the
// transport, a persisted user snapshot restores the authenticated state. A
// corrupt snapshot is dropped, never fatal.
func New(transport Transport, opts ...Option) *Manager {
	if transport == nil {
		// Fail fast on misconfiguration; a manager without a transport
		// cannot perform any transition.
		panic("session: transport is required")
	}

	m := &Manager{
		transport: transport,
		logger:    logger.NewDiscard(),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		m.store = NewMemoryStore()
	}

	m.hydrate(context.Background())

	return m
}

// hydrate restores token and user from the store without any network call.
func (m *Manager) hydrate(ctx context.Context) {
	token, err := m.store.Get(ctx, KeyToken)
	if err == nil && token != "" {
		m.state.Token = token
		m.transport.SetAuthorization(token)
	}

	raw, err := m.store.Get(ctx, KeyUser)
	if err != nil || raw == "" {
		return
	}

	user := new(User)
	if err := json.Unmarshal([]byte(raw), user); err != nil {
		m.logger.Warn("dropping corrupt persisted user snapshot",
			logger.Error(err),
			logger.Component("session"),
		)
		_ = m.store.Remove(ctx, KeyUser)
		return
	}
	m.state.User = user
}

// State returns a snapshot of the current session.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Login authenticates with an email/password pair. On success the user and
// token are set, persisted, and the token is attached to the transport.
// On failure the previous session survives and only Err changes.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return m.rejectInput(opLogin, "email and password are required")
	}
	return m.credentialOp(ctx, opLogin, func(ctx context.Context) (Credentials, error) {
		return m.transport.Login(ctx, email, password)
	})
}

// LoginAdmin authenticates against the back-office endpoint. The manager
// does not verify the returned user's role; route guards do.
func (m *Manager) LoginAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return m.rejectInput(opLoginAdmin, "email and password are required")
	}
	return m.credentialOp(ctx, opLoginAdmin, func(ctx context.Context) (Credentials, error) {
		return m.transport.LoginAdmin(ctx, email, password)
	})
}

// SocialLogin exchanges a provider-issued payload for a session. The
// provider must be one of the supported set.
func (m *Manager) SocialLogin(ctx context.Context, payload SocialPayload) error {
	if !knownProvider(payload.Provider) {
		return m.rejectInput(opSocialLogin, "unsupported provider: "+payload.Provider)
	}
	return m.credentialOp(ctx, opSocialLogin, func(ctx context.Context) (Credentials, error) {
		return m.transport.ExchangeSocial(ctx, payload)
	})
}

// Register creates an account and, on success, logs the new user in.
func (m *Manager) Register(ctx context.Context, reg Registration) error {
	if reg.Email == "" || reg.Password == "" {
		return m.rejectInput(opRegister, "email and password are required")
	}
	return m.credentialOp(ctx, opRegister, func(ctx context.Context) (Credentials, error) {
		return m.transport.Register(ctx, reg)
	})
}

// FetchCurrentUser hydrates the user behind a persisted token. A failure
// (including an expired token) records the error but deliberately keeps the
// existing token and user: transient network trouble must not evict a valid
// session. Route guards decide what a failed refresh means.
func (m *Manager) FetchCurrentUser(ctx context.Context) error {
	seq := m.begin(opFetchUser)

	user, err := m.transport.CurrentUser(ctx)
	if err != nil {
		m.reject(opFetchUser, seq, err)
		return err
	}
	if user == nil {
		err := NewError(KindMalformedResponse, "current-user response missing user")
		m.reject(opFetchUser, seq, err)
		return err
	}

	m.mu.Lock()
	if m.seq[opFetchUser] != seq {
		m.mu.Unlock()
		return ErrSuperseded
	}
	m.persistUser(ctx, user)
	m.state.User = user.Clone()
	m.state.Loading = false
	m.state.Err = nil
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	return nil
}

// Logout clears the session. It is local-only, idempotent and cannot fail:
// in-memory state is reset, both persisted keys are removed and the
// transport's authorization is cleared. If the transport can revoke the
// server-side session, that call is fire-and-forget.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	// Invalidate every in-flight transition so a late resolution cannot
	// resurrect the session after logout.
	for op := range m.seq {
		m.seq[op]++
	}
	m.state = State{}
	if err := m.store.Remove(ctx, KeyToken); err != nil {
		m.logger.Error("failed to remove persisted token", logger.Error(err), logger.Component("session"))
	}
	if err := m.store.Remove(ctx, KeyUser); err != nil {
		m.logger.Error("failed to remove persisted user", logger.Error(err), logger.Component("session"))
	}
	m.transport.SetAuthorization("")
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)

	if revoker, ok := m.transport.(Revoker); ok {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), revokeTimeout)
			defer cancel()
			if err := revoker.RevokeSession(ctx); err != nil {
				m.logger.Debug("server-side session revoke failed",
					logger.Error(err),
					logger.Component("session"),
				)
			}
		}()
	}
}

// ChangePassword rotates the authenticated account's password. It shares
// the loading/error channel but never touches user, token or the store.
func (m *Manager) ChangePassword(ctx context.Context, current, next string) error {
	return m.simpleOp(ctx, opChangePassword, func(ctx context.Context) error {
		return m.transport.ChangePassword(ctx, current, next)
	})
}

// RequestPasswordReset asks the backend to start a reset flow. It neither
// requires nor produces an authenticated session.
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) error {
	return m.simpleOp(ctx, opRequestReset, func(ctx context.Context) error {
		return m.transport.RequestPasswordReset(ctx, email)
	})
}

// ResetPassword redeems a reset token for a new password.
func (m *Manager) ResetPassword(ctx context.Context, token, newPassword string) error {
	return m.simpleOp(ctx, opResetPassword, func(ctx context.Context) error {
		return m.transport.ResetPassword(ctx, token, newPassword)
	})
}

// ClearError dismisses the last error without any other state change.
func (m *Manager) ClearError() {
	m.mu.Lock()
	m.state.Err = nil
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
}

// credentialOp runs a transition whose success establishes a session.
func (m *Manager) credentialOp(ctx context.Context, op operation, call func(context.Context) (Credentials, error)) error {
	seq := m.begin(op)

	creds, err := call(ctx)
	if err != nil {
		m.reject(op, seq, err)
		return err
	}
	if creds.User == nil || creds.Token == "" {
		// A transport must never report success without both fields; treat
		// it as malformed rather than silently authenticating.
		err := NewError(KindMalformedResponse, "auth response missing user or token")
		m.reject(op, seq, err)
		return err
	}

	m.mu.Lock()
	if m.seq[op] != seq {
		m.mu.Unlock()
		m.logger.Debug("discarding stale auth resolution", logger.Component("session"))
		return ErrSuperseded
	}
	user := creds.User.Clone()
	m.persistUser(ctx, user)
	if err := m.store.Set(ctx, KeyToken, creds.Token); err != nil {
		m.logger.Error("failed to persist token", logger.Error(err), logger.Component("session"))
	}
	m.transport.SetAuthorization(creds.Token)
	m.state.User = user
	m.state.Token = creds.Token
	m.state.Loading = false
	m.state.Err = nil
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	return nil
}

// simpleOp runs a transition that only reports success or failure.
func (m *Manager) simpleOp(ctx context.Context, op operation, call func(context.Context) error) error {
	seq := m.begin(op)

	if err := call(ctx); err != nil {
		m.reject(op, seq, err)
		return err
	}

	m.mu.Lock()
	if m.seq[op] != seq {
		m.mu.Unlock()
		return ErrSuperseded
	}
	m.state.Loading = false
	m.state.Err = nil
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	return nil
}

// begin marks the transition pending and returns its sequence number.
func (m *Manager) begin(op operation) uint64 {
	m.mu.Lock()
	m.seq[op]++
	seq := m.seq[op]
	m.state.Loading = true
	m.state.Err = nil
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	return seq
}

// reject records a failure, leaving user and token untouched.
func (m *Manager) reject(op operation, seq uint64, err error) {
	m.mu.Lock()
	if m.seq[op] != seq {
		m.mu.Unlock()
		return
	}
	m.state.Loading = false
	m.state.Err = err
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
}

// rejectInput fails a transition before its network step for bad input.
func (m *Manager) rejectInput(op operation, message string) error {
	err := NewError(KindValidation, message)
	seq := m.begin(op)
	m.reject(op, seq, err)
	return err
}

// persistUser writes the user snapshot through to the store. Callers hold
// the manager lock.
func (m *Manager) persistUser(ctx context.Context, user *User) {
	raw, err := json.Marshal(user)
	if err != nil {
		m.logger.Error("failed to encode user snapshot", logger.Error(err), logger.Component("session"))
		return
	}
	if err := m.store.Set(ctx, KeyUser, string(raw)); err != nil {
		m.logger.Error("failed to persist user snapshot", logger.Error(err), logger.Component("session"))
	}
}

// snapshotLocked copies the state; callers hold the lock.
func (m *Manager) snapshotLocked() State {
	snap := m.state
	snap.User = m.state.User.Clone()
	return snap
}

func (m *Manager) notify(snap State) {
	if m.onChange != nil {
		m.onChange(snap)
	}
}
