package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanahq/arcana-go/pkg/session"
)

// snapshotRecorder collects every published state so tests can assert the
// authenticated/user invariant across whole transition sequences.
type snapshotRecorder struct {
	mu    sync.Mutex
	snaps []session.State
}

func (r *snapshotRecorder) record(s session.State) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
}

func (r *snapshotRecorder) assertInvariant(t *testing.T) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.snaps {
		assert.Equal(t, s.User != nil, s.IsAuthenticated(), "snapshot %d", i)
	}
}

func okLogin(user *session.User, token string) func(context.Context, string, string) (session.Credentials, error) {
	return func(ctx context.Context, email, password string) (session.Credentials, error) {
		return session.Credentials{User: user, Token: token}, nil
	}
}

func TestManager_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success sets state, store and authorization", func(t *testing.T) {
		transport := &stubTransport{loginFn: okLogin(mustUser("1", "a@b.com"), "T1")}
		store := session.NewMemoryStore()
		rec := &snapshotRecorder{}
		mgr := session.New(transport,
			session.WithStore(store),
			session.WithOnChange(rec.record),
		)

		err := mgr.Login(ctx, "a@b.com", "pw")
		require.NoError(t, err)

		st := mgr.State()
		assert.True(t, st.IsAuthenticated())
		assert.Equal(t, session.ID("1"), st.User.ID)
		assert.Equal(t, "T1", st.Token)
		assert.False(t, st.Loading)
		assert.NoError(t, st.Err)

		token, err := store.Get(ctx, session.KeyToken)
		require.NoError(t, err)
		assert.Equal(t, "T1", token)

		raw, err := store.Get(ctx, session.KeyUser)
		require.NoError(t, err)
		persisted := new(session.User)
		require.NoError(t, json.Unmarshal([]byte(raw), persisted))
		assert.Equal(t, "a@b.com", persisted.Email)

		assert.Equal(t, "T1", transport.authorization())
		rec.assertInvariant(t)
	})

	t.Run("failure keeps prior session and records error", func(t *testing.T) {
		transport := &stubTransport{loginFn: okLogin(mustUser("1", "a@b.com"), "T1")}
		store := session.NewMemoryStore()
		mgr := session.New(transport, session.WithStore(store))
		require.NoError(t, mgr.Login(ctx, "a@b.com", "pw"))

		transport.loginFn = func(ctx context.Context, email, password string) (session.Credentials, error) {
			return session.Credentials{}, session.NewError(session.KindInvalidCredentials, "Invalid credentials")
		}

		err := mgr.Login(ctx, "a@b.com", "wrong")
		require.Error(t, err)
		assert.ErrorIs(t, err, session.ErrInvalidCredentials)

		st := mgr.State()
		assert.True(t, st.IsAuthenticated())
		assert.Equal(t, "T1", st.Token)
		assert.False(t, st.Loading)
		assert.EqualError(t, st.Err, "Invalid credentials")
	})

	t.Run("missing user or token is malformed, not a silent success", func(t *testing.T) {
		transport := &stubTransport{
			loginFn: func(ctx context.Context, email, password string) (session.Credentials, error) {
				return session.Credentials{Token: "T1"}, nil
			},
		}
		mgr := session.New(transport)

		err := mgr.Login(ctx, "a@b.com", "pw")
		assert.ErrorIs(t, err, session.ErrMalformedResponse)
		assert.False(t, mgr.State().IsAuthenticated())
	})

	t.Run("empty input fails without a network call", func(t *testing.T) {
		transport := &stubTransport{}
		mgr := session.New(transport)

		err := mgr.Login(ctx, "", "pw")
		assert.ErrorIs(t, err, session.ErrValidation)
		assert.Equal(t, 0, transport.calls())
	})

	t.Run("overlapping logins resolve to the newest call", func(t *testing.T) {
		gate := make(chan struct{})
		transport := &stubTransport{}
		transport.loginFn = func(ctx context.Context, email, password string) (session.Credentials, error) {
			if email == "slow@b.com" {
				<-gate
				return session.Credentials{User: mustUser("1", email), Token: "STALE"}, nil
			}
			return session.Credentials{User: mustUser("2", email), Token: "FRESH"}, nil
		}
		mgr := session.New(transport)

		var slowErr error
		done := make(chan struct{})
		go func() {
			defer close(done)
			slowErr = mgr.Login(ctx, "slow@b.com", "pw")
		}()

		// Wait for the first call to reach the transport.
		require.Eventually(t, func() bool { return transport.calls() == 1 }, time.Second, time.Millisecond)

		require.NoError(t, mgr.Login(ctx, "fast@b.com", "pw"))
		close(gate)
		<-done

		assert.ErrorIs(t, slowErr, session.ErrSuperseded)

		st := mgr.State()
		assert.Equal(t, "FRESH", st.Token)
		assert.Equal(t, session.ID("2"), st.User.ID)
		assert.Equal(t, "FRESH", transport.authorization())
		assert.NoError(t, st.Err, "a discarded resolution must not surface in state")
	})
}

func TestManager_LoginAdmin(t *testing.T) {
	ctx := context.Background()

	transport := &stubTransport{
		loginAdminFn: func(ctx context.Context, email, password string) (session.Credentials, error) {
			return session.Credentials{
				User:  &session.User{ID: "9", Email: email, Role: session.RoleAdmin},
				Token: "ADMIN",
			}, nil
		},
	}
	mgr := session.New(transport)

	require.NoError(t, mgr.LoginAdmin(ctx, "root@b.com", "pw"))

	st := mgr.State()
	assert.True(t, st.IsAuthenticated())
	assert.True(t, st.User.IsAdmin())
	assert.Equal(t, "ADMIN", st.Token)
}

func TestManager_SocialLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("forwards payload and establishes session", func(t *testing.T) {
		var got session.SocialPayload
		transport := &stubTransport{
			socialFn: func(ctx context.Context, payload session.SocialPayload) (session.Credentials, error) {
				got = payload
				return session.Credentials{User: mustUser("42", "s@b.com"), Token: "SOC"}, nil
			},
		}
		mgr := session.New(transport)

		err := mgr.SocialLogin(ctx, session.SocialPayload{
			Provider:    session.ProviderGoogle,
			AccessToken: "provider-token",
		})
		require.NoError(t, err)
		assert.Equal(t, session.ProviderGoogle, got.Provider)
		assert.Equal(t, "SOC", mgr.State().Token)
	})

	t.Run("rejects unsupported provider without a network call", func(t *testing.T) {
		transport := &stubTransport{}
		mgr := session.New(transport)

		err := mgr.SocialLogin(ctx, session.SocialPayload{Provider: "myspace"})
		assert.ErrorIs(t, err, session.ErrValidation)
		assert.Equal(t, 0, transport.calls())
	})
}

func TestManager_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success logs the new user in", func(t *testing.T) {
		transport := &stubTransport{
			registerFn: func(ctx context.Context, reg session.Registration) (session.Credentials, error) {
				return session.Credentials{User: mustUser("7", reg.Email), Token: "NEW"}, nil
			},
		}
		store := session.NewMemoryStore()
		mgr := session.New(transport, session.WithStore(store))

		err := mgr.Register(ctx, session.Registration{Email: "n@b.com", Password: "pw", Name: "Nova"})
		require.NoError(t, err)

		st := mgr.State()
		assert.True(t, st.IsAuthenticated())
		assert.Equal(t, "NEW", st.Token)

		token, err := store.Get(ctx, session.KeyToken)
		require.NoError(t, err)
		assert.Equal(t, "NEW", token)
	})

	t.Run("acknowledgement without credentials is malformed", func(t *testing.T) {
		transport := &stubTransport{
			registerFn: func(ctx context.Context, reg session.Registration) (session.Credentials, error) {
				// Mimics a backend answering {"status":"ok"}.
				return session.Credentials{}, nil
			},
		}
		mgr := session.New(transport)

		err := mgr.Register(ctx, session.Registration{Email: "n@b.com", Password: "pw"})
		assert.ErrorIs(t, err, session.ErrMalformedResponse)
		assert.False(t, mgr.State().IsAuthenticated())
	})

	t.Run("conflict surfaces as such", func(t *testing.T) {
		transport := &stubTransport{
			registerFn: func(ctx context.Context, reg session.Registration) (session.Credentials, error) {
				return session.Credentials{}, session.NewError(session.KindConflict, "email taken")
			},
		}
		mgr := session.New(transport)

		err := mgr.Register(ctx, session.Registration{Email: "n@b.com", Password: "pw"})
		assert.ErrorIs(t, err, session.ErrConflict)
	})
}

func TestManager_FetchCurrentUser(t *testing.T) {
	ctx := context.Background()

	t.Run("hydrates user and keeps token", func(t *testing.T) {
		store := session.NewMemoryStore()
		require.NoError(t, store.Set(ctx, session.KeyToken, "T1"))

		transport := &stubTransport{
			currentUserFn: func(ctx context.Context) (*session.User, error) {
				return mustUser("1", "a@b.com"), nil
			},
		}
		mgr := session.New(transport, session.WithStore(store))

		// Token was rehydrated but no user yet.
		st := mgr.State()
		require.Equal(t, "T1", st.Token)
		require.False(t, st.IsAuthenticated())

		require.NoError(t, mgr.FetchCurrentUser(ctx))

		st = mgr.State()
		assert.True(t, st.IsAuthenticated())
		assert.Equal(t, "T1", st.Token)

		raw, err := store.Get(ctx, session.KeyUser)
		require.NoError(t, err)
		assert.Contains(t, raw, "a@b.com")
	})

	t.Run("unauthorized failure does not evict the session", func(t *testing.T) {
		transport := &stubTransport{loginFn: okLogin(mustUser("1", "a@b.com"), "T1")}
		store := session.NewMemoryStore()
		mgr := session.New(transport, session.WithStore(store))
		require.NoError(t, mgr.Login(ctx, "a@b.com", "pw"))

		transport.currentUserFn = func(ctx context.Context) (*session.User, error) {
			return nil, session.NewError(session.KindUnauthorized, "token expired")
		}

		err := mgr.FetchCurrentUser(ctx)
		assert.ErrorIs(t, err, session.ErrUnauthorized)

		st := mgr.State()
		assert.True(t, st.IsAuthenticated())
		assert.Equal(t, "T1", st.Token)

		token, err := store.Get(ctx, session.KeyToken)
		require.NoError(t, err)
		assert.Equal(t, "T1", token)
	})
}

func TestManager_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("clears state, store and authorization", func(t *testing.T) {
		transport := &stubTransport{loginFn: okLogin(mustUser("1", "a@b.com"), "T1")}
		store := session.NewMemoryStore()
		mgr := session.New(transport, session.WithStore(store))
		require.NoError(t, mgr.Login(ctx, "a@b.com", "pw"))

		mgr.Logout(ctx)

		st := mgr.State()
		assert.False(t, st.IsAuthenticated())
		assert.Nil(t, st.User)
		assert.Empty(t, st.Token)
		assert.NoError(t, st.Err)

		_, err := store.Get(ctx, session.KeyToken)
		assert.ErrorIs(t, err, session.ErrCredentialNotFound)
		_, err = store.Get(ctx, session.KeyUser)
		assert.ErrorIs(t, err, session.ErrCredentialNotFound)

		assert.Empty(t, transport.authorization())
	})

	t.Run("idempotent when already logged out", func(t *testing.T) {
		mgr := session.New(&stubTransport{})

		mgr.Logout(ctx)
		mgr.Logout(ctx)

		assert.False(t, mgr.State().IsAuthenticated())
	})

	t.Run("invalidates an in-flight login", func(t *testing.T) {
		gate := make(chan struct{})
		transport := &stubTransport{
			loginFn: func(ctx context.Context, email, password string) (session.Credentials, error) {
				<-gate
				return session.Credentials{User: mustUser("1", email), Token: "LATE"}, nil
			},
		}
		mgr := session.New(transport)

		var loginErr error
		done := make(chan struct{})
		go func() {
			defer close(done)
			loginErr = mgr.Login(ctx, "a@b.com", "pw")
		}()
		require.Eventually(t, func() bool { return transport.calls() == 1 }, time.Second, time.Millisecond)

		mgr.Logout(ctx)
		close(gate)
		<-done

		assert.ErrorIs(t, loginErr, session.ErrSuperseded)

		st := mgr.State()
		assert.False(t, st.IsAuthenticated())
		assert.Empty(t, st.Token)
	})

	t.Run("fires server-side revoke without blocking", func(t *testing.T) {
		transport := &revokingTransport{revoked: make(chan struct{})}
		transport.loginFn = okLogin(mustUser("1", "a@b.com"), "T1")
		mgr := session.New(transport)
		require.NoError(t, mgr.Login(ctx, "a@b.com", "pw"))

		mgr.Logout(ctx)

		select {
		case <-transport.revoked:
		case <-time.After(time.Second):
			t.Fatal("revoke was never called")
		}
	})
}

func TestManager_PasswordOperations(t *testing.T) {
	ctx := context.Background()

	t.Run("change password leaves identity untouched", func(t *testing.T) {
		transport := &stubTransport{loginFn: okLogin(mustUser("1", "a@b.com"), "T1")}
		transport.changePassFn = func(ctx context.Context, current, next string) error { return nil }
		mgr := session.New(transport)
		require.NoError(t, mgr.Login(ctx, "a@b.com", "pw"))

		require.NoError(t, mgr.ChangePassword(ctx, "pw", "pw2"))

		st := mgr.State()
		assert.True(t, st.IsAuthenticated())
		assert.Equal(t, "T1", st.Token)
		assert.False(t, st.Loading)
		assert.NoError(t, st.Err)
	})

	t.Run("change password failure uses the shared error channel", func(t *testing.T) {
		transport := &stubTransport{loginFn: okLogin(mustUser("1", "a@b.com"), "T1")}
		transport.changePassFn = func(ctx context.Context, current, next string) error {
			return session.NewError(session.KindInvalidCredentials, "wrong password")
		}
		mgr := session.New(transport)
		require.NoError(t, mgr.Login(ctx, "a@b.com", "pw"))

		err := mgr.ChangePassword(ctx, "bad", "pw2")
		assert.ErrorIs(t, err, session.ErrInvalidCredentials)

		st := mgr.State()
		assert.True(t, st.IsAuthenticated())
		assert.EqualError(t, st.Err, "wrong password")
	})

	t.Run("reset flow needs no session", func(t *testing.T) {
		transport := &stubTransport{
			requestFn: func(ctx context.Context, email string) error { return nil },
			resetFn:   func(ctx context.Context, token, newPassword string) error { return nil },
		}
		mgr := session.New(transport)

		require.NoError(t, mgr.RequestPasswordReset(ctx, "a@b.com"))
		require.NoError(t, mgr.ResetPassword(ctx, "reset-token", "pw2"))
		assert.False(t, mgr.State().IsAuthenticated())
	})
}

func TestManager_Rehydration(t *testing.T) {
	ctx := context.Background()

	t.Run("round-trips a session across restarts without network", func(t *testing.T) {
		store := session.NewMemoryStore()

		first := &stubTransport{loginFn: okLogin(mustUser("1", "a@b.com"), "T1")}
		mgr := session.New(first, session.WithStore(store))
		require.NoError(t, mgr.Login(ctx, "a@b.com", "pw"))

		// Simulated restart: a fresh manager over the same store.
		second := &stubTransport{}
		restarted := session.New(second, session.WithStore(store))

		st := restarted.State()
		assert.True(t, st.IsAuthenticated())
		assert.Equal(t, session.ID("1"), st.User.ID)
		assert.Equal(t, "a@b.com", st.User.Email)
		assert.Equal(t, "T1", st.Token)
		assert.Equal(t, "T1", second.authorization())
		assert.Equal(t, 0, second.calls())
	})

	t.Run("persists users with non-canonical string ids", func(t *testing.T) {
		store := session.NewMemoryStore()

		first := &stubTransport{loginFn: okLogin(mustUser("0123", "z@b.com"), "T9")}
		mgr := session.New(first, session.WithStore(store))
		require.NoError(t, mgr.Login(ctx, "z@b.com", "pw"))

		restarted := session.New(&stubTransport{}, session.WithStore(store))

		st := restarted.State()
		require.True(t, st.IsAuthenticated())
		assert.Equal(t, session.ID("0123"), st.User.ID)
	})

	t.Run("corrupt persisted user is dropped, token kept", func(t *testing.T) {
		store := session.NewMemoryStore()
		require.NoError(t, store.Set(ctx, session.KeyToken, "T1"))
		require.NoError(t, store.Set(ctx, session.KeyUser, "{not json"))

		mgr := session.New(&stubTransport{}, session.WithStore(store))

		st := mgr.State()
		assert.False(t, st.IsAuthenticated())
		assert.Equal(t, "T1", st.Token)

		_, err := store.Get(ctx, session.KeyUser)
		assert.ErrorIs(t, err, session.ErrCredentialNotFound)
	})
}

func TestManager_ClearError(t *testing.T) {
	ctx := context.Background()

	transport := &stubTransport{
		loginFn: func(ctx context.Context, email, password string) (session.Credentials, error) {
			return session.Credentials{}, session.NewError(session.KindInvalidCredentials, "nope")
		},
	}
	mgr := session.New(transport)

	require.Error(t, mgr.Login(ctx, "a@b.com", "pw"))
	require.Error(t, mgr.State().Err)

	mgr.ClearError()
	assert.NoError(t, mgr.State().Err)
}

func TestManager_PanicsWithoutTransport(t *testing.T) {
	assert.Panics(t, func() {
		session.New(nil)
	})
}

func TestManager_SnapshotIsolation(t *testing.T) {
	ctx := context.Background()

	transport := &stubTransport{loginFn: okLogin(mustUser("1", "a@b.com"), "T1")}
	mgr := session.New(transport)
	require.NoError(t, mgr.Login(ctx, "a@b.com", "pw"))

	st := mgr.State()
	st.User.Email = "mutated@b.com"

	assert.Equal(t, "a@b.com", mgr.State().User.Email)
}

func TestManager_ErrorClearedOnNextTransition(t *testing.T) {
	ctx := context.Background()

	attempt := 0
	transport := &stubTransport{}
	transport.loginFn = func(ctx context.Context, email, password string) (session.Credentials, error) {
		attempt++
		if attempt == 1 {
			return session.Credentials{}, session.NewError(session.KindInvalidCredentials, "nope")
		}
		return session.Credentials{User: mustUser("1", email), Token: "T1"}, nil
	}

	var sawClearedError bool
	mgr := session.New(transport, session.WithOnChange(func(s session.State) {
		if s.Loading && s.Err == nil {
			sawClearedError = true
		}
	}))

	require.Error(t, mgr.Login(ctx, "a@b.com", "pw"))
	sawClearedError = false
	require.NoError(t, mgr.Login(ctx, "a@b.com", "pw"))

	assert.True(t, sawClearedError, "pending edge must clear the previous error")
	assert.NoError(t, mgr.State().Err)
}

func TestManager_UnknownErrorsPassThrough(t *testing.T) {
	ctx := context.Background()

	raw := errors.New("backend exploded")
	transport := &stubTransport{
		loginFn: func(ctx context.Context, email, password string) (session.Credentials, error) {
			return session.Credentials{}, raw
		},
	}
	mgr := session.New(transport)

	err := mgr.Login(ctx, "a@b.com", "pw")
	assert.ErrorIs(t, err, raw)
	assert.Equal(t, session.KindUnknown, session.KindOf(mgr.State().Err))
}
