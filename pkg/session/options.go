package session

import "log/slog"

// Option is a functional option for configuring the Manager
type Option func(*Manager)

// WithStore sets the persisted credential store. Defaults to an in-memory
// store when omitted.
func WithStore(store CredentialStore) Option {
	return func(m *Manager) {
		if store != nil {
			m.store = store
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.logger = log
		}
	}
}

// WithOnChange registers a hook invoked synchronously with a state snapshot
// after every transition edge. UI layers use it to re-render; the hook must
// not call back into the Manager.
func WithOnChange(fn func(State)) Option {
	return func(m *Manager) {
		m.onChange = fn
	}
}
