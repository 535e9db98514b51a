// Package session owns the client-side authenticated-user lifecycle for
// the Arcana API: credentials in, token and user snapshot persisted,
// current state exposed to the rest of the application, logout clears
// everything.
//
// A Manager composes two injected collaborators. A Transport performs the
// network calls (pkg/authapi ships the REST binding) and classifies raw
// failures into this package's error taxonomy. A CredentialStore is
// durable key-value storage for exactly two keys, the bearer token and the
// serialized user snapshot (pkg/credstore ships file- and Redis-backed
// implementations; an in-memory store is the default).
//
// # Transitions
//
// Every operation is the same three-step transition: mark loading and
// clear the last error, suspend on a single transport call, then apply the
// result. Success writes through to the store and attaches the token to
// the transport before the new state is published, so persisted and
// in-memory state converge. Failure records the normalized error and
// leaves the prior session untouched.
//
// Overlapping calls of the same operation are resolved last-caller-wins: a
// monotonic sequence number per operation kind discards resolutions that
// were overtaken by a newer call, and Logout invalidates everything still
// in flight. An overtaken call returns ErrSuperseded; the session state it
// observes afterwards is the newer call's.
//
// # Usage
//
//	api, _ := authapi.New(authapi.Config{BaseURL: "https://api.arcana.app"})
//	mgr := session.New(api,
//	    session.WithStore(fileStore),
//	    session.WithLogger(log),
//	)
//
//	if err := mgr.Login(ctx, email, password); err != nil {
//	    // err wraps one of the package sentinels; errors.Is works.
//	}
//
//	st := mgr.State()
//	if st.IsAuthenticated() && st.User.IsAdmin() {
//	    // show back-office entry
//	}
//
// After a restart, a persisted token is rehydrated without a network call;
// call FetchCurrentUser to refresh the user behind it. A failed refresh
// records the error but never evicts the session; that policy decision
// belongs to the caller.
//
// # Error Handling
//
// Transports classify failures into sentinel errors (ErrInvalidCredentials,
// ErrConflict, ErrValidation, ErrNetworkUnreachable, ErrMalformedResponse,
// ErrUnauthorized); the *Error type carries the kind plus the backend's
// message and unwraps onto the sentinels. The last error stays in State.Err
// until the next transition starts or ClearError is called.
package session
