// Package authapi is the REST+JSON binding of session.Transport for the
// Arcana backend.
//
// A Client owns its own bearer-header state; SetAuthorization mutates the
// instance, never a shared HTTP client. Every response passes through one
// normalization point that accepts both the flat {user, token} and the
// wrapped {data: {user, token}} envelope, and every failure is classified
// into the session error taxonomy: connection-level failures become
// network errors, 401/403 become invalid-credentials or unauthorized
// depending on the endpoint, 409 conflict, 400/422 validation, and a
// response missing required fields is malformed rather than a success.
//
//	var cfg authapi.Config
//	config.MustLoad(&cfg)
//
//	api, err := authapi.New(cfg, authapi.WithLogger(log))
//	if err != nil {
//	    // invalid base URL
//	}
//	mgr := session.New(api)
//
// The client also implements session.Revoker, so Logout triggers a
// best-effort POST /auth/logout.
package authapi
