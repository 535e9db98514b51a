// Package social provides OAuth2 code-flow adapters for the supported
// identity providers. An adapter exchanges the authorization code the
// browser hands back for the provider-issued token payload; the Arcana
// backend does the actual identity resolution, so adapters never call
// provider profile APIs.
//
//	var cfg social.GoogleConfig
//	config.MustLoad(&cfg)
//
//	google := social.NewGoogle(cfg)
//	// redirect the user to google.AuthCodeURL(state) ...
//	payload, err := google.Exchange(ctx, code)
//	if err == nil {
//	    err = mgr.SocialLogin(ctx, payload)
//	}
package social
