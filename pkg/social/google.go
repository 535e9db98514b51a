package social

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/arcanahq/arcana-go/pkg/session"
)

// GoogleConfig holds configuration for the Google provider.
type GoogleConfig struct {
	ClientID     string   `env:"GOOGLE_OAUTH_CLIENT_ID,required"`
	ClientSecret string   `env:"GOOGLE_OAUTH_CLIENT_SECRET,required"`
	RedirectURL  string   `env:"GOOGLE_OAUTH_REDIRECT_URL,required"`
	Scopes       []string `env:"GOOGLE_OAUTH_SCOPES" envSeparator:"," envDefault:"openid,email,profile"`
}

type googleProvider struct {
	conf *oauth2.Config
}

// NewGoogle creates the Google provider adapter.
func NewGoogle(cfg GoogleConfig) Provider {
	return &googleProvider{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     google.Endpoint,
		},
	}
}

func (p *googleProvider) ID() string {
	return session.ProviderGoogle
}

// AuthCodeURL builds the Google authorization URL with the given state token.
func (p *googleProvider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades the authorization code for the token payload the Arcana
// backend verifies. Google issues an id_token alongside the access token;
// both are forwarded.
func (p *googleProvider) Exchange(ctx context.Context, code string) (session.SocialPayload, error) {
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			// The provider answered and refused the code.
			return session.SocialPayload{}, errors.Join(ErrInvalidCode, err)
		}
		// The exchange produced no usable token; oauth2 rejects a success
		// response with an empty access_token before we ever see it.
		return session.SocialPayload{}, errors.Join(ErrNoAccessToken, err)
	}

	payload := session.SocialPayload{
		Provider:    session.ProviderGoogle,
		AccessToken: tok.AccessToken,
		RedirectURI: p.conf.RedirectURL,
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		payload.IDToken = idToken
	}
	return payload, nil
}

var _ Provider = (*googleProvider)(nil)
