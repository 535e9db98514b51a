package social

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"

	"github.com/arcanahq/arcana-go/pkg/session"
)

// FacebookConfig holds configuration for the Facebook provider.
type FacebookConfig struct {
	ClientID     string   `env:"FACEBOOK_OAUTH_CLIENT_ID,required"`
	ClientSecret string   `env:"FACEBOOK_OAUTH_CLIENT_SECRET,required"`
	RedirectURL  string   `env:"FACEBOOK_OAUTH_REDIRECT_URL,required"`
	Scopes       []string `env:"FACEBOOK_OAUTH_SCOPES" envSeparator:"," envDefault:"email,public_profile"`
}

type facebookProvider struct {
	conf *oauth2.Config
}

// NewFacebook creates the Facebook provider adapter.
func NewFacebook(cfg FacebookConfig) Provider {
	return &facebookProvider{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     facebook.Endpoint,
		},
	}
}

func (p *facebookProvider) ID() string {
	return session.ProviderFacebook
}

// AuthCodeURL builds the Facebook authorization URL with the given state token.
func (p *facebookProvider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state)
}

// Exchange trades the authorization code for the access token the Arcana
// backend verifies against the Graph API.
func (p *facebookProvider) Exchange(ctx context.Context, code string) (session.SocialPayload, error) {
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			return session.SocialPayload{}, errors.Join(ErrInvalidCode, err)
		}
		return session.SocialPayload{}, errors.Join(ErrNoAccessToken, err)
	}

	return session.SocialPayload{
		Provider:    session.ProviderFacebook,
		AccessToken: tok.AccessToken,
		RedirectURI: p.conf.RedirectURL,
	}, nil
}

var _ Provider = (*facebookProvider)(nil)
