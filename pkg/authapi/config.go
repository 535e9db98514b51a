package authapi

import "time"

// Config holds the REST client configuration
type Config struct {
	// BaseURL is the root of the Arcana API, e.g. "https://api.arcana.app"
	BaseURL string `env:"ARCANA_API_BASE_URL,required"`

	// Timeout bounds every request; surfaced as a network error on expiry
	Timeout time.Duration `env:"ARCANA_API_TIMEOUT" envDefault:"15s"`

	UserAgent string `env:"ARCANA_API_USER_AGENT" envDefault:"arcana-go"`
}
