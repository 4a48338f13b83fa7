package config

import "time"

// Config holds everything the client kit needs to talk to the roster API
type Config struct {
	// APIBaseURL is the root of the roster API, e.g. "https://api.example.com"
	APIBaseURL string `env:"ROSTER_API_URL,required"`

	// CredentialsFile is where the file-backed credential store lives.
	// Empty selects the in-memory store (session lost on exit).
	CredentialsFile string `env:"ROSTER_CREDENTIALS_FILE"`

	// CredentialsKey optionally encrypts the credential file at rest;
	// must be exactly 32 bytes when set
	CredentialsKey string `env:"ROSTER_CREDENTIALS_KEY"`

	// RedisURL selects the Redis credential store instead of the file
	// store, e.g. "redis://localhost:6379/0"
	RedisURL string `env:"ROSTER_REDIS_URL"`

	// PlacesAPIKey enables the address autocomplete client
	PlacesAPIKey string `env:"GOOGLE_PLACES_API_KEY"`

	// HTTPTimeout bounds individual business API requests
	HTTPTimeout time.Duration `env:"ROSTER_HTTP_TIMEOUT" envDefault:"30s"`
}
