// Package config loads the client kit's configuration from environment
// variables, with optional .env file support for development.
//
// Load parses env tags on any struct via caarlos0/env; Config is the
// canonical struct for the kit itself.
//
//	var cfg config.Config
//	if err := config.Load(&cfg); err != nil {
//	    // handle error
//	}
package config
