package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// ErrParsingConfig is returned when environment variables cannot be
	// parsed into the config struct
	ErrParsingConfig = errors.New("config.parsing_failed")

	// ErrNilPointer is returned when a nil pointer is provided to Load
	ErrNilPointer = errors.New("config.nil_pointer")
)

// dotenvOnce loads the .env file at most once per process
var dotenvOnce sync.Once

// Load populates v from environment variables based on its env tags. A
// .env file in the working directory is loaded first when present; a
// missing file is not an error.
func Load[T any](v *T) error {
	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})

	if v == nil {
		return ErrNilPointer
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics on failure, for configuration the
// process cannot start without
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
