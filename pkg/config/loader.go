package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Validator is implemented by config structs that check their own
// invariants after parsing.
type Validator interface {
	Validate() error
}

// Load parses environment variables into cfg, which must be a pointer to a
// struct with `env` tags. If cfg implements Validator, Validate runs after
// a successful parse.
//
//	type Config struct {
//	    Port     int    `env:"HTTP_PORT" envDefault:"8080"`
//	    LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if v, ok := cfg.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}
	return nil
}
