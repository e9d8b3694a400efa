package config

import (
	"fmt"
	"time"
)

// SessionConfig controls session lifetimes.
type SessionConfig struct {
	// DefaultExpiry is the absolute session lifetime without "remember me"
	// (ISO 8601, e.g. "PT12H").
	DefaultExpiry string `env:"SESSION_DEFAULT_EXPIRY" env-default:"PT12H"`

	// RememberMeExpiry is the absolute session lifetime with "remember me"
	// (ISO 8601, e.g. "P30D").
	RememberMeExpiry string `env:"SESSION_REMEMBER_ME_EXPIRY" env-default:"P30D"`
}

// DefaultSessionConfig returns session lifetimes matching typical cookie use.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		DefaultExpiry:    "PT12H",
		RememberMeExpiry: "P30D",
	}
}

// ParseDefaultExpiry parses DefaultExpiry as a time.Duration.
func (c SessionConfig) ParseDefaultExpiry() (time.Duration, error) {
	return ParseDuration(c.DefaultExpiry)
}

// ParseRememberMeExpiry parses RememberMeExpiry as a time.Duration.
func (c SessionConfig) ParseRememberMeExpiry() (time.Duration, error) {
	return ParseDuration(c.RememberMeExpiry)
}

// Validate checks that both expiries parse and are positive.
func (c SessionConfig) Validate() error {
	def, err := c.ParseDefaultExpiry()
	if err != nil {
		return fmt.Errorf("invalid default_expiry: %w", err)
	}
	remember, err := c.ParseRememberMeExpiry()
	if err != nil {
		return fmt.Errorf("invalid remember_me_expiry: %w", err)
	}
	if def <= 0 || remember <= 0 {
		return fmt.Errorf("session expiries must be positive")
	}
	return nil
}
