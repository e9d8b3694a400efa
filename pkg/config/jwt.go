package config

import (
	"fmt"
	"time"
)

// JwtConfig holds signing configuration for the bearer token issuer. The
// secret is external configuration and is never embedded in code.
type JwtConfig struct {
	Secret   string `env:"JWT_SECRET" env-required:"true"`
	Issuer   string `env:"JWT_ISSUER" env-default:"authcore"`
	Audience string `env:"JWT_AUDIENCE" env-default:"authcore"`

	// AccessTokenExpiry is the bearer token validity (ISO 8601, e.g. "PT1H").
	AccessTokenExpiry string `env:"ACCESS_TOKEN_EXPIRY" env-default:"PT1H"`
}

// ParseAccessTokenExpiry parses AccessTokenExpiry as a time.Duration.
func (c JwtConfig) ParseAccessTokenExpiry() (time.Duration, error) {
	return ParseDuration(c.AccessTokenExpiry)
}

// Validate checks if the JWT configuration is usable.
func (c JwtConfig) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	expiry, err := c.ParseAccessTokenExpiry()
	if err != nil {
		return fmt.Errorf("invalid access_token_expiry: %w", err)
	}
	if expiry <= 0 {
		return fmt.Errorf("access_token_expiry must be positive, got %v", expiry)
	}
	return nil
}
