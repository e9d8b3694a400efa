package config

import (
	"fmt"
	"time"
)

// LoginConfig contains brute-force lockout settings.
type LoginConfig struct {
	// MaxFailedAttempts is the number of failed login attempts before lockout.
	MaxFailedAttempts int `env:"LOGIN_MAX_FAILED_ATTEMPTS" env-default:"5"`

	// AlertThreshold is the failed-attempt count that triggers an early
	// security alert. Must not exceed MaxFailedAttempts.
	AlertThreshold int `env:"LOGIN_ALERT_THRESHOLD" env-default:"3"`

	// LockoutDuration is how long an account stays locked after exceeding
	// MaxFailedAttempts (ISO 8601 format, e.g. "PT30M").
	LockoutDuration string `env:"LOGIN_LOCKOUT_DURATION" env-default:"PT30M"`
}

// DefaultLoginConfig returns a LoginConfig with sensible defaults.
func DefaultLoginConfig() LoginConfig {
	return LoginConfig{
		MaxFailedAttempts: 5,
		AlertThreshold:    3,
		LockoutDuration:   "PT30M",
	}
}

// ParseLockoutDuration parses the LockoutDuration field as a time.Duration.
func (c LoginConfig) ParseLockoutDuration() (time.Duration, error) {
	return ParseDuration(c.LockoutDuration)
}

// Validate checks if the configuration is consistent.
func (c LoginConfig) Validate() error {
	if c.MaxFailedAttempts < 1 {
		return fmt.Errorf("max_failed_attempts must be at least 1, got %d", c.MaxFailedAttempts)
	}
	if c.AlertThreshold < 1 || c.AlertThreshold > c.MaxFailedAttempts {
		return fmt.Errorf("alert_threshold must be between 1 and max_failed_attempts (%d), got %d",
			c.MaxFailedAttempts, c.AlertThreshold)
	}
	if _, err := c.ParseLockoutDuration(); err != nil {
		return fmt.Errorf("invalid lockout_duration: %w", err)
	}
	return nil
}
