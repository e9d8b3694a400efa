package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Host string `env:"AUTHCORE_HOST" env-default:"localhost"`
	Port uint16 `env:"AUTHCORE_PORT" env-default:"4000"`

	CookieHttpOnly bool `env:"COOKIE_HTTP_ONLY" env-default:"true"`
	CookieSecure   bool `env:"COOKIE_SECURE" env-default:"true"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AppConfig aggregates every component's configuration.
type AppConfig struct {
	Server         ServerConfig
	Db             DbConfig
	Jwt            JwtConfig
	Login          LoginConfig
	PasswordPolicy PasswordPolicyConfig
	Session        SessionConfig
	Totp           TotpConfig
	Email          EmailConfig
}

// Validate checks every section that has consistency rules.
func (c AppConfig) Validate() error {
	if err := c.Jwt.Validate(); err != nil {
		return fmt.Errorf("jwt config: %w", err)
	}
	if err := c.Login.Validate(); err != nil {
		return fmt.Errorf("login config: %w", err)
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session config: %w", err)
	}
	if err := c.Totp.Validate(); err != nil {
		return fmt.Errorf("totp config: %w", err)
	}
	return nil
}

// Load reads an optional .env file, then the environment, and validates the
// result. A missing .env file is not an error.
func Load(envFile string) (AppConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return AppConfig{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	var cfg AppConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}
