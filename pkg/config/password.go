package config

import "fmt"

// PasswordPolicyConfig defines password complexity requirements.
type PasswordPolicyConfig struct {
	MinLength        int  `env:"PASSWORD_MIN_LENGTH" env-default:"8"`
	RequireUppercase bool `env:"PASSWORD_REQUIRE_UPPERCASE" env-default:"true"`
	RequireLowercase bool `env:"PASSWORD_REQUIRE_LOWERCASE" env-default:"true"`
	RequireNumbers   bool `env:"PASSWORD_REQUIRE_NUMBERS" env-default:"true"`
	RequireSpecial   bool `env:"PASSWORD_REQUIRE_SPECIAL" env-default:"false"`
}

// DefaultPasswordPolicyConfig returns a policy with secure defaults.
func DefaultPasswordPolicyConfig() PasswordPolicyConfig {
	return PasswordPolicyConfig{
		MinLength:        8,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireNumbers:   true,
		RequireSpecial:   false,
	}
}

// Validate checks if the password policy is valid.
func (c PasswordPolicyConfig) Validate() error {
	if c.MinLength < 1 {
		return fmt.Errorf("min_length must be at least 1, got %d", c.MinLength)
	}
	return nil
}
