package config

import "fmt"

// TotpConfig holds TOTP parameters for the MFA engine.
type TotpConfig struct {
	Issuer string `env:"TOTP_ISSUER" env-default:"authcore"`
	Digits int    `env:"TOTP_DIGITS" env-default:"6"`

	// Period is the TOTP time step in seconds.
	Period uint `env:"TOTP_PERIOD" env-default:"30"`

	// Skew is the number of periods accepted before/after the current one to
	// tolerate clock drift between server and authenticator.
	Skew uint `env:"TOTP_SKEW" env-default:"1"`

	// BackupCodeCount is how many single-use backup codes are issued at
	// enrollment.
	BackupCodeCount int `env:"TOTP_BACKUP_CODE_COUNT" env-default:"10"`
}

// DefaultTotpConfig returns RFC 6238 defaults with one period of skew.
func DefaultTotpConfig() TotpConfig {
	return TotpConfig{
		Issuer:          "authcore",
		Digits:          6,
		Period:          30,
		Skew:            1,
		BackupCodeCount: 10,
	}
}

// Validate checks the TOTP parameters.
func (c TotpConfig) Validate() error {
	if c.Digits != 6 && c.Digits != 8 {
		return fmt.Errorf("totp digits must be 6 or 8, got %d", c.Digits)
	}
	if c.Period == 0 {
		return fmt.Errorf("totp period must be positive")
	}
	if c.BackupCodeCount < 1 {
		return fmt.Errorf("backup_code_count must be at least 1, got %d", c.BackupCodeCount)
	}
	return nil
}
