// Package twofa implements TOTP-based multi-factor authentication with
// single-use backup codes. MFA state lives on the credential record; the
// per-credential machine is disabled → provisioning → enabled, where
// provisioning is transient and nothing is persisted until enrollment is
// verified.
package twofa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/verisafe/authcore/pkg/config"
	"github.com/verisafe/authcore/pkg/credential"
	"github.com/verisafe/authcore/pkg/login"
)

var (
	ErrMfaNotEnabled         = errors.New("mfa not enabled")
	ErrMfaAlreadyEnabled     = errors.New("mfa already enabled")
	ErrMfaVerificationFailed = errors.New("mfa verification failed")
	ErrPasswordConfirmFailed = errors.New("password confirmation failed")
)

var digitsOnlyRegex = regexp.MustCompile(`^[0-9]+$`)

// Params are the resolved TOTP parameters shared by provisioning and
// verification.
type Params struct {
	Issuer          string
	Digits          otp.Digits
	Period          uint
	Skew            uint
	BackupCodeCount int
}

// ParamsFromConfig resolves the env-driven TOTP config.
func ParamsFromConfig(cfg config.TotpConfig) (Params, error) {
	if err := cfg.Validate(); err != nil {
		return Params{}, fmt.Errorf("invalid totp config: %w", err)
	}
	digits := otp.DigitsSix
	if cfg.Digits == 8 {
		digits = otp.DigitsEight
	}
	return Params{
		Issuer:          cfg.Issuer,
		Digits:          digits,
		Period:          cfg.Period,
		Skew:            cfg.Skew,
		BackupCodeCount: cfg.BackupCodeCount,
	}, nil
}

// SetupResult is returned in full exactly once: the secret and raw backup
// codes are not retrievable again.
type SetupResult struct {
	Secret          string
	ProvisioningURI string
	BackupCodes     []string
}

// Service implements MFA enrollment, verification and teardown.
type Service struct {
	repo      credential.Repository
	passwords *login.PasswordManager
	params    Params
}

// NewService creates a new MFA service
func NewService(repo credential.Repository, passwords *login.PasswordManager, params Params) *Service {
	return &Service{
		repo:      repo,
		passwords: passwords,
		params:    params,
	}
}

// Setup generates a fresh shared secret, an otpauth:// provisioning URI and a
// set of single-use backup codes. Nothing is persisted: enrollment only takes
// effect when Enable verifies a code for this secret.
func (s *Service) Setup(ctx context.Context, userID uuid.UUID) (SetupResult, error) {
	cred, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return SetupResult{}, fmt.Errorf("failed to load credential: %w", err)
	}
	if cred.MfaEnabled {
		return SetupResult{}, ErrMfaAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.params.Issuer,
		AccountName: cred.Email,
		Period:      s.params.Period,
		Digits:      s.params.Digits,
	})
	if err != nil {
		return SetupResult{}, fmt.Errorf("failed to generate totp secret: %w", err)
	}

	backupCodes, err := GenerateBackupCodes(s.params.BackupCodeCount)
	if err != nil {
		return SetupResult{}, err
	}

	return SetupResult{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
		BackupCodes:     backupCodes,
	}, nil
}

// Enable verifies submittedCode against the provisioning secret and, only on
// success, persists the secret, the hashed backup codes and the enabled flag
// in one write. A wrong code leaves the credential untouched — no partial
// enrollment state.
func (s *Service) Enable(ctx context.Context, userID uuid.UUID, secret string, backupCodes []string, submittedCode string, now time.Time) error {
	cred, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load credential: %w", err)
	}
	if cred.MfaEnabled {
		return ErrMfaAlreadyEnabled
	}

	valid, err := s.validateCode(submittedCode, secret, now)
	if err != nil {
		return err
	}
	if !valid {
		return ErrMfaVerificationFailed
	}

	err = s.repo.EnableMfa(ctx, userID, credential.MfaEnrollment{
		Secret:            secret,
		BackupCodeDigests: DigestBackupCodes(backupCodes),
		EnabledAt:         now,
	})
	if err != nil {
		return fmt.Errorf("failed to persist mfa enrollment: %w", err)
	}

	slog.Info("MFA enabled", "userId", userID)
	return nil
}

// VerifyDuringLogin accepts either a valid current TOTP code or an unused
// backup code. Consuming a backup code is atomic with the verification, so a
// code can never validate twice.
func (s *Service) VerifyDuringLogin(ctx context.Context, cred credential.Credential, submittedCode string, now time.Time) (bool, error) {
	if !cred.MfaEnabled {
		return false, ErrMfaNotEnabled
	}

	if len(submittedCode) == s.params.Digits.Length() && digitsOnlyRegex.MatchString(submittedCode) {
		valid, err := s.validateCode(submittedCode, cred.MfaSecret, now)
		if err != nil {
			return false, err
		}
		if valid {
			return true, nil
		}
	}

	consumed, err := s.repo.ConsumeBackupCode(ctx, cred.ID, DigestBackupCode(submittedCode))
	if err != nil {
		return false, fmt.Errorf("failed to consume backup code: %w", err)
	}
	return consumed, nil
}

// Disable clears the secret, both backup-code sets and the enabled flag. It
// requires a fresh password re-confirmation.
func (s *Service) Disable(ctx context.Context, userID uuid.UUID, password string) error {
	cred, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load credential: %w", err)
	}
	if !cred.MfaEnabled {
		return ErrMfaNotEnabled
	}

	match, err := s.passwords.VerifyPassword(password, cred.PasswordHash, login.PasswordVersion(cred.PasswordVersion))
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		return ErrPasswordConfirmFailed
	}

	if err := s.repo.DisableMfa(ctx, userID); err != nil {
		return fmt.Errorf("failed to disable mfa: %w", err)
	}

	slog.Info("MFA disabled", "userId", userID)
	return nil
}

// RegenerateBackupCodes replaces the whole backup-code set with fresh codes,
// clearing any consumed ones. The raw codes are returned exactly once.
func (s *Service) RegenerateBackupCodes(ctx context.Context, userID uuid.UUID) ([]string, error) {
	cred, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	if !cred.MfaEnabled {
		return nil, ErrMfaNotEnabled
	}

	codes, err := GenerateBackupCodes(s.params.BackupCodeCount)
	if err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceBackupCodes(ctx, userID, DigestBackupCodes(codes)); err != nil {
		return nil, fmt.Errorf("failed to replace backup codes: %w", err)
	}

	return codes, nil
}

func (s *Service) validateCode(code, secret string, now time.Time) (bool, error) {
	valid, err := totp.ValidateCustom(code, secret, now.UTC(), totp.ValidateOpts{
		Period:    s.params.Period,
		Skew:      s.params.Skew,
		Digits:    s.params.Digits,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false, fmt.Errorf("failed to validate totp code: %w", err)
	}
	return valid, nil
}
