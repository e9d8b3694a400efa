// Package loginflow orchestrates a complete login: input validation, the
// pre-attempt policy check, password verification, the MFA gate, success and
// failure bookkeeping, and finally session plus bearer token issuance. All
// policy outcomes are returned as typed results; only infrastructure
// failures surface as errors.
package loginflow

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/verisafe/authcore/pkg/audit"
	"github.com/verisafe/authcore/pkg/credential"
	"github.com/verisafe/authcore/pkg/errors"
	"github.com/verisafe/authcore/pkg/login"
	"github.com/verisafe/authcore/pkg/notification"
	"github.com/verisafe/authcore/pkg/sessions"
	"github.com/verisafe/authcore/pkg/token"
	"github.com/verisafe/authcore/pkg/twofa"
)

// Status is the outcome class of a login attempt.
type Status string

const (
	StatusSuccess     Status = "success"
	StatusMfaRequired Status = "mfa-required"
	StatusFailed      Status = "failed"
)

// Request is one login attempt. MfaCode is empty on the first round trip;
// when the result is StatusMfaRequired the caller resubmits with a TOTP or
// backup code filled in.
type Request struct {
	Email      string
	Password   string
	MfaCode    string
	RememberMe bool
	IPAddress  string
	UserAgent  string
}

// Result is the typed outcome of a login attempt. Failure is set only for
// StatusFailed; Session and AccessToken only for StatusSuccess.
type Result struct {
	Status      Status
	Failure     *errors.Error
	UserID      uuid.UUID
	Session     sessions.Session
	AccessToken string
	TokenExpiry time.Time
}

func failed(failure *errors.Error) Result {
	return Result{Status: StatusFailed, Failure: failure}
}

// Service wires the engines together. Every operation takes now explicitly.
type Service struct {
	creds     credential.Repository
	passwords *login.PasswordManager
	sessions  *sessions.Service
	twoFactor *twofa.Service
	tokens    *token.Issuer
	notifier  notification.Notifier
	sink      audit.Sink
	policy    login.Policy
	tokenTTL  time.Duration
}

// NewService creates a login flow service.
func NewService(
	creds credential.Repository,
	passwords *login.PasswordManager,
	sessionSvc *sessions.Service,
	twoFactor *twofa.Service,
	tokens *token.Issuer,
	notifier notification.Notifier,
	sink audit.Sink,
	policy login.Policy,
	tokenTTL time.Duration,
) *Service {
	return &Service{
		creds:     creds,
		passwords: passwords,
		sessions:  sessionSvc,
		twoFactor: twoFactor,
		tokens:    tokens,
		notifier:  notifier,
		sink:      sink,
		policy:    policy,
		tokenTTL:  tokenTTL,
	}
}

// Login runs the full authentication flow for one request.
func (s *Service) Login(ctx context.Context, req Request, now time.Time) (Result, error) {
	validation := credential.ValidateLoginInput(req.Email, req.Password)
	if !validation.Valid {
		failure := errors.New(errors.ErrCodeValidationFailed, "invalid login input")
		for _, fieldErr := range validation.Errors {
			failure = failure.WithDetail(fieldErr.Field, fieldErr.Message)
		}
		return failed(failure), nil
	}

	cred, err := s.creds.FindByEmail(ctx, validation.Input.Email)
	if err != nil {
		if stderrors.Is(err, credential.ErrCredentialNotFound) {
			// Same outward response as a wrong password.
			decision := login.ShouldAllowLoginAttempt(nil, s.policy, now)
			s.recordFailure(ctx, uuid.Nil, string(decision.Reason), now)
			return failed(errors.New(errors.ErrCodeInvalidCredentials, "invalid email or password")), nil
		}
		return Result{}, fmt.Errorf("failed to load credential: %w", err)
	}

	decision := login.ShouldAllowLoginAttempt(&cred, s.policy, now)
	if !decision.Allowed {
		s.recordFailure(ctx, cred.ID, string(decision.Reason), now)
		return failed(s.decisionFailure(decision)), nil
	}

	match, err := s.passwords.AuthenticateAndUpgrade(ctx, cred.ID, validation.Input.Password, cred.PasswordHash, login.PasswordVersion(cred.PasswordVersion))
	if err != nil {
		return Result{}, fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		if err := s.bookFailedAttempt(ctx, cred, now); err != nil {
			return Result{}, err
		}
		return failed(errors.New(errors.ErrCodeInvalidCredentials, "invalid email or password")), nil
	}

	if cred.MfaEnabled {
		if req.MfaCode == "" {
			return Result{Status: StatusMfaRequired, UserID: cred.ID}, nil
		}
		ok, err := s.twoFactor.VerifyDuringLogin(ctx, cred, req.MfaCode, now)
		if err != nil {
			return Result{}, fmt.Errorf("failed to verify mfa code: %w", err)
		}
		if !ok {
			if err := s.bookFailedAttempt(ctx, cred, now); err != nil {
				return Result{}, err
			}
			return failed(errors.New(errors.ErrCodeMfaVerificationFailed, "invalid verification code")), nil
		}
	}

	updates := login.PrepareSuccessfulLoginUpdates(cred, now)
	if err := s.creds.ApplySuccessfulLogin(ctx, cred.ID, updates); err != nil {
		return Result{}, fmt.Errorf("failed to record successful login: %w", err)
	}

	session, err := s.sessions.CreateSession(ctx, sessions.CreateSessionRequest{
		UserID:     cred.ID,
		RememberMe: req.RememberMe,
		IPAddress:  req.IPAddress,
		UserAgent:  req.UserAgent,
	}, now)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create session: %w", err)
	}

	accessToken, tokenExpiry, err := s.tokens.Issue(cred, s.tokenTTL, now)
	if err != nil {
		return Result{}, fmt.Errorf("failed to issue access token: %w", err)
	}

	s.sink.Record(ctx, audit.Event{
		ActorID:      &cred.ID,
		TargetUserID: cred.ID,
		Action:       audit.ActionLoginSuccess,
		Result:       audit.ResultSuccess,
		Metadata:     map[string]string{"ip": req.IPAddress},
		CreatedAt:    now,
	})

	return Result{
		Status:      StatusSuccess,
		UserID:      cred.ID,
		Session:     session,
		AccessToken: accessToken,
		TokenExpiry: tokenExpiry,
	}, nil
}

// Logout revokes the session for token and reports whether a live session
// was actually ended.
func (s *Service) Logout(ctx context.Context, sessionToken string, now time.Time) (bool, error) {
	session, err := s.sessions.FindByToken(ctx, sessionToken, now)
	if err != nil {
		if stderrors.Is(err, sessions.ErrSessionNotFound) {
			return false, nil
		}
		return false, err
	}

	revoked, err := s.sessions.Invalidate(ctx, sessionToken, now)
	if err != nil {
		return false, err
	}
	if revoked {
		s.sink.Record(ctx, audit.Event{
			ActorID:      &session.UserID,
			TargetUserID: session.UserID,
			Action:       audit.ActionSessionRevoked,
			Result:       audit.ResultSuccess,
			Metadata:     map[string]string{"scope": "single"},
			CreatedAt:    now,
		})
	}
	return revoked, nil
}

// LogoutAll revokes every live session for a user and returns the count.
func (s *Service) LogoutAll(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	count, err := s.sessions.InvalidateAllForUser(ctx, userID, now)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.sink.Record(ctx, audit.Event{
			ActorID:      &userID,
			TargetUserID: userID,
			Action:       audit.ActionSessionRevoked,
			Result:       audit.ResultSuccess,
			Metadata:     map[string]string{"scope": "all", "count": fmt.Sprintf("%d", count)},
			CreatedAt:    now,
		})
	}
	return count, nil
}

// bookFailedAttempt persists failure consequences atomically, audits the
// failure, and fires alert or lockout notifications as thresholds are
// crossed. Notification failures are logged and swallowed.
func (s *Service) bookFailedAttempt(ctx context.Context, cred credential.Credential, now time.Time) error {
	consequences, err := s.creds.ApplyFailedLogin(ctx, cred.ID, func(current credential.Credential) credential.FailureConsequences {
		return login.CalculateFailedLoginConsequences(current, s.policy, now)
	})
	if err != nil {
		return fmt.Errorf("failed to record login failure: %w", err)
	}

	s.recordFailure(ctx, cred.ID, "invalid credentials", now)

	if consequences.LockoutUntil != nil {
		s.sink.Record(ctx, audit.Event{
			TargetUserID: cred.ID,
			Action:       audit.ActionLockout,
			Result:       audit.ResultFailure,
			Metadata:     map[string]string{"failed_count": fmt.Sprintf("%d", consequences.FailedLoginCount)},
			CreatedAt:    now,
		})
		s.notify(notification.SecurityAlert{
			Kind:         notification.AlertLockout,
			Email:        cred.Email,
			FailedCount:  consequences.FailedLoginCount,
			LockoutUntil: consequences.LockoutUntil,
			OccurredAt:   now,
		})
	} else if consequences.ShouldAlert {
		s.notify(notification.SecurityAlert{
			Kind:        notification.AlertFailedAttempts,
			Email:       cred.Email,
			FailedCount: consequences.FailedLoginCount,
			OccurredAt:  now,
		})
	}

	return nil
}

func (s *Service) recordFailure(ctx context.Context, targetID uuid.UUID, reason string, now time.Time) {
	s.sink.Record(ctx, audit.Event{
		TargetUserID: targetID,
		Action:       audit.ActionLoginFailure,
		Result:       audit.ResultFailure,
		Metadata:     map[string]string{"reason": reason},
		CreatedAt:    now,
	})
}

func (s *Service) notify(alert notification.SecurityAlert) {
	if err := s.notifier.SendSecurityAlert(alert); err != nil {
		slog.Error("Failed to send security alert", "err", err, "kind", alert.Kind)
	}
}

func (s *Service) decisionFailure(decision login.AttemptDecision) *errors.Error {
	switch decision.Reason {
	case login.DenyAccountDeleted:
		return errors.New(errors.ErrCodeAccountDeleted, "account no longer exists")
	case login.DenyAccountDeactivated:
		return errors.New(errors.ErrCodeAccountDeactivated, "account deactivated")
	case login.DenyTemporarilyLocked:
		failure := errors.New(errors.ErrCodeAccountLocked, "account temporarily locked")
		if decision.RetryAfter != nil {
			failure = failure.WithDetail("retry_after", decision.RetryAfter.Format(time.RFC3339))
		}
		return failure
	default:
		return errors.New(errors.ErrCodeInvalidCredentials, "invalid email or password")
	}
}
