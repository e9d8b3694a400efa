package login

import (
	"fmt"
	"time"

	"github.com/verisafe/authcore/pkg/config"
	"github.com/verisafe/authcore/pkg/credential"
)

// Policy is the resolved brute-force lockout policy used by the attempt
// engine. It is immutable per call; build one from config at wiring time.
type Policy struct {
	MaxFailedAttempts int
	AlertThreshold    int
	LockoutDuration   time.Duration
}

// PolicyFromConfig resolves the env-driven config into a Policy, parsing the
// ISO 8601 lockout duration once so the engine itself stays pure.
func PolicyFromConfig(cfg config.LoginConfig) (Policy, error) {
	if err := cfg.Validate(); err != nil {
		return Policy{}, fmt.Errorf("invalid login config: %w", err)
	}
	lockout, err := cfg.ParseLockoutDuration()
	if err != nil {
		return Policy{}, fmt.Errorf("invalid lockout duration: %w", err)
	}
	return Policy{
		MaxFailedAttempts: cfg.MaxFailedAttempts,
		AlertThreshold:    cfg.AlertThreshold,
		LockoutDuration:   lockout,
	}, nil
}

// DenyReason identifies why a login attempt was refused before password
// verification.
type DenyReason string

const (
	// DenyInvalidCredentials covers both unknown email and (later) wrong
	// password, so callers cannot enumerate accounts.
	DenyInvalidCredentials DenyReason = "invalid credentials"
	DenyAccountDeleted     DenyReason = "account no longer exists"
	DenyAccountDeactivated DenyReason = "account deactivated"
	DenyTemporarilyLocked  DenyReason = "temporarily locked"
)

// AttemptDecision is the outcome of the pre-login policy check. RetryAfter is
// set only for lockout denials.
type AttemptDecision struct {
	Allowed    bool
	Reason     DenyReason
	RetryAfter *time.Time
}

// ShouldAllowLoginAttempt decides whether a login attempt may proceed to
// password verification. It is pure: now is injected and nothing is read from
// the ambient clock.
//
// Deletion and deactivation are checked before lockout, so a locked account
// that was later deleted reports deletion, not lockout.
func ShouldAllowLoginAttempt(cred *credential.Credential, policy Policy, now time.Time) AttemptDecision {
	if cred == nil {
		return AttemptDecision{Allowed: false, Reason: DenyInvalidCredentials}
	}
	if cred.Deleted() {
		return AttemptDecision{Allowed: false, Reason: DenyAccountDeleted}
	}
	if !cred.Active {
		return AttemptDecision{Allowed: false, Reason: DenyAccountDeactivated}
	}
	// Strict comparison: lockout is over exactly at the boundary.
	if cred.LockoutUntil != nil && cred.LockoutUntil.After(now) {
		retryAfter := *cred.LockoutUntil
		return AttemptDecision{Allowed: false, Reason: DenyTemporarilyLocked, RetryAfter: &retryAfter}
	}
	return AttemptDecision{Allowed: true}
}

// CalculateFailedLoginConsequences computes the bookkeeping for one failed
// attempt. The caller persists the result through the credential repository's
// atomic read-modify-write so concurrent failures never lose an increment.
func CalculateFailedLoginConsequences(cred credential.Credential, policy Policy, now time.Time) credential.FailureConsequences {
	consequences := credential.FailureConsequences{
		FailedLoginCount: cred.FailedLoginCount + 1,
	}
	if consequences.FailedLoginCount >= policy.MaxFailedAttempts {
		until := now.Add(policy.LockoutDuration)
		consequences.LockoutUntil = &until
	}
	consequences.ShouldAlert = consequences.FailedLoginCount >= policy.AlertThreshold
	return consequences
}

// PrepareSuccessfulLoginUpdates computes the writes a successful login makes.
// It unconditionally clears the failure counter and any lockout, even when
// the login lands exactly at the lockout boundary.
func PrepareSuccessfulLoginUpdates(cred credential.Credential, now time.Time) credential.SuccessfulLoginUpdates {
	return credential.SuccessfulLoginUpdates{
		LastLoginAt:      now,
		LoginCount:       cred.LoginCount + 1,
		FailedLoginCount: 0,
		LockoutUntil:     nil,
	}
}
