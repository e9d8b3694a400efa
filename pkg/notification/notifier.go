// Package notification delivers security alert mail: early warnings when an
// account accumulates failed logins and notices when it gets locked out.
// Delivery failures are logged, never returned to the login path.
package notification

import (
	"fmt"
	"time"
)

// AlertKind distinguishes the security mails this package sends.
type AlertKind string

const (
	AlertFailedAttempts AlertKind = "failed-attempts"
	AlertLockout        AlertKind = "lockout"
	AlertMfaDisabled    AlertKind = "mfa-disabled"
)

// SecurityAlert carries everything needed to render one alert mail. It never
// contains password material or MFA secrets.
type SecurityAlert struct {
	Kind         AlertKind
	Email        string
	FailedCount  int
	LockoutUntil *time.Time
	OccurredAt   time.Time
}

// Notifier sends security alerts. Implementations must be safe for
// concurrent use.
type Notifier interface {
	SendSecurityAlert(alert SecurityAlert) error
}

func subjectFor(kind AlertKind) (string, error) {
	switch kind {
	case AlertFailedAttempts:
		return "Security alert: failed sign-in attempts on your account", nil
	case AlertLockout:
		return "Security alert: your account has been temporarily locked", nil
	case AlertMfaDisabled:
		return "Security alert: two-factor authentication was disabled", nil
	default:
		return "", fmt.Errorf("unknown alert kind: %s", kind)
	}
}

func bodyFor(alert SecurityAlert) string {
	switch alert.Kind {
	case AlertFailedAttempts:
		return fmt.Sprintf(
			"We noticed %d failed sign-in attempts on your account at %s.\n\n"+
				"If this was not you, consider changing your password.\n",
			alert.FailedCount, alert.OccurredAt.Format(time.RFC1123))
	case AlertLockout:
		body := fmt.Sprintf(
			"Your account was temporarily locked after %d failed sign-in attempts.\n",
			alert.FailedCount)
		if alert.LockoutUntil != nil {
			body += fmt.Sprintf("You can try again after %s.\n", alert.LockoutUntil.Format(time.RFC1123))
		}
		return body
	case AlertMfaDisabled:
		return fmt.Sprintf(
			"Two-factor authentication was disabled on your account at %s.\n\n"+
				"If this was not you, contact support immediately.\n",
			alert.OccurredAt.Format(time.RFC1123))
	default:
		return ""
	}
}
