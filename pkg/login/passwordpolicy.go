package login

import (
	"fmt"
	"regexp"

	"github.com/verisafe/authcore/pkg/config"
)

var (
	uppercaseRegex = regexp.MustCompile(`[A-Z]`)
	lowercaseRegex = regexp.MustCompile(`[a-z]`)
	digitRegex     = regexp.MustCompile(`[0-9]`)
	specialRegex   = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// PolicyCheck reports every unmet password requirement at once, so a caller
// can surface the full list instead of one violation per round trip.
type PolicyCheck struct {
	Valid      bool
	Violations []string
}

// MeetsPasswordPolicy checks a candidate password against the configured
// complexity rules. All violated rules are collected; the check never
// short-circuits.
func MeetsPasswordPolicy(password string, policy config.PasswordPolicyConfig) PolicyCheck {
	var violations []string

	if len(password) < policy.MinLength {
		violations = append(violations, fmt.Sprintf("password must be at least %d characters long", policy.MinLength))
	}
	if policy.RequireUppercase && !uppercaseRegex.MatchString(password) {
		violations = append(violations, "password must contain at least one uppercase letter")
	}
	if policy.RequireLowercase && !lowercaseRegex.MatchString(password) {
		violations = append(violations, "password must contain at least one lowercase letter")
	}
	if policy.RequireNumbers && !digitRegex.MatchString(password) {
		violations = append(violations, "password must contain at least one digit")
	}
	if policy.RequireSpecial && !specialRegex.MatchString(password) {
		violations = append(violations, "password must contain at least one special character")
	}

	return PolicyCheck{Valid: len(violations) == 0, Violations: violations}
}

// StrengthLevel buckets a strength score for display.
type StrengthLevel string

const (
	StrengthWeak       StrengthLevel = "weak"
	StrengthModerate   StrengthLevel = "moderate"
	StrengthStrong     StrengthLevel = "strong"
	StrengthVeryStrong StrengthLevel = "very-strong"
)

// Strength is a heuristic password score in [0, 100] with a coarse level.
type Strength struct {
	Score int
	Level StrengthLevel
}

// CalculatePasswordStrength scores a password from length and character-class
// diversity. The score is monotonic: adding length or a new character class
// never lowers it.
func CalculatePasswordStrength(password string) Strength {
	score := 0

	// Up to 40 points for length, 4 per character.
	lengthScore := len(password) * 4
	if lengthScore > 40 {
		lengthScore = 40
	}
	score += lengthScore

	// 15 points per character class present.
	if lowercaseRegex.MatchString(password) {
		score += 15
	}
	if uppercaseRegex.MatchString(password) {
		score += 15
	}
	if digitRegex.MatchString(password) {
		score += 15
	}
	if specialRegex.MatchString(password) {
		score += 15
	}

	if score > 100 {
		score = 100
	}

	var level StrengthLevel
	switch {
	case score >= 85:
		level = StrengthVeryStrong
	case score >= 65:
		level = StrengthStrong
	case score >= 40:
		level = StrengthModerate
	default:
		level = StrengthWeak
	}

	return Strength{Score: score, Level: level}
}
