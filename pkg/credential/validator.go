package credential

import "net/mail"

// LoginInput is the normalized outcome of validating raw login input.
type LoginInput struct {
	Email    string
	Password string
}

// FieldError names a single invalid input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationResult is a discriminated result: either Valid with Input set, or
// invalid with Errors listing every failed field.
type ValidationResult struct {
	Valid  bool
	Input  LoginInput
	Errors []FieldError
}

// ValidateLoginInput performs pure shape checks on raw login input before any
// storage or hashing work is done. It never fails with an error; malformed
// input is reported through the result.
func ValidateLoginInput(email, password string) ValidationResult {
	var errs []FieldError

	normalized := NormalizeEmail(email)
	if normalized == "" {
		errs = append(errs, FieldError{Field: "email", Message: "email is required"})
	} else if _, err := mail.ParseAddress(normalized); err != nil {
		errs = append(errs, FieldError{Field: "email", Message: "email is malformed"})
	}
	if password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	}

	if len(errs) > 0 {
		return ValidationResult{Valid: false, Errors: errs}
	}
	return ValidationResult{
		Valid: true,
		Input: LoginInput{Email: normalized, Password: password},
	}
}
