package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateLoginInput(t *testing.T) {
	t.Run("valid input", func(t *testing.T) {
		result := ValidateLoginInput("user@example.com", "secret123")
		assert.True(t, result.Valid)
		assert.Empty(t, result.Errors)
		assert.Equal(t, "user@example.com", result.Input.Email)
		assert.Equal(t, "secret123", result.Input.Password)
	})

	t.Run("email is normalized", func(t *testing.T) {
		result := ValidateLoginInput("  User@Example.COM ", "secret123")
		assert.True(t, result.Valid)
		assert.Equal(t, "user@example.com", result.Input.Email)
	})

	t.Run("missing email", func(t *testing.T) {
		result := ValidateLoginInput("", "secret123")
		assert.False(t, result.Valid)
		assert.Len(t, result.Errors, 1)
		assert.Equal(t, "email", result.Errors[0].Field)
	})

	t.Run("malformed email", func(t *testing.T) {
		result := ValidateLoginInput("not-an-email", "secret123")
		assert.False(t, result.Valid)
		assert.Len(t, result.Errors, 1)
		assert.Equal(t, "email", result.Errors[0].Field)
	})

	t.Run("missing password", func(t *testing.T) {
		result := ValidateLoginInput("user@example.com", "")
		assert.False(t, result.Valid)
		assert.Len(t, result.Errors, 1)
		assert.Equal(t, "password", result.Errors[0].Field)
	})

	t.Run("reports all failed fields", func(t *testing.T) {
		result := ValidateLoginInput("", "")
		assert.False(t, result.Valid)
		assert.Len(t, result.Errors, 2)

		fields := []string{result.Errors[0].Field, result.Errors[1].Field}
		assert.Contains(t, fields, "email")
		assert.Contains(t, fields, "password")
	})

	t.Run("whitespace-only email is missing", func(t *testing.T) {
		result := ValidateLoginInput("   ", "secret123")
		assert.False(t, result.Valid)
		assert.Equal(t, "email", result.Errors[0].Field)
	})
}
