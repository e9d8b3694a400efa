package api

import (
	"time"

	"github.com/verisafe/authcore/pkg/sessions"
)

// RegisterRequest creates a new credential.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type RegisterResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// LoginRequest is one authentication round trip. MfaCode is filled in on the
// second round trip after an mfa-required response.
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	MfaCode    string `json:"mfa_code,omitempty"`
	RememberMe bool   `json:"remember_me,omitempty"`
}

type LoginResponse struct {
	Status      string    `json:"status"`
	UserID      string    `json:"user_id,omitempty"`
	AccessToken string    `json:"access_token,omitempty"`
	TokenExpiry time.Time `json:"token_expiry,omitempty"`
	SessionID   string    `json:"session_id,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type PasswordStrengthRequest struct {
	Password string `json:"password"`
}

type PasswordStrengthResponse struct {
	Score      int      `json:"score"`
	Level      string   `json:"level"`
	Violations []string `json:"violations,omitempty"`
}

// TwoFactorSetupResponse carries the provisioning material for an
// authenticator app. Nothing is persisted until enable confirms possession.
type TwoFactorSetupResponse struct {
	Secret          string   `json:"secret"`
	ProvisioningURI string   `json:"provisioning_uri"`
	BackupCodes     []string `json:"backup_codes"`
}

type TwoFactorEnableRequest struct {
	Secret      string   `json:"secret"`
	BackupCodes []string `json:"backup_codes"`
	Code        string   `json:"code"`
}

type TwoFactorDisableRequest struct {
	Password string `json:"password"`
}

type BackupCodesResponse struct {
	BackupCodes []string `json:"backup_codes"`
}

type LogoutAllResponse struct {
	RevokedCount int `json:"revoked_count"`
}

type SessionListResponse = sessions.SessionListResponse

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
