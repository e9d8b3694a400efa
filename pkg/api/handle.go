// Package api exposes the authentication engine over HTTP. Login issues both
// a session cookie and a bearer token; protected routes accept the bearer
// token, session-bound routes read the cookie.
package api

import (
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/verisafe/authcore/pkg/audit"
	"github.com/verisafe/authcore/pkg/credential"
	"github.com/verisafe/authcore/pkg/errors"
	"github.com/verisafe/authcore/pkg/login"
	"github.com/verisafe/authcore/pkg/loginflow"
	"github.com/verisafe/authcore/pkg/notification"
	"github.com/verisafe/authcore/pkg/sessions"
	"github.com/verisafe/authcore/pkg/twofa"
)

const sessionCookieName = "session_token"

// Handle carries the services the HTTP layer dispatches into. Clock is the
// single place the request path reads wall time; everything below takes it
// as an explicit argument.
type Handle struct {
	flow       *loginflow.Service
	creds      credential.Repository
	passwords  *login.PasswordManager
	sessionSvc *sessions.Service
	twoFactor  *twofa.Service
	notifier   notification.Notifier
	sink       audit.Sink

	cookieHttpOnly bool
	cookieSecure   bool
	clock          func() time.Time
}

// NewHandle creates the HTTP handler set. A nil clock defaults to time.Now.
func NewHandle(
	flow *loginflow.Service,
	creds credential.Repository,
	passwords *login.PasswordManager,
	sessionSvc *sessions.Service,
	twoFactor *twofa.Service,
	notifier notification.Notifier,
	sink audit.Sink,
	cookieHttpOnly, cookieSecure bool,
	clock func() time.Time,
) *Handle {
	if clock == nil {
		clock = time.Now
	}
	return &Handle{
		flow:           flow,
		creds:          creds,
		passwords:      passwords,
		sessionSvc:     sessionSvc,
		twoFactor:      twoFactor,
		notifier:       notifier,
		sink:           sink,
		cookieHttpOnly: cookieHttpOnly,
		cookieSecure:   cookieSecure,
		clock:          clock,
	}
}

func (h *Handle) Register(w http.ResponseWriter, r *http.Request) {
	var body RegisterRequest
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		renderFailure(w, r, errors.New(errors.ErrCodeInvalidInput, "unable to parse body"))
		return
	}

	validation := credential.ValidateLoginInput(body.Email, body.Password)
	if !validation.Valid {
		failure := errors.New(errors.ErrCodeValidationFailed, "invalid registration input")
		for _, fieldErr := range validation.Errors {
			failure = failure.WithDetail(fieldErr.Field, fieldErr.Message)
		}
		renderFailure(w, r, failure)
		return
	}

	check := h.passwords.CheckPolicy(body.Password)
	if !check.Valid {
		failure := errors.New(errors.ErrCodePasswordPolicy, "password does not meet the policy")
		failure = failure.WithDetail("violations", check.Violations)
		renderFailure(w, r, failure)
		return
	}

	digest, version, err := h.passwords.HashPassword(validation.Input.Password)
	if err != nil {
		renderInternal(w, r, "Failed to hash password", err)
		return
	}

	role := body.Role
	if role == "" {
		role = "member"
	}
	created, err := h.creds.Create(r.Context(), credential.Credential{
		Email:           validation.Input.Email,
		PasswordHash:    digest,
		PasswordVersion: int32(version),
		Role:            role,
		Active:          true,
	})
	if err != nil {
		if stderrors.Is(err, credential.ErrEmailTaken) {
			renderFailure(w, r, errors.New(errors.ErrCodeEmailTaken, "email already registered"))
			return
		}
		renderInternal(w, r, "Failed to create credential", err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, RegisterResponse{ID: created.ID.String(), Email: created.Email})
}

func (h *Handle) Login(w http.ResponseWriter, r *http.Request) {
	var body LoginRequest
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		renderFailure(w, r, errors.New(errors.ErrCodeInvalidInput, "unable to parse body"))
		return
	}

	flowReq := loginflow.Request{}
	copier.Copy(&flowReq, &body)
	flowReq.IPAddress = clientIP(r)
	flowReq.UserAgent = r.UserAgent()

	result, err := h.flow.Login(r.Context(), flowReq, h.clock())
	if err != nil {
		renderInternal(w, r, "Login failed", err)
		return
	}

	switch result.Status {
	case loginflow.StatusFailed:
		renderFailure(w, r, result.Failure)
	case loginflow.StatusMfaRequired:
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, LoginResponse{
			Status: string(loginflow.StatusMfaRequired),
			UserID: result.UserID.String(),
		})
	case loginflow.StatusSuccess:
		h.setSessionCookie(w, result.Session)
		render.JSON(w, r, LoginResponse{
			Status:      string(loginflow.StatusSuccess),
			UserID:      result.UserID.String(),
			AccessToken: result.AccessToken,
			TokenExpiry: result.TokenExpiry,
			SessionID:   result.Session.ID.String(),
		})
	}
}

func (h *Handle) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		if _, err := h.flow.Logout(r.Context(), cookie.Value, h.clock()); err != nil {
			renderInternal(w, r, "Logout failed", err)
			return
		}
	}
	h.clearSessionCookie(w)
	render.JSON(w, r, MessageResponse{Message: "logged out"})
}

func (h *Handle) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.subject(w, r)
	if !ok {
		return
	}

	count, err := h.flow.LogoutAll(r.Context(), userID, h.clock())
	if err != nil {
		renderInternal(w, r, "Failed to revoke sessions", err)
		return
	}
	h.clearSessionCookie(w)
	render.JSON(w, r, LogoutAllResponse{RevokedCount: count})
}

func (h *Handle) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.subject(w, r)
	if !ok {
		return
	}

	currentToken := ""
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		currentToken = cookie.Value
	}

	list, err := h.sessionSvc.ListActiveSummaries(r.Context(), userID, currentToken, h.clock())
	if err != nil {
		renderInternal(w, r, "Failed to list sessions", err)
		return
	}
	render.JSON(w, r, list)
}

func (h *Handle) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.subject(w, r)
	if !ok {
		return
	}

	var body ChangePasswordRequest
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		renderFailure(w, r, errors.New(errors.ErrCodeInvalidInput, "unable to parse body"))
		return
	}

	now := h.clock()
	check, err := h.passwords.ChangePassword(r.Context(), userID, body.CurrentPassword, body.NewPassword)
	if err != nil {
		if stderrors.Is(err, login.ErrCurrentPasswordMismatch) {
			renderFailure(w, r, errors.New(errors.ErrCodeInvalidCredentials, "current password is incorrect"))
			return
		}
		renderInternal(w, r, "Failed to change password", err)
		return
	}
	if !check.Valid {
		failure := errors.New(errors.ErrCodePasswordPolicy, "password does not meet the policy")
		failure = failure.WithDetail("violations", check.Violations)
		renderFailure(w, r, failure)
		return
	}

	h.sink.Record(r.Context(), audit.Event{
		ActorID:      &userID,
		TargetUserID: userID,
		Action:       audit.ActionPasswordChange,
		Result:       audit.ResultSuccess,
		CreatedAt:    now,
	})
	render.JSON(w, r, MessageResponse{Message: "password changed"})
}

// PasswordStrength is a public helper for registration forms.
func (h *Handle) PasswordStrength(w http.ResponseWriter, r *http.Request) {
	var body PasswordStrengthRequest
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		renderFailure(w, r, errors.New(errors.ErrCodeInvalidInput, "unable to parse body"))
		return
	}

	strength := login.CalculatePasswordStrength(body.Password)
	check := h.passwords.CheckPolicy(body.Password)
	render.JSON(w, r, PasswordStrengthResponse{
		Score:      strength.Score,
		Level:      string(strength.Level),
		Violations: check.Violations,
	})
}

func (h *Handle) SetupTwoFactor(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.subject(w, r)
	if !ok {
		return
	}

	setup, err := h.twoFactor.Setup(r.Context(), userID)
	if err != nil {
		if stderrors.Is(err, twofa.ErrMfaAlreadyEnabled) {
			renderFailure(w, r, errors.New(errors.ErrCodeMfaAlreadyEnabled, "two-factor authentication is already enabled"))
			return
		}
		renderInternal(w, r, "Failed to set up two-factor authentication", err)
		return
	}

	resp := TwoFactorSetupResponse{}
	copier.Copy(&resp, &setup)
	render.JSON(w, r, resp)
}

func (h *Handle) EnableTwoFactor(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.subject(w, r)
	if !ok {
		return
	}

	var body TwoFactorEnableRequest
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		renderFailure(w, r, errors.New(errors.ErrCodeInvalidInput, "unable to parse body"))
		return
	}

	now := h.clock()
	err := h.twoFactor.Enable(r.Context(), userID, body.Secret, body.BackupCodes, body.Code, now)
	if err != nil {
		switch {
		case stderrors.Is(err, twofa.ErrMfaAlreadyEnabled):
			renderFailure(w, r, errors.New(errors.ErrCodeMfaAlreadyEnabled, "two-factor authentication is already enabled"))
		case stderrors.Is(err, twofa.ErrMfaVerificationFailed):
			renderFailure(w, r, errors.New(errors.ErrCodeMfaVerificationFailed, "invalid verification code"))
		default:
			renderInternal(w, r, "Failed to enable two-factor authentication", err)
		}
		return
	}

	h.sink.Record(r.Context(), audit.Event{
		ActorID:      &userID,
		TargetUserID: userID,
		Action:       audit.ActionMfaEnabled,
		Result:       audit.ResultSuccess,
		CreatedAt:    now,
	})
	render.JSON(w, r, MessageResponse{Message: "two-factor authentication enabled"})
}

func (h *Handle) DisableTwoFactor(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.subject(w, r)
	if !ok {
		return
	}

	var body TwoFactorDisableRequest
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		renderFailure(w, r, errors.New(errors.ErrCodeInvalidInput, "unable to parse body"))
		return
	}

	now := h.clock()
	err := h.twoFactor.Disable(r.Context(), userID, body.Password)
	if err != nil {
		switch {
		case stderrors.Is(err, twofa.ErrMfaNotEnabled):
			renderFailure(w, r, errors.New(errors.ErrCodeMfaNotEnabled, "two-factor authentication is not enabled"))
		case stderrors.Is(err, twofa.ErrPasswordConfirmFailed):
			renderFailure(w, r, errors.New(errors.ErrCodeInvalidCredentials, "password confirmation failed"))
		default:
			renderInternal(w, r, "Failed to disable two-factor authentication", err)
		}
		return
	}

	h.sink.Record(r.Context(), audit.Event{
		ActorID:      &userID,
		TargetUserID: userID,
		Action:       audit.ActionMfaDisabled,
		Result:       audit.ResultSuccess,
		CreatedAt:    now,
	})
	if cred, err := h.creds.GetByID(r.Context(), userID); err == nil {
		alertErr := h.notifier.SendSecurityAlert(notification.SecurityAlert{
			Kind:       notification.AlertMfaDisabled,
			Email:      cred.Email,
			OccurredAt: now,
		})
		if alertErr != nil {
			slog.Error("Failed to send mfa-disabled alert", "err", alertErr)
		}
	}
	render.JSON(w, r, MessageResponse{Message: "two-factor authentication disabled"})
}

func (h *Handle) RegenerateBackupCodes(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.subject(w, r)
	if !ok {
		return
	}

	codes, err := h.twoFactor.RegenerateBackupCodes(r.Context(), userID)
	if err != nil {
		if stderrors.Is(err, twofa.ErrMfaNotEnabled) {
			renderFailure(w, r, errors.New(errors.ErrCodeMfaNotEnabled, "two-factor authentication is not enabled"))
			return
		}
		renderInternal(w, r, "Failed to regenerate backup codes", err)
		return
	}
	render.JSON(w, r, BackupCodesResponse{BackupCodes: codes})
}

// subject resolves the authenticated user from the verified bearer token.
// Renders a 401 and returns false when the claims are unusable.
func (h *Handle) subject(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		renderFailure(w, r, errors.New(errors.ErrCodeTokenInvalid, "invalid token"))
		return uuid.Nil, false
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		renderFailure(w, r, errors.New(errors.ErrCodeTokenInvalid, "invalid token subject"))
		return uuid.Nil, false
	}
	return userID, true
}

func (h *Handle) setSessionCookie(w http.ResponseWriter, session sessions.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: h.cookieHttpOnly,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handle) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: h.cookieHttpOnly,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func renderFailure(w http.ResponseWriter, r *http.Request, failure *errors.Error) {
	render.Status(r, failure.HTTPStatusCode())
	render.JSON(w, r, ErrorResponse{
		Code:    string(failure.Code),
		Message: failure.Message,
		Details: failure.Details,
	})
}

func renderInternal(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Error(msg, "err", err)
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, ErrorResponse{
		Code:    string(errors.ErrCodeInternal),
		Message: "internal error",
	})
}

// clientIP prefers proxy headers and falls back to the socket peer.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
