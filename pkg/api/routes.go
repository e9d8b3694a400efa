package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
)

// Routes mounts the authentication API. Protected routes require a bearer
// token verified by auth; logout only needs the session cookie so a client
// with an expired token can still end its session.
func Routes(r chi.Router, h *Handle, auth *jwtauth.JWTAuth) {
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", h.Register)
			r.Post("/auth/login", h.Login)
			r.Post("/auth/logout", h.Logout)
			r.Post("/password/strength", h.PasswordStrength)
		})

		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(auth))
			r.Use(jwtauth.Authenticator(auth))

			r.Post("/auth/logout-all", h.LogoutAll)
			r.Get("/sessions", h.ListSessions)
			r.Post("/password/change", h.ChangePassword)

			r.Post("/2fa/setup", h.SetupTwoFactor)
			r.Post("/2fa/enable", h.EnableTwoFactor)
			r.Post("/2fa/disable", h.DisableTwoFactor)
			r.Post("/2fa/backup-codes", h.RegenerateBackupCodes)
		})
	})
}
