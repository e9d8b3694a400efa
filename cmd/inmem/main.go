// A development server with in-memory storage: no database, no SMTP. All
// data is lost on exit. For production use cmd/authcore with PostgreSQL.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"

	"github.com/verisafe/authcore/pkg/api"
	"github.com/verisafe/authcore/pkg/audit"
	"github.com/verisafe/authcore/pkg/config"
	"github.com/verisafe/authcore/pkg/credential"
	"github.com/verisafe/authcore/pkg/login"
	"github.com/verisafe/authcore/pkg/loginflow"
	"github.com/verisafe/authcore/pkg/notification"
	"github.com/verisafe/authcore/pkg/sessions"
	"github.com/verisafe/authcore/pkg/token"
	"github.com/verisafe/authcore/pkg/twofa"
)

const (
	listenAddr = "localhost:4000"
	jwtSecret  = "inmem-dev-secret-change-in-production"

	seedEmail    = "admin@example.com"
	seedPassword = "Admin4ever!"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	credRepo := credential.NewInMemoryRepository()
	sessionRepo := sessions.NewInMemoryRepository()

	passwords := login.NewPasswordManager(credRepo, config.DefaultPasswordPolicyConfig())

	policy, err := login.PolicyFromConfig(config.DefaultLoginConfig())
	if err != nil {
		slog.Error("Failed to resolve lockout policy", "err", err)
		os.Exit(1)
	}

	lifetimes, err := sessions.LifetimesFromConfig(config.DefaultSessionConfig())
	if err != nil {
		slog.Error("Failed to resolve session lifetimes", "err", err)
		os.Exit(1)
	}
	sessionSvc := sessions.NewService(sessionRepo, lifetimes)

	params, err := twofa.ParamsFromConfig(config.DefaultTotpConfig())
	if err != nil {
		slog.Error("Failed to resolve totp parameters", "err", err)
		os.Exit(1)
	}
	twoFactor := twofa.NewService(credRepo, passwords, params)

	issuer, err := token.NewIssuer(config.JwtConfig{
		Secret:            jwtSecret,
		Issuer:            "authcore-dev",
		Audience:          "authcore-dev",
		AccessTokenExpiry: "PT1H",
	})
	if err != nil {
		slog.Error("Failed to create token issuer", "err", err)
		os.Exit(1)
	}

	sink := audit.NewSlogSink(logger)
	notifier := notification.NoopNotifier{}

	flow := loginflow.NewService(credRepo, passwords, sessionSvc, twoFactor, issuer, notifier, sink, policy, time.Hour)

	seed(credRepo, passwords)

	handle := api.NewHandle(flow, credRepo, passwords, sessionSvc, twoFactor, notifier, sink,
		true, false, time.Now)
	auth := jwtauth.New("HS256", []byte(jwtSecret), nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	api.Routes(r, handle, auth)

	slog.Info(strings.Repeat("=", 60))
	slog.Info("In-memory auth service ready", "addr", listenAddr)
	slog.Info("Test credentials", "email", seedEmail, "password", seedPassword)
	slog.Info("Endpoints:")
	slog.Info("  POST /api/auth/register")
	slog.Info("  POST /api/auth/login")
	slog.Info("  POST /api/auth/logout")
	slog.Info("  POST /api/auth/logout-all    (bearer token)")
	slog.Info("  GET  /api/sessions           (bearer token)")
	slog.Info("  POST /api/password/change    (bearer token)")
	slog.Info("  POST /api/password/strength")
	slog.Info("  POST /api/2fa/setup          (bearer token)")
	slog.Info("  POST /api/2fa/enable         (bearer token)")
	slog.Info("  POST /api/2fa/disable        (bearer token)")
	slog.Info("  POST /api/2fa/backup-codes   (bearer token)")
	slog.Info(strings.Repeat("=", 60))

	if err := http.ListenAndServe(listenAddr, r); err != nil {
		slog.Error("Server failed", "err", err)
		os.Exit(1)
	}
}

func seed(repo *credential.InMemoryRepository, passwords *login.PasswordManager) {
	digest, version, err := passwords.HashPassword(seedPassword)
	if err != nil {
		slog.Error("Failed to hash seed password", "err", err)
		os.Exit(1)
	}
	_, err = repo.Create(context.Background(), credential.Credential{
		Email:           seedEmail,
		PasswordHash:    digest,
		PasswordVersion: int32(version),
		Role:            "admin",
		Active:          true,
	})
	if err != nil {
		slog.Error("Failed to seed credential", "err", err)
		os.Exit(1)
	}
}
