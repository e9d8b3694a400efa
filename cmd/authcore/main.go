// The authcore server: credential storage and sessions in PostgreSQL,
// security alerts over SMTP. Configuration comes from the environment with
// an optional .env file.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/jackc/pgx/v5/pgxpool"

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
	sessionCleanupInterval = time.Hour

	// Revoked sessions are kept for a week for audit review, then deleted.
	revokedRetention = 7 * 24 * time.Hour
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Db.ToDatabaseURL())
	if err != nil {
		slog.Error("Failed to create database pool", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	credRepo := credential.NewPostgresRepository(pool)
	sessionRepo := sessions.NewPostgresRepository(pool)

	passwords := login.NewPasswordManager(credRepo, cfg.PasswordPolicy)

	policy, err := login.PolicyFromConfig(cfg.Login)
	if err != nil {
		slog.Error("Failed to resolve lockout policy", "err", err)
		os.Exit(1)
	}

	lifetimes, err := sessions.LifetimesFromConfig(cfg.Session)
	if err != nil {
		slog.Error("Failed to resolve session lifetimes", "err", err)
		os.Exit(1)
	}
	sessionSvc := sessions.NewService(sessionRepo, lifetimes)

	params, err := twofa.ParamsFromConfig(cfg.Totp)
	if err != nil {
		slog.Error("Failed to resolve totp parameters", "err", err)
		os.Exit(1)
	}
	twoFactor := twofa.NewService(credRepo, passwords, params)

	issuer, err := token.NewIssuer(cfg.Jwt)
	if err != nil {
		slog.Error("Failed to create token issuer", "err", err)
		os.Exit(1)
	}
	tokenTTL, err := cfg.Jwt.ParseAccessTokenExpiry()
	if err != nil {
		slog.Error("Failed to parse access token expiry", "err", err)
		os.Exit(1)
	}

	notifier, err := notification.NewEmailNotifier(cfg.Email)
	if err != nil {
		slog.Error("Failed to create email notifier", "err", err)
		os.Exit(1)
	}

	sink := audit.NewSlogSink(logger)

	flow := loginflow.NewService(credRepo, passwords, sessionSvc, twoFactor, issuer, notifier, sink, policy, tokenTTL)

	handle := api.NewHandle(flow, credRepo, passwords, sessionSvc, twoFactor, notifier, sink,
		cfg.Server.CookieHttpOnly, cfg.Server.CookieSecure, time.Now)
	auth := jwtauth.New("HS256", []byte(cfg.Jwt.Secret), nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	api.Routes(r, handle, auth)

	go runSessionCleanup(ctx, sessionSvc)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shut down cleanly", "err", err)
		}
	}()

	slog.Info("Starting authcore", "addr", cfg.Server.Addr())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Server failed", "err", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}

// runSessionCleanup periodically removes expired sessions and revoked
// sessions past their retention window.
func runSessionCleanup(ctx context.Context, svc *sessions.Service) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			expired, err := svc.CleanupExpired(ctx, now)
			if err != nil {
				slog.Error("Failed to clean up expired sessions", "err", err)
			}
			revoked, err := svc.CleanupOldRevoked(ctx, now.Add(-revokedRetention))
			if err != nil {
				slog.Error("Failed to clean up revoked sessions", "err", err)
			}
			if expired > 0 || revoked > 0 {
				slog.Info("Session cleanup done", "expired", expired, "revoked", revoked)
			}
		}
	}
}
