// Copyright (c) 2026 Paperchat. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Paperchat HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/paperchat/internal/api"
	"github.com/taibuivan/paperchat/internal/auth"
	"github.com/taibuivan/paperchat/internal/document"
	"github.com/taibuivan/paperchat/internal/ingest"
	"github.com/taibuivan/paperchat/internal/mail"
	"github.com/taibuivan/paperchat/internal/platform/config"
	"github.com/taibuivan/paperchat/internal/platform/constants"
	"github.com/taibuivan/paperchat/internal/platform/metrics"
	"github.com/taibuivan/paperchat/internal/platform/migration"
	pgstore "github.com/taibuivan/paperchat/internal/platform/postgres"
	redisstore "github.com/taibuivan/paperchat/internal/platform/redis"
	"github.com/taibuivan/paperchat/internal/platform/sec"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "paperchat"))
	slog.SetDefault(log)

	log.Info("[Paperchat] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "paperchat"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Token Services ─────────────────────────────────────────────────
	// User and admin tokens are signed with distinct secrets so the guards
	// reject cross-scope tokens without inspecting claims.
	userTokens := sec.NewTokenService(cfg.JWTSecret, constants.AuthIssuer)
	adminTokens := sec.NewTokenService(cfg.JWTAdminSecret, constants.AuthIssuer)

	// ── 7. Metrics ────────────────────────────────────────────────────────
	metrics.MustRegister()

	// ── 8. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 9. Domain Wiring ──────────────────────────────────────────────────
	userRepository := auth.NewUserRepository(pool)
	verificationRepository := auth.NewVerificationRepository(pool)
	identityRepository := auth.NewOAuthIdentityRepository(pool)
	sessionRepository := auth.NewSessionRepository(pool)
	stateRepository := auth.NewStateRepository(rdb)

	sessionManager := auth.NewSessionManager(sessionRepository, userTokens, adminTokens)
	mailSender := mail.NewSender(cfg.ResendAPIKey, cfg.MailFrom)
	authService := auth.NewService(userRepository, verificationRepository, sessionManager, mailSender)

	registry := auth.NewRegistry(
		auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL),
		auth.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubRedirectURL),
	)
	oauthBridge := auth.NewOAuthBridge(userRepository, identityRepository, sessionManager, stateRepository, registry)
	authHandler := auth.NewHandler(authService, oauthBridge, cfg.FrontendURL)

	retrievalClient := ingest.NewClient(cfg.RAGServiceURL)
	documentRepository := document.NewRepository(pool)
	documentService := document.NewService(documentRepository, userRepository, retrievalClient)
	documentHandler := document.NewHandler(documentService)

	// ── 10. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Document:  documentHandler,
	}

	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, userTokens, adminTokens, handlers)

	// ── 11. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
