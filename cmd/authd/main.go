// Command authd runs the OAuth 2.0 authorization server over the
// configured storage backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/openclave/authd"
	"github.com/openclave/authd/instrumentation"
	"github.com/openclave/authd/security"
	"github.com/openclave/authd/server"
	"github.com/openclave/authd/storage"
	"github.com/openclave/authd/storage/memory"
	"github.com/openclave/authd/storage/postgres"
)

func main() {
	if err := run(); err != nil {
		slog.Error("authd exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// A .env file is optional; real deployments set the environment.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(os.Getenv("AUTHD_LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	config := &server.Config{
		Issuer:            envString("AUTHD_ISSUER", "http://localhost:9096"),
		AccessTokenTTL:    envInt64("AUTHD_ACCESS_TOKEN_TTL", 3600),
		AuthCodeTTL:       envInt64("AUTHD_AUTH_CODE_TTL", 600),
		SessionTTL:        envInt64("AUTHD_SESSION_TTL", 86400),
		PasswordKDF:       envString("AUTHD_PASSWORD_KDF", security.KDFBcrypt),
		TrustProxy:        envBool("AUTHD_TRUST_PROXY"),
		TrustedProxyCount: int(envInt64("AUTHD_TRUSTED_PROXY_COUNT", 1)),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	auditor := security.NewAuditor(logger, envBool("AUTHD_AUDIT_LOG"))

	srv, err := server.New(server.Stores{
		Users:         store,
		Clients:       store,
		AuthCodes:     store,
		AccessTokens:  store,
		RefreshTokens: store,
		Sessions:      store,
	}, config, logger, server.WithAuditor(auditor))
	if err != nil {
		return err
	}

	instr, err := instrumentation.New(instrumentation.Config{
		ServiceName: "authd",
		Enabled:     envBool("AUTHD_TELEMETRY"),
	})
	if err != nil {
		return err
	}

	rateLimiter := security.NewRateLimiter(
		int(envInt64("AUTHD_RATE_LIMIT_RPS", 10)),
		int(envInt64("AUTHD_RATE_LIMIT_BURST", 20)),
		logger,
	)
	defer rateLimiter.Stop()

	handler := authd.NewHandler(srv, logger,
		authd.WithRateLimiter(rateLimiter),
		authd.WithInstrumentation(instr),
	)

	mux := http.NewServeMux()
	handler.Routes(mux)

	addr := envString("AUTHD_ADDR", ":9096")
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("authd listening", "addr", addr, "issuer", config.Issuer)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// openStore builds the configured storage backend. Both backends implement
// every store interface on one value.
func openStore(ctx context.Context, logger *slog.Logger) (storage.Store, func(), error) {
	backend := envString("AUTHD_STORE_BACKEND", "memory")
	switch backend {
	case "memory":
		store := memory.New(memory.WithLogger(logger))
		return store, store.Stop, nil

	case "postgres":
		dsn := os.Getenv("AUTHD_DATABASE_URL")
		if dsn == "" {
			return nil, nil, fmt.Errorf("AUTHD_DATABASE_URL is required for the postgres backend")
		}
		store, err := postgres.Connect(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Setup(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("Ignoring invalid integer environment variable", "key", key, "value", v)
		return fallback
	}
	return parsed
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
