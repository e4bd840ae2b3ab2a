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

	"quickchat/internal/config"
	"quickchat/internal/observability/logging"
	"quickchat/internal/observability/metrics"
	"quickchat/internal/observability/middleware"
	"quickchat/internal/presence"
	"quickchat/internal/service"
	"quickchat/internal/store"
	transport "quickchat/internal/transport/http"
)

func main() {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}

	logger := logging.NewLogger(logging.Config{
		ServiceName: "quickchat",
		Environment: env,
		Level:       os.Getenv("LOG_LEVEL"),
	})

	slog.SetDefault(logger)
	metrics.MustRegister("quickchat")

	logger.Info("starting service")

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connect", "error", err)
		os.Exit(1)
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		logger.Error("ensure indexes", "error", err)
		os.Exit(1)
	}

	users := store.NewUserStore(db)
	messages := store.NewMessageStore(db)
	media := store.NewMediaStore(db)

	passwords := service.NewPasswordService(cfg.BcryptCost)
	tokens := service.NewTokenServiceHS256(service.TokenConfig{
		Issuer:     cfg.Issuer,
		Audience:   cfg.Audience,
		AccessTTL:  cfg.AccessTTL,
		SigningKey: []byte(cfg.SigningKey),
	})

	registry := presence.NewRegistry()

	authSvc := service.NewAuthService(users, passwords, tokens, media)
	msgSvc := service.NewMessageService(messages, users, media, registry)

	mux := transport.NewRouter(authSvc, msgSvc, tokens, media, registry, transport.Config{
		CORSOrigins:     cfg.CORSOrigins,
		RateLimit:       cfg.RateLimit,
		RateLimitWindow: cfg.RateLimitWindow,
		WSPingInterval:  cfg.WSPingInterval,
	})

	handler := middleware.WithRequestAndTrace(middleware.WithMetrics(mux))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	slog.Info("quickchat listening", "addr", cfg.Addr)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
		if err := db.Close(shutdownCtx); err != nil {
			logger.Error("mongo close", "error", err)
		}
	}
}
