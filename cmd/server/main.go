package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/notify"
	"github.com/mmynk/splitledger/internal/realtime"
	"github.com/mmynk/splitledger/internal/server"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage/sqlstore"
	"github.com/mmynk/splitledger/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited", "error", err)
		os.Exit(1)
	}
}

// run wires the server and blocks until a shutdown signal. Returning
// instead of exiting lets the deferred closes run.
func run() error {
	cfg := config.Load()
	logger := logging.SetupWith(cfg.LogLevel, cfg.LogFormat)

	if cfg.Production() && cfg.JWTSecret == "dev-secret-change-me" {
		return errors.New("JWT_SECRET must be set in production")
	}

	store, err := sqlstore.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize %s storage: %w", cfg.DBDriver, err)
	}
	defer store.Close()
	logger.Info("Storage initialized", "driver", cfg.DBDriver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	hub := realtime.NewHub(m, logger)

	var publisher realtime.Publisher = hub
	redisClient, err := realtime.ConnectRedis(ctx, cfg.RedisURL)
	switch {
	case err != nil:
		logger.Warn("Redis not available, delivering realtime events locally", "error", err)
	case redisClient != nil:
		bus := realtime.NewRedisBus(redisClient, hub, logger)
		defer bus.Close()
		go func() {
			if err := bus.Run(ctx); err != nil {
				logger.Error("Realtime bus stopped", "error", err)
			}
		}()
		publisher = bus
		logger.Info("Redis connected, fanning out realtime events", "channel", realtime.Channel)
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	notifier := notify.New(store, publisher, m, logger)

	handler := server.NewRouter(server.Deps{
		Services: server.Services{
			Auth:          service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, logger),
			Friends:       service.NewFriendService(store, logger),
			Trips:         service.NewTripService(store, logger),
			Ledger:        service.NewLedgerService(store, notifier, m, logger),
			Balances:      service.NewBalanceService(store, notifier, m, logger),
			Budgets:       service.NewBudgetService(store, logger),
			Notifications: service.NewNotificationService(store, logger),
		},
		JWT:            jwtManager,
		Hub:            hub,
		Metrics:        m,
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
		Pinger:         store,
	})

	// h2c serves HTTP/2 without TLS, which Connect's gRPC protocol needs.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Connect server starting", "address", srv.Addr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("Shutting down", "timeout", cfg.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
