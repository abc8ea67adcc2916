package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/coreybb/couponbook/api"
	"github.com/coreybb/couponbook/config"
	"github.com/coreybb/couponbook/datastore"
	"github.com/coreybb/couponbook/delivery"
	"github.com/coreybb/couponbook/docstore"
	"github.com/coreybb/couponbook/lifecycle"
	"github.com/coreybb/couponbook/models"
	rh "github.com/coreybb/couponbook/route-handlers"
)

const (
	shutdownTimeout = 15 * time.Second
	drainTimeout    = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Configuration failed", "error", err)
		os.Exit(1)
	}

	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	coupons, err := openCollection[models.Coupon](ctx, cfg, logger, "coupons")
	if err != nil {
		return err
	}
	users, err := openCollection[models.User](ctx, cfg, logger, "users")
	if err != nil {
		return err
	}
	suggestions, err := openCollection[models.Suggestion](ctx, cfg, logger, "suggestions")
	if err != nil {
		return err
	}

	couponRepo := datastore.NewCouponRepository(coupons)
	userRepo := datastore.NewUserRepository(users, logger)
	suggestionRepo := datastore.NewSuggestionRepository(suggestions)

	dispatcher := delivery.NewDispatcher(newProvider(cfg, logger), delivery.DispatcherConfig{
		Workers:   cfg.NotifyWorkers,
		QueueSize: cfg.NotifyQueueSize,
		Timeout:   cfg.NotifyTimeout,
		Logger:    logger,
	})

	engine := lifecycle.NewEngine(couponRepo, userRepo, suggestionRepo, dispatcher, logger)

	router := api.SetupRoutes(
		rh.NewCouponHandler(engine),
		rh.NewUserHandler(userRepo),
		rh.NewAuthHandler(userRepo),
		rh.NewSuggestionHandler(engine, suggestionRepo),
	)

	serveErr := startServer(cfg.Port, router, logger)

	// In-flight requests are done; give queued notices a chance to go out.
	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := dispatcher.Close(drainCtx); err != nil {
		logger.Warn("Notification queue not fully drained", "error", err)
	}

	return serveErr
}

// openCollection opens <DATA_DIR>/<name>.json and seeds it from
// <SEED_DIR>/<name>.json according to the configured mode.
func openCollection[T any](ctx context.Context, cfg *config.Config, logger *slog.Logger, name string) (*docstore.Collection[T], error) {
	c, err := docstore.Open[T](cfg.DataDir, name, docstore.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s collection: %w", name, err)
	}
	seed := filepath.Join(cfg.SeedDir, name+".json")
	if err := c.Bootstrap(ctx, seed, cfg.Mode); err != nil {
		return nil, fmt.Errorf("failed to bootstrap %s collection: %w", name, err)
	}
	return c, nil
}

func newProvider(cfg *config.Config, logger *slog.Logger) delivery.Provider {
	switch cfg.Provider() {
	case config.ProviderSendGrid:
		logger.Info("Notices delivered via SendGrid", "from", cfg.SendGridFromEmail)
		return delivery.NewSendGridProvider(cfg.SendGridAPIKey, cfg.SendGridFromEmail, cfg.SendGridFromName)
	case config.ProviderRelay:
		logger.Info("Notices delivered via email relay", "url", cfg.EmailAPIURL)
		return delivery.NewRelayProvider(cfg.EmailAPIURL)
	default:
		logger.Warn("No email transport configured (set SENDGRID_API_KEY or EMAIL_API_URL); notices will only be logged")
		return delivery.NewLogProvider(logger)
	}
}

func startServer(port string, router http.Handler, logger *slog.Logger) error {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdownSignal)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-shutdownSignal: // Block until signal received
	}
	logger.Info("Shutdown signal received, initiating graceful shutdown")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("Server gracefully stopped")
	return nil
}
