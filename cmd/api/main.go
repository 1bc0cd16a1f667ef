package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"burnt-bistro/internal/config"
	"burnt-bistro/internal/events"
	"burnt-bistro/internal/handler"
	"burnt-bistro/internal/model"
	"burnt-bistro/internal/router"
	"burnt-bistro/internal/service"
	"burnt-bistro/internal/session"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("backend", cfg.Store.Backend).Msg("starting Burnt Bob's Bistro")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Establish the session with the configured store
	sess, err := session.Bootstrap(ctx, cfg, logger)
	if err != nil && !errors.Is(err, model.ErrUnconfigured) {
		return fmt.Errorf("failed to bootstrap session: %w", err)
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close session")
		}
	}()

	var mux http.Handler
	var stopService func()
	if sess.State() == session.StateUnconfigured {
		logger.Warn().Msg("remote store is not configured, serving configuration error")
		mux = router.NewUnconfigured(logger)
	} else {
		publisher := newPublisher(cfg.AMQP, logger)
		defer publisher.Close()

		// Initialize services
		menuService := service.NewMenuService(sess.Store(), publisher, sess.UserID(), logger)
		if err := menuService.Start(ctx); err != nil {
			return fmt.Errorf("failed to start menu service: %w", err)
		}
		defer menuService.Stop()
		stopService = menuService.Stop

		// Initialize HTTP handlers and router
		menuHandler := handler.NewMenuHandler(menuService, logger)
		mux = router.New(menuHandler, logger)
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Stopping the service closes open menu streams so Shutdown can finish
	if stopService != nil {
		server.RegisterOnShutdown(stopService)
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Str("user_id", sess.UserID()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newPublisher connects to RabbitMQ when enabled, falling back to a
// publisher that only logs.
func newPublisher(cfg config.AMQPConfig, logger zerolog.Logger) events.Publisher {
	if !cfg.Enabled {
		logger.Info().Msg("menu change events disabled")
		return events.NewNopPublisher(logger)
	}

	publisher, err := events.NewAMQPPublisher(cfg.URL(), cfg.Exchange, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to connect to RabbitMQ, menu change events disabled")
		return events.NewNopPublisher(logger)
	}

	return publisher
}
