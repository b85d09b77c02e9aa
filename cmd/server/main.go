package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mcoot/triviaduel/internal/api"
	"github.com/mcoot/triviaduel/internal/factory"
)

func main() {
	// A missing .env is fine
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &Config{}
	if err := newCmd(cfg).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *Config) error {
	logger := cfg.newLogger()
	slog.SetDefault(logger)

	app, err := factory.New(ctx, cfg.factoryConfig(logger))
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	if err := app.Reaper.Start(); err != nil {
		_ = app.Close(context.Background())
		return fmt.Errorf("failed to start reaper: %w", err)
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		Controller:     app.MatchController,
		Matches:        app.Storage,
		Results:        app.ResultsService,
		HubManager:     app.HubManager,
		Clock:          app.Clock,
		PublicURL:      cfg.publicURL,
		AllowedOrigins: cfg.allowedOrigins,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.bind
	serverConfig.Port = cfg.port
	server := api.NewServer(router, serverConfig, logger)
	server.RegisterOnShutdown(app.HubManager.Shutdown)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.storage),
		slog.String("results", cfg.resultsDriver),
	)

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if serveErr == nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	}

	// Websocket sessions are hijacked, so server.Shutdown does not wait for
	// them. Their departure handling must finish before storage closes.
	app.HubManager.Shutdown()
	if err := app.HubManager.Wait(shutdownCtx); err != nil {
		logger.Warn("sessions still open at shutdown", slog.Any("error", err))
	}
	app.Reaper.Stop(shutdownCtx)
	if err := app.Close(shutdownCtx); err != nil {
		logger.Error("failed to close storage", slog.Any("error", err))
	}

	logger.Info("server stopped")
	return serveErr
}
