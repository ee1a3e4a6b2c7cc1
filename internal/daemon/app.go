// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"fmt"

	"github.com/ManuGH/hlsrelay/internal/config"
	"github.com/ManuGH/hlsrelay/internal/health"
	"github.com/ManuGH/hlsrelay/internal/log"
	"github.com/rs/zerolog"
)

// App owns the long-lived runtime lifecycle and delegates server management
// to Manager.
type App struct {
	logger  zerolog.Logger
	manager Manager
}

// NewApp creates a new App orchestrator.
func NewApp(logger zerolog.Logger, manager Manager) *App {
	return &App{
		logger:  logger,
		manager: manager,
	}
}

// Run blocks until ctx is cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	err := a.manager.Start(ctx)
	if err != nil {
		a.logger.Error().Err(err).Str(log.FieldEvent, "daemon.failed").Msg("daemon stopped with error")
		_ = a.manager.Shutdown(context.Background())
	}
	return err
}

// Run builds the relay from cfg, runs pre-flight checks and serves until ctx
// is cancelled.
func Run(ctx context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("daemon")

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	rt, err := Build(ctx, cfg)
	if err != nil {
		return err
	}

	mgr, err := NewManager(cfg.Server, Deps{
		Logger:         logger,
		Config:         cfg,
		RelayHandler:   rt.Handler,
		MetricsHandler: rt.Metrics,
		Drain:          rt.Drain,
	})
	if err != nil {
		_ = rt.Telemetry.Shutdown(context.Background())
		return err
	}
	mgr.RegisterShutdownHook("telemetry", rt.Telemetry.Shutdown)

	logger.Info().
		Str("version", cfg.Version).
		Str("listen", cfg.Server.ListenAddr()).
		Msg("Starting hlsrelay daemon")

	return NewApp(logger, mgr).Run(ctx)
}
