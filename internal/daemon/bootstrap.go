// SPDX-License-Identifier: MIT

// Package daemon provides the core daemon bootstrapping and lifecycle management.
package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ManuGH/hlsrelay/internal/config"
	"github.com/ManuGH/hlsrelay/internal/control/middleware"
	"github.com/ManuGH/hlsrelay/internal/health"
	"github.com/ManuGH/hlsrelay/internal/log"
	platformnet "github.com/ManuGH/hlsrelay/internal/platform/net"
	"github.com/ManuGH/hlsrelay/internal/platform/httpx"
	"github.com/ManuGH/hlsrelay/internal/proxy"
	"github.com/ManuGH/hlsrelay/internal/relay"
	"github.com/ManuGH/hlsrelay/internal/resolver"
	"github.com/ManuGH/hlsrelay/internal/telemetry"
	"github.com/ManuGH/hlsrelay/internal/upstream"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Runtime is the fully wired relay, ready to be handed to a Manager.
type Runtime struct {
	Config    config.AppConfig
	Handler   http.Handler
	Metrics   http.Handler
	Health    *health.Manager
	Drain     *health.DrainChecker
	Telemetry *telemetry.Provider
}

// Build wires every relay component from cfg. The returned Telemetry
// provider must be shut down by the caller.
func Build(ctx context.Context, cfg config.AppConfig) (*Runtime, error) {
	logger := log.WithComponent("daemon")

	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.Log.Service,
		ServiceVersion: cfg.Version,
		ExporterType:   cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry init failed: %w", err)
	}
	if cfg.Tracing.Enabled {
		logger.Info().
			Str("exporter", cfg.Tracing.Exporter).
			Str("endpoint", cfg.Tracing.Endpoint).
			Float64("sampling_rate", cfg.Tracing.SampleRate).
			Msg("Telemetry initialized")
	}

	policy, err := platformnet.NewHostPolicy(cfg.Upstream.AllowHosts)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, fmt.Errorf("outbound allow-list: %w", err)
	}

	clientOpts := clientOptions(cfg)
	fetcher := upstream.NewFetcher(httpx.NewClient(clientOpts), policy)

	// A nil *resolver.Resolver must not reach the interface.
	var urlResolver proxy.URLResolver
	if cfg.Resolver.Enabled {
		urlResolver = newResolver(cfg, fetcher)
	}

	handlers := proxy.NewHandlers(
		urlResolver,
		relay.NewPlaylistService(fetcher, cfg.Server.PublicURL),
		relay.NewSegmentRelay(httpx.NewStreamingClient(clientOpts), policy, cfg.Upstream),
	)

	drain := health.NewDrainChecker()
	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(drain)

	stack := middleware.StackConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		EnableMetrics:  cfg.Metrics.ListenAddr != "",
		EnableLogging:  true,
	}
	if cfg.Tracing.Enabled {
		stack.TracingService = cfg.Log.Service
	}
	if cfg.RateLimit.Enabled {
		stack.RateLimitRPM = cfg.RateLimit.RequestsPerMinute
	}

	rt := &Runtime{
		Config:    cfg,
		Handler:   proxy.NewRouter(handlers, hm, stack),
		Health:    hm,
		Drain:     drain,
		Telemetry: provider,
	}
	if cfg.Metrics.ListenAddr != "" {
		rt.Metrics = promhttp.Handler()
	}

	logger.Info().
		Bool("resolver", cfg.Resolver.Enabled).
		Bool("rate_limit", cfg.RateLimit.Enabled).
		Bool("tracing", cfg.Tracing.Enabled).
		Int("allow_hosts", len(cfg.Upstream.AllowHosts)).
		Msg("relay components wired")

	return rt, nil
}

// NewPlaylistTools builds the resolver and playlist service without any
// listener, for one-shot command line use.
func NewPlaylistTools(cfg config.AppConfig) (*resolver.Resolver, *relay.PlaylistService, error) {
	policy, err := platformnet.NewHostPolicy(cfg.Upstream.AllowHosts)
	if err != nil {
		return nil, nil, fmt.Errorf("outbound allow-list: %w", err)
	}
	fetcher := upstream.NewFetcher(httpx.NewClient(clientOptions(cfg)), policy)
	return newResolver(cfg, fetcher), relay.NewPlaylistService(fetcher, cfg.Server.PublicURL), nil
}

func clientOptions(cfg config.AppConfig) httpx.Options {
	return httpx.Options{
		Timeout:               cfg.Upstream.Timeout,
		ResponseHeaderTimeout: cfg.Upstream.ResponseHeaderTimeout,
		Instrument:            cfg.Tracing.Enabled,
	}
}

func newResolver(cfg config.AppConfig, fetcher *upstream.Fetcher) *resolver.Resolver {
	return resolver.New(fetcher, resolver.Options{
		UserAgent: cfg.Upstream.UserAgent,
		RPS:       cfg.Resolver.RPS,
	})
}

// WaitForShutdown waits for interrupt/termination signals.
func WaitForShutdown(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
