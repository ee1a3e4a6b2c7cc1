// SPDX-License-Identifier: MIT

package daemon

import (
	"net/http"

	"github.com/ManuGH/hlsrelay/internal/config"
	"github.com/ManuGH/hlsrelay/internal/health"
	"github.com/rs/zerolog"
)

// Deps contains dependencies required by the daemon Manager.
type Deps struct {
	// Logger is the structured logger for the daemon
	Logger zerolog.Logger

	// Config is the loaded application configuration
	Config config.AppConfig

	// RelayHandler serves /hls-proxy, /seg and the health endpoints
	RelayHandler http.Handler

	// MetricsHandler serves Prometheus metrics on Config.Metrics.ListenAddr
	MetricsHandler http.Handler

	// Drain flips readiness off when shutdown begins (optional)
	Drain *health.DrainChecker
}

// Validate checks if the dependencies are valid.
func (d *Deps) Validate() error {
	if d.Logger.GetLevel() == zerolog.Disabled {
		return ErrMissingLogger
	}
	if d.RelayHandler == nil {
		return ErrMissingRelayHandler
	}
	// Config validation is done by config.Loader
	return nil
}
