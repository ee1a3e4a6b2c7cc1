// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/ManuGH/hlsrelay/internal/config"
	"github.com/ManuGH/hlsrelay/internal/log"
	"github.com/rs/zerolog"
)

// PerformStartupChecks validates runtime-critical settings before the
// listeners open.
func PerformStartupChecks(ctx context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running pre-flight startup checks")

	if err := checkListenAddr(logger, "relay", cfg.Server.ListenAddr()); err != nil {
		return err
	}
	if cfg.Metrics.ListenAddr != "" {
		if err := checkListenAddr(logger, "metrics", cfg.Metrics.ListenAddr); err != nil {
			return err
		}
		if cfg.Metrics.ListenAddr == cfg.Server.ListenAddr() {
			return fmt.Errorf("metrics listen address %q collides with the relay listener", cfg.Metrics.ListenAddr)
		}
	}

	if err := checkPublicURL(logger, cfg.Server.PublicURL); err != nil {
		return err
	}

	if len(cfg.Upstream.AllowHosts) == 0 {
		logger.Warn().Msg("no upstream allow-list configured; the relay will fetch from any host")
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		logger.Info().Msg("no origin allow-list configured; all browser origins are accepted")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	logger.Info().Msg("all startup checks passed")
	return nil
}

func checkListenAddr(logger zerolog.Logger, name, addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid %s listen address %q: %w", name, addr, err)
	}
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 0 || portNum > 65535 {
		return fmt.Errorf("invalid %s listen port %q in %q", name, port, addr)
	}
	logger.Debug().Str("addr", addr).Msgf("%s listen address is valid", name)
	return nil
}

func checkPublicURL(logger zerolog.Logger, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid PUBLIC_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("PUBLIC_URL scheme must be http or https, got: %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("PUBLIC_URL must include a host: %q", raw)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("PUBLIC_URL must not carry a query or fragment: %q", raw)
	}
	logger.Info().Str("public_url", raw).Msg("relay URLs will point at the public URL")
	return nil
}
