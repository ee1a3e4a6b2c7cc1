// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"net/url"
	"strings"

	platformnet "github.com/ManuGH/hlsrelay/internal/platform/net"
)

// Validate checks a resolved configuration. All failures are joined so the
// operator sees every problem at once.
func Validate(cfg AppConfig) error {
	var errs []error
	add := func(field string, value any, msg string) {
		errs = append(errs, &ValidationError{Field: field, Value: value, Message: msg})
	}

	if strings.TrimSpace(cfg.Server.Host) == "" {
		add("server.host", cfg.Server.Host, "must not be empty")
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		add("server.port", cfg.Server.Port, "must be between 1 and 65535")
	}
	if u, err := url.Parse(cfg.Server.PublicURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("server.publicURL", cfg.Server.PublicURL, "must be an absolute http(s) URL")
	} else if u.RawQuery != "" || u.Fragment != "" {
		add("server.publicURL", cfg.Server.PublicURL, "must not carry a query or fragment")
	}
	if cfg.Server.ReadTimeout < 0 {
		add("server.readTimeout", cfg.Server.ReadTimeout, "must not be negative")
	}
	if cfg.Server.WriteTimeout < 0 {
		add("server.writeTimeout", cfg.Server.WriteTimeout, "must not be negative")
	}
	if cfg.Server.IdleTimeout < 0 {
		add("server.idleTimeout", cfg.Server.IdleTimeout, "must not be negative")
	}
	if cfg.Server.MaxHeaderBytes <= 0 {
		add("server.maxHeaderBytes", cfg.Server.MaxHeaderBytes, "must be positive")
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		add("server.shutdownTimeout", cfg.Server.ShutdownTimeout, "must be positive")
	}

	if cfg.Upstream.Timeout <= 0 {
		add("upstream.timeout", cfg.Upstream.Timeout, "must be positive")
	}
	if cfg.Upstream.ResponseHeaderTimeout <= 0 {
		add("upstream.responseHeaderTimeout", cfg.Upstream.ResponseHeaderTimeout, "must be positive")
	}
	for _, h := range cfg.Upstream.AllowHosts {
		if _, err := platformnet.NormalizeHost(h); err != nil {
			add("upstream.allowHosts", h, err.Error())
		}
	}

	if cfg.Resolver.Enabled && cfg.Resolver.RPS <= 0 {
		add("resolver.rps", cfg.Resolver.RPS, "must be positive when the resolver is enabled")
	}
	if cfg.RateLimit.Enabled && cfg.RateLimit.RequestsPerMinute <= 0 {
		add("rateLimit.requestsPerMinute", cfg.RateLimit.RequestsPerMinute, "must be positive when rate limiting is enabled")
	}

	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Exporter {
		case "grpc", "http":
		default:
			add("tracing.exporter", cfg.Tracing.Exporter, "must be grpc or http")
		}
		if cfg.Tracing.Endpoint == "" {
			add("tracing.endpoint", cfg.Tracing.Endpoint, "must not be empty")
		}
	}
	if cfg.Tracing.SampleRate < 0 || cfg.Tracing.SampleRate > 1 {
		add("tracing.sampleRate", cfg.Tracing.SampleRate, "must be within [0, 1]")
	}

	return errors.Join(errs...)
}
