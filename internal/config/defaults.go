// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 8080

	defaultReadTimeout     = 60 * time.Second
	defaultWriteTimeout    = 0 // 0 = no timeout (crucial for streaming)
	defaultIdleTimeout     = 120 * time.Second
	defaultMaxHeaderBytes  = 1 << 20 // 1 MB
	defaultShutdownTimeout = 15 * time.Second

	defaultUpstreamTimeout       = 30 * time.Second
	defaultResponseHeaderTimeout = 15 * time.Second

	// DefaultUserAgent is a current desktop Edge build. Some origins refuse
	// segment requests without a browser-looking agent.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36 Edg/136.0.0.0"
	DefaultReferer   = "https://www.youtube.com/"

	defaultResolverRPS    = 2.0
	defaultRateLimitRPM   = 1200
	defaultTracingExport  = "grpc"
	defaultTracingTarget  = "localhost:4317"
	defaultTracingSampler = 1.0
	defaultLogLevel       = "info"
	defaultLogService     = "hlsrelay"
)

// Defaults returns the baseline configuration before file and env overrides.
// PublicURL stays empty here and is derived from Host and Port after merging.
func Defaults() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			AllowedOrigins:  []string{},
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			MaxHeaderBytes:  defaultMaxHeaderBytes,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Upstream: UpstreamConfig{
			Timeout:               defaultUpstreamTimeout,
			ResponseHeaderTimeout: defaultResponseHeaderTimeout,
			UserAgent:             DefaultUserAgent,
			Referer:               DefaultReferer,
		},
		Resolver: ResolverConfig{
			Enabled: true,
			RPS:     defaultResolverRPS,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: defaultRateLimitRPM,
		},
		Tracing: TracingConfig{
			Exporter:   defaultTracingExport,
			Endpoint:   defaultTracingTarget,
			SampleRate: defaultTracingSampler,
		},
		Log: LogConfig{
			Level:   defaultLogLevel,
			Service: defaultLogService,
		},
	}
}
