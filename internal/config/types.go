// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"net"
	"strconv"
	"time"
)

// AppConfig is the fully resolved runtime configuration. It is built once at
// startup and passed by value into constructors.
type AppConfig struct {
	Version string

	Server    ServerConfig
	Upstream  UpstreamConfig
	Resolver  ResolverConfig
	RateLimit RateLimitConfig
	Metrics   MetricsConfig
	Tracing   TracingConfig
	Log       LogConfig
}

// ServerConfig holds HTTP listener configuration.
type ServerConfig struct {
	Host string
	Port int

	// PublicURL is the externally reachable base of this relay. Rewritten
	// playlists point back at it.
	PublicURL string

	// AllowedOrigins restricts browser origins. Empty allows every origin.
	AllowedOrigins []string

	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes of the response.
	// 0 disables it, which segment streaming requires.
	WriteTimeout time.Duration

	// IdleTimeout is the maximum amount of time to wait for the next request
	IdleTimeout time.Duration

	// MaxHeaderBytes controls the maximum number of bytes the server will read parsing the request header
	MaxHeaderBytes int

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown
	ShutdownTimeout time.Duration
}

// ListenAddr joins Host and Port.
func (s ServerConfig) ListenAddr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// UpstreamConfig controls outbound requests to origins.
type UpstreamConfig struct {
	// Timeout bounds playlist and page fetches end to end.
	Timeout time.Duration
	// ResponseHeaderTimeout bounds the wait for segment response headers.
	ResponseHeaderTimeout time.Duration
	UserAgent             string
	Referer               string
	// AllowHosts restricts outbound hosts. Empty allows any host.
	AllowHosts []string
}

// ResolverConfig controls live-page resolution.
type ResolverConfig struct {
	Enabled bool
	RPS     float64
}

// RateLimitConfig controls ingress rate limiting.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
}

// MetricsConfig controls the Prometheus listener.
type MetricsConfig struct {
	ListenAddr string
}

// TracingConfig controls OTLP trace export.
type TracingConfig struct {
	Enabled    bool
	Exporter   string
	Endpoint   string
	SampleRate float64
}

// LogConfig controls the global logger.
type LogConfig struct {
	Level   string
	Service string
}

// FileConfig is the YAML representation. Pointer fields distinguish unset from zero.
type FileConfig struct {
	Server    *FileServerConfig    `yaml:"server,omitempty"`
	Upstream  *FileUpstreamConfig  `yaml:"upstream,omitempty"`
	Resolver  *FileResolverConfig  `yaml:"resolver,omitempty"`
	RateLimit *FileRateLimitConfig `yaml:"rateLimit,omitempty"`
	Metrics   *FileMetricsConfig   `yaml:"metrics,omitempty"`
	Tracing   *FileTracingConfig   `yaml:"tracing,omitempty"`
	Log       *FileLogConfig       `yaml:"log,omitempty"`
}

type FileServerConfig struct {
	Host            string         `yaml:"host,omitempty"`
	Port            *int           `yaml:"port,omitempty"`
	PublicURL       string         `yaml:"publicURL,omitempty"`
	AllowedOrigins  []string       `yaml:"allowedOrigins,omitempty"`
	ReadTimeout     *time.Duration `yaml:"readTimeout,omitempty"`
	WriteTimeout    *time.Duration `yaml:"writeTimeout,omitempty"`
	IdleTimeout     *time.Duration `yaml:"idleTimeout,omitempty"`
	MaxHeaderBytes  *int           `yaml:"maxHeaderBytes,omitempty"`
	ShutdownTimeout *time.Duration `yaml:"shutdownTimeout,omitempty"`
}

type FileUpstreamConfig struct {
	Timeout               *time.Duration `yaml:"timeout,omitempty"`
	ResponseHeaderTimeout *time.Duration `yaml:"responseHeaderTimeout,omitempty"`
	UserAgent             string         `yaml:"userAgent,omitempty"`
	Referer               string         `yaml:"referer,omitempty"`
	AllowHosts            []string       `yaml:"allowHosts,omitempty"`
}

type FileResolverConfig struct {
	Enabled *bool    `yaml:"enabled,omitempty"`
	RPS     *float64 `yaml:"rps,omitempty"`
}

type FileRateLimitConfig struct {
	Enabled           *bool `yaml:"enabled,omitempty"`
	RequestsPerMinute *int  `yaml:"requestsPerMinute,omitempty"`
}

type FileMetricsConfig struct {
	ListenAddr string `yaml:"listenAddr,omitempty"`
}

type FileTracingConfig struct {
	Enabled    *bool    `yaml:"enabled,omitempty"`
	Exporter   string   `yaml:"exporter,omitempty"`
	Endpoint   string   `yaml:"endpoint,omitempty"`
	SampleRate *float64 `yaml:"sampleRate,omitempty"`
}

type FileLogConfig struct {
	Level   string `yaml:"level,omitempty"`
	Service string `yaml:"service,omitempty"`
}
