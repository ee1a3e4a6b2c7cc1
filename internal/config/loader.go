// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ManuGH/hlsrelay/internal/log"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath string
	envFile    string
	version    string
}

// NewLoader creates a new configuration loader. envFile may be empty to skip
// dotenv loading.
func NewLoader(configPath, envFile, version string) *Loader {
	return &Loader{
		configPath: configPath,
		envFile:    envFile,
		version:    version,
	}
}

// Load resolves configuration with precedence ENV > File > .env > Defaults.
// Dotenv values are read into their own layer and never touch the process
// environment.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	dotenv, err := l.readDotEnv()
	if err != nil {
		return cfg, fmt.Errorf("load env file: %w", err)
	}
	if len(dotenv) > 0 {
		mergeEnvConfig(&cfg, newEnvReader(MapLookup(dotenv), "dotenv"))
	}

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		mergeFileConfig(&cfg, fileCfg)
	}

	mergeEnvConfig(&cfg, processEnv())

	if cfg.Server.PublicURL == "" {
		cfg.Server.PublicURL = "http://" + net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	}
	cfg.Server.PublicURL = strings.TrimRight(cfg.Server.PublicURL, "/")
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) readDotEnv() (map[string]string, error) {
	if l.envFile == "" {
		return nil, nil
	}
	vars, err := godotenv.Read(l.envFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	logger := log.WithComponent("config")
	logger.Debug().Str("path", l.envFile).Int("vars", len(vars)).Msg("loaded env file")
	return vars, nil
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if err == io.EOF {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}

func mergeFileConfig(dst *AppConfig, src *FileConfig) {
	if s := src.Server; s != nil {
		setString(&dst.Server.Host, s.Host)
		setPtr(&dst.Server.Port, s.Port)
		setString(&dst.Server.PublicURL, s.PublicURL)
		if s.AllowedOrigins != nil {
			dst.Server.AllowedOrigins = s.AllowedOrigins
		}
		setPtr(&dst.Server.ReadTimeout, s.ReadTimeout)
		setPtr(&dst.Server.WriteTimeout, s.WriteTimeout)
		setPtr(&dst.Server.IdleTimeout, s.IdleTimeout)
		setPtr(&dst.Server.MaxHeaderBytes, s.MaxHeaderBytes)
		setPtr(&dst.Server.ShutdownTimeout, s.ShutdownTimeout)
	}
	if u := src.Upstream; u != nil {
		setPtr(&dst.Upstream.Timeout, u.Timeout)
		setPtr(&dst.Upstream.ResponseHeaderTimeout, u.ResponseHeaderTimeout)
		setString(&dst.Upstream.UserAgent, u.UserAgent)
		setString(&dst.Upstream.Referer, u.Referer)
		if u.AllowHosts != nil {
			dst.Upstream.AllowHosts = u.AllowHosts
		}
	}
	if r := src.Resolver; r != nil {
		setPtr(&dst.Resolver.Enabled, r.Enabled)
		setPtr(&dst.Resolver.RPS, r.RPS)
	}
	if r := src.RateLimit; r != nil {
		setPtr(&dst.RateLimit.Enabled, r.Enabled)
		setPtr(&dst.RateLimit.RequestsPerMinute, r.RequestsPerMinute)
	}
	if m := src.Metrics; m != nil {
		setString(&dst.Metrics.ListenAddr, m.ListenAddr)
	}
	if t := src.Tracing; t != nil {
		setPtr(&dst.Tracing.Enabled, t.Enabled)
		setString(&dst.Tracing.Exporter, t.Exporter)
		setString(&dst.Tracing.Endpoint, t.Endpoint)
		setPtr(&dst.Tracing.SampleRate, t.SampleRate)
	}
	if lg := src.Log; lg != nil {
		setString(&dst.Log.Level, lg.Level)
		setString(&dst.Log.Service, lg.Service)
	}
}

func mergeEnvConfig(cfg *AppConfig, env envReader) {
	cfg.Server.Host = env.String("HOST", cfg.Server.Host)
	cfg.Server.Port = env.Int("PORT", cfg.Server.Port)
	cfg.Server.PublicURL = env.String("PUBLIC_URL", cfg.Server.PublicURL)
	cfg.Server.AllowedOrigins = env.JSONStringSlice("ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)
	cfg.Server.ReadTimeout = env.Duration("HLSRELAY_SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = env.Duration("HLSRELAY_SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = env.Duration("HLSRELAY_SERVER_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.MaxHeaderBytes = env.Int("HLSRELAY_SERVER_MAX_HEADER_BYTES", cfg.Server.MaxHeaderBytes)
	cfg.Server.ShutdownTimeout = env.Duration("HLSRELAY_SERVER_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Upstream.Timeout = env.Duration("HLSRELAY_UPSTREAM_TIMEOUT", cfg.Upstream.Timeout)
	cfg.Upstream.ResponseHeaderTimeout = env.Duration("HLSRELAY_UPSTREAM_HEADER_TIMEOUT", cfg.Upstream.ResponseHeaderTimeout)
	cfg.Upstream.UserAgent = env.String("HLSRELAY_UPSTREAM_USER_AGENT", cfg.Upstream.UserAgent)
	cfg.Upstream.Referer = env.String("HLSRELAY_UPSTREAM_REFERER", cfg.Upstream.Referer)
	cfg.Upstream.AllowHosts = env.CSV("HLSRELAY_OUTBOUND_ALLOW_HOSTS", cfg.Upstream.AllowHosts)

	cfg.Resolver.Enabled = env.Bool("HLSRELAY_RESOLVER_ENABLED", cfg.Resolver.Enabled)
	cfg.Resolver.RPS = env.Float("HLSRELAY_RESOLVER_RPS", cfg.Resolver.RPS)

	cfg.RateLimit.Enabled = env.Bool("HLSRELAY_RATELIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.RequestsPerMinute = env.Int("HLSRELAY_RATELIMIT_RPM", cfg.RateLimit.RequestsPerMinute)

	cfg.Metrics.ListenAddr = env.String("HLSRELAY_METRICS_LISTEN", cfg.Metrics.ListenAddr)

	cfg.Tracing.Enabled = env.Bool("HLSRELAY_TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = env.String("HLSRELAY_TRACING_EXPORTER", cfg.Tracing.Exporter)
	cfg.Tracing.Endpoint = env.String("HLSRELAY_TRACING_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.SampleRate = env.Float("HLSRELAY_TRACING_SAMPLE_RATE", cfg.Tracing.SampleRate)

	cfg.Log.Level = env.String("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Service = env.String("LOG_SERVICE", cfg.Log.Service)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setPtr[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
