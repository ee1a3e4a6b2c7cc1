// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() AppConfig {
	cfg := Defaults()
	cfg.Server.PublicURL = "http://127.0.0.1:8080"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		field  string
	}{
		{name: "valid", mutate: func(*AppConfig) {}},
		{name: "port out of range", mutate: func(c *AppConfig) { c.Server.Port = 70000 }, field: "server.port"},
		{name: "public url without scheme", mutate: func(c *AppConfig) { c.Server.PublicURL = "relay.example" }, field: "server.publicURL"},
		{name: "public url with query", mutate: func(c *AppConfig) { c.Server.PublicURL = "http://relay.example/?a=b" }, field: "server.publicURL"},
		{name: "negative read timeout", mutate: func(c *AppConfig) { c.Server.ReadTimeout = -1 }, field: "server.readTimeout"},
		{name: "zero upstream timeout", mutate: func(c *AppConfig) { c.Upstream.Timeout = 0 }, field: "upstream.timeout"},
		{name: "bad allow host", mutate: func(c *AppConfig) { c.Upstream.AllowHosts = []string{"https://x"} }, field: "upstream.allowHosts"},
		{name: "resolver rps", mutate: func(c *AppConfig) { c.Resolver.RPS = 0 }, field: "resolver.rps"},
		{name: "rate limit rpm", mutate: func(c *AppConfig) { c.RateLimit.Enabled = true; c.RateLimit.RequestsPerMinute = 0 }, field: "rateLimit.requestsPerMinute"},
		{name: "tracing exporter", mutate: func(c *AppConfig) { c.Tracing.Enabled = true; c.Tracing.Exporter = "zipkin" }, field: "tracing.exporter"},
		{name: "sample rate", mutate: func(c *AppConfig) { c.Tracing.SampleRate = 1.5 }, field: "tracing.sampleRate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}
