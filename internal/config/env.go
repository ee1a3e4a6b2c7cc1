// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/hlsrelay/internal/log"
	"github.com/rs/zerolog"
)

// LookupFunc resolves a variable the way os.LookupEnv does.
type LookupFunc func(key string) (string, bool)

// MapLookup serves variables from a parsed dotenv map.
func MapLookup(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// envReader parses typed values from one variable source. source names the
// layer in debug logs.
type envReader struct {
	lookup LookupFunc
	source string
	logger zerolog.Logger
}

func newEnvReader(lookup LookupFunc, source string) envReader {
	return envReader{lookup: lookup, source: source, logger: log.WithComponent("config")}
}

func processEnv() envReader {
	return newEnvReader(os.LookupEnv, "environment")
}

// ParseString reads a string from environment variable or returns default value.
// It logs the source (environment or default) for observability.
func ParseString(key, defaultValue string) string {
	return processEnv().String(key, defaultValue)
}

// ParseInt reads an integer from environment variable or returns default value.
// It validates the input and falls back to default on parse errors.
func ParseInt(key string, defaultValue int) int {
	return processEnv().Int(key, defaultValue)
}

// ParseDuration reads a duration from environment variable in Go duration format (e.g. "5s").
// It falls back to default on parse errors or empty variables and logs the choice.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	return processEnv().Duration(key, defaultValue)
}

// ParseBool reads a boolean from environment variable or returns default value.
// It accepts "true", "false", "1", "0", "yes", "no" (case-insensitive).
func ParseBool(key string, defaultValue bool) bool {
	return processEnv().Bool(key, defaultValue)
}

// ParseFloat reads a float64 from environment variable or returns default value.
func ParseFloat(key string, defaultValue float64) float64 {
	return processEnv().Float(key, defaultValue)
}

// ParseCSV reads a comma separated list. Blank entries are dropped.
func ParseCSV(key string, defaultValue []string) []string {
	return processEnv().CSV(key, defaultValue)
}

// ParseJSONStringSlice reads a JSON array of strings. Malformed input is
// logged and yields an empty slice, never the default.
func ParseJSONStringSlice(key string, defaultValue []string) []string {
	return processEnv().JSONStringSlice(key, defaultValue)
}

func (e envReader) String(key, defaultValue string) string {
	if value, exists := e.lookup(key); exists {
		lowerKey := strings.ToLower(key)
		switch {
		case strings.Contains(lowerKey, "token") || strings.Contains(lowerKey, "password"):
			e.logger.Debug().
				Str("key", key).
				Str("source", e.source).
				Bool("sensitive", true).
				Msg("using configured variable")
		case value == "":
			e.logger.Debug().
				Str("key", key).
				Str("default", defaultValue).
				Str("source", "default").
				Msg("using default value (variable is empty)")
			return defaultValue
		default:
			e.logger.Debug().
				Str("key", key).
				Str("value", value).
				Str("source", e.source).
				Msg("using configured variable")
		}
		return value
	}
	return defaultValue
}

func (e envReader) Int(key string, defaultValue int) int {
	if v, ok := e.lookup(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			e.logger.Debug().
				Str("key", key).
				Int("value", i).
				Str("source", e.source).
				Msg("using configured variable")
			return i
		}
		e.logger.Warn().
			Str("key", key).
			Str("value", v).
			Str("source", e.source).
			Int("default", defaultValue).
			Msg("invalid integer in variable, using default")
	}
	return defaultValue
}

func (e envReader) Duration(key string, defaultValue time.Duration) time.Duration {
	if v, ok := e.lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			e.logger.Debug().
				Str("key", key).
				Dur("value", d).
				Str("source", e.source).
				Msg("using configured variable")
			return d
		}
		e.logger.Warn().
			Str("key", key).
			Str("value", v).
			Str("source", e.source).
			Dur("default", defaultValue).
			Msg("invalid duration in variable, using default")
	}
	return defaultValue
}

func (e envReader) Bool(key string, defaultValue bool) bool {
	if v, ok := e.lookup(key); ok && v != "" {
		switch strings.ToLower(v) {
		case "true", "1", "yes":
			e.logger.Debug().Str("key", key).Bool("value", true).Str("source", e.source).Msg("using configured variable")
			return true
		case "false", "0", "no":
			e.logger.Debug().Str("key", key).Bool("value", false).Str("source", e.source).Msg("using configured variable")
			return false
		default:
			e.logger.Warn().
				Str("key", key).
				Str("value", v).
				Str("source", e.source).
				Bool("default", defaultValue).
				Msg("invalid boolean in variable, using default")
		}
	}
	return defaultValue
}

func (e envReader) Float(key string, defaultValue float64) float64 {
	if v, ok := e.lookup(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			e.logger.Debug().
				Str("key", key).
				Float64("value", f).
				Str("source", e.source).
				Msg("using configured variable")
			return f
		}
		e.logger.Warn().
			Str("key", key).
			Str("value", v).
			Str("source", e.source).
			Float64("default", defaultValue).
			Msg("invalid float in variable, using default")
	}
	return defaultValue
}

func (e envReader) CSV(key string, defaultValue []string) []string {
	raw := e.String(key, "")
	if raw == "" {
		return defaultValue
	}
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (e envReader) JSONStringSlice(key string, defaultValue []string) []string {
	raw, ok := e.lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return defaultValue
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		e.logger.Warn().
			Err(err).
			Str("key", key).
			Str("source", e.source).
			Msg("invalid JSON array in variable, using empty list")
		return []string{}
	}
	e.logger.Debug().
		Str("key", key).
		Strs("value", out).
		Str("source", e.source).
		Msg("using configured variable")
	return out
}
