// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config resolves the relay configuration from defaults, an optional
// strict YAML file, an optional .env file and the process environment.
package config
