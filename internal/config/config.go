// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

// Package config loads server configuration from defaults, an optional
// YAML file, command-line flags, and the DATABASE_URL environment variable.
package config

import (
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Default configuration values.
const (
	DefaultHTTPAddr     = "127.0.0.1:8080"
	DefaultMetricsAddr  = "127.0.0.1:9100"
	DefaultLogFormat    = "json"
	DefaultPointsPerDay = 1
	DefaultTravelCost   = 1
)

// Config holds the full server configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Log      LogConfig      `koanf:"log"`
	Database DatabaseConfig `koanf:"database"`
	Travel   TravelConfig   `koanf:"travel"`
}

// HTTPConfig holds listen addresses.
type HTTPConfig struct {
	Addr        string `koanf:"addr"`
	MetricsAddr string `koanf:"metrics_addr"` // empty disables the metrics server
}

// LogConfig holds logging settings.
type LogConfig struct {
	Format string `koanf:"format"` // "json" or "text"
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// TravelConfig holds the point-economy tunables.
type TravelConfig struct {
	PointsPerDay int `koanf:"points_per_day"`
	StartCost    int `koanf:"start_cost"`
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("http.addr is required")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").
			With("format", c.Log.Format).
			Errorf("log.format must be 'json' or 'text'")
	}
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url or DATABASE_URL is required")
	}
	if c.Travel.PointsPerDay < 0 {
		return oops.Code("CONFIG_INVALID").Errorf("travel.points_per_day cannot be negative")
	}
	if c.Travel.StartCost < 0 {
		return oops.Code("CONFIG_INVALID").Errorf("travel.start_cost cannot be negative")
	}
	return nil
}

// Load builds a Config from defaults, then the YAML file at path (if not
// empty), then the given flag set (if not nil). DATABASE_URL, when set,
// overrides the database URL from any other source.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		"http.addr":             DefaultHTTPAddr,
		"http.metrics_addr":     DefaultMetricsAddr,
		"log.format":            DefaultLogFormat,
		"travel.points_per_day": DefaultPointsPerDay,
		"travel.start_cost":     DefaultTravelCost,
	}
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, oops.Code("CONFIG_DEFAULTS_FAILED").With("key", key).Wrap(err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
