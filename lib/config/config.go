// Copyright 2026 The Sqlward Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the engine's YAML configuration file.
//
// Configuration comes from a single file passed via --config (or the
// SQLWARD_CONFIG environment variable). There is no discovery and no
// layered fallbacks; the one deliberate override is
// SQLWARD_METASTORE_URIS, which replaces the configured metastore
// endpoint list because that value is sourced from ambient engine
// configuration in managed deployments.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MetastoreURIsEnv overrides the metastore endpoint list with a
// comma-separated value when set.
const MetastoreURIsEnv = "SQLWARD_METASTORE_URIS"

// Config is the engine process configuration.
type Config struct {
	// MetastoreEndpoints is the engine's own metastore endpoint
	// set: the reference identifiers used to recognize which
	// inbound metastore token pertains to this engine. Empty is
	// valid and disables metastore-token reconciliation.
	MetastoreEndpoints []string `yaml:"metastore_endpoints"`

	// SocketPath is the Unix socket on which the renew server
	// listens.
	SocketPath string `yaml:"socket_path"`

	// SeedBundlePath is an optional encoded credential bundle used
	// to seed the store at startup. When IdentityPath is also set,
	// the file is age ciphertext and is unsealed first.
	SeedBundlePath string `yaml:"seed_bundle_path"`

	// IdentityPath is the engine's age identity key file, used to
	// unseal the seed bundle.
	IdentityPath string `yaml:"identity_path"`

	// Aging configures the periodic log sweep for tokens the
	// gateway has stopped renewing.
	Aging AgingConfig `yaml:"aging"`

	// LogLevel is one of debug, info, warn, error. Default: info.
	LogLevel string `yaml:"log_level"`
}

// AgingConfig configures the token-aging sweep.
type AgingConfig struct {
	// Interval between sweeps. Default: 5m.
	Interval time.Duration `yaml:"interval"`

	// MaxAge after which a dated token is reported as aging.
	// Default: 24h (delegation tokens are typically renewed on an
	// hourly cadence; a day without renewal means the gateway has
	// given up on this engine).
	MaxAge time.Duration `yaml:"max_age"`
}

// Load reads and validates the config file at path, applying defaults
// and the environment override.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	loaded.applyDefaults()
	loaded.applyEnvironment()

	if err := loaded.validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return &loaded, nil
}

func (c *Config) applyDefaults() {
	if c.SocketPath == "" {
		c.SocketPath = "/run/sqlward/engine.sock"
	}
	if c.Aging.Interval == 0 {
		c.Aging.Interval = 5 * time.Minute
	}
	if c.Aging.MaxAge == 0 {
		c.Aging.MaxAge = 24 * time.Hour
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) applyEnvironment() {
	if value, ok := os.LookupEnv(MetastoreURIsEnv); ok {
		c.MetastoreEndpoints = SplitEndpoints(value)
	}
}

func (c *Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if c.Aging.Interval < 0 || c.Aging.MaxAge < 0 {
		return fmt.Errorf("aging durations must not be negative")
	}
	if c.SeedBundlePath == "" && c.IdentityPath != "" {
		return fmt.Errorf("identity_path is set but seed_bundle_path is not")
	}
	return nil
}

// SplitEndpoints parses a comma-separated endpoint list, trimming
// whitespace and dropping empty entries.
func SplitEndpoints(value string) []string {
	var endpoints []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			endpoints = append(endpoints, part)
		}
	}
	return endpoints
}
