// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for chanops.
//
// Configuration is loaded from a single file specified by:
//   - CHANOPS_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery, with one deliberate
// exception: the API token itself is never stored in the file. The
// config names an environment variable (default SLACK_TOKEN) and the
// token is read from there at startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "1h".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config is the master configuration for chanops.
type Config struct {
	// API configures how the workspace API is reached.
	API APIConfig `yaml:"api"`

	// Store configures the declarative channel store.
	Store StoreConfig `yaml:"store"`

	// Cache configures the activity cache.
	Cache CacheConfig `yaml:"cache"`

	// Execute configures batching and pacing of mutations.
	Execute ExecuteConfig `yaml:"execute"`

	// PolicyFile is the path to the protected-channel policy.
	// Optional. When empty or missing, only the workspace default
	// channel is protected.
	PolicyFile string `yaml:"policy_file"`
}

// APIConfig configures the workspace API client.
type APIConfig struct {
	// BaseURL is the API endpoint. Default: https://slack.com/api.
	// Overridden in tests to point at a local server.
	BaseURL string `yaml:"base_url"`

	// TokenEnv names the environment variable holding the API token.
	// Default: SLACK_TOKEN. The token never appears in the file.
	TokenEnv string `yaml:"token_env"`

	// Privileged marks the token as having admin-level access.
	// Shared-channel actions are rejected locally when false.
	Privileged bool `yaml:"privileged"`
}

// StoreConfig configures the declarative store backends.
type StoreConfig struct {
	// CSVPath is the spreadsheet file. Default: ${CHANOPS_ROOT}/channels.csv.
	CSVPath string `yaml:"csv_path"`

	// DBPath selects the SQLite backend when set. Empty means the
	// CSV backend.
	DBPath string `yaml:"db_path"`
}

// CacheConfig configures the activity cache.
type CacheConfig struct {
	// Path is the cache file. Default: ${CHANOPS_ROOT}/activity.json.
	Path string `yaml:"path"`

	// TTL is how long an entry stays fresh. Default: 24h.
	TTL Duration `yaml:"ttl"`
}

// ExecuteConfig configures mutation batching.
type ExecuteConfig struct {
	// BatchSize is how many actions are shown per approval batch.
	// Default: 10.
	BatchSize int `yaml:"batch_size"`

	// Pace is the pause between consecutive API mutations.
	// Default: 1s.
	Pace Duration `yaml:"pace"`
}

// Default returns the default configuration. These defaults make the
// tool usable with no config file at all: only the token environment
// variable has to be set.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".local", "share", "chanops")

	return &Config{
		API: APIConfig{
			BaseURL:  "https://slack.com/api",
			TokenEnv: "SLACK_TOKEN",
		},
		Store: StoreConfig{
			CSVPath: filepath.Join(defaultRoot, "channels.csv"),
		},
		Cache: CacheConfig{
			Path: filepath.Join(defaultRoot, "activity.json"),
			TTL:  Duration(24 * time.Hour),
		},
		Execute: ExecuteConfig{
			BatchSize: 10,
			Pace:      Duration(time.Second),
		},
	}
}

// Load loads configuration from the file named by CHANOPS_CONFIG,
// falling back to pure defaults when the variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv("CHANOPS_CONFIG")
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merged over
// the defaults. The only expansion performed is ${HOME} and similar
// path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// Token reads the API token from the configured environment variable.
func (c *Config) Token() (string, error) {
	token := os.Getenv(c.API.TokenEnv)
	if token == "" {
		return "", fmt.Errorf("config: %s environment variable not set", c.API.TokenEnv)
	}
	return token, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.API.BaseURL == "" {
		errs = append(errs, fmt.Errorf("api.base_url is required"))
	}
	if c.API.TokenEnv == "" {
		errs = append(errs, fmt.Errorf("api.token_env is required"))
	}
	if c.Store.CSVPath == "" && c.Store.DBPath == "" {
		errs = append(errs, fmt.Errorf("at least one of store.csv_path and store.db_path is required"))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be positive"))
	}
	if c.Execute.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("execute.batch_size must be positive"))
	}
	if c.Execute.Pace < 0 {
		errs = append(errs, fmt.Errorf("execute.pace must not be negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Store.CSVPath = expandVars(c.Store.CSVPath, vars)
	c.Store.DBPath = expandVars(c.Store.DBPath, vars)
	c.Cache.Path = expandVars(c.Cache.Path, vars)
	c.PolicyFile = expandVars(c.PolicyFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}
