// Package config loads runtime configuration for both drey processes.
// Values come from three layers, lowest precedence first: built-in defaults,
// an optional ~/.drey/drey.yml file, then environment variables. All values
// are validated at startup so bad configuration fails fast, before any
// Redis connection is opened.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

const (
	// EnvInstanceName selects the drey instance namespace (DREY_INSTANCE_NAME)
	EnvInstanceName = "DREY_INSTANCE_NAME"

	// EnvRedisURL is the Redis connection string (REDIS_URL)
	EnvRedisURL = "REDIS_URL"

	// EnvTimeoutSeconds overrides the default bounded wait (DREY_TIMEOUT_SECONDS)
	EnvTimeoutSeconds = "DREY_TIMEOUT_SECONDS"

	// EnvPollIntervalMs overrides the polling interval (DREY_POLL_INTERVAL_MS)
	EnvPollIntervalMs = "DREY_POLL_INTERVAL_MS"
)

// configFileName is resolved relative to the user's home directory.
const configFileName = ".drey/drey.yml"

// Config holds the runtime configuration shared by dreyd and the drey CLI.
type Config struct {
	// InstanceName namespaces all Redis keys; both processes must agree on it
	InstanceName string `yaml:"instance_name"`

	// RedisURL is the connection string for the shared store
	RedisURL string `yaml:"redis_url"`

	// TimeoutSeconds is the default bounded wait for cue submissions
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// PollIntervalMs is the sleep between store polls on both sides
	PollIntervalMs int `yaml:"poll_interval_ms"`
}

// defaults returns the built-in configuration.
func defaults() *Config {
	return &Config{
		InstanceName:   "default",
		RedisURL:       "redis://localhost:6379",
		TimeoutSeconds: 600,
		PollIntervalMs: 500,
	}
}

// Load builds the effective configuration: defaults, then the home-directory
// file if present, then environment variables. Returns an error if the file
// is present but unreadable, malformed, or the result fails validation.
func Load() (*Config, error) {
	cfg := defaults()

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, configFileName)
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyFile overlays values from a YAML file onto cfg.
// A missing file is not an error; a malformed one is.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvInstanceName); v != "" {
		cfg.InstanceName = v
	}

	if v := os.Getenv(EnvRedisURL); v != "" {
		cfg.RedisURL = v
	}

	if v := os.Getenv(EnvTimeoutSeconds); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvTimeoutSeconds, v, err)
		}
		cfg.TimeoutSeconds = n
	}

	if v := os.Getenv(EnvPollIntervalMs); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPollIntervalMs, v, err)
		}
		cfg.PollIntervalMs = n
	}

	return nil
}

// Validate checks that all configuration fields are usable.
// Returns the first validation error encountered.
func (c *Config) Validate() error {
	if c.InstanceName == "" {
		return fmt.Errorf("instance name cannot be empty")
	}

	if c.RedisURL == "" {
		return fmt.Errorf("redis URL cannot be empty")
	}

	if _, err := redis.ParseURL(c.RedisURL); err != nil {
		return fmt.Errorf("invalid redis URL %q: %w", c.RedisURL, err)
	}

	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout must be positive, got %d seconds", c.TimeoutSeconds)
	}

	if c.PollIntervalMs <= 0 {
		return fmt.Errorf("poll interval must be positive, got %d ms", c.PollIntervalMs)
	}

	return nil
}

// RedisOptions parses the configured Redis URL into client options.
func (c *Config) RedisOptions() (*redis.Options, error) {
	opts, err := redis.ParseURL(c.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL %q: %w", c.RedisURL, err)
	}
	return opts, nil
}

// Timeout returns the default bounded wait as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PollInterval returns the polling interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}
