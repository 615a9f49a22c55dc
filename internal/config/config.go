// Manages server configuration stored in server_config.json.

// Package config holds the server configuration file.
package config

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileName is the name of the configuration file in the data directory.
const FileName = "server_config.json"

// ServerConfig stores all server-wide configuration.
// Loaded from server_config.json, created with defaults if missing.
type ServerConfig struct {
	// JWTSecret signs the bearer tokens accepted by the API.
	// Auto-generated if empty on first load.
	JWTSecret []byte `json:"jwt_secret"`

	// RequireAuth makes mutating API calls require a bearer token.
	RequireAuth bool `json:"require_auth"`

	// MaxRequestBodyBytes limits the size of any single HTTP request body.
	MaxRequestBodyBytes int64 `json:"max_request_body_bytes"`

	// MockLatencyMS is the artificial delay of the in-memory store.
	MockLatencyMS int `json:"mock_latency_ms"`

	// RemoteMinIntervalMS spaces requests sent to a remote record service.
	RemoteMinIntervalMS int `json:"remote_min_interval_ms"`

	RateLimits RateLimits `json:"rate_limits"`
}

// RateLimits defines rate limiting configuration (requests per minute per
// client IP). 0 means unlimited.
type RateLimits struct {
	ReadRatePerMin  int `json:"read_rate_per_min"`
	WriteRatePerMin int `json:"write_rate_per_min"`
}

// Validate checks that rate limit values are non-negative.
func (r *RateLimits) Validate() error {
	if r.ReadRatePerMin < 0 {
		return errors.New("read_rate_per_min must be non-negative")
	}
	if r.WriteRatePerMin < 0 {
		return errors.New("write_rate_per_min must be non-negative")
	}
	return nil
}

// DefaultRateLimits returns the default rate limits.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		ReadRatePerMin:  6000,
		WriteRatePerMin: 120,
	}
}

// Default returns the default configuration, without a JWT secret.
func Default() ServerConfig {
	return ServerConfig{
		MaxRequestBodyBytes: 1024 * 1024,
		MockLatencyMS:       300,
		RemoteMinIntervalMS: 50,
		RateLimits:          DefaultRateLimits(),
	}
}

// MockLatency returns MockLatencyMS as a duration.
func (c *ServerConfig) MockLatency() time.Duration {
	return time.Duration(c.MockLatencyMS) * time.Millisecond
}

// RemoteMinInterval returns RemoteMinIntervalMS as a duration.
func (c *ServerConfig) RemoteMinInterval() time.Duration {
	return time.Duration(c.RemoteMinIntervalMS) * time.Millisecond
}

// Validate checks that the configuration is valid.
func (c *ServerConfig) Validate() error {
	if len(c.JWTSecret) < 32 {
		return errors.New("jwt_secret must be at least 32 bytes")
	}
	if c.MaxRequestBodyBytes < 0 {
		return errors.New("max_request_body_bytes must be non-negative")
	}
	if c.MockLatencyMS < 0 {
		return errors.New("mock_latency_ms must be non-negative")
	}
	if c.RemoteMinIntervalMS < 0 {
		return errors.New("remote_min_interval_ms must be non-negative")
	}
	if err := c.RateLimits.Validate(); err != nil {
		return fmt.Errorf("rate_limits: %w", err)
	}
	return nil
}

// Load loads configuration from dataDir/server_config.json.
// Creates the file with defaults if it doesn't exist.
// Auto-generates JWTSecret if empty.
func Load(dataDir string) (*ServerConfig, error) {
	path := filepath.Join(dataDir, FileName)
	cfg := Default()

	data, err := os.ReadFile(path)
	missing := errors.Is(err, os.ErrNotExist)
	if err != nil && !missing {
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
		}
	}

	modified := false
	if len(cfg.JWTSecret) == 0 {
		cfg.JWTSecret = make([]byte, 32)
		if _, err := rand.Read(cfg.JWTSecret); err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		modified = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", FileName, err)
	}
	if modified || missing {
		if err := cfg.Save(dataDir); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// Save saves configuration to dataDir/server_config.json.
func (c *ServerConfig) Save(dataDir string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dataDir, err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, FileName), data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", FileName, err)
	}
	return nil
}
