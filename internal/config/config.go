// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds all application configuration loaded from defaults,
// an optional YAML config file and environment variables.
//
// Loading order (Koanf v2):
//  1. Defaults: built-in sensible defaults for all optional settings
//  2. Config file: optional YAML file (config.yaml) for persistent settings
//  3. Environment variables: override any setting (HARMONIUM_ prefix)
//
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Mongo     MongoConfig     `koanf:"mongo"`
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	CDN       CDNConfig       `koanf:"cdn"`
	Recommend RecommendConfig `koanf:"recommend"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// MongoConfig configures the document database connection.
type MongoConfig struct {
	URI            string        `koanf:"uri"`
	Database       string        `koanf:"database"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SecurityConfig configures authentication and rate limiting.
type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// CDNConfig configures cover artwork URL resolution.
type CDNConfig struct {
	BaseURL          string `koanf:"base_url"`
	DefaultCoverPath string `koanf:"default_cover_path"`
}

// RecommendConfig configures the recommendation and statistics engines.
type RecommendConfig struct {
	// Seed fixes the ranker's random source; 0 seeds from the clock.
	Seed int64 `koanf:"seed"`

	// ProfileCacheSize bounds the taste-profile LRU cache.
	ProfileCacheSize int `koanf:"profile_cache_size"`

	// ProfileCacheTTL bounds taste-profile reuse. Profiles shift with
	// every listen, so this stays in the minutes range.
	ProfileCacheTTL time.Duration `koanf:"profile_cache_ttl"`

	// ResultCacheTTL bounds per-day recommendation result reuse.
	ResultCacheTTL time.Duration `koanf:"result_cache_ttl"`

	// PopularityRefresh is the recompute interval of the all-user
	// album popularity index.
	PopularityRefresh time.Duration `koanf:"popularity_refresh"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateMongo(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateCDN(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateMongo() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if !strings.HasPrefix(c.Mongo.URI, "mongodb://") && !strings.HasPrefix(c.Mongo.URI, "mongodb+srv://") {
		return fmt.Errorf("MONGO_URI must start with mongodb:// or mongodb+srv://, got %q", c.Mongo.URI)
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("MONGO_DATABASE is required")
	}
	if c.Mongo.ConnectTimeout <= 0 {
		return fmt.Errorf("MONGO_CONNECT_TIMEOUT must be positive, got %s", c.Mongo.ConnectTimeout)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("HTTP_REQUEST_TIMEOUT must be positive, got %s", c.Server.RequestTimeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must be positive, got %s", c.Server.ShutdownTimeout)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters, got %d", len(c.Security.JWTSecret))
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs <= 0 {
			return fmt.Errorf("RATE_LIMIT_REQS must be positive, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.Security.RateLimitWindow)
		}
	}
	return nil
}

func (c *Config) validateCDN() error {
	if c.CDN.BaseURL == "" {
		return nil // covers fall back to the placeholder
	}
	parsed, err := url.Parse(c.CDN.BaseURL)
	if err != nil {
		return fmt.Errorf("CDN_BASE_URL is not a valid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("CDN_BASE_URL must use http or https, got %q", parsed.Scheme)
	}
	return nil
}

func (c *Config) validateRecommend() error {
	if c.Recommend.ProfileCacheSize <= 0 {
		return fmt.Errorf("RECOMMEND_PROFILE_CACHE_SIZE must be positive, got %d", c.Recommend.ProfileCacheSize)
	}
	if c.Recommend.ProfileCacheTTL <= 0 {
		return fmt.Errorf("RECOMMEND_PROFILE_CACHE_TTL must be positive, got %s", c.Recommend.ProfileCacheTTL)
	}
	if c.Recommend.ResultCacheTTL <= 0 {
		return fmt.Errorf("RECOMMEND_RESULT_CACHE_TTL must be positive, got %s", c.Recommend.ResultCacheTTL)
	}
	if c.Recommend.PopularityRefresh <= 0 {
		return fmt.Errorf("RECOMMEND_POPULARITY_REFRESH must be positive, got %s", c.Recommend.PopularityRefresh)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace/debug/info/warn/error/fatal/panic, got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
