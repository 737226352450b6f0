// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/harmonium/config.yaml",
	"/etc/harmonium/config.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix namespaces Harmonium's environment variables.
const envPrefix = "HARMONIUM_"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Mongo: MongoConfig{
			URI:            "mongodb://127.0.0.1:27017",
			Database:       "harmonium",
			ConnectTimeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8287,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Security: SecurityConfig{
			JWTSecret:         "",
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		CDN: CDNConfig{
			BaseURL:          "",
			DefaultCoverPath: "/static/cover-placeholder.png",
		},
		Recommend: RecommendConfig{
			Seed:              0, // clock-seeded
			ProfileCacheSize:  1024,
			ProfileCacheTTL:   5 * time.Minute,
			ResultCacheTTL:    24 * time.Hour,
			PopularityRefresh: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML config file (if exists)
//  3. Environment variables: override any setting
//
// Precedence: ENV > file > defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// HARMONIUM_MONGO_URI -> mongo.uri, HARMONIUM_SERVER_PORT -> server.port
	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file, preferring the path from
// CONFIG_PATH, then the default search paths. Returns "" when none
// exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps HARMONIUM_SECTION_SOME_KEY to section.some_key.
// The first underscore separates the section from the key; underscores
// inside the key are preserved to match the koanf struct tags.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

	// Explicit mappings for keys whose section boundary is ambiguous.
	envMappings := map[string]string{
		"mongo_uri":               "mongo.uri",
		"mongo_database":          "mongo.database",
		"mongo_connect_timeout":   "mongo.connect_timeout",
		"server_host":             "server.host",
		"server_port":             "server.port",
		"server_request_timeout":  "server.request_timeout",
		"server_shutdown_timeout": "server.shutdown_timeout",
		"jwt_secret":              "security.jwt_secret",
		"rate_limit_reqs":         "security.rate_limit_reqs",
		"rate_limit_window":       "security.rate_limit_window",
		"rate_limit_disabled":     "security.rate_limit_disabled",
		"cors_origins":            "security.cors_origins",
		"cdn_base_url":            "cdn.base_url",
		"cdn_default_cover_path":  "cdn.default_cover_path",
		"recommend_seed":          "recommend.seed",
		"profile_cache_size":      "recommend.profile_cache_size",
		"profile_cache_ttl":       "recommend.profile_cache_ttl",
		"result_cache_ttl":        "recommend.result_cache_ttl",
		"popularity_refresh":      "recommend.popularity_refresh",
		"log_level":               "logging.level",
		"log_format":              "logging.format",
		"log_caller":              "logging.caller",
	}
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// Fallback: first segment is the section.
	parts := strings.SplitN(key, "_", 2)
	if len(parts) == 2 {
		return parts[0] + "." + parts[1]
	}
	return key
}

// sliceConfigPaths lists config paths parsed from comma-separated
// strings when sourced from env vars.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices
// for known slice fields. Env vars arrive as strings while the config
// expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}
