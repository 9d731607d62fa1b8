package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envMappings maps environment variable names (lower-cased) to config paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	"port":                        "server.port",
	"cors_allowed_origins":        "server.cors_origins",
	"rate_limit_requests":         "server.rate_limit_requests",
	"rate_limit_window_seconds":   "server.rate_limit_window_seconds",
	"counter_rate_limit_requests": "server.counter_rate_limit_requests",

	"database_public_url":     "database.public_url",
	"database_url":            "database.url",
	"database_max_open_conns": "database.max_open_conns",

	"aws_access_key_id":      "storage.access_key_id",
	"aws_secret_access_key":  "storage.secret_access_key",
	"aws_default_region":     "storage.region",
	"aws_endpoint_url":       "storage.endpoint",
	"aws_s3_bucket_name":     "storage.bucket",
	"aws_signed_url_expires": "storage.signed_url_expires_seconds",

	"github_token":             "github.token",
	"github_owner":             "github.owner",
	"github_api_url":           "github.api_url",
	"github_cache_ttl_seconds": "github.cache_ttl_seconds",
	"github_timeout_seconds":   "github.timeout_seconds",
	"github_primary_asset_ext": "github.primary_asset_ext",

	"cache_sweep_every":            "cache.sweep_every",
	"cache_sweep_interval_seconds": "cache.sweep_interval_seconds",

	"log_level":  "logging.level",
	"log_format": "logging.format",
}

// sliceConfigPaths are parsed from comma-separated env values
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// positiveIntPaths fall back to their default when the env value is not a positive integer
var positiveIntPaths = []string{
	"server.rate_limit_requests",
	"server.rate_limit_window_seconds",
	"server.counter_rate_limit_requests",
	"database.max_open_conns",
	"storage.signed_url_expires_seconds",
	"github.cache_ttl_seconds",
	"github.timeout_seconds",
}

// nonNegativeIntPaths fall back to their default when the env value is not a non-negative integer
var nonNegativeIntPaths = []string{
	"cache.sweep_every",
	"cache.sweep_interval_seconds",
}

func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

// Load builds the configuration: defaults, then environment, then validation.
// Blank variables count as unset. Malformed or out-of-range integers are
// logged and replaced by their defaults.
func Load(logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}

	defaults := koanf.New(".")
	if err := defaults.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := restoreBlankValues(k, defaults); err != nil {
		return nil, err
	}
	if err := processSliceFields(k); err != nil {
		return nil, err
	}
	if err := normalizeInts(k, defaults, positiveIntPaths, 1, logger); err != nil {
		return nil, err
	}
	if err := normalizeInts(k, defaults, nonNegativeIntPaths, 0, logger); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// restoreBlankValues treats variables that are set but empty as unset
func restoreBlankValues(k, defaults *koanf.Koanf) error {
	for _, path := range envMappings {
		if v, ok := k.Get(path).(string); !ok || v != "" {
			continue
		}
		if err := k.Set(path, defaults.Get(path)); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// processSliceFields converts comma-separated env strings into slices
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// normalizeInts replaces env-provided integers below min, or not integers at
// all, with the default value and logs a warning.
func normalizeInts(k, defaults *koanf.Koanf, paths []string, min int, logger *slog.Logger) error {
	for _, path := range paths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue // still the typed default
		}

		n, err := strconv.Atoi(strings.TrimSpace(strVal))
		if err == nil && n >= min {
			if err := k.Set(path, n); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
			continue
		}

		fallback := defaults.Int(path)
		logger.Warn("[CONFIG] invalid integer setting, using default",
			"key", path,
			"value", strVal,
			"default", fallback,
		)
		if err := k.Set(path, fallback); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}
