// Package config loads service configuration from struct defaults overlaid
// with environment variables.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the complete service configuration
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Storage  StorageConfig  `koanf:"storage"`
	GitHub   GitHubConfig   `koanf:"github"`
	Cache    CacheConfig    `koanf:"cache"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port                     string   `koanf:"port" validate:"required,numeric"`
	CORSOrigins              []string `koanf:"cors_origins"`
	RateLimitRequests        int      `koanf:"rate_limit_requests" validate:"min=1"`
	RateLimitWindowSeconds   int      `koanf:"rate_limit_window_seconds" validate:"min=1"`
	CounterRateLimitRequests int      `koanf:"counter_rate_limit_requests" validate:"min=1"`
}

// RateLimitWindow returns the global limiter window
func (s ServerConfig) RateLimitWindow() time.Duration {
	return time.Duration(s.RateLimitWindowSeconds) * time.Second
}

// DatabaseConfig holds PostgreSQL settings
type DatabaseConfig struct {
	PublicURL    string `koanf:"public_url"`
	URL          string `koanf:"url"`
	MaxOpenConns int    `koanf:"max_open_conns" validate:"min=1"`
}

// DSN returns the public connection string when set, else the private one.
func (d DatabaseConfig) DSN() string {
	if d.PublicURL != "" {
		return d.PublicURL
	}
	return d.URL
}

// StorageConfig holds object storage settings
type StorageConfig struct {
	AccessKeyID             string `koanf:"access_key_id"`
	SecretAccessKey         string `koanf:"secret_access_key"`
	Region                  string `koanf:"region" validate:"required"`
	Endpoint                string `koanf:"endpoint" validate:"omitempty,url"`
	Bucket                  string `koanf:"bucket"`
	SignedURLExpiresSeconds int    `koanf:"signed_url_expires_seconds" validate:"min=1"`
}

// SignedURLExpiry returns the validity window of issued URLs
func (s StorageConfig) SignedURLExpiry() time.Duration {
	return time.Duration(s.SignedURLExpiresSeconds) * time.Second
}

// GitHubConfig holds release fetch settings
type GitHubConfig struct {
	Token           string `koanf:"token"`
	Owner           string `koanf:"owner" validate:"required"`
	APIURL          string `koanf:"api_url" validate:"required,url"`
	PrimaryAssetExt string `koanf:"primary_asset_ext"`
	CacheTTLSeconds int    `koanf:"cache_ttl_seconds" validate:"min=1"`
	TimeoutSeconds  int    `koanf:"timeout_seconds" validate:"min=1"`
}

// CacheTTL returns how long releases are cached
func (g GitHubConfig) CacheTTL() time.Duration {
	return time.Duration(g.CacheTTLSeconds) * time.Second
}

// Timeout returns the per-request GitHub timeout
func (g GitHubConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// CacheConfig holds TTL cache sweep settings
type CacheConfig struct {
	SweepEvery           int `koanf:"sweep_every" validate:"min=0"`
	SweepIntervalSeconds int `koanf:"sweep_interval_seconds" validate:"min=0"`
}

// SweepInterval returns the background sweep interval; 0 disables it.
func (c CacheConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json text"`
}

// DefaultConfig returns the configuration used when no environment overrides are set
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                     "8080",
			CORSOrigins:              []string{"*"},
			RateLimitRequests:        100,
			RateLimitWindowSeconds:   60,
			CounterRateLimitRequests: 30,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 7,
		},
		Storage: StorageConfig{
			Region:                  "auto",
			SignedURLExpiresSeconds: 60 * 60 * 24 * 7,
		},
		GitHub: GitHubConfig{
			Owner:           "englishfox90",
			APIURL:          "https://api.github.com",
			PrimaryAssetExt: ".exe",
			CacheTTLSeconds: 3600,
			TimeoutSeconds:  10,
		},
		Cache: CacheConfig{
			SweepEvery:           100,
			SweepIntervalSeconds: 0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks ranges and enumerations. Presence of the database and bucket
// settings is checked by the commands that need them.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// RequireDatabase returns an error when no database URL is configured
func (c *Config) RequireDatabase() error {
	if c.Database.DSN() == "" {
		return fmt.Errorf("DATABASE_PUBLIC_URL or DATABASE_URL is required")
	}
	return nil
}

// RequireStorage returns an error when the bucket settings are incomplete
func (c *Config) RequireStorage() error {
	switch {
	case c.Storage.Bucket == "":
		return fmt.Errorf("AWS_S3_BUCKET_NAME is required")
	case c.Storage.AccessKeyID == "" || c.Storage.SecretAccessKey == "":
		return fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY are required")
	}
	return nil
}

// NewLogger builds a logger writing to w in the configured format and level.
// Unknown levels fall back to info.
func (l LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(l.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
