// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DatabaseURL   string `env:"HERITAGE_DATABASE_URL" envDefault:"sqlite:./data/heritage.db"`
	SessionSecret string `env:"HERITAGE_SESSION_SECRET,required"`
	ServerHost    string `env:"HERITAGE_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"HERITAGE_SERVER_PORT" envDefault:"3000"`
	// PortFallbackAttempts is how many higher ports are tried when the
	// configured one is taken.
	PortFallbackAttempts int    `env:"HERITAGE_PORT_FALLBACK_ATTEMPTS" envDefault:"20"`
	Env                  string `env:"HERITAGE_ENV" envDefault:"development"`
	LogLevel             string `env:"HERITAGE_LOG_LEVEL" envDefault:"info"`
	LogFormat            string `env:"HERITAGE_LOG_FORMAT"` // text or json; json in production when empty

	// OAuth identity provider
	OAuthProvider     string   `env:"HERITAGE_OAUTH_PROVIDER" envDefault:"oauth"`
	OAuthClientID     string   `env:"HERITAGE_OAUTH_CLIENT_ID"`
	OAuthClientSecret string   `env:"HERITAGE_OAUTH_CLIENT_SECRET"`
	OAuthAuthURL      string   `env:"HERITAGE_OAUTH_AUTH_URL"`
	OAuthTokenURL     string   `env:"HERITAGE_OAUTH_TOKEN_URL"`
	OAuthUserInfoURL  string   `env:"HERITAGE_OAUTH_USERINFO_URL"`
	OAuthRedirectURL  string   `env:"HERITAGE_OAUTH_REDIRECT_URL"`
	OAuthScopes       []string `env:"HERITAGE_OAUTH_SCOPES" envSeparator:"," envDefault:"openid,profile,email"`

	AllowedOrigins []string `env:"HERITAGE_ALLOWED_ORIGINS" envSeparator:","`
	AdminEmails    []string `env:"HERITAGE_ADMIN_EMAILS" envSeparator:","`

	// Object storage; the local uploads directory is used when no bucket is set.
	StorageEndpoint  string `env:"HERITAGE_STORAGE_ENDPOINT"`
	StorageBucket    string `env:"HERITAGE_STORAGE_BUCKET"`
	StorageRegion    string `env:"HERITAGE_STORAGE_REGION" envDefault:"us-east-1"`
	StorageAccessKey string `env:"HERITAGE_STORAGE_ACCESS_KEY"`
	StorageSecretKey string `env:"HERITAGE_STORAGE_SECRET_KEY"`
	StorageUseSSL    bool   `env:"HERITAGE_STORAGE_USE_SSL" envDefault:"true"`
	StoragePublicURL string `env:"HERITAGE_STORAGE_PUBLIC_URL"`
	UploadsDir       string `env:"HERITAGE_UPLOADS_DIR" envDefault:"./uploads"`
	UploadMaxBytes   int64  `env:"HERITAGE_UPLOAD_MAX_BYTES" envDefault:"10485760"`

	// Cache configuration
	RedisURL     string `env:"HERITAGE_REDIS_URL"`                           // Optional Redis URL for a shared read cache
	CachePrefix  string `env:"HERITAGE_CACHE_PREFIX" envDefault:"heritage:"` // Redis key prefix
	CacheTTL     int    `env:"HERITAGE_CACHE_TTL" envDefault:"60"`           // Read cache TTL in seconds
	CacheMaxSize int    `env:"HERITAGE_CACHE_MAX_SIZE" envDefault:"10000"`   // Max memory cache entries

	MetricsEnabled bool `env:"HERITAGE_METRICS_ENABLED" envDefault:"false"`

	// Per-IP limit on anonymous submissions
	SubmissionRate  float64 `env:"HERITAGE_SUBMISSION_RATE" envDefault:"0.1"`
	SubmissionBurst int     `env:"HERITAGE_SUBMISSION_BURST" envDefault:"5"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return c.AddrForPort(c.ServerPort)
}

// AddrForPort returns host:port for the configured host.
func (c Config) AddrForPort(port int) string {
	return net.JoinHostPort(c.ServerHost, strconv.Itoa(port))
}

// EffectiveLogFormat returns the configured log format, defaulting to text
// in development and json otherwise.
func (c Config) EffectiveLogFormat() string {
	if c.LogFormat != "" {
		return c.LogFormat
	}
	if c.IsDevelopment() {
		return "text"
	}
	return "json"
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// CacheTTLDuration returns the read cache TTL.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// OAuthEnabled returns true if the identity provider is configured.
func (c Config) OAuthEnabled() bool {
	return c.OAuthClientID != "" && c.OAuthAuthURL != "" && c.OAuthTokenURL != "" && c.OAuthUserInfoURL != ""
}

// UseObjectStorage returns true if uploads go to an S3-compatible bucket.
func (c Config) UseObjectStorage() bool {
	return c.StorageBucket != "" && c.StorageEndpoint != ""
}

// IsAdminEmail reports whether email is on the admin allowlist.
// Comparison is case-insensitive.
func (c Config) IsAdminEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	return slices.ContainsFunc(c.AdminEmails, func(e string) bool {
		return strings.EqualFold(strings.TrimSpace(e), email)
	})
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("HERITAGE_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("HERITAGE_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(c.SessionSecret))
	}
	if slices.Contains(knownWeakSecrets, c.SessionSecret) {
		return errors.New("HERITAGE_SESSION_SECRET is a known default value and must not be used; " +
			"generate a secure secret with: openssl rand -base64 32")
	}

	switch c.Env {
	case "development", "production":
	default:
		return fmt.Errorf("HERITAGE_ENV must be development or production, got %q", c.Env)
	}

	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("HERITAGE_SERVER_PORT out of range: %d", c.ServerPort)
	}
	if c.PortFallbackAttempts < 0 {
		return fmt.Errorf("HERITAGE_PORT_FALLBACK_ATTEMPTS must not be negative, got %d", c.PortFallbackAttempts)
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("HERITAGE_UPLOAD_MAX_BYTES must be positive, got %d", c.UploadMaxBytes)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("HERITAGE_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if c.StorageBucket != "" && c.StorageEndpoint == "" {
		return errors.New("HERITAGE_STORAGE_ENDPOINT is required when HERITAGE_STORAGE_BUCKET is set")
	}
	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
