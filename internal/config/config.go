// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains example secrets that must never reach production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"blango-insecure-development-key!",
}

// Storage backends for uploaded files.
const (
	StorageDisk = "disk"
	StorageS3   = "s3"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"BLANGO_DB_PATH" envDefault:"./data/blango.db"`
	SessionSecret string `env:"BLANGO_SESSION_SECRET,required"`
	ServerHost    string `env:"BLANGO_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"BLANGO_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"BLANGO_ENV" envDefault:"development"`
	LogLevel      string `env:"BLANGO_LOG_LEVEL" envDefault:"info"`
	SiteURL       string `env:"BLANGO_SITE_URL" envDefault:"http://localhost:8080"`
	PostsPerPage  int    `env:"BLANGO_POSTS_PER_PAGE" envDefault:"10"`
	TimeZone      string `env:"BLANGO_TIME_ZONE" envDefault:"UTC"` // Zone of the datetime-local publish field

	// Public surfaces
	CORSOrigins    []string `env:"BLANGO_CORS_ORIGINS" envSeparator:","` // Empty allows any origin on /api/v1
	DisallowRobots bool     `env:"BLANGO_DISALLOW_ROBOTS" envDefault:"false"`

	// Upload storage
	UploadsDir  string `env:"BLANGO_UPLOADS_DIR" envDefault:"./uploads"`
	Storage     string `env:"BLANGO_STORAGE" envDefault:"disk"`
	S3Endpoint  string `env:"BLANGO_S3_ENDPOINT"`
	S3AccessKey string `env:"BLANGO_S3_ACCESS_KEY"`
	S3SecretKey string `env:"BLANGO_S3_SECRET_KEY"`
	S3Bucket    string `env:"BLANGO_S3_BUCKET" envDefault:"blango"`
	S3UseSSL    bool   `env:"BLANGO_S3_USE_SSL" envDefault:"false"`
	S3PublicURL string `env:"BLANGO_S3_PUBLIC_URL"` // Base URL objects are served from

	// Cache configuration
	RedisURL     string `env:"BLANGO_REDIS_URL"`                          // Optional Redis URL for distributed caching
	CachePrefix  string `env:"BLANGO_CACHE_PREFIX" envDefault:"blango:"`  // Redis key prefix
	CacheTTL     int    `env:"BLANGO_CACHE_TTL" envDefault:"300"`         // Default cache TTL in seconds
	CacheMaxSize int    `env:"BLANGO_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Domain events
	KafkaBrokers []string `env:"BLANGO_KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"BLANGO_KAFKA_TOPIC" envDefault:"blango.events"`

	// Outgoing webhook receiving every domain event, signed with the secret
	WebhookURL    string `env:"BLANGO_WEBHOOK_URL"`
	WebhookSecret string `env:"BLANGO_WEBHOOK_SECRET"`

	// Accounts
	RequireActivation bool   `env:"BLANGO_REQUIRE_ACTIVATION" envDefault:"false"`
	DoSeed            bool   `env:"BLANGO_DO_SEED" envDefault:"false"`
	AdminEmail        string `env:"BLANGO_ADMIN_EMAIL" envDefault:"admin@example.com"`
	AdminPassword     string `env:"BLANGO_ADMIN_PASSWORD" envDefault:"changeme1234"`

	// Background jobs
	EventRetentionDays int `env:"BLANGO_EVENT_RETENTION_DAYS" envDefault:"90"`

	// GeoLite2-Country database used to tag audit events with a country
	GeoIPDBPath string `env:"BLANGO_GEOIP_DB_PATH"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// Location returns the configured time zone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// UseS3Storage returns true if uploads go to an S3-compatible bucket.
func (c Config) UseS3Storage() bool {
	return c.Storage == StorageS3
}

// UseKafka returns true if domain events are published to Kafka.
func (c Config) UseKafka() bool {
	return len(c.KafkaBrokers) > 0
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("BLANGO_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	if !cfg.IsDevelopment() {
		for _, weak := range knownWeakSecrets {
			if cfg.SessionSecret == weak {
				return nil, fmt.Errorf("BLANGO_SESSION_SECRET is a known default value and must not be used; " +
					"generate a secure secret with: openssl rand -base64 32")
			}
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("BLANGO_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	switch cfg.Storage {
	case StorageDisk:
	case StorageS3:
		if cfg.S3Endpoint == "" || cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
			return nil, fmt.Errorf("BLANGO_STORAGE=s3 requires BLANGO_S3_ENDPOINT, BLANGO_S3_ACCESS_KEY and BLANGO_S3_SECRET_KEY")
		}
	default:
		return nil, fmt.Errorf("BLANGO_STORAGE must be %q or %q, got %q", StorageDisk, StorageS3, cfg.Storage)
	}

	if _, err := time.LoadLocation(cfg.TimeZone); err != nil {
		return nil, fmt.Errorf("BLANGO_TIME_ZONE: %w", err)
	}

	if cfg.WebhookURL != "" {
		u, err := url.Parse(cfg.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("BLANGO_WEBHOOK_URL must be an absolute http(s) URL, got %q", cfg.WebhookURL)
		}
	}

	if cfg.PostsPerPage <= 0 {
		cfg.PostsPerPage = 10
	}
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")

	return cfg, nil
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
