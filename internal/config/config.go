// Package config gathers the environment variables Hearth reads at startup.
// All variables use the HEARTH_ prefix and have sensible defaults for local
// development, except secrets, which default to empty and disable the
// features that need them.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port     string
	DBPath   string
	LogLevel string

	// Auth
	TokenSecret string
	TokenTTL    time.Duration

	// Roster limits
	MaxMembers int
	MaxChores  int

	// Email (Postmark)
	PostmarkToken string
	EmailFrom     string
	AppBaseURL    string

	// Web push (VAPID)
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string

	// Backup (S3-compatible storage)
	BackupBucket    string
	BackupRegion    string
	BackupEndpoint  string
	BackupAccessKey string
	BackupSecretKey string
	BackupInterval  time.Duration
}

// Load reads configuration from the environment.
func Load() Config {
	return Config{
		Port:     envOr("HEARTH_PORT", "8080"),
		DBPath:   envOr("HEARTH_DB_PATH", "hearth.db"),
		LogLevel: envOr("HEARTH_LOG_LEVEL", "info"),

		TokenSecret: os.Getenv("HEARTH_TOKEN_SECRET"),
		TokenTTL:    envDuration("HEARTH_TOKEN_TTL", 30*24*time.Hour),

		MaxMembers: envInt("HEARTH_MAX_MEMBERS", 10),
		MaxChores:  envInt("HEARTH_MAX_CHORES", 30),

		PostmarkToken: os.Getenv("HEARTH_POSTMARK_TOKEN"),
		EmailFrom:     envOr("HEARTH_EMAIL_FROM", "hearth@localhost"),
		AppBaseURL:    envOr("HEARTH_APP_BASE_URL", "http://localhost:8080"),

		VAPIDPublicKey:  os.Getenv("HEARTH_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("HEARTH_VAPID_PRIVATE_KEY"),
		VAPIDSubject:    envOr("HEARTH_VAPID_SUBJECT", "mailto:hearth@localhost"),

		BackupBucket:    os.Getenv("HEARTH_BACKUP_BUCKET"),
		BackupRegion:    envOr("HEARTH_BACKUP_REGION", "us-east-1"),
		BackupEndpoint:  os.Getenv("HEARTH_BACKUP_ENDPOINT"),
		BackupAccessKey: os.Getenv("HEARTH_BACKUP_ACCESS_KEY"),
		BackupSecretKey: os.Getenv("HEARTH_BACKUP_SECRET_KEY"),
		BackupInterval:  envDuration("HEARTH_BACKUP_INTERVAL", 24*time.Hour),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
