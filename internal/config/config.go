// Package config loads the server configuration from the environment.
// A .env file in the working directory is applied first when present.
// All settings are carried in an explicit Config value handed to the
// components that need them; there is no package-level state.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults used when the corresponding variable is unset
const (
	DefaultAddr          = ":8080"
	DefaultDatabasePath  = "forum.db"
	DefaultBlacklistPath = "blacklist.db"
	DefaultTokenTTL      = 30 * time.Minute
	DefaultTokenIssuer   = "forum-api"
	DefaultLoginRate     = 10
	DefaultLoginWindow   = time.Minute
)

// Config holds the server configuration
type Config struct {
	Addr          string
	DatabasePath  string
	BlacklistPath string
	JWTSecret     string
	TokenIssuer   string
	AdminUsername string
	LogFormat     string
	TokenTTL      time.Duration
	LoginWindow   time.Duration
	LoginRate     int
	Debug         bool
}

// Load reads the configuration from the environment.
// FORUM_JWT_SECRET is required; everything else has a default.
func Load() (*Config, error) {
	// Best effort: a missing .env file is not an error
	_ = godotenv.Load()

	cfg := &Config{
		Addr:          envOr("FORUM_ADDR", DefaultAddr),
		DatabasePath:  envOr("FORUM_DB_PATH", DefaultDatabasePath),
		BlacklistPath: envOr("FORUM_BLACKLIST_PATH", DefaultBlacklistPath),
		JWTSecret:     os.Getenv("FORUM_JWT_SECRET"),
		TokenIssuer:   envOr("FORUM_TOKEN_ISSUER", DefaultTokenIssuer),
		AdminUsername: os.Getenv("FORUM_ADMIN_USERNAME"),
		LogFormat:     envOr("FORUM_LOG_FORMAT", "text"),
		TokenTTL:      DefaultTokenTTL,
		LoginRate:     DefaultLoginRate,
		LoginWindow:   DefaultLoginWindow,
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("FORUM_JWT_SECRET is required")
	}

	if v := os.Getenv("FORUM_TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid FORUM_TOKEN_TTL: %w", err)
		}
		if ttl <= 0 {
			return nil, fmt.Errorf("FORUM_TOKEN_TTL must be positive")
		}
		cfg.TokenTTL = ttl
	}

	if v := os.Getenv("FORUM_LOGIN_RATE"); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil || rate <= 0 {
			return nil, fmt.Errorf("invalid FORUM_LOGIN_RATE: %q", v)
		}
		cfg.LoginRate = rate
	}

	if v := os.Getenv("FORUM_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid FORUM_DEBUG: %q", v)
		}
		cfg.Debug = debug
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
