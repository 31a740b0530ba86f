// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr         string
	DBPath             string
	SecretKey          string
	GitHubClientID     string
	GitHubClientSecret string
	LinkTTL            time.Duration
}

// Load reads configuration from environment variables and returns a validated
// Config. REPOSHARE_SECRET_KEY, REPOSHARE_GITHUB_CLIENT_ID, and
// REPOSHARE_GITHUB_CLIENT_SECRET are required. Optional variables with
// defaults: REPOSHARE_LISTEN_ADDR (127.0.0.1:8080), REPOSHARE_DB_PATH
// (reposhare.db), REPOSHARE_LINK_TTL (168h).
func Load() (*Config, error) {
	secretKey := os.Getenv("REPOSHARE_SECRET_KEY")
	if secretKey == "" {
		return nil, fmt.Errorf("REPOSHARE_SECRET_KEY is required")
	}

	clientID := os.Getenv("REPOSHARE_GITHUB_CLIENT_ID")
	if clientID == "" {
		return nil, fmt.Errorf("REPOSHARE_GITHUB_CLIENT_ID is required")
	}

	clientSecret := os.Getenv("REPOSHARE_GITHUB_CLIENT_SECRET")
	if clientSecret == "" {
		return nil, fmt.Errorf("REPOSHARE_GITHUB_CLIENT_SECRET is required")
	}

	linkTTL := 168 * time.Hour
	if v, ok := os.LookupEnv("REPOSHARE_LINK_TTL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("REPOSHARE_LINK_TTL has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("REPOSHARE_LINK_TTL must be positive, got %q", v)
		}
		linkTTL = parsed
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("REPOSHARE_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "reposhare.db"
	if v, ok := os.LookupEnv("REPOSHARE_DB_PATH"); ok {
		dbPath = v
	}

	return &Config{
		ListenAddr:         listenAddr,
		DBPath:             dbPath,
		SecretKey:          secretKey,
		GitHubClientID:     clientID,
		GitHubClientSecret: clientSecret,
		LinkTTL:            linkTTL,
	}, nil
}
