package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

const defaultAPIBaseURL = "http://localhost:8080/api"

// Config holds the client configuration resolved from the environment.
type Config struct {
	// APIBaseURL is the base URL of the reservation API, including the
	// /api prefix (e.g. http://localhost:8080/api).
	APIBaseURL string
	// SessionPath overrides the default session file location. Empty
	// means ~/.config/slotbook/session.json.
	SessionPath string
}

// Load reads configuration from a .env file (if present) and the
// environment, falling back to defaults.
func Load() *Config {
	// Missing .env is fine; environment variables still apply.
	_ = godotenv.Load()

	return &Config{
		APIBaseURL:  getEnvOrDefault("SLOTBOOK_API_URL", defaultAPIBaseURL),
		SessionPath: os.Getenv("SLOTBOOK_SESSION_PATH"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	slog.Debug("environment variable not set, using default", "key", key, "default", defaultValue)
	return defaultValue
}
