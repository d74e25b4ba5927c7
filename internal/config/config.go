// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string

	// Record feed: the SODA portal is used when a dataset is configured,
	// otherwise the local SQLite roll snapshot.
	SODABaseURL  string
	SODADataset  string
	SODAAppToken string
	SnapshotPath string
	RollYear     string

	// Tracing is enabled only when an OTLP endpoint is set.
	OTLPEndpoint string

	AnthropicModel string
}

// Load reads configuration, letting a .env file fill in anything the
// process environment leaves unset.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		ListenAddr:     getEnvOrDefault("APPEALDESK_ADDR", ":8080"),
		SODABaseURL:    getEnvOrDefault("SODA_BASE_URL", "https://data.sfgov.org"),
		SODADataset:    os.Getenv("SODA_DATASET"),
		SODAAppToken:   os.Getenv("SODA_APP_TOKEN"),
		SnapshotPath:   getEnvOrDefault("ROLL_SNAPSHOT_PATH", "roll.db"),
		RollYear:       getEnvOrDefault("ROLL_YEAR", "2025"),
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		AnthropicModel: getEnvOrDefault("APPEALDESK_LLM_MODEL", "claude-sonnet-4-5"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
