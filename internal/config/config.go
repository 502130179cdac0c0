// Package config loads runtime settings from the environment, with an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendBigQuery = "bigquery"
	BackendPostgres = "postgres"
)

type Config struct {
	Port     string
	LogLevel string

	StoreBackend string
	DatabaseURL  string
	ProjectID    string
	Dataset      string

	ReceiptsBucket string
	GeminiModel    string
	ReceiptWorkers int

	AllowOverdraft bool
}

// Load reads .env if present, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment and validates it.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		StoreBackend:   strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		ProjectID:      getEnv("GCP_PROJECT_ID", ""),
		Dataset:        getEnv("BQ_DATASET", "finance"),
		ReceiptsBucket: getEnv("RECEIPTS_BUCKET", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
	}

	var err error
	if cfg.AllowOverdraft, err = strconv.ParseBool(getEnv("ALLOW_OVERDRAFT", "false")); err != nil {
		return Config{}, fmt.Errorf("config: ALLOW_OVERDRAFT: %w", err)
	}
	if cfg.ReceiptWorkers, err = strconv.Atoi(getEnv("RECEIPT_WORKERS", "2")); err != nil || cfg.ReceiptWorkers < 1 {
		return Config{}, fmt.Errorf("config: RECEIPT_WORKERS must be a positive integer")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the selected backend has what it needs.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendBigQuery:
		if c.ProjectID == "" {
			return fmt.Errorf("config: GCP_PROJECT_ID is required for the bigquery backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

// ReceiptsEnabled reports whether receipt upload and scanning can run.
func (c Config) ReceiptsEnabled() bool {
	return c.ReceiptsBucket != "" && c.ProjectID != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
