package config

import (
	"os"

	"github.com/inconshreveable/log15"
	"github.com/joho/godotenv"
)

var logger = log15.New("module", "config")

// LoadEnv loads .env in development; deployed environments provide real
// variables.
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			logger.Warn(".env file not loaded")
		}
	}
}

// Getenv returns the variable or the fallback when unset.
func Getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
