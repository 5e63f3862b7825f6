package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds what the standalone migration tool needs.
type Config struct {
	DatabaseURL string
	Steps       int // Zero migrates all the way up or down
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	dbURL := os.Getenv("PGSQL_URL")
	if dbURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	stepsStr := os.Getenv("MIGRATE_STEPS")
	steps, err := strconv.Atoi(stepsStr)
	if err != nil {
		steps = 0
		if stepsStr != "" {
			log.Printf("Warning: Invalid value for MIGRATE_STEPS ('%s'). Defaulting to 0.\n", stepsStr)
		}
	}

	return &Config{
		DatabaseURL: dbURL,
		Steps:       steps,
	}, nil
}
