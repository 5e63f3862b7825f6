package config

import (
	"log"

	"github.com/SscSPs/ledger_core/internal/utils/matching"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool
	RunMigrations bool

	JWTSecret string
	JWTIssuer string
	RateLimit string // ulule formatted rate, e.g. "100-M"

	PosthogAPIKey   string
	PosthogEndpoint string

	// Ledger
	CurrencyScale             int32  // Decimal places of the minimum currency unit
	RetainedEarningsAccountID string // Equity account receiving net income at close

	Matching matching.Config
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	def := matching.DefaultConfig()

	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_ISSUER", "ledger-core")
	v.SetDefault("RATE_LIMIT", "300-M")
	v.SetDefault("POSTHOG_API_KEY", "")
	v.SetDefault("POSTHOG_ENDPOINT", "https://eu.i.posthog.com")
	v.SetDefault("CURRENCY_SCALE", 2)
	v.SetDefault("RETAINED_EARNINGS_ACCOUNT_ID", "")
	v.SetDefault("MATCH_AUTO_COMMIT_THRESHOLD", def.AutoCommitThreshold)
	v.SetDefault("MATCH_REVIEW_THRESHOLD", def.ReviewThreshold)
	v.SetDefault("MATCH_AMOUNT_WEIGHT", def.AmountWeight)
	v.SetDefault("MATCH_DATE_WEIGHT", def.DateWeight)
	v.SetDefault("MATCH_DESCRIPTION_WEIGHT", def.DescriptionWeight)
	v.SetDefault("MATCH_AMOUNT_TOLERANCE", def.AmountTolerance)
	v.SetDefault("MATCH_CANDIDATE_WINDOW_DAYS", def.CandidateWindowDays)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabaseURL:               v.GetString("PGSQL_URL"),
		Port:                      v.GetString("PORT"),
		IsProduction:              v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:             v.GetBool("ENABLE_DB_CHECK"),
		RunMigrations:             v.GetBool("RUN_MIGRATIONS"),
		JWTSecret:                 v.GetString("JWT_SECRET"),
		JWTIssuer:                 v.GetString("JWT_ISSUER"),
		RateLimit:                 v.GetString("RATE_LIMIT"),
		PosthogAPIKey:             v.GetString("POSTHOG_API_KEY"),
		PosthogEndpoint:           v.GetString("POSTHOG_ENDPOINT"),
		CurrencyScale:             v.GetInt32("CURRENCY_SCALE"),
		RetainedEarningsAccountID: v.GetString("RETAINED_EARNINGS_ACCOUNT_ID"),
		Matching: matching.Config{
			AutoCommitThreshold: v.GetFloat64("MATCH_AUTO_COMMIT_THRESHOLD"),
			ReviewThreshold:     v.GetFloat64("MATCH_REVIEW_THRESHOLD"),
			AmountWeight:        v.GetFloat64("MATCH_AMOUNT_WEIGHT"),
			DateWeight:          v.GetFloat64("MATCH_DATE_WEIGHT"),
			DescriptionWeight:   v.GetFloat64("MATCH_DESCRIPTION_WEIGHT"),
			AmountTolerance:     v.GetFloat64("MATCH_AMOUNT_TOLERANCE"),
			CandidateWindowDays: v.GetInt("MATCH_CANDIDATE_WINDOW_DAYS"),
		},
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set. Using the in-memory store.")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}
	if cfg.JWTSecret == defaultJWTSecret {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	if cfg.CurrencyScale < 0 {
		log.Printf("Warning: Invalid value for CURRENCY_SCALE (%d). Defaulting to 2.\n", cfg.CurrencyScale)
		cfg.CurrencyScale = 2
	}
	if cfg.RetainedEarningsAccountID == "" {
		log.Println("Warning: RETAINED_EARNINGS_ACCOUNT_ID not set. Closing a period will require an explicit account.")
	}
	if err := cfg.Matching.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
