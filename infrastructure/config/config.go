package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration
	AWSRegion   string
	LedgerTable string

	// Parameter store names for request-time secrets
	FeedURLParam     string
	APIKeyParam      string
	SenderEmailParam string
	SignatureParam   string

	// Listing behavior
	WindowDays   int
	ListingCount int

	// Feature flags
	EnableCORS             bool
	EnablePaymentSignature bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		AWSRegion:     getEnv("AWS_REGION", "eu-west-1"),
		LedgerTable:   getEnv("LEDGER_TABLE", getEnv("DYNAMODB_TABLE_NAME", "calendar-events-dev")),

		FeedURLParam:     getEnv("ICAL_URL_PARAM", "/calendar/dev/ical-feed-url"),
		APIKeyParam:      getEnv("API_KEY_PARAM", "/calendar/dev/apikey"),
		SenderEmailParam: getEnv("SES_FROM_EMAIL_PARAM", "/calendar/dev/ses-from-email"),
		SignatureParam:   getEnv("PAYMENT_SECOND_KEY_PARAM", "/calendar/dev/payment-second-key"),

		WindowDays:   getEnvInt("LISTING_WINDOW_DAYS", 90),
		ListingCount: getEnvInt("LISTING_COUNT", 3),

		EnableCORS:             getEnvBool("ENABLE_CORS", true),
		EnablePaymentSignature: getEnvBool("ENABLE_PAYMENT_SIGNATURE", false),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.LedgerTable == "" {
		return fmt.Errorf("LEDGER_TABLE is required")
	}
	if c.WindowDays <= 0 {
		return fmt.Errorf("LISTING_WINDOW_DAYS must be positive")
	}
	if c.ListingCount <= 0 {
		return fmt.Errorf("LISTING_COUNT must be positive")
	}
	if c.Environment == "production" {
		if c.FeedURLParam == "" {
			return fmt.Errorf("ICAL_URL_PARAM is required in production")
		}
		if c.SenderEmailParam == "" {
			return fmt.Errorf("SES_FROM_EMAIL_PARAM is required in production")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
