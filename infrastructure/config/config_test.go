package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "calendar-events-dev", cfg.LedgerTable)
	assert.Equal(t, 90, cfg.WindowDays)
	assert.Equal(t, 3, cfg.ListingCount)
	assert.True(t, cfg.EnableCORS)
	assert.False(t, cfg.EnablePaymentSignature)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LEDGER_TABLE", "calendar-events-prod")
	t.Setenv("LISTING_WINDOW_DAYS", "30")
	t.Setenv("LISTING_COUNT", "5")
	t.Setenv("ENABLE_PAYMENT_SIGNATURE", "true")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "calendar-events-prod", cfg.LedgerTable)
	assert.Equal(t, 30, cfg.WindowDays)
	assert.Equal(t, 5, cfg.ListingCount)
	assert.True(t, cfg.EnablePaymentSignature)
}

func TestLoadConfigLegacyTableVariable(t *testing.T) {
	t.Setenv("DYNAMODB_TABLE_NAME", "legacy-table")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "legacy-table", cfg.LedgerTable)
}

func TestConfigValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Environment:      "development",
			LedgerTable:      "calendar-events-dev",
			FeedURLParam:     "/calendar/dev/ical-feed-url",
			SenderEmailParam: "/calendar/dev/ses-from-email",
			WindowDays:       90,
			ListingCount:     3,
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("missing table", func(t *testing.T) {
		cfg := base()
		cfg.LedgerTable = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive window", func(t *testing.T) {
		cfg := base()
		cfg.WindowDays = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive listing count", func(t *testing.T) {
		cfg := base()
		cfg.ListingCount = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("production requires parameter names", func(t *testing.T) {
		cfg := base()
		cfg.Environment = "production"
		cfg.FeedURLParam = ""
		assert.Error(t, cfg.Validate())
	})
}
