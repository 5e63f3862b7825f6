package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, int32(2), cfg.CurrencyScale)
	assert.True(t, cfg.RunMigrations)
	assert.Equal(t, 0.9, cfg.Matching.AutoCommitThreshold)
	assert.Equal(t, 0.7, cfg.Matching.ReviewThreshold)
	assert.Equal(t, 30, cfg.Matching.CandidateWindowDays)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("CURRENCY_SCALE", "0")
	t.Setenv("RETAINED_EARNINGS_ACCOUNT_ID", "re-1")
	t.Setenv("MATCH_AUTO_COMMIT_THRESHOLD", "0.95")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, int32(0), cfg.CurrencyScale)
	assert.Equal(t, "re-1", cfg.RetainedEarningsAccountID)
	assert.Equal(t, 0.95, cfg.Matching.AutoCommitThreshold)
}

func TestLoadConfig_RejectsBadMatcherWeights(t *testing.T) {
	t.Setenv("MATCH_AMOUNT_WEIGHT", "0.9")

	_, err := LoadConfig()
	assert.Error(t, err)
}
