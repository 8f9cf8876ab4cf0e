package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailforecast/forecasting"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/retail")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, ":3000", cfg.Addr())
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.Gemini.Model)
	assert.Equal(t, 1.0, cfg.Gemini.RPS)
	assert.Empty(t, cfg.Gemini.APIKey)

	opts, err := cfg.Forecast.Options()
	require.NoError(t, err)
	assert.Equal(t, 7, opts.EnsembleLookbackDays)
	assert.Equal(t, 30, opts.BreakdownLookbackDays)
	assert.Equal(t, 7, opts.RecentWindowDays)
	assert.False(t, opts.JitterEnabled)
	assert.False(t, opts.NormalizeWeekdays)
	assert.Equal(t, 8, opts.BatchConcurrency)
	assert.Equal(t, 20*time.Second, opts.BatchTimeout)
	assert.Equal(t, 30, opts.CorrelationLookbackDays)
	assert.Equal(t, 10, opts.TopPairs)
	assert.Empty(t, opts.DisabledModels)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "8081")
	t.Setenv("FORECAST_BATCH_TIMEOUT", "5s")
	t.Setenv("FORECAST_JITTER_ENABLED", "true")
	t.Setenv("FORECAST_DISABLED_MODELS", "ai_reasoning, random_forest")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Addr())

	opts, err := cfg.Forecast.Options()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, opts.BatchTimeout)
	assert.True(t, opts.JitterEnabled)
	assert.Equal(t, []forecasting.ModelName{forecasting.ModelNarrative, forecasting.ModelMultiFactor}, opts.DisabledModels)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"zero concurrency", "FORECAST_BATCH_CONCURRENCY", "0"},
		{"recent window not shorter than lookback", "FORECAST_RECENT_WINDOW_DAYS", "30"},
		{"unknown model", "FORECAST_DISABLED_MODELS", "prophet"},
		{"not a number", "FORECAST_TOP_PAIRS", "ten"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)
}
