package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"

	"retailforecast/forecasting"
)

// Config holds application configuration.
// This is a simple way to make config accessible globally.
type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true" validate:"required"`
	JWTSecret   string `envconfig:"JWT_SECRET" required:"true" validate:"required"`
	Port        int    `envconfig:"PORT" default:"3000" validate:"min=1,max=65535"`

	Gemini   GeminiConfig   `envconfig:"GEMINI"`
	Forecast ForecastConfig `envconfig:"FORECAST"`
}

// GeminiConfig configures the insight narrative. An empty APIKey disables it.
type GeminiConfig struct {
	APIKey string  `envconfig:"API_KEY"`
	Model  string  `envconfig:"MODEL" default:"gemini-2.5-flash-lite" validate:"required"`
	RPS    float64 `envconfig:"RPS" default:"1" validate:"gt=0"`
}

// ForecastConfig mirrors forecasting.Options.
type ForecastConfig struct {
	EnsembleLookbackDays    int           `envconfig:"ENSEMBLE_LOOKBACK_DAYS" default:"7" validate:"min=1,max=365"`
	BreakdownLookbackDays   int           `envconfig:"BREAKDOWN_LOOKBACK_DAYS" default:"30" validate:"min=2,max=365"`
	RecentWindowDays        int           `envconfig:"RECENT_WINDOW_DAYS" default:"7" validate:"min=1,ltfield=BreakdownLookbackDays"`
	JitterEnabled           bool          `envconfig:"JITTER_ENABLED" default:"false"`
	NormalizeWeekdays       bool          `envconfig:"NORMALIZE_WEEKDAYS" default:"false"`
	BatchConcurrency        int           `envconfig:"BATCH_CONCURRENCY" default:"8" validate:"min=1,max=256"`
	BatchTimeout            time.Duration `envconfig:"BATCH_TIMEOUT" default:"20s" validate:"gt=0"`
	CorrelationLookbackDays int           `envconfig:"CORRELATION_LOOKBACK_DAYS" default:"30" validate:"min=1,max=365"`
	TopPairs                int           `envconfig:"TOP_PAIRS" default:"10" validate:"min=1"`
	DisabledModels          string        `envconfig:"DISABLED_MODELS"`
}

// AppConfig holds the application-wide configuration
var AppConfig Config

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if _, err := cfg.Forecast.Options(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Options converts the forecast settings into pipeline options.
func (f ForecastConfig) Options() (forecasting.Options, error) {
	disabled, err := forecasting.ParseModelNames(f.DisabledModels)
	if err != nil {
		return forecasting.Options{}, fmt.Errorf("FORECAST_DISABLED_MODELS: %w", err)
	}
	return forecasting.Options{
		EnsembleLookbackDays:    f.EnsembleLookbackDays,
		BreakdownLookbackDays:   f.BreakdownLookbackDays,
		RecentWindowDays:        f.RecentWindowDays,
		JitterEnabled:           f.JitterEnabled,
		NormalizeWeekdays:       f.NormalizeWeekdays,
		BatchConcurrency:        f.BatchConcurrency,
		BatchTimeout:            f.BatchTimeout,
		CorrelationLookbackDays: f.CorrelationLookbackDays,
		TopPairs:                f.TopPairs,
		DisabledModels:          disabled,
	}, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
