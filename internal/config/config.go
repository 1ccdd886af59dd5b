package config

import (
	"os"
	"runtime"
	"strconv"

	"equitrends/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Test      TestConfig
	Bootstrap BootstrapConfig
	Data      DataConfig
}

// TestConfig holds equivalence test settings
type TestConfig struct {
	Alpha  float64 // significance level
	Margin float64 // equivalence margin to decide at; 0 skips the decision
}

// BootstrapConfig holds resampling settings
type BootstrapConfig struct {
	Replications int
	Workers      int
	Seed         int64
}

// DataConfig holds dataset column mapping
type DataConfig struct {
	File           string
	IDColumn       string
	TimeColumn     string
	ResponseColumn string
	PlaceboPrefix  string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Test: TestConfig{
			Alpha:  getEnvFloatOrDefault("EQUITRENDS_ALPHA", 0.05),
			Margin: getEnvFloatOrDefault("EQUITRENDS_MARGIN", 0),
		},
		Bootstrap: BootstrapConfig{
			Replications: getEnvIntOrDefault("EQUITRENDS_BOOT_REPS", 1000),
			Workers:      getEnvIntOrDefault("EQUITRENDS_BOOT_WORKERS", runtime.NumCPU()),
			Seed:         int64(getEnvIntOrDefault("EQUITRENDS_SEED", 42)),
		},
		Data: DataConfig{
			File:           os.Getenv("EQUITRENDS_DATA_FILE"),
			IDColumn:       getEnvOrDefault("EQUITRENDS_ID_COLUMN", "id"),
			TimeColumn:     getEnvOrDefault("EQUITRENDS_TIME_COLUMN", "period"),
			ResponseColumn: getEnvOrDefault("EQUITRENDS_RESPONSE_COLUMN", "outcome"),
			PlaceboPrefix:  getEnvOrDefault("EQUITRENDS_PLACEBO_PREFIX", "placebo_"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Test.Alpha <= 0 || cfg.Test.Alpha >= 1 {
		return errors.ConfigInvalid("EQUITRENDS_ALPHA must be in (0, 1)")
	}
	if cfg.Test.Margin < 0 {
		return errors.ConfigInvalid("EQUITRENDS_MARGIN must be non-negative")
	}
	if cfg.Bootstrap.Replications < 1 {
		return errors.ConfigInvalid("EQUITRENDS_BOOT_REPS must be at least 1")
	}
	if cfg.Bootstrap.Workers < 1 {
		return errors.ConfigInvalid("EQUITRENDS_BOOT_WORKERS must be at least 1")
	}
	return nil
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloatOrDefault(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
