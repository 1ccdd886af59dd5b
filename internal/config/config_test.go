package config

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.05, cfg.Test.Alpha)
	assert.Equal(t, 0.0, cfg.Test.Margin)
	assert.Equal(t, 1000, cfg.Bootstrap.Replications)
	assert.Equal(t, runtime.NumCPU(), cfg.Bootstrap.Workers)
	assert.Equal(t, int64(42), cfg.Bootstrap.Seed)
	assert.Equal(t, "id", cfg.Data.IDColumn)
	assert.Equal(t, "period", cfg.Data.TimeColumn)
	assert.Equal(t, "outcome", cfg.Data.ResponseColumn)
	assert.Equal(t, "placebo_", cfg.Data.PlaceboPrefix)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("EQUITRENDS_ALPHA", "0.1")
	t.Setenv("EQUITRENDS_MARGIN", "0.25")
	t.Setenv("EQUITRENDS_BOOT_REPS", "250")
	t.Setenv("EQUITRENDS_BOOT_WORKERS", "3")
	t.Setenv("EQUITRENDS_SEED", "7")
	t.Setenv("EQUITRENDS_DATA_FILE", "panel.xlsx")
	t.Setenv("EQUITRENDS_PLACEBO_PREFIX", "pre_")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.1, cfg.Test.Alpha)
	assert.Equal(t, 0.25, cfg.Test.Margin)
	assert.Equal(t, 250, cfg.Bootstrap.Replications)
	assert.Equal(t, 3, cfg.Bootstrap.Workers)
	assert.Equal(t, int64(7), cfg.Bootstrap.Seed)
	assert.Equal(t, "panel.xlsx", cfg.Data.File)
	assert.Equal(t, "pre_", cfg.Data.PlaceboPrefix)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := []struct {
		key, value string
	}{
		{"EQUITRENDS_ALPHA", "1.5"},
		{"EQUITRENDS_ALPHA", "0"},
		{"EQUITRENDS_MARGIN", "-0.5"},
		{"EQUITRENDS_BOOT_REPS", "0"},
		{"EQUITRENDS_BOOT_WORKERS", "-1"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_MalformedNumbersFallBackToDefaults(t *testing.T) {
	t.Setenv("EQUITRENDS_ALPHA", "not-a-number")
	t.Setenv("EQUITRENDS_BOOT_REPS", "many")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.05, cfg.Test.Alpha)
	assert.Equal(t, 1000, cfg.Bootstrap.Replications)
}
