package config

import (
	"testing"
	"time"

	"socialstats/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ANALYSIS_SEED", "")
	t.Setenv("ANALYSIS_SCALER_MODE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.Analysis.Seed)
	assert.Equal(t, 0.2, cfg.Analysis.TestSize)
	assert.Equal(t, 5, cfg.Analysis.CVFolds)
	assert.Equal(t, ScalerTrain, cfg.Analysis.ScalerMode)
	assert.Equal(t, "Sheet1", cfg.Data.Sheet)
	assert.True(t, cfg.Data.Deduplicate)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ANALYSIS_SEED", "7")
	t.Setenv("ANALYSIS_CV_FOLDS", "10")
	t.Setenv("ANALYSIS_SCALER_MODE", "FULL")
	t.Setenv("ANALYSIS_TIMEOUT", "30s")
	t.Setenv("DATA_MISSING_POLICY", "fill_median")
	t.Setenv("ANALYSIS_LOWESS", "not-a-bool")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.Analysis.Seed)
	assert.Equal(t, 10, cfg.Analysis.CVFolds)
	assert.Equal(t, ScalerFull, cfg.Analysis.ScalerMode)
	assert.Equal(t, 30*time.Second, cfg.Analysis.Timeout)
	assert.Equal(t, "fill_median", cfg.Data.MissingPolicy)
	assert.True(t, cfg.Analysis.Lowess, "unparsable values keep the default")
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"test size":   func(c *Config) { c.Analysis.TestSize = 1 },
		"folds":       func(c *Config) { c.Analysis.CVFolds = 1 },
		"clusters":    func(c *Config) { c.Analysis.MaxClusters = 1 },
		"scaler mode": func(c *Config) { c.Analysis.ScalerMode = "global" },
		"workers":     func(c *Config) { c.Analysis.Workers = 0 },
		"policy":      func(c *Config) { c.Data.MissingPolicy = "interpolate" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
