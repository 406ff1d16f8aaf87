package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"socialstats/internal/errors"
)

// Scaler modes for the regression selector
const (
	ScalerTrain = "train"
	ScalerFull  = "full"
)

var missingPolicies = []string{"keep", "drop", "fill_mean", "fill_median", "fill_zero"}

// Config represents the complete application configuration
type Config struct {
	Analysis AnalysisConfig
	Data     DataConfig
	LogLevel string
}

// AnalysisConfig holds the engine settings shared by every analysis
type AnalysisConfig struct {
	Seed            int64
	TestSize        float64
	CVFolds         int
	TuningFolds     int
	Tune            bool
	BootstrapRounds int
	MaxClusters     int
	Lowess          bool
	LowessFrac      float64
	ScalerMode      string
	Workers         int
	// Timeout bounds a whole batch run; zero disables it
	Timeout time.Duration
}

// DataConfig holds ingestion settings
type DataConfig struct {
	File          string
	Sheet         string
	MissingPolicy string
	Deduplicate   bool
}

// Default returns the configuration used when no environment is set
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Seed:            42,
			TestSize:        0.2,
			CVFolds:         5,
			TuningFolds:     3,
			Tune:            true,
			BootstrapRounds: 100,
			MaxClusters:     10,
			Lowess:          true,
			LowessFrac:      0.3,
			ScalerMode:      ScalerTrain,
			Workers:         runtime.GOMAXPROCS(0),
		},
		Data: DataConfig{
			Sheet:         "Sheet1",
			MissingPolicy: "keep",
			Deduplicate:   true,
		},
		LogLevel: "INFO",
	}
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	def := Default()
	config := &Config{
		Analysis: loadAnalysisConfig(def.Analysis),
		Data:     loadDataConfig(def.Data),
		LogLevel: strings.ToUpper(getEnvOrDefault("LOG_LEVEL", def.LogLevel)),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadAnalysisConfig(def AnalysisConfig) AnalysisConfig {
	return AnalysisConfig{
		Seed:            int64(getEnvIntOrDefault("ANALYSIS_SEED", int(def.Seed))),
		TestSize:        getEnvFloatOrDefault("ANALYSIS_TEST_SIZE", def.TestSize),
		CVFolds:         getEnvIntOrDefault("ANALYSIS_CV_FOLDS", def.CVFolds),
		TuningFolds:     getEnvIntOrDefault("ANALYSIS_TUNING_FOLDS", def.TuningFolds),
		Tune:            getEnvBoolOrDefault("ANALYSIS_TUNE", def.Tune),
		BootstrapRounds: getEnvIntOrDefault("ANALYSIS_BOOTSTRAP_ROUNDS", def.BootstrapRounds),
		MaxClusters:     getEnvIntOrDefault("ANALYSIS_MAX_CLUSTERS", def.MaxClusters),
		Lowess:          getEnvBoolOrDefault("ANALYSIS_LOWESS", def.Lowess),
		LowessFrac:      getEnvFloatOrDefault("ANALYSIS_LOWESS_FRAC", def.LowessFrac),
		ScalerMode:      strings.ToLower(getEnvOrDefault("ANALYSIS_SCALER_MODE", def.ScalerMode)),
		Workers:         getEnvIntOrDefault("ANALYSIS_WORKERS", def.Workers),
		Timeout:         getEnvDurationOrDefault("ANALYSIS_TIMEOUT", def.Timeout),
	}
}

func loadDataConfig(def DataConfig) DataConfig {
	return DataConfig{
		File:          getEnvOrDefault("DATA_FILE", def.File),
		Sheet:         getEnvOrDefault("DATA_SHEET", def.Sheet),
		MissingPolicy: strings.ToLower(getEnvOrDefault("DATA_MISSING_POLICY", def.MissingPolicy)),
		Deduplicate:   getEnvBoolOrDefault("DATA_DEDUPLICATE", def.Deduplicate),
	}
}

// Validate checks an assembled configuration
func (c *Config) Validate() error {
	return validateConfig(c)
}

func validateConfig(config *Config) error {
	a := config.Analysis
	if a.TestSize <= 0 || a.TestSize >= 1 {
		return errors.ConfigInvalid(fmt.Sprintf("ANALYSIS_TEST_SIZE must be in (0, 1), got %g", a.TestSize))
	}
	if a.CVFolds < 2 {
		return errors.ConfigInvalid("ANALYSIS_CV_FOLDS must be at least 2")
	}
	if a.TuningFolds < 2 {
		return errors.ConfigInvalid("ANALYSIS_TUNING_FOLDS must be at least 2")
	}
	if a.BootstrapRounds < 0 {
		return errors.ConfigInvalid("ANALYSIS_BOOTSTRAP_ROUNDS must not be negative")
	}
	if a.MaxClusters < 2 {
		return errors.ConfigInvalid("ANALYSIS_MAX_CLUSTERS must be at least 2")
	}
	if a.LowessFrac <= 0 || a.LowessFrac > 1 {
		return errors.ConfigInvalid("ANALYSIS_LOWESS_FRAC must be in (0, 1]")
	}
	if a.ScalerMode != ScalerTrain && a.ScalerMode != ScalerFull {
		return errors.ConfigInvalid(fmt.Sprintf("ANALYSIS_SCALER_MODE must be %q or %q", ScalerTrain, ScalerFull))
	}
	if a.Workers < 1 {
		return errors.ConfigInvalid("ANALYSIS_WORKERS must be at least 1")
	}
	if a.Timeout < 0 {
		return errors.ConfigInvalid("ANALYSIS_TIMEOUT must not be negative")
	}

	valid := false
	for _, p := range missingPolicies {
		if config.Data.MissingPolicy == p {
			valid = true
			break
		}
	}
	if !valid {
		return errors.ConfigInvalid(fmt.Sprintf("DATA_MISSING_POLICY must be one of %s", strings.Join(missingPolicies, ", ")))
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
