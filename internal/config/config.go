// Package config loads runtime settings from the environment. Every analysis
// command shares one Config; cobra flags may override individual fields after
// loading.
package config

import (
	"os"

	"github.com/kelseyhightower/envconfig"

	"github.com/EmmanuelUgo/ML-models/core/parallel"
	"github.com/EmmanuelUgo/ML-models/pkg/errors"
	"github.com/EmmanuelUgo/ML-models/pkg/log"
)

// Config holds the settings shared by every analysis run.
type Config struct {
	// DataDir is where input CSV files are read from.
	DataDir string `envconfig:"DATA_DIR" default:"data"`

	// OutputDir receives plots and metric tables.
	OutputDir string `envconfig:"OUTPUT_DIR" default:"output"`

	// Workers caps the goroutines used for resampling and prediction; 0 uses
	// every CPU.
	Workers int `envconfig:"WORKERS" default:"0"`

	// Seed drives every random split, bootstrap, and stochastic fit.
	Seed int64 `envconfig:"SEED" default:"123"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// SaveModels enables gob persistence of final fitted workflows.
	SaveModels bool `envconfig:"SAVE_MODELS" default:"false"`
}

// Load reads TIDYFLOW_* environment variables into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("tidyflow", &cfg); err != nil {
		return nil, errors.Wrap(err, "config: reading environment")
	}
	return &cfg, nil
}

// Apply wires the config into the global logger and worker pool and makes
// sure the output directory exists.
func (c *Config) Apply() error {
	log.Setup(os.Stderr, log.ParseLevel(c.LogLevel))
	if c.Workers > 0 {
		parallel.SetMaxWorkers(c.Workers)
	}
	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return errors.Wrap(err, "config: creating output dir")
	}
	return nil
}
