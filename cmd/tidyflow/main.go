// Command tidyflow runs the bundled tabular analyses end to end: load,
// preprocess, resample, tune, and report.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/EmmanuelUgo/ML-models/internal/analysis"
	"github.com/EmmanuelUgo/ML-models/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags struct {
		dataDir    string
		outputDir  string
		workers    int
		seed       int64
		logLevel   string
		saveModels bool
	}

	root := &cobra.Command{
		Use:           "tidyflow",
		Short:         "Tabular analyses built on recipes, workflows, and resampling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.dataDir, "data-dir", "", "directory holding input CSV files")
	pf.StringVar(&flags.outputDir, "output-dir", "", "directory receiving plots and metric tables")
	pf.IntVar(&flags.workers, "workers", 0, "worker goroutines for resampling (0 = all CPUs)")
	pf.Int64Var(&flags.seed, "seed", 0, "random seed for splits and stochastic fits")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&flags.saveModels, "save-model", false, "persist final fitted models as gob files")

	loadConfig := func(cmd *cobra.Command) (*config.Config, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		if flags.dataDir != "" {
			cfg.DataDir = flags.dataDir
		}
		if flags.outputDir != "" {
			cfg.OutputDir = flags.outputDir
		}
		if flags.workers > 0 {
			cfg.Workers = flags.workers
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed = flags.seed
		}
		if flags.logLevel != "" {
			cfg.LogLevel = flags.logLevel
		}
		if flags.saveModels {
			cfg.SaveModels = true
		}
		return cfg, cfg.Apply()
	}

	studies := []struct {
		name  string
		short string
		run   func(*analysis.Run) error
	}{
		{"unvotes", "Embed UN voting records with PCA and UMAP", analysis.Unvotes},
		{"waterpoints", "Classify water-point status with a tuned random forest", analysis.Waterpoints},
		{"churn", "Screen classifiers for telco customer churn", analysis.Churn},
		{"pumpkins", "Compare regressors for giant-pumpkin weights", analysis.Pumpkins},
		{"furniture", "Tune regressors for catalog furniture prices", analysis.Furniture},
	}
	for _, s := range studies {
		study := s
		root.AddCommand(&cobra.Command{
			Use:   study.name,
			Short: study.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				return study.run(analysis.NewRun(cfg, study.name))
			},
		})
	}

	root.AddCommand(&cobra.Command{
		Use:   "all",
		Short: "Run every analysis in sequence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			for _, study := range studies {
				if err := study.run(analysis.NewRun(cfg, study.name)); err != nil {
					return fmt.Errorf("%s: %w", study.name, err)
				}
			}
			return nil
		},
	})

	return root
}
