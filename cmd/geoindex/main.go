// Command geoindex builds and inspects a spatial index of the feature
// geometries recorded in a Git-backed geospatial repository.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kartspatial/geoindex/internal/config"
	"github.com/kartspatial/geoindex/internal/xlog"
)

var (
	cfgFile string
	verbose bool
	logger  *logrus.Logger
	cfg     *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "geoindex",
	Short: "Spatial index builder for Git-backed geospatial repositories",
	Long: `geoindex computes conservative WGS84 envelopes for every feature
recorded in a repository's history and persists them in an embedded
SQLite database, so spatial queries can be answered without walking
the full object graph.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		logger, err = xlog.New(xlog.Config{Level: cfg.Log.Level, JSON: cfg.Log.JSON})
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./geoindex.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(indexCmd, debugCmd)
}
