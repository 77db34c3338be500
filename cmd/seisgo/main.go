package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"seisgo/internal/config"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "seisgo",
	Short: "seisgo - ambient noise seismology toolkit",
	Long: `seisgo processes ambient noise cross-correlation data.

It converts raw waveform files into a windowed archive, merges and
stacks correlation records, measures relative velocity changes (dv/v),
and maintains a queryable catalog of the archive tree.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		if configPath == "" {
			cfg = config.Default()
			return nil
		}
		var err error
		cfg, err = config.Load(configPath, logger)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		logger.Debug("configuration loaded", "path", configPath)
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(stackCmd)
	rootCmd.AddCommand(psdCmd)
	rootCmd.AddCommand(dvvCmd)
	rootCmd.AddCommand(clusterCmd)
	rootCmd.AddCommand(peaksCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(scanCmd)
}
