package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"seisgo/internal/archive"
	"seisgo/internal/export"
)

var peaksFormat string

// peaksCmd extracts per-window peak measurements
var peaksCmd = &cobra.Command{
	Use:   "peaks <file>...",
	Short: "Extract per-window peak amplitude measurements",
	Long: `Peaks finds the strongest arrival on each lag side of every window
of the given correlation files and writes the measurements as text
next to each input. Dead windows are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPeaks,
}

func init() {
	peaksCmd.Flags().StringVarP(&peaksFormat, "format", "f", string(export.FormatCSV), "output format: csv or lines")
}

func runPeaks(cmd *cobra.Command, args []string) error {
	wr, err := export.NewWriter(logger, export.Format(peaksFormat))
	if err != nil {
		return err
	}
	for _, path := range args {
		c, err := archive.ReadCorr(path)
		if err != nil {
			return err
		}
		peaks, err := export.Peaks(c, logger)
		if err != nil {
			return err
		}
		out := strings.TrimSuffix(path, filepath.Ext(path)) + ".peaks." + peaksFormat
		if err := wr.WriteFile(out, c, peaks); err != nil {
			return err
		}
	}
	return nil
}
