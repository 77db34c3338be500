package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"seisgo/internal/archive"
	"seisgo/internal/plotting"
	"seisgo/internal/spectral"
)

var (
	psdNperseg int
	psdOverlap float64
	psdPlot    bool
)

// psdCmd estimates power spectral densities of raw traces
var psdCmd = &cobra.Command{
	Use:   "psd <file>...",
	Short: "Estimate the power spectral density of raw waveform files",
	Long: `Psd computes a Welch power spectral density estimate for each given
raw waveform file and writes the curve as CSV next to the input.
With --plot a log-log figure is rendered under paths.fig_dir.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPSD,
}

func init() {
	psdCmd.Flags().IntVar(&psdNperseg, "nperseg", 4096, "samples per Welch segment")
	psdCmd.Flags().Float64Var(&psdOverlap, "overlap", 0.5, "segment overlap fraction")
	psdCmd.Flags().BoolVar(&psdPlot, "plot", false, "also render a log-log figure")
}

func runPSD(cmd *cobra.Command, args []string) error {
	for _, path := range args {
		wf, err := archive.ReadWaveform(path)
		if err != nil {
			return err
		}
		freqs, psd, err := spectral.Welch(wf.Trace, wf.Dt, psdNperseg, psdOverlap)
		if err != nil {
			return fmt.Errorf("psd of %s: %w", path, err)
		}

		base := strings.TrimSuffix(path, filepath.Ext(path))
		out := base + ".psd.csv"
		var sb strings.Builder
		sb.WriteString("freq_hz,power\n")
		for i := range freqs {
			fmt.Fprintf(&sb, "%.8g,%.8g\n", freqs[i], psd[i])
		}
		if err := os.WriteFile(out, []byte(sb.String()), 0o644); err != nil {
			return err
		}
		logger.Info("psd written", "station", wf.Station.ID(), "path", out, "bins", len(freqs))

		if psdPlot {
			fig := filepath.Join(cfg.Paths.FigDir, filepath.Base(base)+".psd.png")
			if err := os.MkdirAll(cfg.Paths.FigDir, 0o755); err != nil {
				return err
			}
			if err := plotting.PSD(fig, wf.Station.ID(), freqs, psd); err != nil {
				return err
			}
			logger.Info("psd figure written", "path", fig)
		}
	}
	return nil
}
