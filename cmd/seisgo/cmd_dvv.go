package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"seisgo/internal/archive"
	"seisgo/internal/dvv"
	"seisgo/internal/export"
	"seisgo/internal/plotting"
	"seisgo/internal/seis"
)

var (
	dvvOut   string
	dvvPlot  bool
	dvvTable bool
)

// dvvCmd measures relative velocity changes per correlation record
var dvvCmd = &cobra.Command{
	Use:   "dvv [dir]",
	Short: "Measure relative velocity changes (dv/v) from correlation records",
	Long: `Dvv measures the relative velocity change of every substacked
correlation record under the given directory (default:
paths.archive_dir) against the record's own linear stack, using trace
stretching in the configured frequency band and lag window.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDvv,
}

func init() {
	dvvCmd.Flags().StringVarP(&dvvOut, "out", "o", "", "output directory (default: <dir>/dvv)")
	dvvCmd.Flags().BoolVar(&dvvPlot, "plot", false, "also render each dv/v time series")
	dvvCmd.Flags().BoolVar(&dvvTable, "table", false, "also write each measurement as CSV")
}

func runDvv(cmd *cobra.Command, args []string) error {
	dir := cfg.Paths.ArchiveDir
	if len(args) == 1 {
		dir = args[0]
	}
	outDir := dvvOut
	if outDir == "" {
		outDir = filepath.Join(dir, "dvv")
	}
	mcfg := dvv.Config{
		FreqMin: cfg.Dvv.FreqMin,
		FreqMax: cfg.Dvv.FreqMax,
		MinLag:  cfg.Dvv.MinLag,
		MaxLag:  cfg.Dvv.MaxLag,
		MaxDvv:  cfg.Dvv.MaxDvv,
		Steps:   cfg.Dvv.Steps,
		WinLen:  cfg.Window.LenSecs,
		Step:    cfg.Window.StepSecs,
	}

	recs, err := loadCorrRecords(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	measured := 0
	for _, c := range recs {
		if c.NumWindows() < 2 {
			logger.Debug("skipping single-window record", "pair", c.Pair.Key())
			continue
		}
		d, err := dvv.Measure(c, nil, mcfg, logger)
		if errors.Is(err, seis.ErrNoData) {
			logger.Warn("no usable windows", "pair", c.Pair.Key())
			continue
		}
		if err != nil {
			return err
		}
		if d.NumWindows() == 0 {
			logger.Warn("every window was skipped", "pair", c.Pair.Key())
			continue
		}

		base := strings.ReplaceAll(c.Pair.Key(), "/", "_") + ".dvv"
		path := filepath.Join(outDir, base+archive.Ext)
		if err := archive.WriteDvv(path, d); err != nil {
			return err
		}
		logger.Info("dvv measured", "pair", c.Pair.Key(), "windows", d.NumWindows(), "path", path)
		measured++

		if dvvTable {
			wr, err := export.NewWriter(logger, export.FormatCSV)
			if err != nil {
				return err
			}
			if err := wr.WriteDvvFile(filepath.Join(outDir, base+".csv"), d); err != nil {
				return err
			}
		}

		if dvvPlot {
			fig := filepath.Join(cfg.Paths.FigDir, base+".png")
			if err := os.MkdirAll(cfg.Paths.FigDir, 0o755); err != nil {
				return err
			}
			if err := plotting.Dvv(fig, d); err != nil {
				return err
			}
		}
	}
	logger.Info("dvv complete", "records", len(recs), "measured", measured)
	return nil
}
