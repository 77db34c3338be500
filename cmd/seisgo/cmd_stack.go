package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"seisgo/internal/archive"
	"seisgo/internal/plotting"
	"seisgo/internal/sac"
	"seisgo/internal/seis"
)

var (
	stackMethod string
	stackOut    string
	stackSAC    bool
	stackPlot   bool
)

// stackCmd collapses windowed correlation records into stacks
var stackCmd = &cobra.Command{
	Use:   "stack [dir]",
	Short: "Stack the windows of every correlation record",
	Long: `Stack collapses the window axis of every correlation record under
the given directory (default: paths.archive_dir) into a single trace,
skipping dead windows. Optionally the stacks are also written as SAC
files and rendered as a moveout section.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStack,
}

func init() {
	stackCmd.Flags().StringVarP(&stackMethod, "method", "m", seis.StackLinear, "stack method: linear or sum")
	stackCmd.Flags().StringVarP(&stackOut, "out", "o", "", "output directory (default: <dir>/stacked)")
	stackCmd.Flags().BoolVar(&stackSAC, "sac", false, "also export each stack as a SAC file")
	stackCmd.Flags().BoolVar(&stackPlot, "plot", false, "also render a moveout section of the stacks")
}

func runStack(cmd *cobra.Command, args []string) error {
	dir := cfg.Paths.ArchiveDir
	if len(args) == 1 {
		dir = args[0]
	}
	outDir := stackOut
	if outDir == "" {
		outDir = filepath.Join(dir, "stacked")
	}

	recs, err := loadCorrRecords(dir)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		logger.Info("no correlation records found", "dir", dir)
		return nil
	}

	var stacks []*seis.CorrData
	for _, c := range recs {
		s, err := c.Stack(stackMethod)
		if err != nil {
			return err
		}
		if _, err := archive.SaveCorr(outDir, s); err != nil {
			return err
		}
		if stackSAC {
			if _, err := sac.ExportCorr(filepath.Join(outDir, "sac"), s); err != nil {
				return err
			}
		}
		logger.Info("stacked", "pair", s.Pair.Key(), "windows_in", c.NumWindows())
		stacks = append(stacks, s)
	}

	if stackPlot {
		fig := filepath.Join(cfg.Paths.FigDir, "moveout.png")
		if err := plotting.Wiggle(fig, stacks); err != nil {
			return err
		}
		logger.Info("moveout section written", "path", fig)
	}
	return nil
}
