package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"seisgo/internal/archive"
	"seisgo/internal/merge"
	"seisgo/internal/seis"
)

var mergeOut string

// mergeCmd combines correlation chunks into continuous records
var mergeCmd = &cobra.Command{
	Use:   "merge [dir]",
	Short: "Merge correlation chunks into one record per pair",
	Long: `Merge reads every correlation file under the given directory
(default: paths.archive_dir), combines chunks that share a pair, lag
side and sampling into a single time-sorted record, and writes the
merged records. Time gaps between chunks are preserved, not filled.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOut, "out", "o", "", "output directory (default: <dir>/merged)")
}

func runMerge(cmd *cobra.Command, args []string) error {
	dir := cfg.Paths.ArchiveDir
	if len(args) == 1 {
		dir = args[0]
	}
	outDir := mergeOut
	if outDir == "" {
		outDir = filepath.Join(dir, "merged")
	}

	recs, err := loadCorrRecords(dir)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		logger.Info("no correlation records found", "dir", dir)
		return nil
	}
	if start, end, ok := merge.Span(recs); ok {
		logger.Info("merging", "records", len(recs), "span_start", start, "span_end", end)
	}

	merged, err := merge.Merge(recs)
	if err != nil {
		return fmt.Errorf("merging %s: %w", dir, err)
	}
	for _, m := range merged {
		paths, err := archive.SaveCorr(outDir, m)
		if err != nil {
			return err
		}
		logger.Info("merged", "pair", m.Pair.Key(), "windows", m.NumWindows(), "files", len(paths))
	}
	return nil
}

// loadCorrRecords reads every correlation record below dir.
func loadCorrRecords(dir string) ([]*seis.CorrData, error) {
	sc, err := archive.NewScanner(dir)
	if err != nil {
		return nil, err
	}
	logger.Debug("archive summary", sc.Summary()...)
	var recs []*seis.CorrData
	for sc.Scan() {
		recs = append(recs, sc.Records()...)
	}
	return recs, sc.Err()
}
