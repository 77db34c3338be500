package main

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"seisgo/internal/archive"
	"seisgo/internal/catalog"
)

var (
	convertOut         string
	convertConcurrency int
)

// convertCmd turns raw waveform files into windowed archive files
var convertCmd = &cobra.Command{
	Use:   "convert [dir]",
	Short: "Convert raw waveform files into the windowed archive format",
	Long: `Convert slices every raw waveform file under the given directory
(default: paths.raw_dir) into correlation-ready windows and writes one
archive file per input. Window length and step come from the window
section of the configuration.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertOut, "out", "o", "", "output directory (default: paths.archive_dir)")
	convertCmd.Flags().IntVarP(&convertConcurrency, "concurrency", "j", runtime.NumCPU(), "number of files converted in parallel")
}

func runConvert(cmd *cobra.Command, args []string) error {
	srcDir := cfg.Paths.RawDir
	if len(args) == 1 {
		srcDir = args[0]
	}
	outDir := convertOut
	if outDir == "" {
		outDir = cfg.Paths.ArchiveDir
	}

	paths, err := catalog.List(srcDir, "*"+archive.Ext)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		logger.Info("nothing to convert", "dir", srcDir)
		return nil
	}
	logger.Info("converting", "files", len(paths), "out", outDir,
		"win_secs", cfg.Window.LenSecs, "step_secs", cfg.Window.StepSecs)

	pathsCh := make(chan string)
	progressCh := make(chan int)
	errsCh := make(chan error, len(paths))
	var wg sync.WaitGroup
	for range convertConcurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range pathsCh {
				dst, err := archive.Convert(src, outDir, cfg.Window.LenSecs, cfg.Window.StepSecs)
				if err != nil {
					logger.Error("conversion failed", "src", src, "err", err)
					errsCh <- err
					continue
				}
				logger.Debug("converted", "src", src, "dst", dst)
				progressCh <- 1
			}
		}()
	}
	go func() {
		var converted, total float64
		total = float64(len(paths))
		start := time.Now()
		for n := range progressCh {
			converted += float64(n)
			percent := fmt.Sprintf("%.2f%%", 100*converted/total)
			duration := time.Since(start).Round(1 * time.Second)
			logger.Info("progress", "converted", percent, "in", duration)
		}
	}()
	for _, p := range paths {
		pathsCh <- p
	}
	close(pathsCh)
	wg.Wait()
	close(progressCh)
	close(errsCh)

	failed := len(errsCh)
	if failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", failed, len(paths))
	}
	return nil
}
