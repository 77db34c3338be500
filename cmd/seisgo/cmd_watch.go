package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"seisgo/internal/archive"
)

var watchOut string

// watchCmd converts raw waveform files as they land
var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and convert raw waveform files as they arrive",
	Long: `Watch monitors the given directory (default: paths.raw_dir) and runs
the conversion on every newly created archive-extension file. It runs
until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOut, "out", "o", "", "output directory (default: paths.archive_dir)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := cfg.Paths.RawDir
	if len(args) == 1 {
		dir = args[0]
	}
	outDir := watchOut
	if outDir == "" {
		outDir = cfg.Paths.ArchiveDir
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return err
	}
	logger.Info("watching", "dir", dir, "out", outDir)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) || filepath.Ext(ev.Name) != archive.Ext {
				continue
			}
			dst, err := archive.Convert(ev.Name, outDir, cfg.Window.LenSecs, cfg.Window.StepSecs)
			if err != nil {
				logger.Error("conversion failed", "src", ev.Name, "err", err)
				continue
			}
			logger.Info("converted", "src", ev.Name, "dst", dst)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", "err", err)
		case sig := <-sigCh:
			logger.Info("stopping", "signal", sig.String())
			return nil
		}
	}
}
