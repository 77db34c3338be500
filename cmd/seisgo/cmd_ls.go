package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"seisgo/internal/archive"
	"seisgo/internal/catalog"
)

var (
	lsPattern string
	lsLong    bool
)

// lsCmd lists archive files
var lsCmd = &cobra.Command{
	Use:   "ls [dir]",
	Short: "List the archive files under a directory",
	Long: `Ls lists the files under the given directory (default:
paths.archive_dir) whose name matches the pattern. With --long every
file's record kind, pair and time span are read and printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLs,
}

func init() {
	lsCmd.Flags().StringVarP(&lsPattern, "pattern", "p", "*"+archive.Ext, "filename pattern")
	lsCmd.Flags().BoolVarP(&lsLong, "long", "l", false, "print record metadata per file")
}

func runLs(cmd *cobra.Command, args []string) error {
	dir := cfg.Paths.ArchiveDir
	if len(args) == 1 {
		dir = args[0]
	}
	paths, err := catalog.List(dir, lsPattern)
	if err != nil {
		return err
	}
	for _, p := range paths {
		if !lsLong {
			fmt.Println(p)
			continue
		}
		info, err := archive.ReadInfo(p)
		if err != nil {
			logger.Warn("unreadable file", "path", p, "err", err)
			continue
		}
		fmt.Printf("%-8s %-24s %s %s  %4d windows  %s\n",
			info.Kind, info.Pair.Key(), info.Side,
			time.Unix(0, info.Start).UTC().Format("2006-01-02T15:04:05"),
			info.NWin, p)
	}
	return nil
}
