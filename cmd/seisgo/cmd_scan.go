package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"seisgo/internal/catalog"
)

var scanSpan string

// scanCmd indexes the archive tree into the catalog database
var scanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "Index the archive files under a directory into the catalog",
	Long: `Scan reads the record metadata of every archive file under the given
directory (default: paths.archive_dir) in parallel and upserts it into
the catalog database at paths.catalog_db. With --span the indexed time
range of one pair key is printed afterwards.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanSpan, "span", "", "print the indexed time span of this pair key")
}

func runScan(cmd *cobra.Command, args []string) error {
	dir := cfg.Paths.ArchiveDir
	if len(args) == 1 {
		dir = args[0]
	}

	cat, err := catalog.Open(cfg.Paths.CatalogDB, logger)
	if err != nil {
		return err
	}
	defer cat.Close()

	n, err := cat.Scan(cmd.Context(), dir)
	if err != nil {
		return err
	}
	logger.Info("indexed", "records", n, "db", cfg.Paths.CatalogDB)

	if scanSpan != "" {
		start, end, ok, err := cat.SpanFor(cmd.Context(), scanSpan)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no records indexed for pair %q", scanSpan)
		}
		fmt.Printf("%s  %s .. %s\n", scanSpan,
			time.Unix(0, start).UTC().Format(time.RFC3339),
			time.Unix(0, end).UTC().Format(time.RFC3339))
	}
	return nil
}
