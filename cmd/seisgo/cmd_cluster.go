package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"seisgo/internal/archive"
	"seisgo/internal/cluster"
)

var clusterOut string

// clusterCmd groups correlation windows by waveform similarity
var clusterCmd = &cobra.Command{
	Use:   "cluster <file>",
	Short: "Group the windows of a correlation record by waveform similarity",
	Long: `Cluster partitions the windows of one correlation record into
cluster.k groups with k-means and writes a CSV of window time against
cluster label. Windows whose correlation functions change character,
from seasonal effects or instrument problems, separate into their own
groups.`,
	Args: cobra.ExactArgs(1),
	RunE: runCluster,
}

func init() {
	clusterCmd.Flags().StringVarP(&clusterOut, "out", "o", "", "output CSV path (default: <file>.clusters.csv)")
}

func runCluster(cmd *cobra.Command, args []string) error {
	c, err := archive.ReadCorr(args[0])
	if err != nil {
		return err
	}

	ccfg := cluster.DefaultConfig()
	ccfg.K = cfg.Cluster.K
	ccfg.MaxIter = cfg.Cluster.MaxIter
	res, err := cluster.KMeans(c.Data, ccfg)
	if err != nil {
		return fmt.Errorf("clustering %s: %w", args[0], err)
	}

	out := clusterOut
	if out == "" {
		out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".clusters.csv"
	}
	var sb strings.Builder
	sb.WriteString("time_ns,label\n")
	for i, label := range res.Labels {
		fmt.Fprintf(&sb, "%d,%d\n", c.Time[i], label)
	}
	if err := os.WriteFile(out, []byte(sb.String()), 0o644); err != nil {
		return err
	}
	logger.Info("clusters written", "pair", c.Pair.Key(), "k", ccfg.K,
		"windows", len(res.Labels), "inertia", res.Inertia, "path", out)
	return nil
}
