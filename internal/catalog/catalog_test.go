package catalog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seisgo/internal/archive"
	"seisgo/internal/seis"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "index.db"), discard())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func testInfo(path, pairKey string, start, end int64) *archive.Info {
	return &archive.Info{
		Kind: "corr",
		Pair: seis.Pair{
			Source:   seis.Station{Net: "BP", Sta: "CCRB"},
			Receiver: seis.Station{Net: "BP", Sta: "EADB"},
			Comp:     "ZZ",
		},
		Side:  seis.SideAll,
		Dt:    0.05,
		Start: start,
		End:   end,
		NWin:  3,
		Path:  path,
	}
}

func TestIndexAndSpan(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	key := "BP.CCRB_BP.EADB/ZZ"
	require.NoError(t, c.Index(ctx, testInfo("/a/one.nc", key, 100, 200)))
	require.NoError(t, c.Index(ctx, testInfo("/a/two.nc", key, 50, 150)))

	start, end, ok, err := c.SpanFor(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(50), start)
	assert.Equal(t, int64(200), end)

	_, _, ok, err = c.SpanFor(ctx, "no.such_pair/ZZ")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIndexReplacesByPath(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()
	key := "BP.CCRB_BP.EADB/ZZ"

	require.NoError(t, c.Index(ctx, testInfo("/a/one.nc", key, 100, 200)))
	require.NoError(t, c.Index(ctx, testInfo("/a/one.nc", key, 100, 500)))

	start, end, ok, err := c.SpanFor(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(100), start)
	assert.Equal(t, int64(500), end)

	paths, err := c.Files(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []string{"/a/one.nc"}, paths)
}

func TestFilesOrderedByStart(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()
	key := "BP.CCRB_BP.EADB/ZZ"

	require.NoError(t, c.Index(ctx, testInfo("/a/late.nc", key, 300, 400)))
	require.NoError(t, c.Index(ctx, testInfo("/a/early.nc", key, 100, 200)))

	paths, err := c.Files(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []string{"/a/early.nc", "/a/late.nc"}, paths)
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC).UnixNano()
	c := &seis.CorrData{
		Pair: seis.Pair{
			Source:   seis.Station{Net: "BP", Sta: "CCRB"},
			Receiver: seis.Station{Net: "BP", Sta: "EADB"},
			Comp:     "ZZ",
		},
		Side:   seis.SideAll,
		Dt:     0.05,
		MaxLag: 10,
		Time:   []int64{base, base + int64(time.Hour)},
		Ngood:  []int32{5, 6},
		Data:   [][]float64{make([]float64, 11), make([]float64, 11)},
	}
	_, err := archive.SaveCorr(dir, c)
	require.NoError(t, err)

	// A stray file with the archive extension is skipped, not fatal.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk"+archive.Ext), []byte("not netcdf"), 0o644))

	cat := openTestCatalog(t)
	n, err := cat.Scan(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	keys, err := cat.Pairs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{c.Pair.Key()}, keys)

	start, end, ok, err := cat.SpanFor(context.Background(), c.Pair.Key())
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, float64(base)/1e9, float64(start)/1e9, 1.0)
	assert.InDelta(t, float64(base+int64(time.Hour))/1e9, float64(end)/1e9, 1.0)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.nc", "b.nc", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.nc"), 0o755))

	paths, err := List(dir, "*.nc")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.nc"), filepath.Join(dir, "b.nc")}, paths)

	paths, err = List(dir, "*.none")
	require.NoError(t, err)
	assert.Empty(t, paths)

	_, err = List(filepath.Join(dir, "missing"), "*")
	assert.Error(t, err)

	_, err = List(dir, "[")
	assert.Error(t, err)
}
