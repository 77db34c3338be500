// Package archive persists correlation, dvv and windowed waveform
// records in NetCDF files. Record metadata travels as attributes of the
// data variable; every attribute obeys a 64 KiB size ceiling, which
// forces the window time axis into a mean scalar plus reduced-precision
// offsets and oversized records into several files.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"

	"seisgo/internal/seis"
)

// Record kinds stored in the "kind" attribute.
const (
	kindCorr     = "corr"
	kindDvv      = "dvv"
	kindWaveform = "waveform"
)

// Ext is the file extension of archive files.
const Ext = ".nc"

func corrAttrs(c *seis.CorrData) (map[string]any, []string) {
	mean, offsets := encodeTimes(c.Time)
	var substack int32
	if c.Substack {
		substack = 1
	}
	attrs := map[string]any{
		"kind":        kindCorr,
		"net1":        c.Pair.Source.Net,
		"sta1":        c.Pair.Source.Sta,
		"loc1":        c.Pair.Source.Loc,
		"chan1":       c.Pair.Source.Chan,
		"lon1":        c.Pair.Source.Lon,
		"lat1":        c.Pair.Source.Lat,
		"elev1":       c.Pair.Source.Elev,
		"net2":        c.Pair.Receiver.Net,
		"sta2":        c.Pair.Receiver.Sta,
		"loc2":        c.Pair.Receiver.Loc,
		"chan2":       c.Pair.Receiver.Chan,
		"lon2":        c.Pair.Receiver.Lon,
		"lat2":        c.Pair.Receiver.Lat,
		"elev2":       c.Pair.Receiver.Elev,
		"comp":        c.Pair.Comp,
		"side":        c.Side,
		"dt":          c.Dt,
		"maxlag":      c.MaxLag,
		"dist":        c.Dist,
		"az":          c.Az,
		"baz":         c.Baz,
		"substack":    substack,
		"time_mean":   mean,
		"time_offset": offsets,
		"ngood":       c.Ngood,
	}
	order := []string{
		"kind", "net1", "sta1", "loc1", "chan1", "lon1", "lat1", "elev1",
		"net2", "sta2", "loc2", "chan2", "lon2", "lat2", "elev2",
		"comp", "side", "dt", "maxlag", "dist", "az", "baz", "substack",
		"time_mean", "time_offset", "ngood",
	}
	return attrs, order
}

// WriteCorr writes a single correlation record to path. The record must
// fit the attribute ceiling; use SaveCorr to split oversized records.
func WriteCorr(path string, c *seis.CorrData) error {
	if c.NumWindows() == 0 {
		return seis.ErrNoData
	}
	if !seis.ValidSide(c.Side) {
		return fmt.Errorf("archive: invalid side marker %q", c.Side)
	}
	attrs, order := corrAttrs(c)
	if err := checkAttrs(attrs); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	return writeVar(path, "cc", c.Data, []string{"win", "lag"}, attrs, order)
}

// SaveCorr persists a correlation record under dir, splitting it into
// several files when its window axis exceeds the attribute ceiling. It
// returns the written paths.
func SaveCorr(dir string, c *seis.CorrData) ([]string, error) {
	if c.NumWindows() == 0 {
		return nil, seis.ErrNoData
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	base := strings.ReplaceAll(c.Pair.Key(), "/", "_")
	// Chunks of one pair land in the same directory; the first window
	// time keeps them from overwriting each other.
	if start, _, ok := c.Bounds(); ok {
		base += "_" + time.Unix(0, start).UTC().Format("20060102T150405")
	}
	parts := SplitForWrite(c)
	paths := make([]string, 0, len(parts))
	for i, part := range parts {
		name := base + Ext
		if len(parts) > 1 {
			name = fmt.Sprintf("%s.%03d%s", base, i, Ext)
		}
		p := filepath.Join(dir, name)
		if err := WriteCorr(p, part); err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// WriteDvv writes a dvv monitoring record to path under the same
// attribute rules as correlation records.
func WriteDvv(path string, d *seis.DvvData) error {
	if d.NumWindows() == 0 {
		return seis.ErrNoData
	}
	mean, offsets := encodeTimes(d.Time)
	attrs := map[string]any{
		"kind":        kindDvv,
		"net1":        d.Pair.Source.Net,
		"sta1":        d.Pair.Source.Sta,
		"net2":        d.Pair.Receiver.Net,
		"sta2":        d.Pair.Receiver.Sta,
		"comp":        d.Pair.Comp,
		"side":        d.Side,
		"freqmin":     d.FreqMin,
		"freqmax":     d.FreqMax,
		"winlen":      d.WinLen,
		"step":        d.Step,
		"time_mean":   mean,
		"time_offset": offsets,
		"cc":          f64to32(d.Cc),
		"err":         f64to32(d.Err),
	}
	order := []string{
		"kind", "net1", "sta1", "net2", "sta2", "comp", "side",
		"freqmin", "freqmax", "winlen", "step",
		"time_mean", "time_offset", "cc", "err",
	}
	if err := checkAttrs(attrs); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	return writeVar(path, "dvv", d.Dvv, []string{"win"}, attrs, order)
}

func f64to32(x []float64) []float32 {
	out := make([]float32, len(x))
	for i, v := range x {
		out[i] = float32(v)
	}
	return out
}

func f32to64(x []float32) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = float64(v)
	}
	return out
}

// writeVar creates a fresh archive file holding one variable with the
// given attributes.
func writeVar(path, name string, values any, dims []string, attrs map[string]any, order []string) error {
	am, err := util.NewOrderedMap(order, attrs)
	if err != nil {
		return fmt.Errorf("archive: building attributes: %w", err)
	}
	cw, err := cdf.OpenWriter(path)
	if err != nil {
		return fmt.Errorf("archive: creating %s: %w", path, err)
	}
	if err := cw.AddVar(name, api.Variable{
		Values:     values,
		Dimensions: dims,
		Attributes: am,
	}); err != nil {
		cw.Close()
		return fmt.Errorf("archive: writing %s: %w", path, err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("archive: closing %s: %w", path, err)
	}
	return nil
}
