package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/batchatco/go-native-netcdf/netcdf"

	"seisgo/internal/seis"
)

// WaveformFile is a continuous single-channel trace as delivered by the
// acquisition side, before windowing.
type WaveformFile struct {
	Station seis.Station
	Dt      float64 // sampling interval, seconds
	Start   int64   // time of the first sample, unix nanoseconds
	Trace   []float64
}

// WriteWaveform writes a raw continuous trace to path.
func WriteWaveform(path string, wf *WaveformFile) error {
	if len(wf.Trace) == 0 {
		return seis.ErrNoData
	}
	attrs := map[string]any{
		"kind":  kindWaveform,
		"net":   wf.Station.Net,
		"sta":   wf.Station.Sta,
		"loc":   wf.Station.Loc,
		"chan":  wf.Station.Chan,
		"lon":   wf.Station.Lon,
		"lat":   wf.Station.Lat,
		"elev":  wf.Station.Elev,
		"dt":    wf.Dt,
		"start": float64(wf.Start) / 1e9,
	}
	order := []string{"kind", "net", "sta", "loc", "chan", "lon", "lat", "elev", "dt", "start"}
	if err := checkAttrs(attrs); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	return writeVar(path, "trace", wf.Trace, []string{"time"}, attrs, order)
}

// ReadWaveform loads a raw continuous trace from path.
func ReadWaveform(path string) (*WaveformFile, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("archive: opening %s: %w", path, err)
	}
	defer nc.Close()

	vr, err := nc.GetVariable("trace")
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no trace variable", ErrNotFound, path)
	}
	a := attrReader{attrs: vr.Attributes}
	if a.str("kind") != kindWaveform {
		return nil, fmt.Errorf("%w: %s holds kind %q", ErrNotFound, path, a.str("kind"))
	}
	trace, ok := vr.Values.([]float64)
	if !ok {
		return nil, fmt.Errorf("archive: %s: unexpected trace payload type %T", path, vr.Values)
	}
	wf := &WaveformFile{
		Station: seis.Station{
			Net: a.str("net"), Sta: a.str("sta"), Loc: a.str("loc"), Chan: a.str("chan"),
			Lon: a.f64("lon"), Lat: a.f64("lat"), Elev: a.f64("elev"),
		},
		Dt:    a.f64("dt"),
		Start: int64(a.f64("start") * 1e9),
		Trace: trace,
	}
	if a.err != nil {
		return nil, fmt.Errorf("archive: %s: %w", path, a.err)
	}
	return wf, nil
}

// Convert translates a raw waveform file into a windowed archive file
// under dstDir, slicing the trace into winSecs windows advancing by
// stepSecs. It returns the output path. A trace too short for a single
// window is an error, not an empty file.
func Convert(src, dstDir string, winSecs, stepSecs float64) (string, error) {
	wf, err := ReadWaveform(src)
	if err != nil {
		return "", err
	}
	wins := seis.SliceWindows(wf.Trace, wf.Dt, wf.Start, winSecs, stepSecs)
	if len(wins) == 0 {
		return "", fmt.Errorf("archive: %s yields no windows (%.0fs window over %d samples)", src, winSecs, len(wf.Trace))
	}
	if len(wins) > maxWindows {
		return "", fmt.Errorf("archive: %s yields %d windows, above the per-file limit %d; use a larger step", src, len(wins), maxWindows)
	}

	times := make([]int64, len(wins))
	data := make([][]float64, len(wins))
	stds := make([]float32, len(wins))
	for i, w := range wins {
		times[i] = w.Start
		data[i] = w.Data
		stds[i] = float32(w.Std)
	}
	mean, offsets := encodeTimes(times)

	attrs := map[string]any{
		"kind":        kindWaveform,
		"net":         wf.Station.Net,
		"sta":         wf.Station.Sta,
		"loc":         wf.Station.Loc,
		"chan":        wf.Station.Chan,
		"lon":         wf.Station.Lon,
		"lat":         wf.Station.Lat,
		"elev":        wf.Station.Elev,
		"dt":          wf.Dt,
		"winlen":      winSecs,
		"step":        stepSecs,
		"time_mean":   mean,
		"time_offset": offsets,
		"std":         stds,
	}
	order := []string{
		"kind", "net", "sta", "loc", "chan", "lon", "lat", "elev",
		"dt", "winlen", "step", "time_mean", "time_offset", "std",
	}
	if err := checkAttrs(attrs); err != nil {
		return "", fmt.Errorf("archive: %w", err)
	}

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return "", err
	}
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	dst := filepath.Join(dstDir, base+".win"+Ext)
	if err := writeVar(dst, "wave", data, []string{"win", "wlen"}, attrs, order); err != nil {
		return "", err
	}
	return dst, nil
}

// WindowedWaveform is the result of Convert: the station's windows
// ready for correlation.
type WindowedWaveform struct {
	Station seis.Station
	Dt      float64
	Time    []int64
	Std     []float32
	Data    [][]float64
}

// ReadWindows loads a windowed waveform archive file.
func ReadWindows(path string) (*WindowedWaveform, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("archive: opening %s: %w", path, err)
	}
	defer nc.Close()

	vr, err := nc.GetVariable("wave")
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no wave variable", ErrNotFound, path)
	}
	a := attrReader{attrs: vr.Attributes}
	data, ok := vr.Values.([][]float64)
	if !ok {
		return nil, fmt.Errorf("archive: %s: unexpected wave payload type %T", path, vr.Values)
	}
	w := &WindowedWaveform{
		Station: seis.Station{
			Net: a.str("net"), Sta: a.str("sta"), Loc: a.str("loc"), Chan: a.str("chan"),
			Lon: a.f64("lon"), Lat: a.f64("lat"), Elev: a.f64("elev"),
		},
		Dt:   a.f64("dt"),
		Time: decodeTimes(a.f64("time_mean"), a.f32s("time_offset")),
		Std:  a.f32s("std"),
		Data: data,
	}
	if a.err != nil {
		return nil, fmt.Errorf("archive: %s: %w", path, a.err)
	}
	return w, nil
}
