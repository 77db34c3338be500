// Package export extracts per-window peak measurements from
// correlation records and writes them as delimited text for spreadsheet
// and plotting tools.
package export

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"seisgo/internal/seis"
)

// Peak is the strongest arrival of one correlation window on one lag
// side, with a signal-to-noise estimate against the window tail.
type Peak struct {
	Time int64   // window time, unix nanoseconds
	Side string  // seis.SidePos or seis.SideNeg
	Lag  float64 // lag of the peak, seconds
	Amp  float64
	Snr  float64
}

// noiseFraction of each lag side, measured from the far end, estimates
// the noise level for the SNR.
const noiseFraction = 0.25

// Peaks extracts the positive- and negative-side peaks of every window
// in c. Dead windows (Ngood == 0) are skipped with a warning. Records
// holding a single-sided stack yield one peak per window.
func Peaks(c *seis.CorrData, logger *slog.Logger) ([]Peak, error) {
	if c.NumWindows() == 0 {
		return nil, seis.ErrNoData
	}
	lags := c.LagTimes()
	var peaks []Peak
	for i, row := range c.Data {
		if len(c.Ngood) > i && c.Ngood[i] == 0 {
			logger.Warn("skipping dead window", "pair", c.Pair.Key(), "index", i)
			continue
		}
		if len(row) != len(lags) {
			return nil, fmt.Errorf("export: window %d has %d samples, want %d", i, len(row), len(lags))
		}
		switch c.Side {
		case seis.SideAll:
			zero := len(row) / 2
			peaks = append(peaks,
				sidePeak(c.Time[i], seis.SideNeg, lags[:zero], row[:zero]),
				sidePeak(c.Time[i], seis.SidePos, lags[zero:], row[zero:]))
		case seis.SidePos:
			peaks = append(peaks, sidePeak(c.Time[i], seis.SidePos, lags, row))
		case seis.SideNeg:
			peaks = append(peaks, sidePeak(c.Time[i], seis.SideNeg, lags, row))
		default:
			return nil, fmt.Errorf("export: invalid side marker %q", c.Side)
		}
	}
	return peaks, nil
}

// sidePeak finds the absolute maximum of one lag side and rates it
// against the RMS of the side's outer quarter, where direct arrivals
// have decayed.
func sidePeak(t int64, side string, lags, row []float64) Peak {
	best := 0
	for i, v := range row {
		if math.Abs(v) > math.Abs(row[best]) {
			best = i
		}
	}

	n := int(float64(len(row)) * noiseFraction)
	if n < 1 {
		n = 1
	}
	tail := row[len(row)-n:]
	if side == seis.SideNeg {
		tail = row[:n]
	}
	var sum float64
	for _, v := range tail {
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(tail)))

	p := Peak{Time: t, Side: side, Lag: lags[best], Amp: row[best]}
	if rms > 0 {
		p.Snr = math.Abs(row[best]) / rms
	}
	return p
}

// Format names an output text format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatLines Format = "lines"
)

// Writer renders measurements in a fixed text format.
type Writer struct {
	logger     *slog.Logger
	peakToText peakToTextFunc
	dvvToText  dvvToTextFunc
	header     string
	dvvHeader  string
}

// NewWriter creates a Writer for the given format.
func NewWriter(logger *slog.Logger, format Format) (*Writer, error) {
	peakToText := peakToTextFuncs[format]
	dvvToText := dvvToTextFuncs[format]
	if peakToText == nil || dvvToText == nil {
		return nil, fmt.Errorf("export: writing %q is not supported", format)
	}
	return &Writer{
		logger:     logger,
		peakToText: peakToText,
		dvvToText:  dvvToText,
		header:     headers[format],
		dvvHeader:  dvvHeaders[format],
	}, nil
}

// Write renders the peaks of one record to w.
func (wr *Writer) Write(w io.Writer, c *seis.CorrData, peaks []Peak) error {
	var sb strings.Builder
	if wr.header != "" {
		sb.WriteString(wr.header)
		sb.WriteString("\n")
	}
	key := c.Pair.Key()
	for i := range peaks {
		wr.peakToText(&sb, key, &peaks[i])
		sb.WriteString("\n")
	}
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	wr.logger.Info("peaks written", "pair", key, "count", len(peaks))
	return nil
}

// WriteFile renders the peaks of one record to path.
func (wr *Writer) WriteFile(path string, c *seis.CorrData, peaks []Peak) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := wr.Write(f, c, peaks); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteDvvTable renders a velocity-change record as a table in the
// writer's format.
func (wr *Writer) WriteDvvTable(w io.Writer, d *seis.DvvData) error {
	if d.NumWindows() == 0 {
		return seis.ErrNoData
	}
	var sb strings.Builder
	if wr.dvvHeader != "" {
		sb.WriteString(wr.dvvHeader)
		sb.WriteString("\n")
	}
	key := d.Pair.Key()
	for i := range d.Time {
		wr.dvvToText(&sb, key, d, i)
		sb.WriteString("\n")
	}
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	wr.logger.Info("dvv table written", "pair", key, "windows", d.NumWindows())
	return nil
}

// WriteDvvFile renders a velocity-change record to path.
func (wr *Writer) WriteDvvFile(path string, d *seis.DvvData) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := wr.WriteDvvTable(f, d); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type peakToTextFunc func(*strings.Builder, string, *Peak)

var peakToTextFuncs = map[Format]peakToTextFunc{
	FormatCSV:   peakToCSV,
	FormatLines: peakToLines,
}

var headers = map[Format]string{
	FormatCSV: "pair,time_ns,side,lag_s,amp,snr",
}

var csvFmt = "%s,%d,%s,%.6g,%.6g,%.6g"

func peakToCSV(sb *strings.Builder, pair string, p *Peak) {
	fmt.Fprintf(sb, csvFmt, pair, p.Time, p.Side, p.Lag, p.Amp, p.Snr)
}

var linesFmt = "peak,pair=%s,side=%s lag=%.6g,amp=%.6g,snr=%.6g %d"

func peakToLines(sb *strings.Builder, pair string, p *Peak) {
	fmt.Fprintf(sb, linesFmt, pair, p.Side, p.Lag, p.Amp, p.Snr, p.Time)
}

type dvvToTextFunc func(*strings.Builder, string, *seis.DvvData, int)

var dvvToTextFuncs = map[Format]dvvToTextFunc{
	FormatCSV:   dvvToCSV,
	FormatLines: dvvToLines,
}

var dvvHeaders = map[Format]string{
	FormatCSV: "pair,time_ns,side,dvv_pct,cc,err",
}

var dvvCSVFmt = "%s,%d,%s,%.6g,%.6g,%.6g"

func dvvToCSV(sb *strings.Builder, pair string, d *seis.DvvData, i int) {
	fmt.Fprintf(sb, dvvCSVFmt, pair, d.Time[i], d.Side, d.Dvv[i], d.Cc[i], d.Err[i])
}

var dvvLinesFmt = "dvv,pair=%s,side=%s dvv=%.6g,cc=%.6g,err=%.6g %d"

func dvvToLines(sb *strings.Builder, pair string, d *seis.DvvData, i int) {
	fmt.Fprintf(sb, dvvLinesFmt, pair, d.Side, d.Dvv[i], d.Cc[i], d.Err[i], d.Time[i])
}
