// Package plotting renders correlation matrices, moveout sections, PSD
// curves and dvv time series as image files.
package plotting

import (
	"fmt"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"seisgo/internal/seis"
)

// corrGrid adapts a correlation record to the heat map grid interface:
// columns are lag times, rows are windows.
type corrGrid struct {
	lags []float64
	time []int64
	data [][]float64
}

func (g corrGrid) Dims() (int, int)   { return len(g.lags), len(g.data) }
func (g corrGrid) Z(c, r int) float64 { return g.data[r][c] }
func (g corrGrid) X(c int) float64    { return g.lags[c] }
func (g corrGrid) Y(r int) float64    { return float64(g.time[r]) / 1e9 }

// CorrMatrix renders the windows of a correlation record as a heat map
// of lag time against window time and saves it to path.
func CorrMatrix(path string, c *seis.CorrData) error {
	if c.NumWindows() == 0 {
		return seis.ErrNoData
	}
	lags := c.LagTimes()
	for i, row := range c.Data {
		if len(row) != len(lags) {
			return fmt.Errorf("plotting: window %d has %d samples, want %d", i, len(row), len(lags))
		}
	}

	p := plot.New()
	p.Title.Text = c.Pair.Key()
	p.X.Label.Text = "lag (s)"
	p.Y.Label.Text = "window time (unix s)"

	hm := plotter.NewHeatMap(corrGrid{lags: lags, time: c.Time, data: c.Data},
		moreland.SmoothBlueRed().Palette(255))
	p.Add(hm)
	return p.Save(20*vg.Centimeter, 15*vg.Centimeter, path)
}

// Wiggle renders stacked records against their inter-station distance,
// the classic moveout section, and saves it to path. Each record is
// linearly stacked and scaled to a one-kilometer swing.
func Wiggle(path string, recs []*seis.CorrData) error {
	if len(recs) == 0 {
		return seis.ErrNoData
	}

	p := plot.New()
	p.Title.Text = "moveout"
	p.X.Label.Text = "lag (s)"
	p.Y.Label.Text = "distance (km)"

	for _, c := range recs {
		stacked, err := c.Stack(seis.StackLinear)
		if err != nil {
			return err
		}
		lags := c.LagTimes()
		row := stacked.Data[0]

		amax := 0.0
		for _, v := range row {
			if v > amax {
				amax = v
			} else if -v > amax {
				amax = -v
			}
		}
		if amax == 0 {
			amax = 1
		}

		xys := make(plotter.XYs, len(row))
		for i := range row {
			xys[i].X = lags[i]
			xys[i].Y = c.Dist + row[i]/amax
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		p.Add(line)
	}
	return p.Save(20*vg.Centimeter, 15*vg.Centimeter, path)
}

// PSD renders one power spectral density curve on log-log axes and
// saves it to path.
func PSD(path, title string, freqs, psd []float64) error {
	if len(freqs) != len(psd) || len(freqs) == 0 {
		return fmt.Errorf("plotting: %d frequencies against %d densities", len(freqs), len(psd))
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "frequency (Hz)"
	p.Y.Label.Text = "power"
	p.X.Scale = plot.LogScale{}
	p.Y.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	xys := make(plotter.XYs, 0, len(freqs))
	for i := range freqs {
		// Log axes cannot place zero frequency or zero power.
		if freqs[i] <= 0 || psd[i] <= 0 {
			continue
		}
		xys = append(xys, plotter.XY{X: freqs[i], Y: psd[i]})
	}
	if len(xys) == 0 {
		return seis.ErrNoData
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	p.Add(line)
	return p.Save(20*vg.Centimeter, 12*vg.Centimeter, path)
}

// Dvv renders a velocity-change time series with its correlation
// quality and saves it to path.
func Dvv(path string, d *seis.DvvData) error {
	if d.NumWindows() == 0 {
		return seis.ErrNoData
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s  %.2f-%.2f Hz", d.Pair.Key(), d.FreqMin, d.FreqMax)
	p.X.Label.Text = "time"
	p.Y.Label.Text = "dv/v (%)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}

	xys := make(plotter.XYs, len(d.Time))
	for i := range d.Time {
		xys[i].X = float64(time.Unix(0, d.Time[i]).Unix())
		xys[i].Y = d.Dvv[i]
	}
	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return err
	}
	p.Add(line, points)
	return p.Save(24*vg.Centimeter, 10*vg.Centimeter, path)
}
