// Package dvv measures relative velocity changes from repeated
// cross-correlation records using the trace-stretching method: each
// substack window is compared against a reference trace over a grid of
// relative stretch factors, and the best factor by correlation
// coefficient gives dv/v for that window.
package dvv

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"

	"seisgo/internal/seis"
	"seisgo/internal/spectral"
)

// Config controls a stretching measurement.
type Config struct {
	FreqMin float64 // passband, Hz
	FreqMax float64
	MinLag  float64 // coda window start, seconds (positive-lag convention)
	MaxLag  float64 // coda window end, seconds
	MaxDvv  float64 // stretch search half-range, percent
	Steps   int     // stretch grid size

	// Stacking window parameters of the input records, carried into the
	// measurement record as metadata.
	WinLen float64 // seconds
	Step   float64 // seconds
}

// DefaultConfig returns the usual monitoring settings: 0.1-1 Hz band and
// a +-2 percent search over 201 grid points.
func DefaultConfig() Config {
	return Config{
		FreqMin: 0.1,
		FreqMax: 1.0,
		MinLag:  5,
		MaxLag:  50,
		MaxDvv:  2.0,
		Steps:   201,
		WinLen:  3600,
		Step:    1800,
	}
}

func (c Config) validate(rec *seis.CorrData) error {
	if c.FreqMin <= 0 || c.FreqMax <= c.FreqMin {
		return fmt.Errorf("dvv: invalid band [%v, %v]", c.FreqMin, c.FreqMax)
	}
	if c.MinLag < 0 || c.MaxLag <= c.MinLag {
		return fmt.Errorf("dvv: invalid coda window [%v, %v]", c.MinLag, c.MaxLag)
	}
	if c.MaxLag > rec.MaxLag {
		return fmt.Errorf("dvv: coda window end %v exceeds record lag %v", c.MaxLag, rec.MaxLag)
	}
	if c.MaxDvv <= 0 || c.Steps < 3 {
		return fmt.Errorf("dvv: invalid stretch grid (max %v%%, %d steps)", c.MaxDvv, c.Steps)
	}
	return nil
}

// Measure runs the stretching measurement over every window of rec. ref
// is the reference trace; pass nil to use the linear stack of rec
// itself. Windows without usable energy are skipped with a warning
// rather than aborting the whole record.
func Measure(rec *seis.CorrData, ref []float64, cfg Config, logger *slog.Logger) (*seis.DvvData, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if rec.NumWindows() == 0 {
		return nil, seis.ErrNoData
	}
	if err := cfg.validate(rec); err != nil {
		return nil, err
	}

	if ref == nil {
		st, err := rec.Stack(seis.StackLinear)
		if err != nil {
			return nil, fmt.Errorf("dvv: building reference stack: %w", err)
		}
		ref = st.Data[0]
	}

	fref, err := spectral.Bandpass(ref, rec.Dt, cfg.FreqMin, cfg.FreqMax)
	if err != nil {
		return nil, err
	}

	out := &seis.DvvData{
		Pair:    rec.Pair,
		Side:    rec.Side,
		FreqMin: cfg.FreqMin,
		FreqMax: cfg.FreqMax,
		WinLen:  cfg.WinLen,
		Step:    cfg.Step,
	}
	for i, row := range rec.Data {
		if len(row) != len(fref) {
			return nil, fmt.Errorf("dvv: window %d has %d samples, reference has %d", i, len(row), len(fref))
		}
		frow, err := spectral.Bandpass(row, rec.Dt, cfg.FreqMin, cfg.FreqMax)
		if err != nil {
			return nil, err
		}
		dv, cc, derr, err := stretchOne(frow, fref, rec, cfg)
		if err != nil {
			logger.Warn("skipping dvv window", "pair", rec.Pair.Key(), "window", i, "err", err)
			continue
		}
		out.Time = append(out.Time, rec.Time[i])
		out.Dvv = append(out.Dvv, dv)
		out.Cc = append(out.Cc, cc)
		out.Err = append(out.Err, derr)
	}
	return out, nil
}

var errNoEnergy = errors.New("coda window holds no energy")

// stretchOne measures one window against the reference. Both traces are
// already filtered.
func stretchOne(row, ref []float64, rec *seis.CorrData, cfg Config) (dvv, cc, dvvErr float64, err error) {
	lags := rec.LagTimes()
	var idx []int
	for j, lag := range lags {
		a := math.Abs(lag)
		if a < cfg.MinLag || a > cfg.MaxLag {
			continue
		}
		if rec.Side == seis.SidePos && lag < 0 {
			continue
		}
		if rec.Side == seis.SideNeg && lag > 0 {
			continue
		}
		idx = append(idx, j)
	}
	if len(idx) < 3 {
		return 0, 0, 0, fmt.Errorf("coda window [%v, %v] selects %d samples", cfg.MinLag, cfg.MaxLag, len(idx))
	}

	target := make([]float64, len(idx))
	var energy float64
	for k, j := range idx {
		target[k] = row[j]
		energy += row[j] * row[j]
	}
	if energy == 0 {
		return 0, 0, 0, errNoEnergy
	}

	best := math.Inf(-1)
	var bestEps float64
	stretched := make([]float64, len(idx))
	for s := 0; s < cfg.Steps; s++ {
		eps := -cfg.MaxDvv/100 + float64(s)*(2*cfg.MaxDvv/100)/float64(cfg.Steps-1)
		for k, j := range idx {
			// Sample the reference at the stretched lag time.
			stretched[k] = sampleAt(ref, lags, lags[j]*(1+eps), rec.Dt)
		}
		c := stat.Correlation(target, stretched, nil)
		if !math.IsNaN(c) && c > best {
			best = c
			bestEps = eps
		}
	}
	if math.IsInf(best, -1) {
		return 0, 0, 0, errNoEnergy
	}

	// The reference was sampled at lag*(1+eps), so a current trace whose
	// coda is dilated (slower medium) matches a negative eps. dv/v =
	// -dt/t = eps under this convention.
	dvv = bestEps * 100
	cc = best
	dvvErr = stretchError(best, cfg, rec.Dt, len(idx))
	return dvv, cc, dvvErr, nil
}

// sampleAt linearly interpolates the reference trace at lag time t.
func sampleAt(ref []float64, lags []float64, t, dt float64) float64 {
	pos := (t - lags[0]) / dt
	j := int(math.Floor(pos))
	if j < 0 || j >= len(ref)-1 {
		return 0
	}
	frac := pos - float64(j)
	return ref[j]*(1-frac) + ref[j+1]*frac
}

// stretchError is the Weaver et al. (2011) estimate of the stretching
// measurement error, in percent.
func stretchError(cc float64, cfg Config, dt float64, n int) float64 {
	if cc >= 1 {
		return 0
	}
	if cc <= 0 {
		return math.Inf(1)
	}
	t1, t2 := cfg.MinLag, cfg.MaxLag
	wc := 2 * math.Pi * (cfg.FreqMin + cfg.FreqMax) / 2
	num := math.Sqrt(1-cc*cc) / (2 * cc)
	term := 6 * math.Sqrt(math.Pi/2) * (t2 - t1) / (wc * wc * (t2*t2*t2 - t1*t1*t1))
	return num * math.Sqrt(term) * 100
}
