package dvv

import (
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seisgo/internal/seis"
)

// synthCorr builds a two-sided correlation record whose rows are the
// reference coda stretched by the given factors (in percent).
func synthCorr(dt, maxLag float64, stretches []float64) *seis.CorrData {
	n := int(2*maxLag/dt) + 1
	c := &seis.CorrData{
		Pair: seis.Pair{
			Source:   seis.Station{Net: "XX", Sta: "AAA", Chan: "BHZ"},
			Receiver: seis.Station{Net: "XX", Sta: "BBB", Chan: "BHZ"},
			Comp:     "ZZ",
		},
		Side:     seis.SideAll,
		Dt:       dt,
		MaxLag:   maxLag,
		Substack: true,
	}
	for i, s := range stretches {
		eps := s / 100
		row := make([]float64, n)
		for j := range row {
			lag := -maxLag + float64(j)*dt
			// Coda wave packet: decaying tone, symmetric in lag. Under a
			// stretch the apparent lag axis dilates by (1+eps).
			t := math.Abs(lag) / (1 + eps)
			row[j] = math.Exp(-t/30) * math.Sin(2*math.Pi*0.5*t)
		}
		c.Time = append(c.Time, int64(i)*86400e9)
		c.Ngood = append(c.Ngood, 1)
		c.Data = append(c.Data, row)
	}
	return c
}

func TestMeasureRecoversStretch(t *testing.T) {
	rec := synthCorr(0.05, 60, []float64{0, 0.5, -0.5, 1.0})
	ref := synthCorr(0.05, 60, []float64{0}).Data[0]

	cfg := DefaultConfig()
	cfg.FreqMin, cfg.FreqMax = 0.2, 1.0
	cfg.MinLag, cfg.MaxLag = 5, 40
	cfg.MaxDvv = 2.0
	cfg.Steps = 401

	d, err := Measure(rec, ref, cfg, slog.Default())
	require.NoError(t, err)
	require.Equal(t, 4, d.NumWindows())

	// dv/v = -eps: a stretched coda appears slower.
	grid := 2 * cfg.MaxDvv / float64(cfg.Steps-1)
	assert.InDelta(t, 0.0, d.Dvv[0], grid)
	assert.InDelta(t, -0.5, d.Dvv[1], 3*grid)
	assert.InDelta(t, 0.5, d.Dvv[2], 3*grid)
	assert.InDelta(t, -1.0, d.Dvv[3], 3*grid)

	for i, cc := range d.Cc {
		assert.Greater(t, cc, 0.9, "window %d should correlate strongly", i)
	}
	assert.Equal(t, rec.Pair.Key(), d.Pair.Key())

	// The stacking window metadata travels into the record.
	assert.Equal(t, cfg.WinLen, d.WinLen)
	assert.Equal(t, cfg.Step, d.Step)
	assert.NotZero(t, d.WinLen)
	assert.NotZero(t, d.Step)
}

func TestMeasureSelfReference(t *testing.T) {
	rec := synthCorr(0.05, 60, []float64{0.2, 0.2, 0.2})
	cfg := DefaultConfig()
	cfg.FreqMin, cfg.FreqMax = 0.2, 1.0
	cfg.MinLag, cfg.MaxLag = 5, 40

	// All rows equal: against their own stack every dvv is zero.
	d, err := Measure(rec, nil, cfg, nil)
	require.NoError(t, err)
	for _, v := range d.Dvv {
		assert.InDelta(t, 0.0, v, 0.02)
	}
}

func TestMeasureSkipsDeadWindows(t *testing.T) {
	rec := synthCorr(0.05, 60, []float64{0, 0})
	for j := range rec.Data[1] {
		rec.Data[1][j] = 0
	}
	cfg := DefaultConfig()
	cfg.FreqMin, cfg.FreqMax = 0.2, 1.0
	cfg.MinLag, cfg.MaxLag = 5, 40

	d, err := Measure(rec, nil, cfg, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, 1, d.NumWindows(), "dead window is skipped, not fatal")
}

func TestMeasureValidation(t *testing.T) {
	rec := synthCorr(0.05, 60, []float64{0})
	cfg := DefaultConfig()

	bad := cfg
	bad.MaxLag = 100 // beyond the record's lag range
	_, err := Measure(rec, nil, bad, nil)
	assert.Error(t, err)

	bad = cfg
	bad.FreqMin, bad.FreqMax = 1, 0.1
	_, err = Measure(rec, nil, bad, nil)
	assert.Error(t, err)

	empty := synthCorr(0.05, 60, nil)
	_, err = Measure(empty, nil, cfg, nil)
	assert.ErrorIs(t, err, seis.ErrNoData)
}

func TestStretchError(t *testing.T) {
	cfg := DefaultConfig()
	e1 := stretchError(0.99, cfg, 0.05, 100)
	e2 := stretchError(0.80, cfg, 0.05, 100)
	assert.Less(t, e1, e2, "higher correlation means lower error")
	assert.Equal(t, 0.0, stretchError(1.0, cfg, 0.05, 100))
	assert.True(t, math.IsInf(stretchError(0, cfg, 0.05, 100), 1))
}
