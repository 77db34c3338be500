package seis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterKeepsInBandTone(t *testing.T) {
	dt := 0.01
	n := 2000
	row := make([]float64, n)
	for i := range row {
		ti := float64(i) * dt
		row[i] = math.Sin(2*math.Pi*5*ti) + math.Sin(2*math.Pi*40*ti)
	}
	c := &CorrData{
		Side: SideAll, Dt: dt, MaxLag: float64(n-1) / 2 * dt,
		Time: []int64{0}, Ngood: []int32{1},
		Data: [][]float64{row},
	}

	require.NoError(t, c.Filter(2, 10))

	// The 40 Hz tone is gone; the 5 Hz tone survives. Compare RMS away
	// from the taper edges.
	var rms float64
	for _, v := range c.Data[0][200:1800] {
		rms += v * v
	}
	rms = math.Sqrt(rms / 1600)
	assert.InDelta(t, 1/math.Sqrt2, rms, 0.1)
}

func TestFilterErrors(t *testing.T) {
	empty := &CorrData{Dt: 0.01}
	assert.ErrorIs(t, empty.Filter(2, 10), ErrNoData)

	c := &CorrData{
		Dt:   0.01,
		Time: []int64{0}, Ngood: []int32{1},
		Data: [][]float64{make([]float64, 100)},
	}
	assert.Error(t, c.Filter(10, 2), "inverted band")
}
