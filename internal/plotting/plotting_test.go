package plotting

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seisgo/internal/seis"
)

func plotCorr(dist float64) *seis.CorrData {
	base := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC).UnixNano()
	c := &seis.CorrData{
		Pair: seis.Pair{
			Source:   seis.Station{Net: "BP", Sta: "CCRB"},
			Receiver: seis.Station{Net: "BP", Sta: "EADB"},
			Comp:     "ZZ",
		},
		Side:   seis.SideAll,
		Dt:     0.1,
		MaxLag: 5,
		Dist:   dist,
	}
	for w := 0; w < 3; w++ {
		row := make([]float64, 101)
		for i := range row {
			lag := -5 + float64(i)*0.1
			row[i] = math.Exp(-lag*lag) * math.Cos(2*math.Pi*lag)
		}
		c.Time = append(c.Time, base+int64(w)*int64(time.Hour))
		c.Ngood = append(c.Ngood, 3)
		c.Data = append(c.Data, row)
	}
	return c
}

func assertImage(t *testing.T, path string) {
	t.Helper()
	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, fi.Size(), int64(0))
}

func TestCorrMatrix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix.png")
	require.NoError(t, CorrMatrix(path, plotCorr(28.3)))
	assertImage(t, path)
}

func TestCorrMatrixEmpty(t *testing.T) {
	err := CorrMatrix(filepath.Join(t.TempDir(), "x.png"), &seis.CorrData{})
	assert.ErrorIs(t, err, seis.ErrNoData)
}

func TestWiggle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moveout.png")
	recs := []*seis.CorrData{plotCorr(10), plotCorr(20), plotCorr(30)}
	require.NoError(t, Wiggle(path, recs))
	assertImage(t, path)
}

func TestPSDPlot(t *testing.T) {
	freqs := make([]float64, 100)
	psd := make([]float64, 100)
	for i := range freqs {
		freqs[i] = 0.01 * float64(i)
		psd[i] = 1 / (1 + freqs[i]*freqs[i])
	}
	path := filepath.Join(t.TempDir(), "psd.png")
	require.NoError(t, PSD(path, "BP.CCRB", freqs, psd))
	assertImage(t, path)

	assert.Error(t, PSD(path, "bad", freqs, psd[:10]))
}

func TestDvvPlot(t *testing.T) {
	base := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano()
	d := &seis.DvvData{
		Pair: seis.Pair{
			Source:   seis.Station{Net: "BP", Sta: "CCRB"},
			Receiver: seis.Station{Net: "BP", Sta: "EADB"},
			Comp:     "ZZ",
		},
		Side:    seis.SideAll,
		FreqMin: 0.1,
		FreqMax: 1.0,
		Time:    []int64{base, base + 86400e9, base + 2*86400e9},
		Dvv:     []float64{0.1, -0.05, 0.02},
		Cc:      []float64{0.9, 0.8, 0.85},
		Err:     []float64{0.01, 0.02, 0.015},
	}
	path := filepath.Join(t.TempDir(), "dvv.png")
	require.NoError(t, Dvv(path, d))
	assertImage(t, path)
}
