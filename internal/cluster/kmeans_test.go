package cluster

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blobs(n int, centers [][]float64, spread float64, seed uint64) [][]float64 {
	rng := rand.New(rand.NewPCG(seed, seed))
	var pts [][]float64
	for i := 0; i < n; i++ {
		c := centers[i%len(centers)]
		p := make([]float64, len(c))
		for j := range p {
			p[j] = c[j] + (rng.Float64()*2-1)*spread
		}
		pts = append(pts, p)
	}
	return pts
}

func TestKMeansSeparatesBlobs(t *testing.T) {
	centers := [][]float64{{0, 0}, {10, 10}}
	pts := blobs(60, centers, 0.5, 7)

	cfg := DefaultConfig()
	cfg.K = 2
	res, err := KMeans(pts, cfg)
	require.NoError(t, err)
	require.Len(t, res.Labels, 60)

	// Points were interleaved blob A, blob B, ...; every even index must
	// share a label and differ from every odd index.
	for i := 2; i < len(pts); i += 2 {
		assert.Equal(t, res.Labels[0], res.Labels[i])
	}
	for i := 1; i < len(pts); i += 2 {
		assert.Equal(t, res.Labels[1], res.Labels[i])
	}
	assert.NotEqual(t, res.Labels[0], res.Labels[1])
	assert.Greater(t, res.Inertia, 0.0)
}

func TestKMeansDeterministic(t *testing.T) {
	pts := blobs(40, [][]float64{{0, 0}, {5, 5}, {-5, 5}}, 0.8, 3)
	cfg := DefaultConfig()
	cfg.K = 3
	a, err := KMeans(pts, cfg)
	require.NoError(t, err)
	b, err := KMeans(pts, cfg)
	require.NoError(t, err)
	assert.Equal(t, a.Labels, b.Labels)
	assert.InDelta(t, a.Inertia, b.Inertia, 1e-12)
}

func TestKMeansErrors(t *testing.T) {
	pts := [][]float64{{1, 2}, {3, 4}}

	_, err := KMeans(pts, Config{K: 3, MaxIter: 10})
	assert.Error(t, err, "k larger than point count")

	_, err = KMeans(pts, Config{K: 0, MaxIter: 10})
	assert.Error(t, err)

	ragged := [][]float64{{1, 2}, {3}}
	_, err = KMeans(ragged, Config{K: 1, MaxIter: 10})
	assert.Error(t, err)
}

func TestKMeansSingleCluster(t *testing.T) {
	pts := blobs(10, [][]float64{{1, 1}}, 0.1, 9)
	res, err := KMeans(pts, Config{K: 1, MaxIter: 50, Tol: 1e-9, Seed: 1})
	require.NoError(t, err)
	for _, l := range res.Labels {
		assert.Equal(t, 0, l)
	}
	assert.InDelta(t, 1.0, res.Centroids[0][0], 0.2)
}
