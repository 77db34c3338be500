// Package cluster assigns k-means labels to measurement curves such as
// PSD rows or dvv series.
package cluster

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// Config controls a k-means run.
type Config struct {
	K       int
	MaxIter int
	Tol     float64 // centroid movement below which iteration stops
	Seed    uint64
}

// DefaultConfig returns the defaults used by the cluster command.
func DefaultConfig() Config {
	return Config{K: 2, MaxIter: 100, Tol: 1e-6, Seed: 1}
}

// Result holds the labeling produced by KMeans.
// Labels[i] is the cluster index of points[i].
type Result struct {
	Labels    []int
	Centroids [][]float64
	Inertia   float64 // sum of squared distances to assigned centroids
}

// KMeans clusters the given points (all of equal dimension) into cfg.K
// groups using k-means++ seeding and Lloyd iterations. The run is
// deterministic for a fixed seed.
func KMeans(points [][]float64, cfg Config) (*Result, error) {
	if cfg.K < 1 {
		return nil, fmt.Errorf("cluster: k must be positive, got %d", cfg.K)
	}
	if len(points) < cfg.K {
		return nil, fmt.Errorf("cluster: %d points cannot form %d clusters", len(points), cfg.K)
	}
	dim := len(points[0])
	for i, p := range points {
		if len(p) != dim {
			return nil, fmt.Errorf("cluster: point %d has dimension %d, want %d", i, len(p), dim)
		}
	}
	if cfg.MaxIter < 1 {
		cfg.MaxIter = 1
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	centroids := seedPlusPlus(points, cfg.K, rng)

	labels := make([]int, len(points))
	counts := make([]int, cfg.K)
	next := make([][]float64, cfg.K)
	for i := range next {
		next[i] = make([]float64, dim)
	}

	var inertia float64
	for iter := 0; iter < cfg.MaxIter; iter++ {
		inertia = 0
		for i := range counts {
			counts[i] = 0
			for j := range next[i] {
				next[i][j] = 0
			}
		}
		for i, p := range points {
			best, bestD := 0, math.Inf(1)
			for k, c := range centroids {
				if d := floats.Distance(p, c, 2); d < bestD {
					best, bestD = k, d
				}
			}
			labels[i] = best
			counts[best]++
			floats.Add(next[best], p)
			inertia += bestD * bestD
		}

		var moved float64
		for k := range centroids {
			if counts[k] == 0 {
				// Re-seed an emptied cluster on the farthest point.
				copy(next[k], farthest(points, centroids, labels))
				counts[k] = 1
			}
			floats.Scale(1/float64(counts[k]), next[k])
			moved += floats.Distance(centroids[k], next[k], 2)
			copy(centroids[k], next[k])
		}
		if moved < cfg.Tol {
			break
		}
	}

	return &Result{Labels: labels, Centroids: centroids, Inertia: inertia}, nil
}

func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := points[rng.IntN(len(points))]
	centroids = append(centroids, append([]float64(nil), first...))

	d2 := make([]float64, len(points))
	for len(centroids) < k {
		var total float64
		for i, p := range points {
			best := math.Inf(1)
			for _, c := range centroids {
				if d := floats.Distance(p, c, 2); d < best {
					best = d
				}
			}
			d2[i] = best * best
			total += d2[i]
		}
		var pick int
		if total == 0 {
			pick = rng.IntN(len(points))
		} else {
			r := rng.Float64() * total
			var cum float64
			for i, d := range d2 {
				cum += d
				if cum >= r {
					pick = i
					break
				}
			}
		}
		centroids = append(centroids, append([]float64(nil), points[pick]...))
	}
	return centroids
}

func farthest(points [][]float64, centroids [][]float64, labels []int) []float64 {
	best, bestD := 0, -1.0
	for i, p := range points {
		d := floats.Distance(p, centroids[labels[i]], 2)
		if d > bestD {
			best, bestD = i, d
		}
	}
	return points[best]
}
