// Package spectral provides the frequency-domain utilities used by the
// correlation workflow: FFT sizing, spectral whitening, zero-phase
// bandpass filtering, and smoothing. It operates on coefficient slices
// produced by gonum's real FFT and does not implement a transform itself.
package spectral

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Whitening modes.
const (
	WhitenPhaseOnly = "phase_only"
	WhitenRunning   = "rma"
)

// apodization width, in frequency bins, of the cosine tapers at the
// passband edges.
const napod = 100

// NextFastLen returns the smallest 5-smooth number (only factors 2, 3
// and 5) that is >= n. FFTs of such lengths are fast for mixed-radix
// implementations.
func NextFastLen(n int) int {
	if n <= 1 {
		return 1
	}
	for m := n; ; m++ {
		k := m
		for k%2 == 0 {
			k /= 2
		}
		for k%3 == 0 {
			k /= 3
		}
		for k%5 == 0 {
			k /= 5
		}
		if k == 1 {
			return m
		}
	}
}

// MovingAverage smooths x with a centered window of half-width w,
// shrinking the window at the edges. w <= 0 returns a copy.
func MovingAverage(x []float64, w int) []float64 {
	out := make([]float64, len(x))
	if w <= 0 {
		copy(out, x)
		return out
	}
	for i := range x {
		lo := i - w
		if lo < 0 {
			lo = 0
		}
		hi := i + w
		if hi > len(x)-1 {
			hi = len(x) - 1
		}
		var sum float64
		for j := lo; j <= hi; j++ {
			sum += x[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

// Forward returns the real-FFT coefficients of x zero-padded to nfft.
func Forward(x []float64, nfft int) []complex128 {
	seq := make([]float64, nfft)
	copy(seq, x)
	fft := fourier.NewFFT(nfft)
	return fft.Coefficients(nil, seq)
}

// Inverse transforms coefficients back to a real sequence of length n,
// compensating gonum's unnormalized transform. nfft is the forward
// transform length.
func Inverse(coeff []complex128, nfft, n int) []float64 {
	fft := fourier.NewFFT(nfft)
	seq := fft.Sequence(nil, coeff)
	out := make([]float64, n)
	for i := range out {
		out[i] = seq[i] / float64(nfft)
	}
	return out
}

// Whiten flattens the amplitude spectrum inside [freqmin, freqmax],
// tapering the band edges with cosine ramps and zeroing everything
// outside. coeff holds real-FFT coefficients of a transform of length
// nfft sampled at interval dt. Mode WhitenPhaseOnly keeps only the
// phase; WhitenRunning divides by a running mean of the amplitude with
// half-width smooth.
func Whiten(coeff []complex128, nfft int, dt, freqmin, freqmax float64, mode string, smooth int) error {
	if dt <= 0 {
		return fmt.Errorf("whiten: non-positive dt %v", dt)
	}
	nyquist := 0.5 / dt
	if freqmin <= 0 || freqmax <= freqmin || freqmax > nyquist {
		return fmt.Errorf("whiten: invalid band [%v, %v] for nyquist %v", freqmin, freqmax, nyquist)
	}
	if mode != WhitenPhaseOnly && mode != WhitenRunning {
		return fmt.Errorf("whiten: unknown mode %q", mode)
	}

	df := 1.0 / (float64(nfft) * dt)
	left := int(math.Ceil(freqmin / df))
	right := int(math.Floor(freqmax / df))
	if right > len(coeff)-1 {
		right = len(coeff) - 1
	}
	if left >= right {
		return fmt.Errorf("whiten: band [%v, %v] spans no frequency bins", freqmin, freqmax)
	}
	low := left - napod
	if low < 1 {
		low = 1
	}
	high := right + napod
	if high > len(coeff)-1 {
		high = len(coeff) - 1
	}

	for i := 0; i < low; i++ {
		coeff[i] = 0
	}
	for i := low; i < left; i++ {
		t := float64(i-low) / float64(left-low)
		g := math.Cos(math.Pi/2 + t*math.Pi/2)
		coeff[i] = cmplx.Rect(g*g, cmplx.Phase(coeff[i]))
	}
	switch mode {
	case WhitenPhaseOnly:
		for i := left; i <= right; i++ {
			coeff[i] = cmplx.Rect(1, cmplx.Phase(coeff[i]))
		}
	case WhitenRunning:
		amp := make([]float64, right-left+1)
		for i := range amp {
			amp[i] = cmplx.Abs(coeff[left+i])
		}
		ave := MovingAverage(amp, smooth)
		for i := range ave {
			if ave[i] == 0 {
				coeff[left+i] = 0
				continue
			}
			coeff[left+i] /= complex(ave[i], 0)
		}
	}
	for i := right + 1; i <= high; i++ {
		t := float64(i-right) / float64(high-right)
		g := math.Cos(t * math.Pi / 2)
		coeff[i] = cmplx.Rect(g*g, cmplx.Phase(coeff[i]))
	}
	for i := high + 1; i < len(coeff); i++ {
		coeff[i] = 0
	}
	return nil
}

// Bandpass applies a zero-phase frequency-domain bandpass between
// freqmin and freqmax to x sampled at interval dt. The band edges get
// cosine ramps one eighth of the band wide to limit ringing.
func Bandpass(x []float64, dt, freqmin, freqmax float64) ([]float64, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("bandpass: non-positive dt %v", dt)
	}
	nyquist := 0.5 / dt
	if freqmin <= 0 || freqmax <= freqmin || freqmax > nyquist {
		return nil, fmt.Errorf("bandpass: invalid band [%v, %v] for nyquist %v", freqmin, freqmax, nyquist)
	}
	if len(x) == 0 {
		return []float64{}, nil
	}

	nfft := NextFastLen(2 * len(x))
	coeff := Forward(x, nfft)

	df := 1.0 / (float64(nfft) * dt)
	ramp := (freqmax - freqmin) / 8
	for i := range coeff {
		f := float64(i) * df
		coeff[i] *= complex(bandGain(f, freqmin, freqmax, ramp), 0)
	}
	return Inverse(coeff, nfft, len(x)), nil
}

func bandGain(f, lo, hi, ramp float64) float64 {
	switch {
	case f < lo-ramp || f > hi+ramp:
		return 0
	case f < lo:
		t := (f - (lo - ramp)) / ramp
		s := math.Sin(t * math.Pi / 2)
		return s * s
	case f > hi:
		t := ((hi + ramp) - f) / ramp
		s := math.Sin(t * math.Pi / 2)
		return s * s
	default:
		return 1
	}
}
