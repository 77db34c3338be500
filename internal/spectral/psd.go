package spectral

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// Welch estimates the one-sided power spectral density of x sampled at
// interval dt, averaging Hann-windowed periodograms of nperseg samples
// with the given overlap fraction (0 <= overlap < 1). It returns the
// frequency axis in Hz and the PSD in units of x^2/Hz.
func Welch(x []float64, dt float64, nperseg int, overlap float64) (freqs, psd []float64, err error) {
	if dt <= 0 {
		return nil, nil, fmt.Errorf("welch: non-positive dt %v", dt)
	}
	if nperseg <= 0 || overlap < 0 || overlap >= 1 {
		return nil, nil, fmt.Errorf("welch: invalid segmentation nperseg=%d overlap=%v", nperseg, overlap)
	}
	if len(x) < nperseg {
		return nil, nil, fmt.Errorf("welch: trace of %d samples shorter than segment %d", len(x), nperseg)
	}

	step := int(float64(nperseg) * (1 - overlap))
	if step < 1 {
		step = 1
	}

	win := make([]float64, nperseg)
	for i := range win {
		win[i] = 1
	}
	window.Hann(win)
	var wss float64 // window sum of squares
	for _, w := range win {
		wss += w * w
	}

	nbin := nperseg/2 + 1
	psd = make([]float64, nbin)
	fft := fourier.NewFFT(nperseg)
	seg := make([]float64, nperseg)
	var nseg int
	for off := 0; off+nperseg <= len(x); off += step {
		copy(seg, x[off:off+nperseg])
		demean(seg)
		for i := range seg {
			seg[i] *= win[i]
		}
		coeff := fft.Coefficients(nil, seg)
		for i, c := range coeff {
			p := cmplx.Abs(c)
			psd[i] += p * p
		}
		nseg++
	}

	// One-sided scaling: interior bins carry both halves of the spectrum.
	scale := dt / (wss * float64(nseg))
	for i := range psd {
		psd[i] *= scale
		if i != 0 && i != nbin-1 {
			psd[i] *= 2
		}
	}

	freqs = make([]float64, nbin)
	df := 1.0 / (float64(nperseg) * dt)
	for i := range freqs {
		freqs[i] = float64(i) * df
	}
	return freqs, psd, nil
}

func demean(x []float64) {
	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))
	for i := range x {
		x[i] -= mean
	}
}
