package seis

import "seisgo/internal/spectral"

// Filter applies a zero-phase bandpass to every window in place.
func (c *CorrData) Filter(freqmin, freqmax float64) error {
	if c.NumWindows() == 0 {
		return ErrNoData
	}
	for i, row := range c.Data {
		f, err := spectral.Bandpass(row, c.Dt, freqmin, freqmax)
		if err != nil {
			return err
		}
		c.Data[i] = f
	}
	return nil
}
