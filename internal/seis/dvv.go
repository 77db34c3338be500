package seis

// DvvData is a relative velocity-change monitoring record derived from
// repeated correlation measurements of one station pair. All series run
// parallel to Time.
type DvvData struct {
	Pair Pair
	Side string

	FreqMin float64
	FreqMax float64
	WinLen  float64 // stacking window length, seconds
	Step    float64 // stacking window step, seconds

	Time []int64   // window times, unix nanoseconds
	Dvv  []float64 // velocity change, percent
	Cc   []float64 // correlation coefficient at the best stretch
	Err  []float64 // measurement error estimate, percent
}

// NumWindows returns the number of measurements held.
func (d *DvvData) NumWindows() int {
	return len(d.Time)
}

// Bounds returns the earliest and latest measurement times; ok is false
// for an empty record.
func (d *DvvData) Bounds() (start, end int64, ok bool) {
	if len(d.Time) == 0 {
		return 0, 0, false
	}
	start, end = d.Time[0], d.Time[0]
	for _, t := range d.Time[1:] {
		if t < start {
			start = t
		}
		if t > end {
			end = t
		}
	}
	return start, end, true
}
