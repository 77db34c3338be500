package seis

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Side markers for correlation data.
const (
	SideAll = "A" // two-sided (negative and positive lags)
	SidePos = "P" // positive lags only
	SideNeg = "N" // negative lags only
)

// ValidSide reports whether s is one of the recognized side markers.
func ValidSide(s string) bool {
	return s == SideAll || s == SidePos || s == SideNeg
}

// Stacking methods accepted by CorrData.Stack.
const (
	StackLinear = "linear"
	StackSum    = "sum"
)

var (
	// ErrIncompatible is returned when two correlation records cannot be
	// combined because their identity or sampling parameters differ.
	ErrIncompatible = errors.New("incompatible correlation records")

	// ErrNoData is returned by operations that need at least one window.
	ErrNoData = errors.New("correlation record holds no data")
)

// CorrData is a cross-correlation record between two stations. When
// Substack is true each row of Data is the correlation of one stacking
// window and Time/Ngood run parallel to the rows; otherwise Data holds a
// single stacked trace and Time/Ngood have length one.
type CorrData struct {
	Pair Pair
	Side string

	Dt     float64 // sampling interval, seconds
	MaxLag float64 // maximum lag, seconds
	Dist   float64 // inter-station distance, km
	Az     float64
	Baz    float64

	Time     []int64 // window start times, unix nanoseconds
	Ngood    []int32 // windows stacked into each row
	Data     [][]float64
	Substack bool
}

// NumWindows returns the number of stacking windows held.
func (c *CorrData) NumWindows() int {
	return len(c.Data)
}

// LagTimes returns the lag axis in seconds, one entry per sample of a row.
func (c *CorrData) LagTimes() []float64 {
	if c.NumWindows() == 0 {
		return nil
	}
	n := len(c.Data[0])
	lags := make([]float64, n)
	start := -c.MaxLag
	if c.Side == SidePos {
		start = 0
	}
	for i := range lags {
		lags[i] = start + float64(i)*c.Dt
	}
	return lags
}

// Bounds returns the earliest and latest window times. It inspects only
// the record-level time axis, never the sample payload. ok is false when
// the record holds no windows.
func (c *CorrData) Bounds() (start, end int64, ok bool) {
	if len(c.Time) == 0 {
		return 0, 0, false
	}
	start, end = c.Time[0], c.Time[0]
	for _, t := range c.Time[1:] {
		if t < start {
			start = t
		}
		if t > end {
			end = t
		}
	}
	return start, end, true
}

// Copy returns a deep copy sharing no slices with the receiver.
func (c *CorrData) Copy() *CorrData {
	out := *c
	out.Time = append([]int64(nil), c.Time...)
	out.Ngood = append([]int32(nil), c.Ngood...)
	out.Data = make([][]float64, len(c.Data))
	for i, row := range c.Data {
		out.Data[i] = append([]float64(nil), row...)
	}
	return &out
}

func (c *CorrData) compatible(o *CorrData) error {
	switch {
	case c.Pair.Key() != o.Pair.Key():
		return fmt.Errorf("%w: pair %q vs %q", ErrIncompatible, c.Pair.Key(), o.Pair.Key())
	case c.Side != o.Side:
		return fmt.Errorf("%w: side %q vs %q", ErrIncompatible, c.Side, o.Side)
	case c.Dt != o.Dt:
		return fmt.Errorf("%w: dt %v vs %v", ErrIncompatible, c.Dt, o.Dt)
	case c.MaxLag != o.MaxLag:
		return fmt.Errorf("%w: maxlag %v vs %v", ErrIncompatible, c.MaxLag, o.MaxLag)
	}
	return nil
}

// Append merges another record's windows into the receiver. Only the
// window axis (Time, Ngood, Data) is merged; identity fields must match.
// The receiver is a substack afterwards regardless of its prior state.
// Rows from o are deep-copied so the two records never alias.
func (c *CorrData) Append(o *CorrData) error {
	if err := c.compatible(o); err != nil {
		return err
	}
	c.Time = append(c.Time, o.Time...)
	c.Ngood = append(c.Ngood, o.Ngood...)
	for _, row := range o.Data {
		c.Data = append(c.Data, append([]float64(nil), row...))
	}
	c.Substack = true
	return nil
}

// SortByTime orders the windows by ascending start time.
func (c *CorrData) SortByTime() {
	idx := make([]int, len(c.Time))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return c.Time[idx[a]] < c.Time[idx[b]] })

	times := make([]int64, len(idx))
	ngood := make([]int32, len(idx))
	data := make([][]float64, len(idx))
	for i, j := range idx {
		times[i] = c.Time[j]
		ngood[i] = c.Ngood[j]
		data[i] = c.Data[j]
	}
	c.Time, c.Ngood, c.Data = times, ngood, data
}

// Subset returns a deep copy holding only the windows with start times in
// [start, end]. An empty selection yields a record with zero windows, not
// nil, so callers can persist or merge it uniformly.
func (c *CorrData) Subset(start, end int64) *CorrData {
	out := *c
	out.Time = nil
	out.Ngood = nil
	out.Data = nil
	for i, t := range c.Time {
		if t < start || t > end {
			continue
		}
		out.Time = append(out.Time, t)
		out.Ngood = append(out.Ngood, c.Ngood[i])
		out.Data = append(out.Data, append([]float64(nil), c.Data[i]...))
	}
	return &out
}

// Stack reduces a substacked record to a single trace using the given
// method. Rows whose Ngood is zero are skipped. The window time of the
// result is the mean of the contributing window times.
func (c *CorrData) Stack(method string) (*CorrData, error) {
	if c.NumWindows() == 0 {
		return nil, ErrNoData
	}
	if method != StackLinear && method != StackSum {
		return nil, fmt.Errorf("unknown stack method %q", method)
	}

	n := len(c.Data[0])
	acc := make([]float64, n)
	var used int32
	var tsum float64
	var total int32
	for i, row := range c.Data {
		if c.Ngood[i] == 0 {
			continue
		}
		if len(row) != n {
			return nil, fmt.Errorf("ragged correlation data: row %d has %d samples, want %d", i, len(row), n)
		}
		for j, v := range row {
			acc[j] += v
		}
		used++
		total += c.Ngood[i]
		tsum += float64(c.Time[i])
	}
	if used == 0 {
		return nil, ErrNoData
	}
	if method == StackLinear {
		for j := range acc {
			acc[j] /= float64(used)
		}
	}

	out := *c
	out.Time = []int64{int64(math.Round(tsum / float64(used)))}
	out.Ngood = []int32{total}
	out.Data = [][]float64{acc}
	out.Substack = false
	return &out, nil
}
