package archive

import (
	"fmt"
	"math"

	"seisgo/internal/seis"
)

// MaxAttrBytes is the ceiling on the serialized size of a single
// attribute in an archive file. Attribute payloads larger than this do
// not fit the archival format, so records are split before writing.
const MaxAttrBytes = 64 * 1024

// maxWindows is the largest window count whose float32 time-offset
// attribute still fits MaxAttrBytes.
const maxWindows = MaxAttrBytes / 4

// encodeTimes decomposes unix-nanosecond window times into a float64
// mean (unix seconds) and float32 offsets from that mean. The offsets
// trade precision for size so the attribute fits the format's ceiling.
func encodeTimes(times []int64) (mean float64, offsets []float32) {
	if len(times) == 0 {
		return 0, nil
	}
	var sum float64
	for _, t := range times {
		sum += float64(t) / 1e9
	}
	mean = sum / float64(len(times))
	offsets = make([]float32, len(times))
	for i, t := range times {
		offsets[i] = float32(float64(t)/1e9 - mean)
	}
	return mean, offsets
}

// decodeTimes reverses encodeTimes. Sub-second precision may be lost
// for offsets far from the mean; window times are second-scaled
// quantities so that loss is acceptable.
func decodeTimes(mean float64, offsets []float32) []int64 {
	times := make([]int64, len(offsets))
	for i, off := range offsets {
		times[i] = int64(math.Round((mean + float64(off)) * 1e9))
	}
	return times
}

// attrBytes returns the serialized size of an attribute value.
func attrBytes(v any) int {
	switch x := v.(type) {
	case string:
		return len(x)
	case int32, float32:
		return 4
	case int64, float64:
		return 8
	case []int32:
		return 4 * len(x)
	case []float32:
		return 4 * len(x)
	case []float64:
		return 8 * len(x)
	default:
		return 0
	}
}

// checkAttrs verifies every attribute obeys the ceiling.
func checkAttrs(attrs map[string]any) error {
	for name, v := range attrs {
		if n := attrBytes(v); n > MaxAttrBytes {
			return fmt.Errorf("attribute %q is %d bytes, exceeding the %d byte ceiling", name, n, MaxAttrBytes)
		}
	}
	return nil
}

// SplitForWrite cuts a record into pieces whose per-window attributes
// (time offsets, ngood) fit the attribute ceiling. Each piece is a deep
// copy; the input record is never aliased. A record that already fits
// is returned as a single copy.
func SplitForWrite(c *seis.CorrData) []*seis.CorrData {
	n := c.NumWindows()
	if n <= maxWindows {
		return []*seis.CorrData{c.Copy()}
	}
	var out []*seis.CorrData
	for lo := 0; lo < n; lo += maxWindows {
		hi := lo + maxWindows
		if hi > n {
			hi = n
		}
		part := *c
		part.Time = append([]int64(nil), c.Time[lo:hi]...)
		part.Ngood = append([]int32(nil), c.Ngood[lo:hi]...)
		part.Data = make([][]float64, hi-lo)
		for i, row := range c.Data[lo:hi] {
			part.Data[i] = append([]float64(nil), row...)
		}
		out = append(out, &part)
	}
	return out
}
