// Package merge combines correlation records covering gapped or
// overlapping time intervals into fewer, larger records.
package merge

import (
	"fmt"
	"sort"

	"seisgo/internal/seis"
)

// Span returns the overall time range covered by recs as the minimum
// window start and maximum window end across all records. Only the
// record-level Bounds are consulted; the sample payload is never scanned,
// so the cost depends on the number of records, not on their sizes.
// ok is false when no record holds any window.
func Span(recs []*seis.CorrData) (start, end int64, ok bool) {
	for _, r := range recs {
		s, e, has := r.Bounds()
		if !has {
			continue
		}
		if !ok || s < start {
			start = s
		}
		if !ok || e > end {
			end = e
		}
		ok = true
	}
	return start, end, ok
}

// GroupKey returns the merge-compatibility key of a record. Records with
// equal keys can be merged; everything in the key must match for Merge to
// accept them.
func GroupKey(c *seis.CorrData) string {
	return fmt.Sprintf("%s|%s|%g|%g", c.Pair.Key(), c.Side, c.Dt, c.MaxLag)
}

// Merge combines the given records into one record per compatibility
// group. Within a group the windows are concatenated, ordered by window
// time, and windows with duplicate timestamps are collapsed keeping the
// first occurrence. Gaps in time coverage are left as-is; nothing is
// interpolated. The inputs are not modified.
//
// Records within one group that disagree on sampling parameters never
// arise (the parameters are part of the group key), but a caller merging
// a pre-grouped slice directly can use MergeGroup, which reports
// seis.ErrIncompatible on mismatch.
func Merge(recs []*seis.CorrData) ([]*seis.CorrData, error) {
	groups := make(map[string][]*seis.CorrData)
	var order []string
	for _, r := range recs {
		k := GroupKey(r)
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}
	sort.Strings(order)

	out := make([]*seis.CorrData, 0, len(order))
	for _, k := range order {
		m, err := MergeGroup(groups[k])
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// MergeGroup merges records that are already known to belong to one
// compatibility group. It fails with seis.ErrIncompatible when they do
// not.
func MergeGroup(recs []*seis.CorrData) (*seis.CorrData, error) {
	if len(recs) == 0 {
		return nil, seis.ErrNoData
	}
	merged := recs[0].Copy()
	for _, r := range recs[1:] {
		if err := merged.Append(r); err != nil {
			return nil, err
		}
	}
	merged.SortByTime()
	dedupe(merged)
	if len(recs) > 1 {
		merged.Substack = true
	}
	return merged, nil
}

// dedupe drops windows whose timestamp repeats, keeping the first. The
// record must already be sorted by time.
func dedupe(c *seis.CorrData) {
	if len(c.Time) < 2 {
		return
	}
	w := 1
	for i := 1; i < len(c.Time); i++ {
		if c.Time[i] == c.Time[w-1] {
			continue
		}
		c.Time[w] = c.Time[i]
		c.Ngood[w] = c.Ngood[i]
		c.Data[w] = c.Data[i]
		w++
	}
	c.Time = c.Time[:w]
	c.Ngood = c.Ngood[:w]
	c.Data = c.Data[:w]
}
