package seis

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPair() Pair {
	return Pair{
		Source:   Station{Net: "XX", Sta: "AAA", Chan: "BHZ", Lon: -120.1, Lat: 36.2},
		Receiver: Station{Net: "XX", Sta: "BBB", Chan: "BHZ", Lon: -120.9, Lat: 36.8},
		Comp:     "ZZ",
	}
}

func testCorr(times []int64) *CorrData {
	c := &CorrData{
		Pair:     testPair(),
		Side:     SideAll,
		Dt:       0.05,
		MaxLag:   10,
		Dist:     42.5,
		Substack: len(times) > 1,
	}
	for i, ts := range times {
		row := make([]float64, 8)
		for j := range row {
			row[j] = float64(i + j)
		}
		c.Time = append(c.Time, ts)
		c.Ngood = append(c.Ngood, 1)
		c.Data = append(c.Data, row)
	}
	return c
}

func TestBounds(t *testing.T) {
	c := testCorr([]int64{300, 100, 200})
	start, end, ok := c.Bounds()
	require.True(t, ok)
	assert.Equal(t, int64(100), start)
	assert.Equal(t, int64(300), end)

	empty := testCorr(nil)
	_, _, ok = empty.Bounds()
	assert.False(t, ok)
}

func TestAppendMergesWindows(t *testing.T) {
	a := testCorr([]int64{100})
	b := testCorr([]int64{200, 300})

	require.NoError(t, a.Append(b))
	assert.True(t, a.Substack)
	assert.Equal(t, []int64{100, 200, 300}, a.Time)
	require.Equal(t, 3, a.NumWindows())

	// Appended rows must not alias the source record.
	b.Data[0][0] = 999
	assert.NotEqual(t, 999.0, a.Data[1][0])
}

func TestAppendIncompatible(t *testing.T) {
	a := testCorr([]int64{100})

	b := testCorr([]int64{200})
	b.Dt = 0.1
	assert.ErrorIs(t, a.Append(b), ErrIncompatible)

	c := testCorr([]int64{200})
	c.Pair.Comp = "ZR"
	assert.ErrorIs(t, a.Append(c), ErrIncompatible)

	d := testCorr([]int64{200})
	d.Side = SidePos
	assert.ErrorIs(t, a.Append(d), ErrIncompatible)
}

func TestSortByTime(t *testing.T) {
	c := testCorr([]int64{300, 100, 200})
	first := c.Data[1] // row carried by time 100
	c.SortByTime()
	assert.Equal(t, []int64{100, 200, 300}, c.Time)
	assert.Equal(t, first[0], c.Data[0][0])
}

func TestSubsetDeepCopies(t *testing.T) {
	c := testCorr([]int64{100, 200, 300})
	sub := c.Subset(150, 300)
	require.Equal(t, 2, sub.NumWindows())
	assert.Equal(t, []int64{200, 300}, sub.Time)

	c.Data[1][0] = -1
	assert.NotEqual(t, -1.0, sub.Data[0][0], "subset must not alias the parent record")

	// Out-of-range selection: zero windows, not zero-filled rows.
	none := c.Subset(1000, 2000)
	assert.Equal(t, 0, none.NumWindows())
}

func TestCopy(t *testing.T) {
	c := testCorr([]int64{100, 200})
	cp := c.Copy()
	if diff := cmp.Diff(c, cp); diff != "" {
		t.Fatalf("copy differs (-want +got):\n%s", diff)
	}
	cp.Data[0][0] = 77
	assert.NotEqual(t, 77.0, c.Data[0][0])
}

func TestStackLinear(t *testing.T) {
	c := testCorr([]int64{100, 300})
	st, err := c.Stack(StackLinear)
	require.NoError(t, err)
	assert.False(t, st.Substack)
	require.Equal(t, 1, st.NumWindows())
	// rows are [0..7] and [1..8]; mean row is [0.5..7.5]
	assert.InDelta(t, 0.5, st.Data[0][0], 1e-12)
	assert.InDelta(t, 7.5, st.Data[0][7], 1e-12)
	assert.Equal(t, int64(200), st.Time[0])
	assert.Equal(t, int32(2), st.Ngood[0])
}

func TestStackSkipsBadWindows(t *testing.T) {
	c := testCorr([]int64{100, 300})
	c.Ngood[1] = 0
	st, err := c.Stack(StackSum)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, st.Data[0][0], 1e-12)
	assert.Equal(t, int64(100), st.Time[0])
}

func TestStackErrors(t *testing.T) {
	empty := testCorr(nil)
	_, err := empty.Stack(StackLinear)
	assert.ErrorIs(t, err, ErrNoData)

	c := testCorr([]int64{100})
	_, err = c.Stack("pws")
	assert.Error(t, err)

	allBad := testCorr([]int64{100})
	allBad.Ngood[0] = 0
	_, err = allBad.Stack(StackLinear)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestLagTimes(t *testing.T) {
	c := testCorr([]int64{100})
	lags := c.LagTimes()
	require.Len(t, lags, 8)
	assert.InDelta(t, -10.0, lags[0], 1e-12)
	assert.InDelta(t, -10.0+7*0.05, lags[7], 1e-12)

	c.Side = SidePos
	assert.InDelta(t, 0.0, c.LagTimes()[0], 1e-12)
}
