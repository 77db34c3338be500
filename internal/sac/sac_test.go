package sac

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seisgo/internal/seis"
)

func testTrace() *Trace {
	data := make([]float64, 201)
	for i := range data {
		data[i] = float64(i) * 0.5
	}
	return &Trace{
		Delta:   0.05,
		Begin:   -5,
		RefTime: time.Date(2020, 3, 15, 6, 30, 12, 250e6, time.UTC),
		Station: seis.Station{Net: "BP", Sta: "EADB", Chan: "BP1", Lat: 35.89, Lon: -120.42, Elev: 698},
		Event:   seis.Station{Net: "BP", Sta: "CCRB", Lat: 35.96, Lon: -120.73, Elev: 595},
		Dist:    28.3,
		Az:      104.1,
		Baz:     284.3,
		Data:    data,
	}
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	tr := testTrace()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, tr))
	assert.Equal(t, headerSize+4*len(tr.Data), buf.Len())

	got, err := Decode(&buf)
	require.NoError(t, err)

	assert.InDelta(t, tr.Delta, got.Delta, 1e-7)
	assert.InDelta(t, tr.Begin, got.Begin, 1e-6)
	assert.Equal(t, tr.RefTime.Truncate(time.Millisecond), got.RefTime)
	assert.Equal(t, "EADB", got.Station.Sta)
	assert.Equal(t, "BP", got.Station.Net)
	assert.Equal(t, "BP1", got.Station.Chan)
	assert.InDelta(t, tr.Station.Lat, got.Station.Lat, 1e-4)
	assert.InDelta(t, tr.Event.Lon, got.Event.Lon, 1e-4)
	assert.InDelta(t, tr.Dist, got.Dist, 1e-4)
	require.Len(t, got.Data, len(tr.Data))
	assert.InDelta(t, tr.Data[200], got.Data[200], 1e-4)
}

func TestEncodeHeaderLayout(t *testing.T) {
	tr := testTrace()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, tr))
	raw := buf.Bytes()

	// delta is float word 0, npts int word 9, nvhdr int word 6.
	delta := float32FromBE(raw[0:4])
	assert.InDelta(t, 0.05, float64(delta), 1e-7)

	intBase := numFloats * 4
	nvhdr := int32(binary.BigEndian.Uint32(raw[intBase+4*iNvhdr:]))
	assert.Equal(t, int32(6), nvhdr)
	npts := int32(binary.BigEndian.Uint32(raw[intBase+4*iNpts:]))
	assert.Equal(t, int32(201), npts)

	// Unused float words carry the unset marker.
	unused := float32FromBE(raw[4*10 : 4*11])
	assert.Equal(t, unsetFloat, unused)
}

func float32FromBE(b []byte) float32 {
	var v float32
	_ = binary.Read(bytes.NewReader(b), binary.BigEndian, &v)
	return v
}

func TestDecodeRejectsWrongByteOrder(t *testing.T) {
	tr := testTrace()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, tr))

	// Byte-swap the whole stream to fake a little-endian file.
	raw := buf.Bytes()
	swapped := make([]byte, len(raw))
	for i := 0; i+4 <= len(raw); i += 4 {
		swapped[i], swapped[i+1], swapped[i+2], swapped[i+3] = raw[i+3], raw[i+2], raw[i+1], raw[i]
	}
	_, err := Decode(bytes.NewReader(swapped))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header version")
}

func TestExportCorr(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC).UnixNano()
	c := &seis.CorrData{
		Pair: seis.Pair{
			Source:   seis.Station{Net: "BP", Sta: "CCRB", Lat: 35.96, Lon: -120.73, Elev: 595},
			Receiver: seis.Station{Net: "BP", Sta: "EADB", Lat: 35.89, Lon: -120.42, Elev: 698},
			Comp:     "ZZ",
		},
		Side:   seis.SideAll,
		Dt:     0.05,
		MaxLag: 5,
		Dist:   28.3,
		Time:   []int64{base, base + int64(time.Hour)},
		Ngood:  []int32{1, 1},
		Data:   [][]float64{make([]float64, 201), make([]float64, 201)},
	}
	c.Data[0][100] = 1
	c.Data[1][100] = 2

	paths, err := ExportCorr(dir, c)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, "2020-03-01T00-00-00_ZZ.sac", filepath.Base(paths[0]))

	got, err := ReadFile(paths[1])
	require.NoError(t, err)
	assert.InDelta(t, -5, got.Begin, 1e-6)
	assert.Equal(t, "EADB", got.Station.Sta)
	assert.InDelta(t, 2, got.Data[100], 1e-6)
	assert.Equal(t, time.Unix(0, c.Time[1]).UTC(), got.RefTime)
}

func TestExportCorrPositiveSideBegin(t *testing.T) {
	dir := t.TempDir()
	c := &seis.CorrData{
		Pair:   seis.Pair{Source: seis.Station{Net: "BP", Sta: "A"}, Receiver: seis.Station{Net: "BP", Sta: "B"}, Comp: "ZZ"},
		Side:   seis.SidePos,
		Dt:     0.1,
		MaxLag: 5,
		Time:   []int64{0},
		Ngood:  []int32{1},
		Data:   [][]float64{make([]float64, 51)},
	}
	paths, err := ExportCorr(dir, c)
	require.NoError(t, err)
	got, err := ReadFile(paths[0])
	require.NoError(t, err)
	assert.InDelta(t, 0, got.Begin, 1e-6)
}

func TestEncodeEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Encode(&buf, &Trace{}), seis.ErrNoData)
}
