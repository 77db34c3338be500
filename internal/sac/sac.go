// Package sac encodes correlation records as SAC time-series files for
// downstream tools that do not read the archive format. Files are
// written big-endian, one window per file.
package sac

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"seisgo/internal/seis"
)

// SAC header geometry: 70 float words, 40 int words, 192 bytes of
// 8-byte character fields, then the float32 sample payload.
const (
	numFloats  = 70
	numInts    = 40
	charBytes  = 192
	headerSize = numFloats*4 + numInts*4 + charBytes
)

// Unset markers defined by the format.
const (
	unsetFloat = float32(-12345.0)
	unsetInt   = int32(-12345)
	unsetWord  = "-12345  "
)

// Header word indices used here.
const (
	iDelta = 0
	iB     = 5
	iE     = 6
	iStla  = 31
	iStlo  = 32
	iStel  = 33
	iEvla  = 35
	iEvlo  = 36
	iEvel  = 37
	iEvdp  = 38
	iDist  = 50
	iAz    = 51
	iBaz   = 52

	iNzyear = 0
	iNzjday = 1
	iNzhour = 2
	iNzmin  = 3
	iNzsec  = 4
	iNzmsec = 5
	iNvhdr  = 6
	iNpts   = 9
	iIftype = 15
	iLeven  = 35
)

// Trace is one evenly sampled time series plus the header fields this
// toolkit fills in.
type Trace struct {
	Delta   float64
	Begin   float64 // time of the first sample relative to the reference
	RefTime time.Time
	Station seis.Station // written to the station fields
	Event   seis.Station // written to the event fields
	Dist    float64
	Az      float64
	Baz     float64
	Data    []float64
}

// Encode writes t to w in big-endian SAC layout.
func Encode(w io.Writer, t *Trace) error {
	if len(t.Data) == 0 {
		return seis.ErrNoData
	}

	floats := make([]float32, numFloats)
	ints := make([]int32, numInts)
	for i := range floats {
		floats[i] = unsetFloat
	}
	for i := range ints {
		ints[i] = unsetInt
	}

	floats[iDelta] = float32(t.Delta)
	floats[iB] = float32(t.Begin)
	floats[iE] = float32(t.Begin + t.Delta*float64(len(t.Data)-1))
	floats[iStla] = float32(t.Station.Lat)
	floats[iStlo] = float32(t.Station.Lon)
	floats[iStel] = float32(t.Station.Elev)
	floats[iEvla] = float32(t.Event.Lat)
	floats[iEvlo] = float32(t.Event.Lon)
	floats[iEvel] = float32(t.Event.Elev)
	floats[iEvdp] = float32(t.Event.Elev)
	floats[iDist] = float32(t.Dist)
	floats[iAz] = float32(t.Az)
	floats[iBaz] = float32(t.Baz)

	ref := t.RefTime.UTC()
	ints[iNzyear] = int32(ref.Year())
	ints[iNzjday] = int32(ref.YearDay())
	ints[iNzhour] = int32(ref.Hour())
	ints[iNzmin] = int32(ref.Minute())
	ints[iNzsec] = int32(ref.Second())
	ints[iNzmsec] = int32(ref.Nanosecond() / 1e6)
	ints[iNvhdr] = 6
	ints[iNpts] = int32(len(t.Data))
	ints[iIftype] = 1 // evenly sampled time series
	ints[iLeven] = 1

	if err := binary.Write(w, binary.BigEndian, floats); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, ints); err != nil {
		return err
	}

	chars := make([]byte, charBytes)
	for i := 0; i < charBytes; i += 8 {
		copy(chars[i:i+8], unsetWord)
	}
	putWord(chars, 0, t.Station.Sta)       // kstnm, 8 bytes
	putWord(chars, 8, t.Event.NetSta())    // kevnm, first half of 16 bytes
	putWord(chars, 160, t.Station.Chan)    // kcmpnm
	putWord(chars, 168, t.Station.Net)     // knetwk
	if err := binary.Write(w, binary.BigEndian, chars); err != nil {
		return err
	}

	samples := make([]float32, len(t.Data))
	for i, v := range t.Data {
		samples[i] = float32(v)
	}
	return binary.Write(w, binary.BigEndian, samples)
}

func putWord(chars []byte, off int, s string) {
	word := []byte(s)
	if len(word) > 8 {
		word = word[:8]
	}
	for i := copy(chars[off:off+8], word); i < 8; i++ {
		chars[off+i] = ' '
	}
}

// Decode reads one big-endian SAC trace. Only the header fields Encode
// fills are recovered.
func Decode(r io.Reader) (*Trace, error) {
	floats := make([]float32, numFloats)
	ints := make([]int32, numInts)
	chars := make([]byte, charBytes)
	if err := binary.Read(r, binary.BigEndian, floats); err != nil {
		return nil, fmt.Errorf("sac: reading float header: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, ints); err != nil {
		return nil, fmt.Errorf("sac: reading int header: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, chars); err != nil {
		return nil, fmt.Errorf("sac: reading char header: %w", err)
	}
	if ints[iNvhdr] != 6 {
		return nil, fmt.Errorf("sac: unsupported header version %d (wrong byte order?)", ints[iNvhdr])
	}
	npts := int(ints[iNpts])
	if npts <= 0 {
		return nil, fmt.Errorf("sac: invalid sample count %d", npts)
	}

	samples := make([]float32, npts)
	if err := binary.Read(r, binary.BigEndian, samples); err != nil {
		return nil, fmt.Errorf("sac: reading %d samples: %w", npts, err)
	}

	data := make([]float64, npts)
	for i, v := range samples {
		data[i] = float64(v)
	}
	ref := time.Date(int(ints[iNzyear]), 1, 1,
		int(ints[iNzhour]), int(ints[iNzmin]), int(ints[iNzsec]),
		int(ints[iNzmsec])*1e6, time.UTC).
		AddDate(0, 0, int(ints[iNzjday])-1)

	t := &Trace{
		Delta:   float64(floats[iDelta]),
		Begin:   float64(floats[iB]),
		RefTime: ref,
		Station: seis.Station{
			Net:  getWord(chars, 168),
			Sta:  getWord(chars, 0),
			Chan: getWord(chars, 160),
			Lat:  float64(floats[iStla]),
			Lon:  float64(floats[iStlo]),
			Elev: float64(floats[iStel]),
		},
		Event: seis.Station{
			Lat:  float64(floats[iEvla]),
			Lon:  float64(floats[iEvlo]),
			Elev: float64(floats[iEvel]),
		},
		Dist: float64(floats[iDist]),
		Az:   float64(floats[iAz]),
		Baz:  float64(floats[iBaz]),
		Data: data,
	}
	return t, nil
}

// ReadFile decodes the SAC trace stored at path.
func ReadFile(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

func getWord(chars []byte, off int) string {
	s := strings.TrimRight(string(chars[off:off+8]), " \x00")
	if s == strings.TrimRight(unsetWord, " ") {
		return ""
	}
	return s
}

// ExportCorr writes every window of a correlation record as a SAC file
// under outdir and returns the written paths. The receiver becomes the
// station, the source the event, matching the record's distance and
// azimuth convention. Lag zero sits at the middle of each row, so the
// begin time is -MaxLag (or zero for positive-side records).
func ExportCorr(outdir string, c *seis.CorrData) ([]string, error) {
	if c.NumWindows() == 0 {
		return nil, seis.ErrNoData
	}
	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return nil, err
	}
	begin := -c.MaxLag
	if c.Side == seis.SidePos {
		begin = 0
	}
	paths := make([]string, 0, c.NumWindows())
	for i, row := range c.Data {
		ref := time.Unix(0, c.Time[i]).UTC()
		name := fmt.Sprintf("%s_%s.sac",
			strings.ReplaceAll(ref.Format("2006-01-02T15:04:05"), ":", "-"),
			c.Pair.Comp)
		path := filepath.Join(outdir, name)

		t := &Trace{
			Delta:   c.Dt,
			Begin:   begin,
			RefTime: ref,
			Station: c.Pair.Receiver,
			Event:   c.Pair.Source,
			Dist:    c.Dist,
			Az:      c.Az,
			Baz:     c.Baz,
			Data:    row,
		}
		if err := writeFile(path, t); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, t *Trace) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, t); err != nil {
		f.Close()
		return fmt.Errorf("sac: encoding %s: %w", path, err)
	}
	return f.Close()
}
