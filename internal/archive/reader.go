package archive

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"seisgo/internal/seis"
)

// ErrNotFound is returned when a path holds no archive record of the
// requested kind.
var ErrNotFound = errors.New("archive: record not found")

// Info is the record-level metadata of an archive file, read without
// touching the sample payload.
type Info struct {
	Kind  string
	Pair  seis.Pair
	Side  string
	Dt    float64
	Start int64
	End   int64
	NWin  int
	Path  string
}

// ReadCorr loads the correlation record stored at path.
func ReadCorr(path string) (*seis.CorrData, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("archive: opening %s: %w", path, err)
	}
	defer nc.Close()

	vr, err := nc.GetVariable("cc")
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no correlation variable", ErrNotFound, path)
	}
	a := attrReader{attrs: vr.Attributes}
	if a.str("kind") != kindCorr {
		return nil, fmt.Errorf("%w: %s holds kind %q", ErrNotFound, path, a.str("kind"))
	}

	data, ok := vr.Values.([][]float64)
	if !ok {
		return nil, fmt.Errorf("archive: %s: unexpected correlation payload type %T", path, vr.Values)
	}

	c := &seis.CorrData{
		Pair:     a.pair(),
		Side:     a.str("side"),
		Dt:       a.f64("dt"),
		MaxLag:   a.f64("maxlag"),
		Dist:     a.f64("dist"),
		Az:       a.f64("az"),
		Baz:      a.f64("baz"),
		Time:     decodeTimes(a.f64("time_mean"), a.f32s("time_offset")),
		Ngood:    a.i32s("ngood"),
		Data:     data,
		Substack: a.i32("substack") != 0,
	}
	if a.err != nil {
		return nil, fmt.Errorf("archive: %s: %w", path, a.err)
	}
	return c, nil
}

// ReadDvv loads the dvv record stored at path.
func ReadDvv(path string) (*seis.DvvData, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("archive: opening %s: %w", path, err)
	}
	defer nc.Close()

	vr, err := nc.GetVariable("dvv")
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no dvv variable", ErrNotFound, path)
	}
	a := attrReader{attrs: vr.Attributes}
	if a.str("kind") != kindDvv {
		return nil, fmt.Errorf("%w: %s holds kind %q", ErrNotFound, path, a.str("kind"))
	}
	vals, ok := vr.Values.([]float64)
	if !ok {
		return nil, fmt.Errorf("archive: %s: unexpected dvv payload type %T", path, vr.Values)
	}

	d := &seis.DvvData{
		Pair: seis.Pair{
			Source:   seis.Station{Net: a.str("net1"), Sta: a.str("sta1")},
			Receiver: seis.Station{Net: a.str("net2"), Sta: a.str("sta2")},
			Comp:     a.str("comp"),
		},
		Side:    a.str("side"),
		FreqMin: a.f64("freqmin"),
		FreqMax: a.f64("freqmax"),
		WinLen:  a.f64("winlen"),
		Step:    a.f64("step"),
		Time:    decodeTimes(a.f64("time_mean"), a.f32s("time_offset")),
		Dvv:     vals,
		Cc:      f32to64(a.f32s("cc")),
		Err:     f32to64(a.f32s("err")),
	}
	if a.err != nil {
		return nil, fmt.Errorf("archive: %s: %w", path, a.err)
	}
	return d, nil
}

// ReadInfo reads the record-level metadata of an archive file. Bounds
// come from the time attributes only; the data variable's payload is
// not decoded beyond its window count.
func ReadInfo(path string) (*Info, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("archive: opening %s: %w", path, err)
	}
	defer nc.Close()

	for _, name := range []string{"cc", "dvv", "wave"} {
		vr, err := nc.GetVariable(name)
		if err != nil {
			continue
		}
		a := attrReader{attrs: vr.Attributes}
		offsets := a.f32s("time_offset")
		mean := a.f64("time_mean")
		times := decodeTimes(mean, offsets)
		info := &Info{
			Kind: a.str("kind"),
			Pair: a.pair(),
			Side: a.str("side"),
			Dt:   a.f64("dt"),
			NWin: len(times),
			Path: path,
		}
		for i, t := range times {
			if i == 0 || t < info.Start {
				info.Start = t
			}
			if i == 0 || t > info.End {
				info.End = t
			}
		}
		if a.err != nil {
			return nil, fmt.Errorf("archive: %s: %w", path, a.err)
		}
		return info, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
}

// Scanner iterates over the archive files below a directory, loading
// the correlation records of one file per Scan call.
type Scanner struct {
	paths []string
	pos   int
	recs  []*seis.CorrData
	err   error
}

// NewScanner collects the archive files below dir in lexical order.
func NewScanner(dir string) (*Scanner, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+Ext))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return &Scanner{paths: paths}, nil
}

// Summary returns dataset summary fields suitable for logging.
func (s *Scanner) Summary() []any {
	return []any{"files", len(s.paths)}
}

// Scan loads the records of the next archive file. Files holding other
// record kinds are skipped. It returns false at the end of the file
// list or on the first error, which Err reports.
func (s *Scanner) Scan() bool {
	for s.pos < len(s.paths) {
		path := s.paths[s.pos]
		s.pos++
		c, err := ReadCorr(path)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			s.err = err
			return false
		}
		s.recs = []*seis.CorrData{c}
		return true
	}
	return false
}

// Records returns the records read by the last Scan. Ownership moves to
// the caller; calling Records again without a Scan returns nil.
func (s *Scanner) Records() []*seis.CorrData {
	recs := s.recs
	s.recs = nil
	return recs
}

// Err returns the first error hit while scanning.
func (s *Scanner) Err() error {
	return s.err
}

// attrReader reads typed attributes, tolerating the scalar-versus-
// one-element-slice ambiguity of the underlying format. The first
// failure sticks in err.
type attrReader struct {
	attrs api.AttributeMap
	err   error
}

func (a *attrReader) get(name string) (any, bool) {
	if a.attrs == nil {
		return nil, false
	}
	return a.attrs.Get(name)
}

func (a *attrReader) fail(name string, v any, want string) {
	if a.err == nil {
		a.err = fmt.Errorf("attribute %q has type %T, want %s", name, v, want)
	}
}

func (a *attrReader) str(name string) string {
	v, ok := a.get(name)
	if !ok {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case []string:
		if len(x) > 0 {
			return x[0]
		}
		return ""
	}
	a.fail(name, v, "string")
	return ""
}

func (a *attrReader) f64(name string) float64 {
	v, ok := a.get(name)
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case float64:
		return x
	case []float64:
		if len(x) == 1 {
			return x[0]
		}
	case float32:
		return float64(x)
	}
	a.fail(name, v, "float64")
	return 0
}

func (a *attrReader) i32(name string) int32 {
	v, ok := a.get(name)
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case int32:
		return x
	case []int32:
		if len(x) == 1 {
			return x[0]
		}
	}
	a.fail(name, v, "int32")
	return 0
}

func (a *attrReader) f32s(name string) []float32 {
	v, ok := a.get(name)
	if !ok {
		return nil
	}
	switch x := v.(type) {
	case []float32:
		return x
	case float32:
		return []float32{x}
	}
	a.fail(name, v, "[]float32")
	return nil
}

func (a *attrReader) i32s(name string) []int32 {
	v, ok := a.get(name)
	if !ok {
		return nil
	}
	switch x := v.(type) {
	case []int32:
		return x
	case int32:
		return []int32{x}
	}
	a.fail(name, v, "[]int32")
	return nil
}

func (a *attrReader) pair() seis.Pair {
	return seis.Pair{
		Source: seis.Station{
			Net: a.str("net1"), Sta: a.str("sta1"), Loc: a.str("loc1"), Chan: a.str("chan1"),
			Lon: a.f64("lon1"), Lat: a.f64("lat1"), Elev: a.f64("elev1"),
		},
		Receiver: seis.Station{
			Net: a.str("net2"), Sta: a.str("sta2"), Loc: a.str("loc2"), Chan: a.str("chan2"),
			Lon: a.f64("lon2"), Lat: a.f64("lat2"), Elev: a.f64("elev2"),
		},
		Comp: a.str("comp"),
	}
}
