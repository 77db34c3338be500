package seis

import "fmt"

// Station holds basic station identity and location. It is not a full
// inventory entry, just what correlation bookkeeping needs.
type Station struct {
	Net  string
	Sta  string
	Loc  string
	Chan string

	Lon  float64
	Lat  float64
	Elev float64
}

// ID returns the canonical "NET.STA.LOC.CHAN" identifier.
func (s Station) ID() string {
	return fmt.Sprintf("%s.%s.%s.%s", s.Net, s.Sta, s.Loc, s.Chan)
}

// NetSta returns the "NET.STA" short identifier.
func (s Station) NetSta() string {
	return fmt.Sprintf("%s.%s", s.Net, s.Sta)
}

// Pair identifies a source/receiver station pair and the cross component
// ("ZZ", "ZR", ...) the correlation was computed on.
type Pair struct {
	Source   Station
	Receiver Station
	Comp     string
}

// Key returns the canonical pair key used for grouping and archive paths,
// e.g. "XX.AAA_YY.BBB/ZZ".
func (p Pair) Key() string {
	return fmt.Sprintf("%s_%s/%s", p.Source.NetSta(), p.Receiver.NetSta(), p.Comp)
}
