package seis

import (
	"math"
	"time"
)

// Window is one slice of a continuous trace.
type Window struct {
	Start int64 // unix nanoseconds of the first sample
	Std   float64
	Data  []float64
}

// SliceWindows cuts a continuous trace into windows of winSecs seconds
// advancing by stepSecs. t0 is the time of the first sample and dt the
// sampling interval in seconds.
//
// Invalid parameters, or a trace shorter than a single window, yield an
// empty result. No zero-filled placeholder windows are ever produced; a
// caller seeing zero windows knows the slicing failed or the trace was
// too short.
func SliceWindows(trace []float64, dt float64, t0 int64, winSecs, stepSecs float64) []Window {
	if dt <= 0 || winSecs <= 0 || stepSecs <= 0 {
		return []Window{}
	}
	nwin := int(winSecs / dt)
	nstep := int(stepSecs / dt)
	if nwin == 0 || nstep == 0 || len(trace) < nwin {
		return []Window{}
	}

	var out []Window
	for off := 0; off+nwin <= len(trace); off += nstep {
		seg := append([]float64(nil), trace[off:off+nwin]...)
		out = append(out, Window{
			Start: t0 + int64(float64(off)*dt*float64(time.Second)),
			Std:   stddev(seg),
			Data:  seg,
		})
	}
	return out
}

func stddev(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))
	var ss float64
	for _, v := range x {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(x)))
}
