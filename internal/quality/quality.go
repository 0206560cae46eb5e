// Package quality classifies channel signal quality with a
// coefficient-of-variation heuristic.
//
// CV = population standard deviation / |mean|. Channels with CV below
// 0.1% are flagged Flat (no sensor contact), channels above 50% are
// flagged Noisy (motion artifact or poor coupling). The thresholds are
// given policy constants, not statistically derived.
package quality

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/leafnirs/leafnirs/internal/recording"
)

// Classification thresholds. Both comparisons are strict, so a channel
// sitting exactly on a threshold is OK.
const (
	FlatThreshold  = 0.001
	NoisyThreshold = 0.50
)

// Class is the quality classification of one channel.
type Class int

// Quality classes, ordered from best to worst.
const (
	OK Class = iota
	Flat
	Noisy
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case OK:
		return "ok"
	case Flat:
		return "flat"
	case Noisy:
		return "noisy"
	default:
		return "unknown"
	}
}

// ChannelQuality is the derived quality of one intensity column. It is
// never persisted with the recording; callers recompute (or cache) it
// as needed.
type ChannelQuality struct {
	Channel int // column index into the intensity matrix
	Class   Class
	CV      float64
}

// Assess classifies one channel's time series. Pure and deterministic.
// An empty or zero-mean signal has no defined CV and is reported Noisy
// with CV = +Inf.
func Assess(values []float64) (Class, float64) {
	if len(values) == 0 {
		return Noisy, math.Inf(1)
	}
	mean := stat.Mean(values, nil)
	if mean == 0 {
		return Noisy, math.Inf(1)
	}
	cv := stat.PopStdDev(values, nil) / math.Abs(mean)
	switch {
	case cv < FlatThreshold:
		return Flat, cv
	case cv > NoisyThreshold:
		return Noisy, cv
	default:
		return OK, cv
	}
}

// AssessRecording classifies every channel of a recording, one entry
// per intensity column, index-aligned with rec.Channels.
func AssessRecording(rec *recording.Recording) []ChannelQuality {
	if rec == nil || rec.Intensity == nil {
		return nil
	}
	out := make([]ChannelQuality, rec.Intensity.Cols())
	for c := range out {
		class, cv := Assess(rec.Intensity.Column(c))
		out[c] = ChannelQuality{Channel: c, Class: class, CV: cv}
	}
	return out
}
