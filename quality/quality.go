// Package quality exposes the public API for the CV-based channel
// quality heuristic.
package quality

import (
	"github.com/leafnirs/leafnirs/internal/quality"
	"github.com/leafnirs/leafnirs/internal/recording"
)

// Class is the quality classification of one channel.
type Class = quality.Class

// Quality classes.
const (
	OK    Class = quality.OK
	Flat  Class = quality.Flat
	Noisy Class = quality.Noisy
)

// Classification thresholds; comparisons are strict.
const (
	FlatThreshold  = quality.FlatThreshold
	NoisyThreshold = quality.NoisyThreshold
)

// ChannelQuality is the derived quality of one intensity column.
type ChannelQuality = quality.ChannelQuality

// Assess classifies one channel's time series.
func Assess(values []float64) (Class, float64) { return quality.Assess(values) }

// AssessRecording classifies every channel of a recording.
func AssessRecording(rec *recording.Recording) []ChannelQuality {
	return quality.AssessRecording(rec)
}
