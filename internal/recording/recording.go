package recording

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Probe holds source/detector geometry and the wavelength list.
// Positions are n×2 or n×3 depending on what the file provides.
type Probe struct {
	SourcePos      [][]float64
	DetectorPos    [][]float64
	Wavelengths    []float64
	SourceLabels   []string
	DetectorLabels []string
}

// Channel describes one column of the intensity matrix. Indices are
// 1-based, as stored in the container.
type Channel struct {
	SourceIndex     int
	DetectorIndex   int
	WavelengthIndex int
	DataType        int
	DataTypeLabel   string
}

// Stimulus is one stimulus condition with parallel per-event arrays.
type Stimulus struct {
	Name       string
	Onsets     []float64
	Durations  []float64
	Amplitudes []float64
}

// AuxChannel is an auxiliary stream (accelerometer, respiration, ...)
// sampled on its own time grid, independent of the intensity matrix.
type AuxChannel struct {
	Name   string
	Time   []float64
	Values []float64
}

// Recording is the unified in-memory form of one loaded SNIRF file.
// It is immutable after load.
type Recording struct {
	// ID is an opaque identifier assigned by the orchestrator,
	// used to key derived caches. Empty until assigned.
	ID string

	// Path is the file the recording was loaded from.
	Path string

	// Metadata maps metaDataTags entries to coerced scalar values
	// (string, int, float64) or, for multi-valued tags, slices thereof.
	Metadata map[string]any

	Probe    Probe
	Channels []Channel

	// Time is the shared sample time axis, one entry per matrix row.
	Time []float64

	// Intensity holds raw intensity samples, rows aligned with Time
	// and columns aligned with Channels.
	Intensity *Matrix

	Stimuli []Stimulus
	Aux     []AuxChannel
}

// NumChannels returns the number of measurement channels.
func (r *Recording) NumChannels() int { return len(r.Channels) }

// NumTimepoints returns the number of samples per channel.
func (r *Recording) NumTimepoints() int { return len(r.Time) }

// NumSources returns the number of probe sources.
func (r *Recording) NumSources() int { return len(r.Probe.SourcePos) }

// NumDetectors returns the number of probe detectors.
func (r *Recording) NumDetectors() int { return len(r.Probe.DetectorPos) }

// DurationSeconds returns the span of the time axis.
func (r *Recording) DurationSeconds() float64 {
	if len(r.Time) < 2 {
		return 0
	}
	return r.Time[len(r.Time)-1] - r.Time[0]
}

// SamplingRate estimates the sampling rate as the reciprocal of the
// median inter-sample interval. Returns 0 for fewer than two samples.
func (r *Recording) SamplingRate() float64 {
	if len(r.Time) < 2 {
		return 0
	}
	diffs := make([]float64, len(r.Time)-1)
	for i := 1; i < len(r.Time); i++ {
		diffs[i-1] = r.Time[i] - r.Time[i-1]
	}
	sort.Float64s(diffs)
	med := stat.Quantile(0.5, stat.Empirical, diffs, nil)
	if med <= 0 {
		return 0
	}
	return 1 / med
}
