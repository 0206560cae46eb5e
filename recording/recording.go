// Package recording exposes the public API for the normalized fNIRS
// recording data model.
//
// It wraps the internal implementation with type aliases; see the
// internal package for the full documentation of each type.
//
// Example:
//
//	rec, err := snirf.NewRawLoader().Load("subject01.snirf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d channels, %.1f Hz\n", rec.NumChannels(), rec.SamplingRate())
package recording

import (
	"github.com/leafnirs/leafnirs/internal/recording"
)

// Recording is the unified in-memory form of one loaded SNIRF file.
type Recording = recording.Recording

// Probe holds source/detector geometry and the wavelength list.
type Probe = recording.Probe

// Channel describes one column of the intensity matrix.
type Channel = recording.Channel

// Stimulus is one stimulus condition with parallel per-event arrays.
type Stimulus = recording.Stimulus

// AuxChannel is an auxiliary stream on its own time grid.
type AuxChannel = recording.AuxChannel

// Matrix is the dense row-major sample×channel intensity matrix.
type Matrix = recording.Matrix

// InvalidError reports a structural-validity violation.
type InvalidError = recording.InvalidError

// NewMatrix wraps a row-major data slice as a rows×cols matrix.
func NewMatrix(rows, cols int, data []float64) (*Matrix, error) {
	return recording.NewMatrix(rows, cols, data)
}

// NewMatrixFromRows builds a matrix from per-row slices.
func NewMatrixFromRows(rows [][]float64) (*Matrix, error) {
	return recording.NewMatrixFromRows(rows)
}
