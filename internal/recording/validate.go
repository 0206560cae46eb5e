package recording

import "fmt"

// InvalidError reports a structural-validity violation, naming the
// field that failed so loaders can surface a precise diagnostic.
type InvalidError struct {
	Field   string
	Details string
}

// Error implements the error interface.
func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid recording: %s: %s", e.Field, e.Details)
}

func invalidf(field, format string, args ...any) error {
	return &InvalidError{Field: field, Details: fmt.Sprintf(format, args...)}
}

// Validate checks every cross-field invariant of the model:
//
//   - the intensity matrix is present, with row count equal to the
//     time-axis length and column count equal to the channel count;
//   - the time axis is monotonically non-decreasing;
//   - every channel's source, detector and wavelength indices (1-based)
//     resolve within probe bounds.
//
// Loaders call this before returning a Recording; a violation is a
// structural error, never silently dropped.
func (r *Recording) Validate() error {
	if r.Intensity == nil {
		return invalidf("dataTimeSeries", "missing intensity matrix")
	}
	if r.Intensity.Rows() != len(r.Time) {
		return invalidf("time", "matrix has %d rows but time axis has %d samples",
			r.Intensity.Rows(), len(r.Time))
	}
	if r.Intensity.Cols() != len(r.Channels) {
		return invalidf("measurementList", "matrix has %d columns but %d channels described",
			r.Intensity.Cols(), len(r.Channels))
	}
	if len(r.Channels) == 0 {
		return invalidf("measurementList", "no channels described")
	}
	for i := 1; i < len(r.Time); i++ {
		if r.Time[i] < r.Time[i-1] {
			return invalidf("time", "not monotonic at sample %d: %g < %g",
				i, r.Time[i], r.Time[i-1])
		}
	}

	nSrc := len(r.Probe.SourcePos)
	nDet := len(r.Probe.DetectorPos)
	nWl := len(r.Probe.Wavelengths)
	for i, ch := range r.Channels {
		if ch.SourceIndex < 1 || ch.SourceIndex > nSrc {
			return invalidf(fmt.Sprintf("measurementList%d/sourceIndex", i+1),
				"index %d out of range [1,%d]", ch.SourceIndex, nSrc)
		}
		if ch.DetectorIndex < 1 || ch.DetectorIndex > nDet {
			return invalidf(fmt.Sprintf("measurementList%d/detectorIndex", i+1),
				"index %d out of range [1,%d]", ch.DetectorIndex, nDet)
		}
		if ch.WavelengthIndex < 1 || ch.WavelengthIndex > nWl {
			return invalidf(fmt.Sprintf("measurementList%d/wavelengthIndex", i+1),
				"index %d out of range [1,%d]", ch.WavelengthIndex, nWl)
		}
	}

	for i, aux := range r.Aux {
		if len(aux.Time) != len(aux.Values) {
			return invalidf(fmt.Sprintf("aux%d", i+1),
				"time axis has %d samples but %d values", len(aux.Time), len(aux.Values))
		}
	}
	return nil
}
