package snirf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leafnirs/leafnirs/internal/coerce"
	"github.com/leafnirs/leafnirs/internal/recording"
)

// Extension is the file extension SNIRF containers must carry.
const Extension = ".snirf"

// Loader populates the recording data model from a SNIRF file.
// Implementations are stateless and safe for concurrent use; each Load
// call opens its own handle and releases it before returning.
type Loader interface {
	// Load reads the file at path and returns a fully validated
	// recording. On failure the returned error is a *LoadError and no
	// recording is produced.
	Load(path string) (*recording.Recording, error)

	// Name returns a short strategy name for logs and preferences.
	Name() string
}

// checkPath is the shared pre-parse gate: the extension is rejected
// before any attempt to open the file, then existence is checked.
func checkPath(path string) *LoadError {
	if !strings.EqualFold(filepath.Ext(path), Extension) {
		return loadErr(KindUnsupportedExtension, path, "",
			fmt.Errorf("want %s, got %q", Extension, filepath.Ext(path)))
	}
	info, err := os.Stat(path)
	if err != nil {
		return loadErr(KindFileNotFound, path, "", err)
	}
	if info.IsDir() {
		return loadErr(KindFileNotFound, path, "", errors.New("path is a directory"))
	}
	return nil
}

// wrapFieldErr converts a coercion or validation failure on a given
// container field into the matching typed error.
func wrapFieldErr(path, field string, err error) *LoadError {
	if errors.Is(err, coerce.ErrMalformedScalar) {
		return loadErr(KindMalformedScalar, path, field, err)
	}
	var inv *recording.InvalidError
	if errors.As(err, &inv) {
		return structuralErr(path, inv.Field, err)
	}
	return structuralErr(path, field, err)
}

// defaultLabels generates S1..Sn or D1..Dn placeholder labels for files
// that omit the optional label datasets.
func defaultLabels(prefix string, n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return labels
}

// normalizeLabels pads or truncates raw labels to match the position
// count, falling back to generated names when the file provides none.
func normalizeLabels(raw []string, prefix string, n int) []string {
	if len(raw) == 0 {
		return defaultLabels(prefix, n)
	}
	if len(raw) >= n {
		return raw[:n]
	}
	out := make([]string, 0, n)
	out = append(out, raw...)
	for i := len(raw); i < n; i++ {
		out = append(out, fmt.Sprintf("%s%d", prefix, i+1))
	}
	return out
}

// stimulusFromMatrix builds a Stimulus from the n×3 (or wider) stim
// data block. Files that omit the duration or amplitude columns get
// 1.0 for every event.
func stimulusFromMatrix(name string, data [][]float64) recording.Stimulus {
	st := recording.Stimulus{Name: name}
	n := len(data)
	st.Onsets = make([]float64, n)
	st.Durations = make([]float64, n)
	st.Amplitudes = make([]float64, n)
	for i, row := range data {
		if len(row) > 0 {
			st.Onsets[i] = row[0]
		}
		if len(row) > 1 {
			st.Durations[i] = row[1]
		} else {
			st.Durations[i] = 1
		}
		if len(row) > 2 {
			st.Amplitudes[i] = row[2]
		} else {
			st.Amplitudes[i] = 1
		}
	}
	return st
}
