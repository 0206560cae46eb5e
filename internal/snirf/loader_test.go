package snirf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leafnirs/leafnirs/internal/recording"
)

// Both strategies share the pre-parse gate, so gate behavior is
// asserted against both.
func loaders() []Loader {
	return []Loader{NewRawLoader(), NewSchemaLoader()}
}

func TestLoadMissingFile(t *testing.T) {
	for _, l := range loaders() {
		t.Run(l.Name(), func(t *testing.T) {
			_, err := l.Load("/nonexistent/path.snirf")
			assert.ErrorIs(t, err, ErrFileNotFound)

			var lerr *LoadError
			require.ErrorAs(t, err, &lerr)
			assert.Equal(t, KindFileNotFound, lerr.Kind)
			assert.Equal(t, "/nonexistent/path.snirf", lerr.Path)
		})
	}
}

func TestLoadWrongExtension(t *testing.T) {
	// The file exists and contains garbage; the extension gate must
	// reject it before any open attempt, so the garbage is never seen.
	path := filepath.Join(t.TempDir(), "data.txt")
	require.NoError(t, os.WriteFile(path, []byte("not hdf5"), 0o600))

	for _, l := range loaders() {
		t.Run(l.Name(), func(t *testing.T) {
			_, err := l.Load(path)
			assert.ErrorIs(t, err, ErrUnsupportedExtension)
			assert.NotErrorIs(t, err, ErrStructuralInvalid)
		})
	}
}

func TestLoadMultiValuedIndexScalar(t *testing.T) {
	// A channel index dataset holding two values where exactly one
	// scalar is expected fails the same way under both strategies.
	path := writeMultiValuedIndexSNIRF(t)

	for _, l := range loaders() {
		t.Run(l.Name(), func(t *testing.T) {
			_, err := l.Load(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedScalar)

			var lerr *LoadError
			require.ErrorAs(t, err, &lerr)
			assert.Equal(t, KindMalformedScalar, lerr.Kind)
			assert.Contains(t, lerr.Field, "sourceIndex")
		})
	}
}

func TestCheckPathAcceptsUppercaseExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "REC.SNIRF")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	assert.Nil(t, checkPath(path))
}

func TestCheckPathRejectsDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "rec.snirf")
	require.NoError(t, os.Mkdir(dir, 0o755))
	lerr := checkPath(dir)
	require.NotNil(t, lerr)
	assert.Equal(t, KindFileNotFound, lerr.Kind)
}

func TestLoadErrorFormatting(t *testing.T) {
	err := structuralErr("/tmp/x.snirf", "probe/wavelengths", errors.New("required dataset missing"))
	assert.Contains(t, err.Error(), "/tmp/x.snirf")
	assert.Contains(t, err.Error(), "structural_invalid")
	assert.Contains(t, err.Error(), "probe/wavelengths")
	assert.ErrorIs(t, err, ErrStructuralInvalid)
	assert.NotErrorIs(t, err, ErrFileNotFound)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "file_not_found", KindFileNotFound.String())
	assert.Equal(t, "unsupported_extension", KindUnsupportedExtension.String())
	assert.Equal(t, "structural_invalid", KindStructuralInvalid.String())
	assert.Equal(t, "malformed_scalar", KindMalformedScalar.String())
}

func TestNormalizeLabels(t *testing.T) {
	assert.Equal(t, []string{"S1", "S2"}, normalizeLabels(nil, "S", 2))
	assert.Equal(t, []string{"Fp1", "Fp2"}, normalizeLabels([]string{"Fp1", "Fp2"}, "S", 2))
	// Short lists are padded with generated names.
	assert.Equal(t, []string{"Fp1", "D2"}, normalizeLabels([]string{"Fp1"}, "D", 2))
	// Long lists are truncated to the position count.
	assert.Equal(t, []string{"a"}, normalizeLabels([]string{"a", "b"}, "S", 1))
}

func TestStimulusFromMatrixDefaults(t *testing.T) {
	// Onset-only events default duration and amplitude to 1.
	st := stimulusFromMatrix("tap", [][]float64{{1.5}, {4.0}})
	assert.Equal(t, recording.Stimulus{
		Name:       "tap",
		Onsets:     []float64{1.5, 4},
		Durations:  []float64{1, 1},
		Amplitudes: []float64{1, 1},
	}, st)

	st = stimulusFromMatrix("tap", [][]float64{{1.5, 2, 0.5}})
	assert.Equal(t, []float64{2}, st.Durations)
	assert.Equal(t, []float64{0.5}, st.Amplitudes)
}
