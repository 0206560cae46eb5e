package quality

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leafnirs/leafnirs/internal/recording"
)

func TestAssessConstantIsFlat(t *testing.T) {
	class, cv := Assess([]float64{5, 5, 5, 5})
	assert.Equal(t, Flat, class)
	assert.Equal(t, 0.0, cv)
}

func TestAssessBoundaryExactlyFlatThresholdIsOK(t *testing.T) {
	// mean 1000, population sd 1 → CV exactly 0.001. Strict < keeps it OK.
	class, cv := Assess([]float64{999, 1001})
	assert.Equal(t, OK, class)
	assert.Equal(t, FlatThreshold, cv)
}

func TestAssessBoundaryExactlyNoisyThresholdIsOK(t *testing.T) {
	// mean 1, population sd 0.5 → CV exactly 0.50. Strict > keeps it OK.
	class, cv := Assess([]float64{0.5, 1.5})
	assert.Equal(t, OK, class)
	assert.Equal(t, NoisyThreshold, cv)
}

func TestAssessNoisySignal(t *testing.T) {
	// Alternating ±500 around a tiny mean: enormous CV.
	values := make([]float64, 100)
	for i := range values {
		if i%2 == 0 {
			values[i] = 500.000001
		} else {
			values[i] = -499.999999
		}
	}
	class, cv := Assess(values)
	assert.Equal(t, Noisy, class)
	assert.Greater(t, cv, NoisyThreshold)
}

func TestAssessZeroMeanIsNoisy(t *testing.T) {
	class, cv := Assess([]float64{-1, 1, -1, 1})
	assert.Equal(t, Noisy, class)
	assert.True(t, math.IsInf(cv, 1))
}

func TestAssessEmptyIsNoisy(t *testing.T) {
	class, cv := Assess(nil)
	assert.Equal(t, Noisy, class)
	assert.True(t, math.IsInf(cv, 1))
}

func TestAssessNegativeMeanUsesAbsoluteValue(t *testing.T) {
	class, _ := Assess([]float64{-999, -1001})
	assert.Equal(t, OK, class)
}

func TestAssessRecordingAlignsWithChannels(t *testing.T) {
	// Column 0 constant (flat), column 1 mildly varying (ok).
	m, err := recording.NewMatrixFromRows([][]float64{
		{5, 100},
		{5, 101},
		{5, 99},
		{5, 100},
	})
	assert.NoError(t, err)
	rec := &recording.Recording{Intensity: m}

	qualities := AssessRecording(rec)
	assert.Len(t, qualities, 2)
	assert.Equal(t, 0, qualities[0].Channel)
	assert.Equal(t, Flat, qualities[0].Class)
	assert.Equal(t, 1, qualities[1].Channel)
	assert.Equal(t, OK, qualities[1].Class)
}

func TestClassString(t *testing.T) {
	assert.Equal(t, "ok", OK.String())
	assert.Equal(t, "flat", Flat.String())
	assert.Equal(t, "noisy", Noisy.String())
}
