package snirf

import (
	"fmt"
	"path/filepath"
	"testing"

	"gonum.org/v1/hdf5"
)

// Fixture files are synthesized with the same HDF5 bindings the raw
// loader reads with, laid out exactly as an acquisition tool would
// write them: scalars stored as 1-element datasets, indices as
// integers, metadata as strings.

type fixtureGroup struct {
	t       *testing.T
	g       *hdf5.Group
	closers *[]func()
}

func (f fixtureGroup) group(name string) fixtureGroup {
	f.t.Helper()
	g, err := f.g.CreateGroup(name)
	if err != nil {
		f.t.Fatalf("create group %s: %v", name, err)
	}
	*f.closers = append(*f.closers, func() { _ = g.Close() })
	return fixtureGroup{t: f.t, g: g, closers: f.closers}
}

func (f fixtureGroup) floats(name string, dims []uint, data []float64) {
	f.t.Helper()
	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		f.t.Fatalf("dataspace for %s: %v", name, err)
	}
	defer func() { _ = space.Close() }()
	dset, err := f.g.CreateDataset(name, hdf5.T_NATIVE_DOUBLE, space)
	if err != nil {
		f.t.Fatalf("create dataset %s: %v", name, err)
	}
	defer func() { _ = dset.Close() }()
	if err := dset.Write(&data); err != nil {
		f.t.Fatalf("write %s: %v", name, err)
	}
}

func (f fixtureGroup) ints(name string, dims []uint, data []int32) {
	f.t.Helper()
	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		f.t.Fatalf("dataspace for %s: %v", name, err)
	}
	defer func() { _ = space.Close() }()
	dset, err := f.g.CreateDataset(name, hdf5.T_NATIVE_INT32, space)
	if err != nil {
		f.t.Fatalf("create dataset %s: %v", name, err)
	}
	defer func() { _ = dset.Close() }()
	if err := dset.Write(&data); err != nil {
		f.t.Fatalf("write %s: %v", name, err)
	}
}

func (f fixtureGroup) intScalar(name string, v int32) {
	f.ints(name, []uint{1}, []int32{v})
}

func (f fixtureGroup) strings(name string, values []string) {
	f.t.Helper()
	space, err := hdf5.CreateSimpleDataspace([]uint{uint(len(values))}, nil)
	if err != nil {
		f.t.Fatalf("dataspace for %s: %v", name, err)
	}
	defer func() { _ = space.Close() }()
	dset, err := f.g.CreateDataset(name, hdf5.T_GO_STRING, space)
	if err != nil {
		f.t.Fatalf("create dataset %s: %v", name, err)
	}
	defer func() { _ = dset.Close() }()
	if err := dset.Write(&values); err != nil {
		f.t.Fatalf("write %s: %v", name, err)
	}
}

func (f fixtureGroup) str(name, value string) {
	f.strings(name, []string{value})
}

// sampleTime is the shared 10-sample, 10 Hz time axis of the fixture.
var sampleTime = []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}

// sampleIntensity holds the fixture's 10×2 intensity matrix, row-major.
// Column 0 varies mildly, column 1 is constant (a flat channel).
var sampleIntensity = []float64{
	100, 7, 101, 7, 99, 7, 102, 7, 100, 7,
	98, 7, 100, 7, 101, 7, 99, 7, 100, 7,
}

// writeSampleSNIRF writes a small but complete SNIRF file and returns
// its path: 1 source, 1 detector, 2 wavelengths, 2 channels, one fully
// specified stimulus, one onset-only stimulus, one aux channel on its
// own grid, and string metadata.
func writeSampleSNIRF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.snirf")

	root, finish := newFixture(t, path)
	defer finish()
	nirs := root.group("nirs")

	data := nirs.group("data1")
	data.floats("dataTimeSeries", []uint{10, 2}, sampleIntensity)
	data.floats("time", []uint{10}, sampleTime)
	for i, wl := range []int32{1, 2} {
		ml := data.group(fmt.Sprintf("measurementList%d", i+1))
		ml.intScalar("sourceIndex", 1)
		ml.intScalar("detectorIndex", 1)
		ml.intScalar("wavelengthIndex", wl)
		ml.intScalar("dataType", 1)
	}

	probe := nirs.group("probe")
	probe.floats("sourcePos3D", []uint{1, 3}, []float64{0, 0, 0})
	probe.floats("detectorPos3D", []uint{1, 3}, []float64{30, 0, 0})
	probe.floats("wavelengths", []uint{2}, []float64{760, 850})
	probe.strings("sourceLabels", []string{"S1"})
	probe.strings("detectorLabels", []string{"D1"})

	stim := nirs.group("stim1")
	stim.str("name", "tapping")
	stim.floats("data", []uint{2, 3}, []float64{
		1.0, 5.0, 1.0,
		12.0, 5.0, 1.0,
	})
	stim2 := nirs.group("stim2")
	stim2.str("name", "rest")
	stim2.floats("data", []uint{1, 1}, []float64{30})

	aux := nirs.group("aux1")
	aux.str("name", "acc_x")
	aux.floats("time", []uint{5}, []float64{0, 0.25, 0.5, 0.75, 1.0})
	aux.floats("dataTimeSeries", []uint{5}, []float64{0.1, 0.2, 0.1, 0.0, 0.1})

	mdt := nirs.group("metaDataTags")
	mdt.str("SubjectID", "sub-01")
	mdt.str("MeasurementDate", "2024-03-18")
	mdt.str("TimeUnit", "s")
	mdt.str("LengthUnit", "mm")
	mdt.str("FrequencyUnit", "Hz")
	mdt.intScalar("SubjectAge", 34)

	return path
}

// intIntensity is the fixture intensity matrix as raw integer counts.
var intIntensity = func() []int32 {
	out := make([]int32, len(sampleIntensity))
	for i, v := range sampleIntensity {
		out[i] = int32(v)
	}
	return out
}()

// writeIntegerStoredSNIRF writes a valid file whose intensity matrix
// and wavelengths are stored as 32-bit integers, as acquisition tools
// recording raw detector counts do.
func writeIntegerStoredSNIRF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "counts.snirf")

	root, finish := newFixture(t, path)
	defer finish()
	nirs := root.group("nirs")

	data := nirs.group("data1")
	data.ints("dataTimeSeries", []uint{10, 2}, intIntensity)
	data.floats("time", []uint{10}, sampleTime)
	for i, wl := range []int32{1, 2} {
		ml := data.group(fmt.Sprintf("measurementList%d", i+1))
		ml.intScalar("sourceIndex", 1)
		ml.intScalar("detectorIndex", 1)
		ml.intScalar("wavelengthIndex", wl)
	}

	probe := nirs.group("probe")
	probe.floats("sourcePos3D", []uint{1, 3}, []float64{0, 0, 0})
	probe.floats("detectorPos3D", []uint{1, 3}, []float64{30, 0, 0})
	probe.ints("wavelengths", []uint{2}, []int32{760, 850})

	return path
}

// writeMultiValuedIndexSNIRF writes a file whose first channel stores
// two values in the sourceIndex dataset, where exactly one scalar is
// expected.
func writeMultiValuedIndexSNIRF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doubled.snirf")

	root, finish := newFixture(t, path)
	defer finish()
	nirs := root.group("nirs")

	data := nirs.group("data1")
	data.floats("dataTimeSeries", []uint{2, 1}, []float64{1, 2})
	data.floats("time", []uint{2}, []float64{0, 0.1})
	ml := data.group("measurementList1")
	ml.ints("sourceIndex", []uint{2}, []int32{1, 1})
	ml.intScalar("detectorIndex", 1)
	ml.intScalar("wavelengthIndex", 1)

	probe := nirs.group("probe")
	probe.floats("sourcePos2D", []uint{1, 2}, []float64{0, 0})
	probe.floats("detectorPos2D", []uint{1, 2}, []float64{30, 0})
	probe.floats("wavelengths", []uint{2}, []float64{760, 850})

	return path
}

// writeTruncatedSNIRF writes a file whose probe group lacks the
// required wavelengths dataset.
func writeTruncatedSNIRF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "broken.snirf")

	root, finish := newFixture(t, path)
	defer finish()
	nirs := root.group("nirs")

	data := nirs.group("data1")
	data.floats("dataTimeSeries", []uint{2, 1}, []float64{1, 2})
	data.floats("time", []uint{2}, []float64{0, 0.1})
	ml := data.group("measurementList1")
	ml.intScalar("sourceIndex", 1)
	ml.intScalar("detectorIndex", 1)
	ml.intScalar("wavelengthIndex", 1)

	probe := nirs.group("probe")
	probe.floats("sourcePos2D", []uint{1, 2}, []float64{0, 0})
	probe.floats("detectorPos2D", []uint{1, 2}, []float64{30, 0})
	// wavelengths intentionally absent

	return path
}

// writeOutOfBoundsSNIRF writes a structurally complete file whose
// single channel references a detector that does not exist.
func writeOutOfBoundsSNIRF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "oob.snirf")

	root, finish := newFixture(t, path)
	defer finish()
	nirs := root.group("nirs")

	data := nirs.group("data1")
	data.floats("dataTimeSeries", []uint{2, 1}, []float64{1, 2})
	data.floats("time", []uint{2}, []float64{0, 0.1})
	ml := data.group("measurementList1")
	ml.intScalar("sourceIndex", 1)
	ml.intScalar("detectorIndex", 4) // only one detector exists
	ml.intScalar("wavelengthIndex", 1)

	probe := nirs.group("probe")
	probe.floats("sourcePos2D", []uint{1, 2}, []float64{0, 0})
	probe.floats("detectorPos2D", []uint{1, 2}, []float64{30, 0})
	probe.floats("wavelengths", []uint{2}, []float64{760, 850})

	return path
}

// newFixture creates an HDF5 file at path and returns its root group
// plus a finish func that releases every handle, innermost groups
// first, so the file is fully closed before any loader opens it.
func newFixture(t *testing.T, path string) (fixtureGroup, func()) {
	t.Helper()
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		t.Fatalf("create fixture file: %v", err)
	}
	g, err := f.OpenGroup("/")
	if err != nil {
		_ = f.Close()
		t.Fatalf("open root group: %v", err)
	}
	closers := make([]func(), 0, 16)
	finish := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		_ = g.Close()
		_ = f.Close()
	}
	return fixtureGroup{t: t, g: g, closers: &closers}, finish
}
