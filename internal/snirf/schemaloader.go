package snirf

import (
	"fmt"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/hdf5"

	"github.com/leafnirs/leafnirs/internal/coerce"
	"github.com/leafnirs/leafnirs/internal/recording"
)

// SchemaLoader reads SNIRF files through an independent pure-Go HDF5
// stack and validates the whole object graph against the declarative
// schema table before mapping any field. Slower than RawLoader but
// rejects malformed files up front, which makes it the conservative
// choice when file provenance is untrusted.
type SchemaLoader struct{}

// NewSchemaLoader returns the schema-validating strategy.
func NewSchemaLoader() *SchemaLoader { return &SchemaLoader{} }

// Name returns the strategy name.
func (*SchemaLoader) Name() string { return "snirf-schema" }

// Load implements Loader.
func (l *SchemaLoader) Load(path string) (*recording.Recording, error) {
	if lerr := checkPath(path); lerr != nil {
		return nil, lerr
	}

	root, err := hdf5.Open(path)
	if err != nil {
		return nil, structuralErr(path, "/", fmt.Errorf("open container: %w", err))
	}
	defer root.Close()

	nirsKey := "nirs"
	groups := nameSet(root.ListSubgroups())
	if !groups[nirsKey] {
		nirsKey = "nirs1"
	}
	if !groups[nirsKey] {
		return nil, structuralErr(path, "nirs", fmt.Errorf("no nirs group in file"))
	}
	nirs, err := root.GetGroup(nirsKey)
	if err != nil {
		return nil, structuralErr(path, nirsKey, err)
	}
	defer nirs.Close()

	// Schema conformance first; mapping only sees validated trees.
	if err := validateSNIRF(nirs, nirsKey); err != nil {
		return nil, structuralErr(path, nirsKey, err)
	}

	m := &schemaMapper{path: path}
	rec, err := m.mapRecording(nirs, nirsKey)
	if err != nil {
		return nil, err
	}
	rec.Path = path

	if err := rec.Validate(); err != nil {
		return nil, wrapFieldErr(path, "", err)
	}
	return rec, nil
}

// schemaMapper translates a validated object graph into the recording
// model, field by field, through the same coercions as the raw loader.
type schemaMapper struct {
	path string
}

func (m *schemaMapper) mapRecording(nirs api.Group, prefix string) (*recording.Recording, error) {
	rec := &recording.Recording{Metadata: map[string]any{}}
	groups := nameSet(nirs.ListSubgroups())

	if err := m.mapDataBlock(nirs, groups, prefix, rec); err != nil {
		return nil, err
	}
	if err := m.mapProbe(nirs, prefix, rec); err != nil {
		return nil, err
	}
	if err := m.mapStimuli(nirs, groups, prefix, rec); err != nil {
		return nil, err
	}
	if err := m.mapAux(nirs, groups, prefix, rec); err != nil {
		return nil, err
	}
	if err := m.mapMetadata(nirs, groups, prefix, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// value reads one dataset's container-native value.
func (m *schemaMapper) value(g api.Group, field, name string) (any, error) {
	v, err := g.GetVariable(name)
	if err != nil {
		return nil, structuralErr(m.path, field+"/"+name, err)
	}
	return v.Values, nil
}

func (m *schemaMapper) mapDataBlock(nirs api.Group, groups map[string]bool, prefix string, rec *recording.Recording) error {
	dataKey := "data"
	if !groups[dataKey] {
		dataKey = "data1"
	}
	data, err := nirs.GetGroup(dataKey)
	if err != nil {
		return structuralErr(m.path, prefix+"/"+dataKey, err)
	}
	defer data.Close()
	dataPrefix := prefix + "/" + dataKey

	raw, err := m.value(data, dataPrefix, "dataTimeSeries")
	if err != nil {
		return err
	}
	rows, err := coerce.FloatMatrix(raw)
	if err != nil {
		return wrapFieldErr(m.path, dataPrefix+"/dataTimeSeries", err)
	}
	if rec.Intensity, err = recording.NewMatrixFromRows(rows); err != nil {
		return structuralErr(m.path, dataPrefix+"/dataTimeSeries", err)
	}

	if raw, err = m.value(data, dataPrefix, "time"); err != nil {
		return err
	}
	if rec.Time, err = coerce.Floats(raw); err != nil {
		return wrapFieldErr(m.path, dataPrefix+"/time", err)
	}

	mlGroups := nameSet(data.ListSubgroups())
	for i := 1; ; i++ {
		mlKey := fmt.Sprintf("measurementList%d", i)
		if !mlGroups[mlKey] {
			break
		}
		ch, err := m.mapChannel(data, dataPrefix, mlKey)
		if err != nil {
			return err
		}
		rec.Channels = append(rec.Channels, ch)
	}
	return nil
}

func (m *schemaMapper) mapChannel(data api.Group, dataPrefix, mlKey string) (recording.Channel, error) {
	var ch recording.Channel

	ml, err := data.GetGroup(mlKey)
	if err != nil {
		return ch, structuralErr(m.path, dataPrefix+"/"+mlKey, err)
	}
	defer ml.Close()
	mlPrefix := dataPrefix + "/" + mlKey
	vars := nameSet(ml.ListVariables())

	readIndex := func(name string) (int, error) {
		raw, err := m.value(ml, mlPrefix, name)
		if err != nil {
			return 0, err
		}
		v, err := coerce.Int(raw)
		if err != nil {
			return 0, wrapFieldErr(m.path, mlPrefix+"/"+name, err)
		}
		return v, nil
	}

	if ch.SourceIndex, err = readIndex("sourceIndex"); err != nil {
		return ch, err
	}
	if ch.DetectorIndex, err = readIndex("detectorIndex"); err != nil {
		return ch, err
	}
	if ch.WavelengthIndex, err = readIndex("wavelengthIndex"); err != nil {
		return ch, err
	}
	if vars["dataType"] {
		if ch.DataType, err = readIndex("dataType"); err != nil {
			return ch, err
		}
	}
	if vars["dataTypeLabel"] {
		raw, err := m.value(ml, mlPrefix, "dataTypeLabel")
		if err != nil {
			return ch, err
		}
		if ch.DataTypeLabel, err = coerce.String(raw); err != nil {
			return ch, wrapFieldErr(m.path, mlPrefix+"/dataTypeLabel", err)
		}
	}
	return ch, nil
}

func (m *schemaMapper) mapProbe(nirs api.Group, prefix string, rec *recording.Recording) error {
	probe, err := nirs.GetGroup("probe")
	if err != nil {
		return structuralErr(m.path, prefix+"/probe", err)
	}
	defer probe.Close()
	probePrefix := prefix + "/probe"
	vars := nameSet(probe.ListVariables())

	readPos := func(name3D, name2D string) ([][]float64, error) {
		name := name3D
		if !vars[name] {
			name = name2D
		}
		raw, err := m.value(probe, probePrefix, name)
		if err != nil {
			return nil, err
		}
		pos, err := coerce.FloatMatrix(raw)
		if err != nil {
			return nil, wrapFieldErr(m.path, probePrefix+"/"+name, err)
		}
		return pos, nil
	}

	if rec.Probe.SourcePos, err = readPos("sourcePos3D", "sourcePos2D"); err != nil {
		return err
	}
	if rec.Probe.DetectorPos, err = readPos("detectorPos3D", "detectorPos2D"); err != nil {
		return err
	}

	raw, err := m.value(probe, probePrefix, "wavelengths")
	if err != nil {
		return err
	}
	if rec.Probe.Wavelengths, err = coerce.Floats(raw); err != nil {
		return wrapFieldErr(m.path, probePrefix+"/wavelengths", err)
	}

	readLabels := func(name, fallbackPrefix string, n int) ([]string, error) {
		if !vars[name] {
			return defaultLabels(fallbackPrefix, n), nil
		}
		raw, err := m.value(probe, probePrefix, name)
		if err != nil {
			return nil, err
		}
		labels, err := coerce.Strings(raw)
		if err != nil {
			return nil, wrapFieldErr(m.path, probePrefix+"/"+name, err)
		}
		return normalizeLabels(labels, fallbackPrefix, n), nil
	}

	if rec.Probe.SourceLabels, err = readLabels("sourceLabels", "S", len(rec.Probe.SourcePos)); err != nil {
		return err
	}
	if rec.Probe.DetectorLabels, err = readLabels("detectorLabels", "D", len(rec.Probe.DetectorPos)); err != nil {
		return err
	}
	return nil
}

func (m *schemaMapper) mapStimuli(nirs api.Group, groups map[string]bool, prefix string, rec *recording.Recording) error {
	for i := 1; ; i++ {
		stimKey := fmt.Sprintf("stim%d", i)
		if !groups[stimKey] {
			break
		}
		stim, err := nirs.GetGroup(stimKey)
		if err != nil {
			return structuralErr(m.path, prefix+"/"+stimKey, err)
		}

		err = func() error {
			defer stim.Close()
			stimPrefix := prefix + "/" + stimKey
			vars := nameSet(stim.ListVariables())

			name := stimKey
			if vars["name"] {
				raw, err := m.value(stim, stimPrefix, "name")
				if err != nil {
					return err
				}
				if name, err = coerce.String(raw); err != nil {
					return wrapFieldErr(m.path, stimPrefix+"/name", err)
				}
			}
			if !vars["data"] {
				return nil
			}
			raw, err := m.value(stim, stimPrefix, "data")
			if err != nil {
				return err
			}
			events, err := coerce.FloatMatrix(raw)
			if err != nil {
				return wrapFieldErr(m.path, stimPrefix+"/data", err)
			}
			if len(events) > 0 {
				rec.Stimuli = append(rec.Stimuli, stimulusFromMatrix(name, events))
			}
			return nil
		}()
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *schemaMapper) mapAux(nirs api.Group, groups map[string]bool, prefix string, rec *recording.Recording) error {
	for i := 1; ; i++ {
		auxKey := fmt.Sprintf("aux%d", i)
		if !groups[auxKey] {
			break
		}
		aux, err := nirs.GetGroup(auxKey)
		if err != nil {
			return structuralErr(m.path, prefix+"/"+auxKey, err)
		}

		err = func() error {
			defer aux.Close()
			auxPrefix := prefix + "/" + auxKey
			vars := nameSet(aux.ListVariables())

			ch := recording.AuxChannel{Name: auxKey}
			if vars["name"] {
				raw, err := m.value(aux, auxPrefix, "name")
				if err != nil {
					return err
				}
				if ch.Name, err = coerce.String(raw); err != nil {
					return wrapFieldErr(m.path, auxPrefix+"/name", err)
				}
			}
			raw, err := m.value(aux, auxPrefix, "time")
			if err != nil {
				return err
			}
			if ch.Time, err = coerce.Floats(raw); err != nil {
				return wrapFieldErr(m.path, auxPrefix+"/time", err)
			}
			if raw, err = m.value(aux, auxPrefix, "dataTimeSeries"); err != nil {
				return err
			}
			if ch.Values, err = coerce.Floats(raw); err != nil {
				return wrapFieldErr(m.path, auxPrefix+"/dataTimeSeries", err)
			}
			rec.Aux = append(rec.Aux, ch)
			return nil
		}()
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *schemaMapper) mapMetadata(nirs api.Group, groups map[string]bool, prefix string, rec *recording.Recording) error {
	if !groups["metaDataTags"] {
		return nil
	}
	mdt, err := nirs.GetGroup("metaDataTags")
	if err != nil {
		return structuralErr(m.path, prefix+"/metaDataTags", err)
	}
	defer mdt.Close()

	for _, key := range mdt.ListVariables() {
		raw, err := m.value(mdt, prefix+"/metaDataTags", key)
		if err != nil {
			return err
		}
		rec.Metadata[key] = metadataValue(raw)
	}
	return nil
}
