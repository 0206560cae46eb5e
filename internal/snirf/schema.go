package snirf

import (
	"fmt"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// The SNIRF schema, as far as this loader needs it, expressed as
// declarative rules. SchemaLoader validates the whole object graph
// against these before mapping a single field, so a malformed file is
// rejected with the first failing node named instead of producing a
// partially sensible recording.

// datasetRule constrains one dataset within a group.
type datasetRule struct {
	name     string
	required bool
	minRank  int // 0 permits scalar storage
	maxRank  int
}

// oneOfRule requires at least one of the named datasets (3D positions
// take precedence over 2D when both are present).
type oneOfRule struct {
	names   []string
	minRank int
	maxRank int
}

var dataRules = []datasetRule{
	{name: "dataTimeSeries", required: true, minRank: 1, maxRank: 2},
	{name: "time", required: true, minRank: 0, maxRank: 2},
}

var measurementListRules = []datasetRule{
	{name: "sourceIndex", required: true, maxRank: 1},
	{name: "detectorIndex", required: true, maxRank: 1},
	{name: "wavelengthIndex", required: true, maxRank: 1},
	{name: "dataType", maxRank: 1},
	{name: "dataTypeLabel", maxRank: 1},
}

var probeRules = []datasetRule{
	{name: "wavelengths", required: true, minRank: 0, maxRank: 2},
	{name: "sourceLabels", maxRank: 2},
	{name: "detectorLabels", maxRank: 2},
}

var probePositionRules = []oneOfRule{
	{names: []string{"sourcePos3D", "sourcePos2D"}, minRank: 2, maxRank: 2},
	{names: []string{"detectorPos3D", "detectorPos2D"}, minRank: 2, maxRank: 2},
}

var stimRules = []datasetRule{
	{name: "name", maxRank: 1},
	{name: "data", maxRank: 2},
}

var auxRules = []datasetRule{
	{name: "name", maxRank: 1},
	{name: "time", required: true, minRank: 0, maxRank: 2},
	{name: "dataTimeSeries", required: true, minRank: 0, maxRank: 2},
}

// schemaViolation is the structural cause reported when validation
// fails; Node names the offending group or dataset path.
type schemaViolation struct {
	Node   string
	Reason string
}

// Error implements the error interface.
func (v *schemaViolation) Error() string {
	return fmt.Sprintf("schema violation at %s: %s", v.Node, v.Reason)
}

func violationf(node, format string, args ...any) error {
	return &schemaViolation{Node: node, Reason: fmt.Sprintf(format, args...)}
}

// validateSNIRF checks the nirs group of an opened container against
// the schema rules above. prefix is the group path used in diagnostics.
func validateSNIRF(nirs api.Group, prefix string) error {
	groups := nameSet(nirs.ListSubgroups())

	// Data block: data or data1, with contiguous measurementList1..N.
	dataKey := "data"
	if !groups[dataKey] {
		dataKey = "data1"
	}
	if !groups[dataKey] {
		return violationf(prefix+"/data", "required group missing")
	}
	data, err := nirs.GetGroup(dataKey)
	if err != nil {
		return violationf(prefix+"/"+dataKey, "open group: %v", err)
	}
	defer data.Close()

	dataPrefix := prefix + "/" + dataKey
	if err := checkRules(data, dataPrefix, dataRules); err != nil {
		return err
	}
	mlGroups := nameSet(data.ListSubgroups())
	nChannels := 0
	for i := 1; ; i++ {
		mlKey := fmt.Sprintf("measurementList%d", i)
		if !mlGroups[mlKey] {
			break
		}
		ml, err := data.GetGroup(mlKey)
		if err != nil {
			return violationf(dataPrefix+"/"+mlKey, "open group: %v", err)
		}
		err = checkRules(ml, dataPrefix+"/"+mlKey, measurementListRules)
		ml.Close()
		if err != nil {
			return err
		}
		nChannels++
	}
	if nChannels == 0 {
		return violationf(dataPrefix+"/measurementList1", "no measurement list groups")
	}
	for name := range mlGroups {
		var idx int
		if n, _ := fmt.Sscanf(name, "measurementList%d", &idx); n == 1 && idx > nChannels {
			return violationf(dataPrefix+"/"+name,
				"non-contiguous numbering: %d groups counted", nChannels)
		}
	}

	// Probe geometry.
	if !groups["probe"] {
		return violationf(prefix+"/probe", "required group missing")
	}
	probe, err := nirs.GetGroup("probe")
	if err != nil {
		return violationf(prefix+"/probe", "open group: %v", err)
	}
	defer probe.Close()
	if err := checkRules(probe, prefix+"/probe", probeRules); err != nil {
		return err
	}
	for _, rule := range probePositionRules {
		if err := checkOneOf(probe, prefix+"/probe", rule); err != nil {
			return err
		}
	}

	// Optional numbered stim and aux groups.
	for i := 1; ; i++ {
		stimKey := fmt.Sprintf("stim%d", i)
		if !groups[stimKey] {
			break
		}
		stim, err := nirs.GetGroup(stimKey)
		if err != nil {
			return violationf(prefix+"/"+stimKey, "open group: %v", err)
		}
		err = checkRules(stim, prefix+"/"+stimKey, stimRules)
		stim.Close()
		if err != nil {
			return err
		}
	}
	for i := 1; ; i++ {
		auxKey := fmt.Sprintf("aux%d", i)
		if !groups[auxKey] {
			break
		}
		aux, err := nirs.GetGroup(auxKey)
		if err != nil {
			return violationf(prefix+"/"+auxKey, "open group: %v", err)
		}
		err = checkRules(aux, prefix+"/"+auxKey, auxRules)
		aux.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// checkRules verifies presence and rank of each ruled dataset in g.
func checkRules(g api.Group, prefix string, rules []datasetRule) error {
	vars := nameSet(g.ListVariables())
	for _, rule := range rules {
		if !vars[rule.name] {
			if rule.required {
				return violationf(prefix+"/"+rule.name, "required dataset missing")
			}
			continue
		}
		if err := checkRank(g, prefix, rule.name, rule.minRank, rule.maxRank); err != nil {
			return err
		}
	}
	return nil
}

func checkOneOf(g api.Group, prefix string, rule oneOfRule) error {
	vars := nameSet(g.ListVariables())
	for _, name := range rule.names {
		if vars[name] {
			return checkRank(g, prefix, name, rule.minRank, rule.maxRank)
		}
	}
	return violationf(prefix+"/"+rule.names[len(rule.names)-1],
		"none of %v present", rule.names)
}

// checkRank inspects a dataset's dimensionality without reading its
// values.
func checkRank(g api.Group, prefix, name string, minRank, maxRank int) error {
	getter, err := g.GetVarGetter(name)
	if err != nil {
		return violationf(prefix+"/"+name, "open dataset: %v", err)
	}
	rank := len(getter.Dimensions())
	if rank < minRank || rank > maxRank {
		return violationf(prefix+"/"+name, "rank %d outside [%d,%d]", rank, minRank, maxRank)
	}
	return nil
}

func nameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
