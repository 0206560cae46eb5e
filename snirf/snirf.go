// Package snirf exposes the public API for loading SNIRF container
// files.
//
// Two interchangeable strategies implement the Loader interface: a raw
// HDF5 traversal (fast, trusts the file) and a schema-validating
// loader (conservative, rejects malformed files before mapping). The
// Manager orchestrates strategy selection and caches derived channel
// qualities.
//
// Example:
//
//	m := snirf.NewManager(log.Logger())
//	rec, err := m.LoadFile("subject01.snirf")
//	if err != nil {
//	    if errors.Is(err, snirf.ErrStructuralInvalid) {
//	        // surface a format diagnostic
//	    }
//	    return err
//	}
//	for _, q := range m.ChannelQualities(rec) {
//	    fmt.Println(q.Channel, q.Class, q.CV)
//	}
package snirf

import (
	"github.com/rs/zerolog"

	"github.com/leafnirs/leafnirs/internal/manager"
	"github.com/leafnirs/leafnirs/internal/snirf"
)

// Extension is the file extension SNIRF containers must carry.
const Extension = snirf.Extension

// Loader populates the recording data model from a SNIRF file.
type Loader = snirf.Loader

// RawLoader walks the HDF5 hierarchy directly by naming convention.
type RawLoader = snirf.RawLoader

// SchemaLoader validates the object graph against the SNIRF schema
// before mapping.
type SchemaLoader = snirf.SchemaLoader

// LoadError is the typed failure returned by every Loader.
type LoadError = snirf.LoadError

// Kind classifies a load failure.
type Kind = snirf.Kind

// Load failure kinds.
const (
	KindFileNotFound         Kind = snirf.KindFileNotFound
	KindUnsupportedExtension Kind = snirf.KindUnsupportedExtension
	KindStructuralInvalid    Kind = snirf.KindStructuralInvalid
	KindMalformedScalar      Kind = snirf.KindMalformedScalar
)

// Sentinel errors, matchable with errors.Is.
var (
	ErrFileNotFound         = snirf.ErrFileNotFound
	ErrUnsupportedExtension = snirf.ErrUnsupportedExtension
	ErrStructuralInvalid    = snirf.ErrStructuralInvalid
	ErrMalformedScalar      = snirf.ErrMalformedScalar
)

// NewRawLoader returns the raw-traversal strategy.
func NewRawLoader() *RawLoader { return snirf.NewRawLoader() }

// NewSchemaLoader returns the schema-validating strategy.
func NewSchemaLoader() *SchemaLoader { return snirf.NewSchemaLoader() }

// Strategy selects which loader a Manager dispatches to.
type Strategy = manager.Strategy

// Available strategies.
const (
	StrategyRaw    Strategy = manager.StrategyRaw
	StrategySchema Strategy = manager.StrategySchema
)

// ParseStrategy maps a preference name to a Strategy.
func ParseStrategy(name string) Strategy { return manager.ParseStrategy(name) }

// Manager orchestrates the loader strategies.
type Manager = manager.Manager

// NewManager returns a manager with both strategies registered and the
// raw strategy selected.
func NewManager(logger zerolog.Logger) *Manager { return manager.New(logger) }
