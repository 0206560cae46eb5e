// Package snirf loads SNIRF container files (an HDF5-based schema for
// near-infrared spectroscopy recordings) into the recording data model.
//
// Two interchangeable strategies implement the Loader interface:
//
//   - RawLoader walks the HDF5 group/dataset hierarchy directly through
//     the gonum libhdf5 bindings, trusting the file to follow the
//     documented naming convention. Fast; no conformance checking
//     beyond what it needs to read.
//   - SchemaLoader reads the container through an independent pure-Go
//     HDF5 stack and validates the whole object graph against a
//     declarative SNIRF schema table before mapping a single field.
//     The conservative choice for untrusted files.
//
// Both strategies must produce structurally identical recordings for
// any valid file; every scalar they extract passes through the coerce
// package, and every recording they return has passed Validate.
//
// Loading is all-or-nothing: a failure returns a typed *LoadError and
// no recording, and all file handles are released on every exit path.
package snirf
