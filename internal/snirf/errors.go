package snirf

import (
	"errors"
	"fmt"
)

// Sentinel errors for the four terminal failure kinds. Matchable with
// errors.Is against any error returned by a Loader.
var (
	ErrFileNotFound         = errors.New("file not found")
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrStructuralInvalid    = errors.New("structurally invalid SNIRF file")
	ErrMalformedScalar      = errors.New("malformed scalar value")
)

// Kind classifies a load failure.
type Kind int

// Load failure kinds.
const (
	KindUnknown Kind = iota
	KindFileNotFound
	KindUnsupportedExtension
	KindStructuralInvalid
	KindMalformedScalar
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindFileNotFound:
		return "file_not_found"
	case KindUnsupportedExtension:
		return "unsupported_extension"
	case KindStructuralInvalid:
		return "structural_invalid"
	case KindMalformedScalar:
		return "malformed_scalar"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindFileNotFound:
		return ErrFileNotFound
	case KindUnsupportedExtension:
		return ErrUnsupportedExtension
	case KindStructuralInvalid:
		return ErrStructuralInvalid
	case KindMalformedScalar:
		return ErrMalformedScalar
	default:
		return nil
	}
}

// LoadError is the typed failure returned by every Loader. It carries
// the file path and, when known, the container field involved.
type LoadError struct {
	Kind  Kind
	Path  string // file being loaded
	Field string // group/dataset path or field name, "" if not applicable
	Err   error  // underlying cause, may be nil
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	msg := fmt.Sprintf("load %s: %s", e.Path, e.Kind)
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error { return e.Err }

// Is matches the kind's sentinel, so callers can test
// errors.Is(err, snirf.ErrStructuralInvalid) without unwrapping.
func (e *LoadError) Is(target error) bool { return target == e.Kind.sentinel() }

func loadErr(kind Kind, path, field string, err error) *LoadError {
	return &LoadError{Kind: kind, Path: path, Field: field, Err: err}
}

func structuralErr(path, field string, err error) *LoadError {
	return loadErr(KindStructuralInvalid, path, field, err)
}
