// Package coerce normalizes container-native values into plain Go
// scalars and sequences.
//
// HDF5 bindings hand back values whose dynamic shape depends on how the
// writer stored them: a scalar may arrive as a float64, a 1-element
// []float64, a 1×1 [][]float64, or a byte string. Both loader
// strategies route every extracted value through this package, which is
// what guarantees they build identical recordings from the same file.
package coerce

import (
	"errors"
	"fmt"
	"math"
	"reflect"
)

// ErrMalformedScalar reports a raw value with more than one element
// where exactly one scalar was expected, or a value whose dynamic type
// cannot represent the requested semantic type.
var ErrMalformedScalar = errors.New("malformed scalar")

func malformedf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrMalformedScalar}, args...)...)
}

// Scalar unwraps raw to a plain scalar: already-plain values are
// returned unchanged (bytes decoded to string), 1-element sequences are
// unwrapped recursively. Multi-element sequences fail.
func Scalar(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, malformedf("nil value")
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return raw, nil
	}

	rv := reflect.ValueOf(raw)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		if rv.Len() != 1 {
			return nil, malformedf("%d elements where one scalar expected", rv.Len())
		}
		return Scalar(rv.Index(0).Interface())
	}
	return nil, malformedf("unsupported type %T", raw)
}

// Float coerces raw to a float64, unwrapping 1-element sequences first.
func Float(raw any) (float64, error) {
	s, err := Scalar(raw)
	if err != nil {
		return 0, err
	}
	f, ok := asFloat(s)
	if !ok {
		return 0, malformedf("%T is not numeric", s)
	}
	return f, nil
}

// Int coerces raw to an int. Float inputs are accepted only when they
// carry an integral value (HDF5 files routinely store index fields as
// doubles).
func Int(raw any) (int, error) {
	s, err := Scalar(raw)
	if err != nil {
		return 0, err
	}
	switch v := s.(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint:
		return int(v), nil
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	default:
		return 0, malformedf("%T is not an integer", s)
	}
}

func floatToInt(f float64) (int, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, malformedf("%g is not an integral value", f)
	}
	return int(f), nil
}

// String coerces raw to a string, decoding byte-string encodings.
func String(raw any) (string, error) {
	s, err := Scalar(raw)
	if err != nil {
		return "", err
	}
	switch v := s.(type) {
	case string:
		return v, nil
	default:
		return "", malformedf("%T is not a string", s)
	}
}

// Floats coerces raw to a flat []float64. Scalars become a 1-element
// slice; nested 1-D sequences of any numeric width are converted
// element-wise. Plain already-flat []float64 values are returned
// unchanged (not copied).
func Floats(raw any) ([]float64, error) {
	switch v := raw.(type) {
	case nil:
		return nil, malformedf("nil value")
	case []float64:
		return v, nil
	}

	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		f, err := Float(raw)
		if err != nil {
			return nil, err
		}
		return []float64{f}, nil
	}

	out := make([]float64, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i).Interface()
		// Column vectors arrive as n×1 matrices; flatten them.
		if ev := reflect.ValueOf(elem); ev.Kind() == reflect.Slice || ev.Kind() == reflect.Array {
			inner, err := Floats(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, inner...)
			continue
		}
		f, ok := asFloat(elem)
		if !ok {
			return nil, malformedf("element %d: %T is not numeric", i, elem)
		}
		out = append(out, f)
	}
	return out, nil
}

// Strings coerces raw to a []string: a single string (or byte string)
// becomes a 1-element slice, sequences are decoded element-wise.
func Strings(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, malformedf("nil value")
	case string:
		return []string{v}, nil
	case []byte:
		return []string{string(v)}, nil
	case []string:
		return v, nil
	case [][]byte:
		out := make([]string, len(v))
		for i, b := range v {
			out[i] = string(b)
		}
		return out, nil
	}

	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, malformedf("%T is not a string sequence", raw)
	}
	out := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		s, err := String(rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// FloatMatrix coerces raw to a dense [][]float64. A flat []float64 is
// treated as a single row. Ragged rows fail.
func FloatMatrix(raw any) ([][]float64, error) {
	switch v := raw.(type) {
	case nil:
		return nil, malformedf("nil value")
	case [][]float64:
		return checkRect(v)
	case []float64:
		return [][]float64{v}, nil
	}

	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, malformedf("%T is not a matrix", raw)
	}
	out := make([][]float64, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		row, err := Floats(rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, row)
	}
	return checkRect(out)
}

func checkRect(rows [][]float64) ([][]float64, error) {
	for i := 1; i < len(rows); i++ {
		if len(rows[i]) != len(rows[0]) {
			return nil, malformedf("ragged matrix: row %d has %d values, want %d",
				i, len(rows[i]), len(rows[0]))
		}
	}
	return rows, nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
