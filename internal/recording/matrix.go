package recording

import "fmt"

// Matrix is a dense row-major float64 matrix. Rows are samples, columns
// are channels. It is write-once: loaders fill it during construction
// and consumers only read.
type Matrix struct {
	rows int
	cols int
	data []float64
}

// NewMatrix wraps a row-major data slice as a rows×cols matrix.
// The slice is taken over, not copied.
func NewMatrix(rows, cols int, data []float64) (*Matrix, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("negative dimensions: %dx%d", rows, cols)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("data length %d does not match %dx%d", len(data), rows, cols)
	}
	return &Matrix{rows: rows, cols: cols, data: data}, nil
}

// NewMatrixFromRows builds a matrix from per-row slices, copying them
// into a single contiguous buffer. All rows must have equal length.
func NewMatrixFromRows(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 {
		return &Matrix{}, nil
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return &Matrix{rows: len(rows), cols: cols, data: data}, nil
}

// Rows returns the number of sample rows.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of channel columns.
func (m *Matrix) Cols() int { return m.cols }

// At returns the value at sample row r, channel column c.
func (m *Matrix) At(r, c int) float64 {
	if r < 0 || r >= m.rows || c < 0 || c >= m.cols {
		panic(fmt.Sprintf("recording: index (%d,%d) out of range %dx%d", r, c, m.rows, m.cols))
	}
	return m.data[r*m.cols+c]
}

// Column returns a copy of channel column c.
func (m *Matrix) Column(c int) []float64 {
	if c < 0 || c >= m.cols {
		panic(fmt.Sprintf("recording: column %d out of range %d", c, m.cols))
	}
	out := make([]float64, m.rows)
	for r := 0; r < m.rows; r++ {
		out[r] = m.data[r*m.cols+c]
	}
	return out
}

// Row returns a copy of sample row r.
func (m *Matrix) Row(r int) []float64 {
	if r < 0 || r >= m.rows {
		panic(fmt.Sprintf("recording: row %d out of range %d", r, m.rows))
	}
	out := make([]float64, m.cols)
	copy(out, m.data[r*m.cols:(r+1)*m.cols])
	return out
}

// Data returns the underlying row-major slice. Callers must not modify it.
func (m *Matrix) Data() []float64 { return m.data }
