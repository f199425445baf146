package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrShapeMismatch reports co-registered grids of differing dimensions.
// The solver has no defined behavior for misaligned grids, so this is a
// caller-level precondition violation rather than a per-cell outcome.
var ErrShapeMismatch = errors.New("grid shape mismatch")

// Field is a 2-D grid of float64 values stored row-major:
// vals[row*Cols+col]. Missing cells are NaN.
type Field struct {
	Rows int
	Cols int
	Vals []float64
}

// NewField allocates a Rows×Cols field with every cell missing.
func NewField(rows, cols int) *Field {
	vals := make([]float64, rows*cols)
	for i := range vals {
		vals[i] = math.NaN()
	}
	return &Field{Rows: rows, Cols: cols, Vals: vals}
}

// NewFieldFrom wraps an existing row-major slice as a field.
// Returns an error if the slice length does not match rows·cols.
func NewFieldFrom(rows, cols int, vals []float64) (*Field, error) {
	if len(vals) != rows*cols {
		return nil, fmt.Errorf("%w: %d values for %dx%d grid", ErrShapeMismatch, len(vals), rows, cols)
	}
	return &Field{Rows: rows, Cols: cols, Vals: vals}, nil
}

// At returns the value at (row, col). Missing cells are NaN.
func (f *Field) At(row, col int) float64 {
	return f.Vals[row*f.Cols+col]
}

// Set writes the value at (row, col).
func (f *Field) Set(row, col int, v float64) {
	f.Vals[row*f.Cols+col] = v
}

// SetMissing marks the cell at (row, col) missing.
func (f *Field) SetMissing(row, col int) {
	f.Vals[row*f.Cols+col] = math.NaN()
}

// IsMissing reports whether the cell at (row, col) is missing.
func (f *Field) IsMissing(row, col int) bool {
	return math.IsNaN(f.Vals[row*f.Cols+col])
}

// SameShape reports whether f and g have identical dimensions.
func (f *Field) SameShape(g *Field) bool {
	return f.Rows == g.Rows && f.Cols == g.Cols
}

// checkShapes verifies that every grid matches the first one's dimensions.
func checkShapes(fields ...*Field) error {
	for i := 1; i < len(fields); i++ {
		if !fields[0].SameShape(fields[i]) {
			return fmt.Errorf("%w: %dx%d vs %dx%d",
				ErrShapeMismatch,
				fields[0].Rows, fields[0].Cols,
				fields[i].Rows, fields[i].Cols)
		}
	}
	return nil
}
