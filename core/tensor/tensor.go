// Package tensor provides the small set of row/column helpers the forecasting
// pipeline needs on top of gonum/mat: copying row ranges of a window, stacking
// per-component columns and extracting columns as slices.
package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/dicl/pkg/errors"
)

// Rows returns a copy of rows [start, end) of m.
func Rows(m mat.Matrix, start, end int) (*mat.Dense, error) {
	r, c := m.Dims()
	if start < 0 || end > r || start >= end {
		return nil, errors.NewValueError("tensor.Rows",
			fmt.Sprintf("invalid row range [%d, %d) for %d rows", start, end, r))
	}

	out := mat.NewDense(end-start, c, nil)
	for i := start; i < end; i++ {
		for j := 0; j < c; j++ {
			out.Set(i-start, j, m.At(i, j))
		}
	}
	return out, nil
}

// Column returns column j of m as a new slice.
func Column(m mat.Matrix, j int) []float64 {
	r, _ := m.Dims()
	col := make([]float64, r)
	for i := 0; i < r; i++ {
		col[i] = m.At(i, j)
	}
	return col
}

// Row returns row i of m as a new slice.
func Row(m mat.Matrix, i int) []float64 {
	_, c := m.Dims()
	row := make([]float64, c)
	for j := 0; j < c; j++ {
		row[j] = m.At(i, j)
	}
	return row
}

// HStack builds a len(cols[0]) × len(cols) matrix whose j-th column is cols[j].
func HStack(cols [][]float64) (*mat.Dense, error) {
	if len(cols) == 0 || len(cols[0]) == 0 {
		return nil, errors.NewModelError("tensor.HStack", "no columns", errors.ErrEmptyData)
	}

	r := len(cols[0])
	out := mat.NewDense(r, len(cols), nil)
	for j, col := range cols {
		if len(col) != r {
			return nil, errors.NewDimensionError("tensor.HStack", r, len(col), 0)
		}
		out.SetCol(j, col)
	}
	return out, nil
}

// Zeros returns an r × c zero matrix.
func Zeros(r, c int) *mat.Dense {
	return mat.NewDense(r, c, nil)
}
