package ahp

import "math"

// DefaultReciprocityTolerance accepts rounded decimals such as 0.333 for 1/3.
const DefaultReciprocityTolerance = 1e-3

// Matrix is a validated reciprocal pairwise-comparison matrix.
// Values[i][j] is the preference of Items[i] over Items[j].
type Matrix struct {
	Items  []string
	Values [][]float64
}

// Size returns n for an n×n matrix.
func (m *Matrix) Size() int {
	return len(m.Values)
}

// Validator checks raw input before it reaches a PriorityEngine.
type Validator struct {
	// Tolerance bounds both |m[i][j]*m[j][i] - 1| and |m[i][i] - 1|.
	Tolerance float64
}

// NewValidator returns a Validator with the given tolerance, or the default
// when tol is not positive.
func NewValidator(tol float64) Validator {
	if tol <= 0 {
		tol = DefaultReciprocityTolerance
	}
	return Validator{Tolerance: tol}
}

// Validate checks shape, range and reciprocity in that order and returns a
// copy of the matrix with its diagonal forced to exactly 1.
func (v Validator) Validate(values [][]float64, items []string) (*Matrix, error) {
	n := len(values)
	if n < 2 {
		return nil, newError(KindShape, "matrix must be at least 2x2, got %d rows", n)
	}
	for i, row := range values {
		if len(row) != n {
			return nil, newError(KindShape, "matrix is not square: row %d has %d columns, expected %d", i, len(row), n)
		}
	}
	if len(items) != n {
		return nil, newError(KindShape, "got %d item labels for a %dx%d matrix", len(items), n, n)
	}

	for i, row := range values {
		for j, x := range row {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, newError(KindRange, "entry (%d,%d) is not finite", i, j)
			}
			if x <= 0 {
				return nil, newError(KindRange, "entry (%d,%d) must be positive, got %g", i, j, x)
			}
		}
		if math.Abs(row[i]-1) > v.Tolerance {
			return nil, newError(KindRange, "diagonal entry (%d,%d) must be 1, got %g", i, i, row[i])
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			product := values[i][j] * values[j][i]
			if math.Abs(product-1) > v.Tolerance {
				return nil, newError(KindReciprocity,
					"entries (%d,%d)=%g and (%d,%d)=%g are not reciprocal (product %g)",
					i, j, values[i][j], j, i, values[j][i], product)
			}
		}
	}

	out := &Matrix{
		Items:  append([]string(nil), items...),
		Values: make([][]float64, n),
	}
	for i, row := range values {
		out.Values[i] = append([]float64(nil), row...)
		out.Values[i][i] = 1.0
	}
	return out, nil
}
