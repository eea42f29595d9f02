package ahp

import (
	"fmt"
	"sort"
)

// RandomIndex maps matrix size to the expected CI of a random reciprocal
// matrix of that size. A RandomIndex is immutable once built.
type RandomIndex struct {
	values map[int]float64
	max    int
}

// saatyRandomIndex is Saaty's (1980) published table.
var saatyRandomIndex = map[int]float64{
	1: 0, 2: 0, 3: 0.58, 4: 0.90, 5: 1.12,
	6: 1.24, 7: 1.32, 8: 1.41, 9: 1.45, 10: 1.49,
	11: 1.52, 12: 1.54, 13: 1.56, 14: 1.58, 15: 1.59,
}

// DefaultRandomIndex returns Saaty's table for n = 1..15.
func DefaultRandomIndex() RandomIndex {
	ri, _ := NewRandomIndex(saatyRandomIndex)
	return ri
}

// NewRandomIndex copies values into a new table. Keys must be positive and
// values non-negative; sizes above 2 need a positive index since CR divides by it.
func NewRandomIndex(values map[int]float64) (RandomIndex, error) {
	ri := RandomIndex{values: make(map[int]float64, len(values))}
	for n, v := range values {
		if n < 1 {
			return RandomIndex{}, fmt.Errorf("random index: invalid size %d", n)
		}
		if v < 0 || (n > 2 && v == 0) {
			return RandomIndex{}, fmt.Errorf("random index: invalid value %g for n=%d", v, n)
		}
		ri.values[n] = v
		if n > ri.max {
			ri.max = n
		}
	}
	return ri, nil
}

// WithOverrides returns a new table holding ri's values with overrides applied.
func (ri RandomIndex) WithOverrides(overrides map[int]float64) (RandomIndex, error) {
	merged := make(map[int]float64, len(ri.values)+len(overrides))
	for n, v := range ri.values {
		merged[n] = v
	}
	for n, v := range overrides {
		merged[n] = v
	}
	return NewRandomIndex(merged)
}

// Lookup returns the random index for size n.
func (ri RandomIndex) Lookup(n int) (float64, bool) {
	v, ok := ri.values[n]
	return v, ok
}

// MaxSize returns the largest size in the table.
func (ri RandomIndex) MaxSize() int {
	return ri.max
}

// Sizes returns the table's sizes in ascending order.
func (ri RandomIndex) Sizes() []int {
	sizes := make([]int, 0, len(ri.values))
	for n := range ri.values {
		sizes = append(sizes, n)
	}
	sort.Ints(sizes)
	return sizes
}

// orDefault lets zero-value tables fall back to Saaty's values.
func (ri RandomIndex) orDefault() RandomIndex {
	if ri.values == nil {
		return DefaultRandomIndex()
	}
	return ri
}
