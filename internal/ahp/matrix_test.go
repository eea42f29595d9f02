package ahp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateShape(t *testing.T) {
	v := NewValidator(0)

	tests := []struct {
		name   string
		matrix [][]float64
		items  []string
	}{
		{"empty", [][]float64{}, nil},
		{"single item", [][]float64{{1}}, []string{"A"}},
		{"ragged row", [][]float64{{1, 2}, {0.5}}, []string{"A", "B"}},
		{"not square", [][]float64{{1, 2, 3}, {0.5, 1, 2}}, []string{"A", "B"}},
		{"too few labels", [][]float64{{1, 2}, {0.5, 1}}, []string{"A"}},
		{"too many labels", [][]float64{{1, 2}, {0.5, 1}}, []string{"A", "B", "C"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.matrix, tt.items)
			require.Error(t, err)
			assert.Equal(t, KindShape, KindOf(err))
		})
	}
}

func TestValidateRange(t *testing.T) {
	v := NewValidator(0)
	items := []string{"A", "B"}

	tests := []struct {
		name   string
		matrix [][]float64
	}{
		{"zero entry", [][]float64{{1, 0}, {0.5, 1}}},
		{"negative entry", [][]float64{{1, -2}, {-0.5, 1}}},
		{"NaN entry", [][]float64{{1, math.NaN()}, {0.5, 1}}},
		{"infinite entry", [][]float64{{1, math.Inf(1)}, {0.5, 1}}},
		{"diagonal not one", [][]float64{{2, 2}, {0.5, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.matrix, items)
			require.Error(t, err)
			assert.Equal(t, KindRange, KindOf(err))
		})
	}
}

func TestValidateReciprocity(t *testing.T) {
	v := NewValidator(0)

	_, err := v.Validate([][]float64{
		{1, 3, 5},
		{0.5, 1, 2},
		{0.2, 0.5, 1},
	}, []string{"A", "B", "C"})
	require.Error(t, err)
	assert.Equal(t, KindReciprocity, KindOf(err))
	assert.Contains(t, err.Error(), "(0,1)")
}

func TestValidateAcceptsRoundedReciprocals(t *testing.T) {
	v := NewValidator(0)

	m, err := v.Validate([][]float64{
		{1, 3, 5},
		{0.333, 1, 2},
		{0.2, 0.5, 1},
	}, []string{"A", "B", "C"})
	require.NoError(t, err)
	assert.Equal(t, 3, m.Size())
}

func TestValidateTighterTolerance(t *testing.T) {
	v := NewValidator(1e-6)

	_, err := v.Validate([][]float64{{1, 3}, {0.333, 1}}, []string{"A", "B"})
	assert.Equal(t, KindReciprocity, KindOf(err))
}

func TestValidateNormalizesDiagonalWithoutMutatingInput(t *testing.T) {
	v := NewValidator(0)
	raw := [][]float64{{1.0004, 2}, {0.5, 0.9998}}
	items := []string{"A", "B"}

	m, err := v.Validate(raw, items)
	require.NoError(t, err)

	assert.Equal(t, 1.0, m.Values[0][0])
	assert.Equal(t, 1.0, m.Values[1][1])
	assert.Equal(t, 1.0004, raw[0][0], "input must not be modified")

	m.Items[0] = "changed"
	assert.Equal(t, "A", items[0])
}

func TestKindOfNonDomainError(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(assert.AnError))
	assert.False(t, IsKind(nil, KindShape))
}
