package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Crosscheck/internal/ahp"
)

func claimFor(t *testing.T, s *Service, in MatrixInput) Claim {
	t.Helper()
	calc, err := s.Calculate(in)
	require.NoError(t, err)
	return Claim{Weights: calc.ReferenceWeights, CR: calc.ReferenceCR}
}

var saaty3 = MatrixInput{
	Matrix: [][]float64{
		{1, 3, 5},
		{1.0 / 3, 1, 3},
		{0.2, 1.0 / 3, 1},
	},
	Items: []string{"A", "B", "C"},
}

func TestValidateProjectPartialFailure(t *testing.T) {
	s := newTestService(t, Options{})

	entries := map[string]ValidateInput{
		"bocr":     {MatrixInput: bocr, Claim: claimFor(t, s, bocr)},
		"criteria": {MatrixInput: saaty3, Claim: claimFor(t, s, saaty3)},
		"broken": {
			MatrixInput: MatrixInput{Matrix: [][]float64{{1, 2, 3}, {0.5, 1}}, Items: []string{"A", "B", "C"}},
			Claim:       Claim{Weights: []float64{0.5, 0.3, 0.2}},
		},
	}

	report, err := s.ValidateProject(context.Background(), entries, 0)
	require.NoError(t, err)
	require.Len(t, report.Results, 3)

	broken := report.Results["broken"]
	assert.True(t, broken.Failed())
	assert.Equal(t, ahp.KindShape, broken.ErrorKind)
	assert.NotEmpty(t, broken.Message)

	for _, name := range []string{"bocr", "criteria"} {
		r := report.Results[name]
		require.False(t, r.Failed(), name)
		assert.True(t, r.Comparison.Pass, name)
	}

	agg := report.Aggregate
	assert.False(t, agg.Pass, "errored entries count as fail")
	assert.Equal(t, 3, agg.Total)
	assert.Equal(t, 2, agg.Passed)
	assert.Equal(t, 0, agg.Failed)
	assert.Equal(t, 1, agg.Errored)
	assert.Equal(t, 0.0, agg.MaxDelta)
}

func TestValidateProjectAggregateMaxDelta(t *testing.T) {
	s := newTestService(t, Options{})

	off := claimFor(t, s, bocr)
	off.Weights = append([]float64(nil), off.Weights...)
	off.Weights[2] += 0.03

	entries := map[string]ValidateInput{
		"exact": {MatrixInput: saaty3, Claim: claimFor(t, s, saaty3)},
		"off":   {MatrixInput: bocr, Claim: off},
	}
	report, err := s.ValidateProject(context.Background(), entries, 0)
	require.NoError(t, err)

	assert.False(t, report.Aggregate.Pass)
	assert.Equal(t, 1, report.Aggregate.Failed)
	assert.InDelta(t, 0.03, report.Aggregate.MaxDelta, 1e-9)
	assert.InDelta(t, 0.015, report.Aggregate.MeanDelta, 1e-9)
}

func TestValidateProjectAllPass(t *testing.T) {
	s := newTestService(t, Options{Workers: 2})

	entries := make(map[string]ValidateInput)
	for i := 0; i < 10; i++ {
		in := saaty3
		if i%2 == 0 {
			in = bocr
		}
		entries[fmt.Sprintf("m%02d", i)] = ValidateInput{MatrixInput: in, Claim: claimFor(t, s, in)}
	}

	report, err := s.ValidateProject(context.Background(), entries, 0)
	require.NoError(t, err)
	assert.True(t, report.Aggregate.Pass)
	assert.Equal(t, 10, report.Aggregate.Passed)
}

func TestValidateProjectEmpty(t *testing.T) {
	s := newTestService(t, Options{})
	_, err := s.ValidateProject(context.Background(), nil, 0)
	assert.ErrorIs(t, err, ErrNoMatrices)

	_, err = s.ValidateBatch(context.Background(), nil, 0)
	assert.ErrorIs(t, err, ErrNoMatrices)
}

func TestValidateProjectCancelled(t *testing.T) {
	s := newTestService(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ValidateProject(ctx, map[string]ValidateInput{"bocr": {MatrixInput: bocr}}, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidateProjectUnavailable(t *testing.T) {
	s := NewService(ahp.NewValidator(0), brokenEngine{}, nil, Options{SelfCheck: true}, discardLogger())
	_ = s.CheckOracle()

	_, err := s.ValidateProject(context.Background(), map[string]ValidateInput{"bocr": {MatrixInput: bocr}}, 0)
	assert.Equal(t, ahp.KindServiceUnavailable, ahp.KindOf(err))
}

func TestValidateBatchKeepsOrder(t *testing.T) {
	s := newTestService(t, Options{})

	entries := []NamedInput{
		{Name: "z-last", ValidateInput: ValidateInput{MatrixInput: bocr, Claim: claimFor(t, s, bocr)}},
		{Name: "a-first", ValidateInput: ValidateInput{MatrixInput: saaty3, Claim: Claim{Weights: []float64{1}}}},
	}
	report, err := s.ValidateBatch(context.Background(), entries, 0)
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	assert.Equal(t, "z-last", report.Results[0].Name)
	assert.False(t, report.Results[0].Failed())
	assert.Equal(t, "a-first", report.Results[1].Name)
	assert.Equal(t, ahp.KindDimensionMismatch, report.Results[1].ErrorKind)
	assert.Equal(t, 1, report.Aggregate.Errored)
}

func TestEntryResultJSON(t *testing.T) {
	s := newTestService(t, Options{})
	report, err := s.ValidateProject(context.Background(), map[string]ValidateInput{
		"ok":  {MatrixInput: bocr, Claim: claimFor(t, s, bocr)},
		"bad": {MatrixInput: MatrixInput{Matrix: [][]float64{{1, 0}, {0, 1}}, Items: []string{"A", "B"}}},
	}, 0)
	require.NoError(t, err)

	raw, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded struct {
		Results map[string]map[string]interface{} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "RangeError", decoded.Results["bad"]["error_kind"])
	assert.NotContains(t, decoded.Results["bad"], "reference_weights")
	assert.Contains(t, decoded.Results["ok"], "reference_weights")
	assert.Contains(t, decoded.Results["ok"], "comparison")
	assert.NotContains(t, decoded.Results["ok"], "error_kind")
}

func TestValidateProjectRejectedEntry(t *testing.T) {
	s := newTestService(t, Options{})

	entries := map[string]ValidateInput{
		"bocr": {MatrixInput: bocr, Claim: claimFor(t, s, bocr)},
		"incomplete": {
			MatrixInput: bocr,
			Rejected:    ahp.NewError(ahp.KindBadRequest, "your_cr is required"),
		},
	}
	report, err := s.ValidateProject(context.Background(), entries, 0)
	require.NoError(t, err)

	r := report.Results["incomplete"]
	require.True(t, r.Failed())
	assert.Equal(t, ahp.KindBadRequest, r.ErrorKind)
	assert.Equal(t, "your_cr is required", r.Message)

	assert.Equal(t, 1, report.Aggregate.Passed)
	assert.Equal(t, 1, report.Aggregate.Errored)
	assert.False(t, report.Aggregate.Pass)
}

func TestValidateProjectEntryToleranceOverride(t *testing.T) {
	s := newTestService(t, Options{})

	off := claimFor(t, s, bocr)
	off.Weights = append([]float64(nil), off.Weights...)
	off.Weights[0] += 0.004

	report, err := s.ValidateProject(context.Background(), map[string]ValidateInput{
		"loose":  {MatrixInput: bocr, Claim: off, Tolerance: 0.005},
		"strict": {MatrixInput: bocr, Claim: off},
	}, 0.002)
	require.NoError(t, err)

	assert.True(t, report.Results["loose"].Comparison.Pass)
	assert.Equal(t, 0.005, report.Results["loose"].Comparison.Tolerance)
	assert.False(t, report.Results["strict"].Comparison.Pass)
	assert.Equal(t, 0.002, report.Results["strict"].Comparison.Tolerance)
}
