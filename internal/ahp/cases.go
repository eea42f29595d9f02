package ahp

import (
	"fmt"
	"math"
)

// ReferenceCase is a published matrix with known priorities, used to
// self-check an engine and offered to callers for their own validation.
type ReferenceCase struct {
	Name            string      `json:"name"`
	Source          string      `json:"source"`
	Matrix          [][]float64 `json:"matrix"`
	Items           []string    `json:"items"`
	ExpectedWeights []float64   `json:"expected_weights"`
	ExpectedCR      float64     `json:"expected_cr"`
	// Tolerance reflects the precision the values were published with.
	Tolerance float64 `json:"tolerance"`
}

// ReferenceCases returns the built-in literature cases. Each call returns
// fresh slices.
func ReferenceCases() []ReferenceCase {
	return []ReferenceCase{
		{
			Name:   "Saaty (1980) - Drinks Example",
			Source: "The Analytic Hierarchy Process, p.26",
			Matrix: [][]float64{
				{1, 9, 5, 2, 1, 1, 0.5},
				{1.0 / 9, 1, 1.0 / 3, 1.0 / 9, 1.0 / 9, 1.0 / 9, 1.0 / 9},
				{0.2, 3, 1, 1.0 / 3, 0.25, 1.0 / 3, 1.0 / 9},
				{0.5, 9, 3, 1, 0.5, 1, 1.0 / 3},
				{1, 9, 4, 2, 1, 2, 0.5},
				{1, 9, 3, 1, 0.5, 1, 1.0 / 3},
				{2, 9, 9, 3, 2, 3, 1},
			},
			Items:           []string{"Coffee", "Wine", "Tea", "Beer", "Sodas", "Milk", "Water"},
			ExpectedWeights: []float64{0.177, 0.019, 0.042, 0.116, 0.190, 0.129, 0.327},
			ExpectedCR:      0.022,
			Tolerance:       0.003,
		},
		{
			Name:   "Saaty (1980) - 3x3 Simple",
			Source: "Fundamentals of Decision Making",
			Matrix: [][]float64{
				{1, 3, 5},
				{1.0 / 3, 1, 3},
				{0.2, 1.0 / 3, 1},
			},
			Items:           []string{"A", "B", "C"},
			ExpectedWeights: []float64{0.637, 0.258, 0.105},
			ExpectedCR:      0.033,
			Tolerance:       0.001,
		},
		{
			Name:   "BOCR 4x4",
			Source: "Benefits, Opportunities, Costs, Risks merit weighting",
			Matrix: [][]float64{
				{1, 2, 3, 4},
				{0.5, 1, 2, 3},
				{0.333, 0.5, 1, 2},
				{0.25, 0.333, 0.5, 1},
			},
			Items:           []string{"Benefits", "Opportunities", "Costs", "Risks"},
			ExpectedWeights: []float64{0.4673, 0.2772, 0.1601, 0.0954},
			ExpectedCR:      0.0113,
			Tolerance:       0.001,
		},
	}
}

// SelfCheck runs every reference case through engine and fails on the first
// case whose weights or CR deviate beyond the case tolerance.
func SelfCheck(engine PriorityEngine, validator Validator) error {
	for _, c := range ReferenceCases() {
		m, err := validator.Validate(c.Matrix, c.Items)
		if err != nil {
			return fmt.Errorf("%s: %w", c.Name, err)
		}
		res, err := engine.ComputePriorities(m)
		if err != nil {
			return fmt.Errorf("%s: %w", c.Name, err)
		}
		for i, want := range c.ExpectedWeights {
			if d := math.Abs(res.Weights[i] - want); d > c.Tolerance {
				return fmt.Errorf("%s: weight %q off by %.5f", c.Name, c.Items[i], d)
			}
		}
		if d := math.Abs(res.CR - c.ExpectedCR); d > c.Tolerance {
			return fmt.Errorf("%s: CR off by %.5f", c.Name, d)
		}
	}
	return nil
}
