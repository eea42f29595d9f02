package validation

import (
	"math"

	"github.com/MikeSquared-Agency/Crosscheck/internal/ahp"
)

// DefaultTolerance is the 0.1% absolute tolerance quoted in validation claims.
const DefaultTolerance = 0.001

// Reference weights below this have no meaningful relative delta.
const nearZeroWeight = 1e-12

// Claim is what the calling application computed for a matrix.
type Claim struct {
	Weights   []float64
	CR        float64
	LambdaMax *float64
}

// ItemDelta compares one item's claimed weight with the reference weight.
type ItemDelta struct {
	Item      string  `json:"item"`
	Reference float64 `json:"reference"`
	Claimed   float64 `json:"claimed"`
	Delta     float64 `json:"delta"`
	// RelativeDelta is nil when the reference weight is effectively zero.
	RelativeDelta *float64 `json:"relative_delta"`
	Pass          bool     `json:"pass"`
}

// Comparison is the outcome of diffing a Claim against a reference result.
type Comparison struct {
	Deltas      []ItemDelta `json:"deltas"`
	CRDelta     float64     `json:"cr_delta"`
	LambdaDelta *float64    `json:"lambda_delta,omitempty"`
	MaxDelta    float64     `json:"max_delta"`
	WeightsPass bool        `json:"weights_pass"`
	CRPass      bool        `json:"cr_pass"`
	Pass        bool        `json:"pass"`
	Tolerance   float64     `json:"tolerance"`
}

// Comparator applies an absolute tolerance to weight and CR deltas.
type Comparator struct {
	Tolerance float64
}

// NewComparator returns a Comparator, using DefaultTolerance when tol is not positive.
func NewComparator(tol float64) Comparator {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	return Comparator{Tolerance: tol}
}

// toleranceSlack absorbs the rounding of decimal claims, so that
// |0.801 - 0.8| still counts as equal to a tolerance of 0.001.
const toleranceSlack = 1e-9

// WithinTolerance is inclusive: a delta equal to the tolerance passes.
func WithinTolerance(delta, tol float64) bool {
	return delta <= tol*(1+toleranceSlack)
}

// Compare diffs claim against ref. items labels the deltas and may be shorter
// than the weights, in which case missing labels are left empty.
func (c Comparator) Compare(ref *ahp.Result, items []string, claim Claim) (*Comparison, error) {
	n := len(ref.Weights)
	if len(claim.Weights) != n {
		return nil, ahp.NewError(ahp.KindDimensionMismatch,
			"claimed %d weights for %d items", len(claim.Weights), n)
	}

	cmp := &Comparison{
		Deltas:      make([]ItemDelta, n),
		WeightsPass: true,
		Tolerance:   c.Tolerance,
	}
	for i, r := range ref.Weights {
		d := ItemDelta{
			Reference: r,
			Claimed:   claim.Weights[i],
			Delta:     math.Abs(claim.Weights[i] - r),
		}
		if i < len(items) {
			d.Item = items[i]
		}
		if r > nearZeroWeight {
			rel := d.Delta / r
			d.RelativeDelta = &rel
		}
		d.Pass = WithinTolerance(d.Delta, c.Tolerance)
		if !d.Pass {
			cmp.WeightsPass = false
		}
		cmp.MaxDelta = math.Max(cmp.MaxDelta, d.Delta)
		cmp.Deltas[i] = d
	}

	cmp.CRDelta = math.Abs(claim.CR - ref.CR)
	cmp.CRPass = WithinTolerance(cmp.CRDelta, c.Tolerance)
	cmp.MaxDelta = math.Max(cmp.MaxDelta, cmp.CRDelta)

	if claim.LambdaMax != nil {
		ld := math.Abs(*claim.LambdaMax - ref.LambdaMax)
		cmp.LambdaDelta = &ld
	}

	cmp.Pass = cmp.WeightsPass && cmp.CRPass
	return cmp, nil
}
