package ahp

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Engine names accepted by NewEngine.
const (
	EnginePower         = "power"
	EngineGeometricMean = "geometric_mean"
	EngineEigen         = "eigen"
)

const (
	DefaultMaxIterations        = 1000
	DefaultConvergenceThreshold = 1e-10
)

// Result is the reference computation for one matrix.
type Result struct {
	Weights    []float64 `json:"weights"`
	LambdaMax  float64   `json:"lambda_max"`
	CI         float64   `json:"ci"`
	RI         float64   `json:"ri"`
	CR         float64   `json:"cr"`
	Engine     string    `json:"engine"`
	Iterations int       `json:"iterations"`
}

// PriorityEngine computes priority weights and consistency for a validated
// matrix. Implementations must be deterministic and safe for concurrent use.
type PriorityEngine interface {
	Name() string
	ComputePriorities(m *Matrix) (*Result, error)
}

// EngineOptions configures the engines built by NewEngine.
type EngineOptions struct {
	MaxIterations        int
	ConvergenceThreshold float64
	RandomIndex          RandomIndex
}

// DefaultEngineOptions returns the power-method defaults and Saaty's RI table.
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		MaxIterations:        DefaultMaxIterations,
		ConvergenceThreshold: DefaultConvergenceThreshold,
		RandomIndex:          DefaultRandomIndex(),
	}
}

// NewEngine builds the named engine.
func NewEngine(name string, opts EngineOptions) (PriorityEngine, error) {
	switch name {
	case EnginePower, "":
		return NewPowerEngine(opts), nil
	case EngineGeometricMean:
		return NewGeometricMeanEngine(opts.RandomIndex), nil
	case EngineEigen:
		return NewEigenEngine(opts.RandomIndex), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", name)
	}
}

// lookupRI fails with UnsupportedSizeError before any numeric work is done.
func lookupRI(table RandomIndex, n int) (float64, error) {
	ri, ok := table.Lookup(n)
	if !ok {
		return 0, newError(KindUnsupportedSize, "no random index for n=%d (supported up to %d)", n, table.MaxSize())
	}
	return ri, nil
}

func denseOf(m *Matrix) *mat.Dense {
	n := m.Size()
	data := make([]float64, 0, n*n)
	for _, row := range m.Values {
		data = append(data, row...)
	}
	return mat.NewDense(n, n, data)
}

// consistency derives λmax, CI and CR from sum-normalised weights.
// λmax is the Rayleigh quotient of w against a.
func consistency(a *mat.Dense, w []float64, ri float64, engine string, iterations int) *Result {
	n := len(w)
	aw := mat.NewVecDense(n, nil)
	aw.MulVec(a, mat.NewVecDense(n, w))
	lambda := floats.Dot(w, aw.RawVector().Data) / floats.Dot(w, w)
	// the principal eigenvalue of a positive reciprocal matrix is never below n
	if lambda < float64(n) {
		lambda = float64(n)
	}

	res := &Result{
		Weights:    w,
		LambdaMax:  lambda,
		RI:         ri,
		Engine:     engine,
		Iterations: iterations,
	}
	if n > 2 {
		res.CI = (lambda - float64(n)) / float64(n-1)
		if ri > 0 {
			res.CR = res.CI / ri
		}
	}
	return res
}

// normalize scales w in place to sum to 1.
func normalize(w []float64) bool {
	s := floats.Sum(w)
	if s == 0 {
		return false
	}
	floats.Scale(1/s, w)
	return true
}
