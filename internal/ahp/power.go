package ahp

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// PowerEngine extracts the principal eigenvector by repeated multiplication
// from the uniform start vector.
type PowerEngine struct {
	maxIterations int
	threshold     float64
	ri            RandomIndex
}

func NewPowerEngine(opts EngineOptions) *PowerEngine {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.ConvergenceThreshold <= 0 {
		opts.ConvergenceThreshold = DefaultConvergenceThreshold
	}
	return &PowerEngine{
		maxIterations: opts.MaxIterations,
		threshold:     opts.ConvergenceThreshold,
		ri:            opts.RandomIndex.orDefault(),
	}
}

func (e *PowerEngine) Name() string { return EnginePower }

func (e *PowerEngine) ComputePriorities(m *Matrix) (*Result, error) {
	n := m.Size()
	ri, err := lookupRI(e.ri, n)
	if err != nil {
		return nil, err
	}

	a := denseOf(m)
	cur := make([]float64, n)
	for i := range cur {
		cur[i] = 1 / float64(n)
	}
	next := make([]float64, n)
	curVec := mat.NewVecDense(n, cur)
	nextVec := mat.NewVecDense(n, next)

	for iter := 1; iter <= e.maxIterations; iter++ {
		nextVec.MulVec(a, curVec)
		if !normalize(next) {
			return nil, newError(KindConvergence, "power iteration collapsed to zero at step %d", iter)
		}
		change := floats.Distance(next, cur, math.Inf(1))
		copy(cur, next)
		if change < e.threshold {
			w := append([]float64(nil), cur...)
			return consistency(a, w, ri, e.Name(), iter), nil
		}
	}
	return nil, newError(KindConvergence, "power iteration did not converge within %d iterations (threshold %g)",
		e.maxIterations, e.threshold)
}
