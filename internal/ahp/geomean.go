package ahp

import "math"

// GeometricMeanEngine approximates the priority vector with normalised row
// geometric means (Saaty 1980). It is exact for consistent matrices.
type GeometricMeanEngine struct {
	ri RandomIndex
}

func NewGeometricMeanEngine(ri RandomIndex) *GeometricMeanEngine {
	return &GeometricMeanEngine{ri: ri.orDefault()}
}

func (e *GeometricMeanEngine) Name() string { return EngineGeometricMean }

func (e *GeometricMeanEngine) ComputePriorities(m *Matrix) (*Result, error) {
	n := m.Size()
	ri, err := lookupRI(e.ri, n)
	if err != nil {
		return nil, err
	}

	w := make([]float64, n)
	for i, row := range m.Values {
		// sum of logs avoids overflow on large rows
		var logSum float64
		for _, x := range row {
			logSum += math.Log(x)
		}
		w[i] = math.Exp(logSum / float64(n))
	}
	if !normalize(w) {
		return nil, newError(KindConvergence, "geometric means sum to zero")
	}
	return consistency(denseOf(m), w, ri, e.Name(), 0), nil
}
