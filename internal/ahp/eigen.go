package ahp

import (
	"gonum.org/v1/gonum/mat"
)

// EigenEngine uses a full eigendecomposition and keeps the eigenpair with the
// largest real eigenvalue.
type EigenEngine struct {
	ri RandomIndex
}

func NewEigenEngine(ri RandomIndex) *EigenEngine {
	return &EigenEngine{ri: ri.orDefault()}
}

func (e *EigenEngine) Name() string { return EngineEigen }

func (e *EigenEngine) ComputePriorities(m *Matrix) (*Result, error) {
	n := m.Size()
	ri, err := lookupRI(e.ri, n)
	if err != nil {
		return nil, err
	}

	a := denseOf(m)
	var eig mat.Eigen
	if ok := eig.Factorize(a, mat.EigenRight); !ok {
		return nil, newError(KindConvergence, "eigendecomposition failed for %dx%d matrix", n, n)
	}

	values := eig.Values(nil)
	k := 0
	for i := range values {
		if real(values[i]) > real(values[k]) {
			k = i
		}
	}

	var vecs mat.CDense
	eig.VectorsTo(&vecs)
	w := make([]float64, n)
	for i := range w {
		w[i] = real(vecs.At(i, k))
	}
	if !normalize(w) {
		return nil, newError(KindConvergence, "principal eigenvector sums to zero")
	}
	for i, x := range w {
		if x <= 0 {
			return nil, newError(KindConvergence, "principal eigenvector has non-positive component %d", i)
		}
	}
	return consistency(a, w, ri, e.Name(), 0), nil
}
