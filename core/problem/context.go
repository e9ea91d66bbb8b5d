package problem

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/invopt/pkg/errors"
)

// Context describes one instance of the forward problem.
//
// The continuous decision y is restricted to {y : A·y ≤ B}. A is m×1 and B has
// length m; a nil A leaves y unrestricted. C is the equality offset of the
// context variable and is carried unchanged for callers. W is the raw signal
// consumed by the feature maps.
type Context struct {
	A *mat.Dense
	B *mat.VecDense
	C *mat.VecDense
	W []float64
}

// NewContext validates the shapes of the constraint data and the signal.
// The signal slice is copied.
func NewContext(A *mat.Dense, B, C *mat.VecDense, w []float64) (Context, error) {
	if len(w) == 0 {
		return Context{}, errors.NewValidationError("w", "signal must not be empty", len(w))
	}
	if err := errors.CheckNumericalStability("problem.NewContext", w, 0); err != nil {
		return Context{}, errors.NewValidationError("w", "signal contains NaN or Inf", w)
	}

	if A != nil {
		m, n := A.Dims()
		if n != 1 {
			return Context{}, errors.NewDimensionError("problem.NewContext", 1, n, 1)
		}
		if B == nil {
			return Context{}, errors.NewValidationError("B", "required when A is set", nil)
		}
		if B.Len() != m {
			return Context{}, errors.NewDimensionError("problem.NewContext", m, B.Len(), 0)
		}
		if C != nil && C.Len() != m {
			return Context{}, errors.NewDimensionError("problem.NewContext", m, C.Len(), 0)
		}
	} else if B != nil {
		return Context{}, errors.NewValidationError("A", "required when B is set", nil)
	}

	signal := make([]float64, len(w))
	copy(signal, w)
	return Context{A: A, B: B, C: C, W: signal}, nil
}

// Unconstrained returns a context whose continuous decision ranges over ℝ.
func Unconstrained(w []float64) (Context, error) {
	return NewContext(nil, nil, nil, w)
}

// HalfLine returns the context used for the prognostic data, -y ≤ 0.
func HalfLine(w []float64) (Context, error) {
	return NewContext(
		mat.NewDense(1, 1, []float64{-1}),
		mat.NewVecDense(1, []float64{0}),
		mat.NewVecDense(1, []float64{0}),
		w,
	)
}

// SignalDim returns u, the length of the signal.
func (c Context) SignalDim() int { return len(c.W) }

// Interval returns the feasible interval [lo, hi] for y. Either end may be
// infinite. A row 0·y ≤ b with b < 0, or lo > hi, makes the context infeasible.
func (c Context) Interval() (lo, hi float64, err error) {
	lo, hi = math.Inf(-1), math.Inf(1)
	if c.A == nil {
		return lo, hi, nil
	}
	m, _ := c.A.Dims()
	for r := 0; r < m; r++ {
		a, b := c.A.At(r, 0), c.B.AtVec(r)
		switch {
		case a > 0:
			hi = math.Min(hi, b/a)
		case a < 0:
			lo = math.Max(lo, b/a)
		case b < 0:
			return lo, hi, errors.NewSolverError("problem.Interval", errors.Infeasible, "", -1, nil,
				errors.Newf("row %d reads 0·y ≤ %g", r, b))
		}
	}
	if lo > hi {
		return lo, hi, errors.NewSolverError("problem.Interval", errors.Infeasible, "", -1, nil,
			errors.Newf("empty interval [%g, %g]", lo, hi))
	}
	return lo, hi, nil
}
