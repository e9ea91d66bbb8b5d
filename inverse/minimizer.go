package inverse

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/YuminosukeSato/invopt/pkg/errors"
)

// Objective evaluates a scalar function at x. When grad is non-nil the
// gradient at x is written into it. Points outside the domain return +Inf.
type Objective func(x, grad []float64) float64

// Result is the outcome of a successful minimization.
type Result struct {
	X          []float64
	F          float64
	Iterations int
	Status     string
}

// Minimizer solves the regularized learning problem. Implementations must
// not retry on failure; a non-converged run is reported as a SolverError of
// kind NotConverged carrying the status and the last iterate.
type Minimizer interface {
	Minimize(ctx context.Context, f Objective, x0 []float64) (Result, error)
}

// LBFGS minimizes with gonum's limited-memory BFGS and a backtracking line
// search. Backtracking only needs function values, so +Inf outside the
// domain simply shortens the step.
type LBFGS struct {
	// Store is the number of correction pairs kept. 0 uses the gonum default.
	Store int
	// GradientThreshold stops when ‖∇J‖∞ falls below it.
	GradientThreshold float64
	// FunctionTolerance and Iterations configure function convergence:
	// stop when J improves by less than FunctionTolerance (absolute and
	// relative) over Iterations major iterations.
	FunctionTolerance float64
	Iterations        int
	// MaxIterations bounds the number of major iterations.
	MaxIterations int
	// Runtime bounds the wall-clock time. 0 means no limit.
	Runtime time.Duration
	// AcceptGradient accepts a line-search failure as converged when
	// ‖∇J‖∞ at the last iterate is at most this value. A ConvergenceWarning is
	// emitted in that case.
	AcceptGradient float64
}

// NewLBFGS returns an LBFGS with the default settings.
func NewLBFGS() *LBFGS {
	return &LBFGS{
		GradientThreshold: 1e-8,
		FunctionTolerance: 1e-12,
		Iterations:        20,
		MaxIterations:     2000,
		AcceptGradient:    1e-3,
	}
}

var _ Minimizer = (*LBFGS)(nil)

func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success, optimize.FunctionConvergence, optimize.GradientThreshold,
		optimize.StepConvergence, optimize.MethodConverge:
		return true
	}
	return false
}

// Minimize runs L-BFGS from x0. Cancelling ctx stops the run at the next
// major iteration.
func (m *LBFGS) Minimize(ctx context.Context, f Objective, x0 []float64) (Result, error) {
	const op = "inverse.LBFGS"
	if err := ctx.Err(); err != nil {
		return Result{}, errors.Wrap(err, op)
	}
	if f0 := f(x0, nil); math.IsInf(f0, 0) || math.IsNaN(f0) {
		return Result{}, errors.NewSolverError(op, errors.NotConverged, "invalid start", -1, x0,
			errors.Newf("objective is %g at the start point", f0))
	}

	p := optimize.Problem{
		Func: func(x []float64) float64 { return f(x, nil) },
		Grad: func(grad, x []float64) { f(x, grad) },
		Status: func() (optimize.Status, error) {
			if err := ctx.Err(); err != nil {
				return optimize.Failure, err
			}
			return optimize.NotTerminated, nil
		},
	}
	settings := &optimize.Settings{
		GradientThreshold: m.GradientThreshold,
		Converger: &optimize.FunctionConverge{
			Absolute:   m.FunctionTolerance,
			Relative:   m.FunctionTolerance,
			Iterations: m.Iterations,
		},
		MajorIterations: m.MaxIterations,
		Runtime:         m.Runtime,
	}
	method := &optimize.LBFGS{
		Linesearcher: &optimize.Backtracking{},
		Store:        m.Store,
	}

	res, err := optimize.Minimize(p, x0, settings, method)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, errors.Wrap(ctxErr, op)
	}
	if res == nil {
		return Result{}, errors.NewSolverError(op, errors.NotConverged, "no result", -1, x0, err)
	}

	out := Result{
		X:          res.X,
		F:          res.F,
		Iterations: res.Stats.MajorIterations,
		Status:     res.Status.String(),
	}
	if err == nil && converged(res.Status) {
		return out, nil
	}

	if res.Status == optimize.Failure && !math.IsInf(res.F, 0) {
		grad := make([]float64, len(res.X))
		f(res.X, grad)
		if norm := floats.Norm(grad, math.Inf(1)); norm <= m.AcceptGradient {
			errors.Warn(errors.NewConvergenceWarning("L-BFGS", out.Iterations,
				fmt.Sprintf("line search stalled with gradient norm %.3g; accepting last iterate", norm)))
			return out, nil
		}
	}
	if err == nil {
		err = errors.Newf("terminated with status %s after %d iterations", res.Status, out.Iterations)
	}
	return out, errors.NewSolverError(op, errors.NotConverged, out.Status, -1, res.X, err)
}
