package forward

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/invopt/core/problem"
	"github.com/YuminosukeSato/invopt/features"
	"github.com/YuminosukeSato/invopt/pkg/errors"
	"github.com/YuminosukeSato/invopt/pkg/log"
)

// DefaultTieTolerance is the relative tolerance used to detect equal branch values.
const DefaultTieTolerance = 1e-12

// Backend solves the forward problem for one context.
type Backend interface {
	Solve(theta []float64, ctx problem.Context) (problem.Decision, error)
}

// Func adapts an ordinary function to Backend.
type Func func(theta []float64, ctx problem.Context) (problem.Decision, error)

// Solve calls f(theta, ctx).
func (f Func) Solve(theta []float64, ctx problem.Context) (problem.Decision, error) {
	return f(theta, ctx)
}

// Solver は分枝列挙と閉形式解による順問題ソルバー
type Solver struct {
	spec   problem.DecisionSpec
	values []float64
	maps   features.Pair
	tieTol float64
	logger log.Logger
}

var _ Backend = (*Solver)(nil)

// NewSolver validates spec and returns a solver over its discrete domain.
func NewSolver(spec problem.DecisionSpec, opts ...Option) (*Solver, error) {
	values, err := spec.Values()
	if err != nil {
		return nil, errors.Wrap(err, "forward.NewSolver")
	}
	s := &Solver{
		spec:   spec,
		values: values,
		maps:   features.Default(),
		tieTol: DefaultTieTolerance,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tieTol < 0 || math.IsNaN(s.tieTol) {
		return nil, errors.NewValidationError("tie_tolerance", "must be non-negative", s.tieTol)
	}
	if s.logger == nil {
		s.logger = log.GetLoggerWithName("forward")
	}
	return s, nil
}

// Spec returns the discrete domain the solver enumerates.
func (s *Solver) Spec() problem.DecisionSpec { return s.spec }

// Values returns a copy of the enumerated discrete values in ascending order.
func (s *Solver) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

// Solve returns the minimizing decision (y*, z*) for theta in ctx.
//
// The length of theta is checked against the signal before any branch is
// solved. Branch values within the tie tolerance of the incumbent do not
// replace it, so the lowest z wins a tie.
func (s *Solver) Solve(theta []float64, ctx problem.Context) (problem.Decision, error) {
	u := ctx.SignalDim()
	if len(theta) != problem.ThetaLen(u) {
		return problem.Decision{}, errors.NewDimensionError("forward.Solve", problem.ThetaLen(u), len(theta), 1)
	}

	best := problem.Decision{}
	bestVal := math.Inf(1)
	for i, z := range s.values {
		y, val, err := s.SolveBranch(theta, ctx, z)
		if err != nil {
			return problem.Decision{}, err
		}
		if i == 0 || val < bestVal-s.tieTol*math.Max(1, math.Abs(bestVal)) {
			best = problem.Decision{Y: y, Z: z}
			bestVal = val
		}
	}

	if s.logger.Enabled(context.Background(), log.LevelDebug) {
		s.logger.Debug("Forward problem solved",
			log.OperationKey, log.OperationSolve,
			"y", best.Y,
			"z", best.Z,
			"value", bestVal,
		)
	}
	return best, nil
}

// SolveBranch minimizes the objective over y with z fixed and returns the
// minimizer together with the objective value.
//
// Errors: DimensionError for a θ of the wrong length, SolverError of kind
// Infeasible for an empty interval and of kind Unbounded when the branch has
// no finite minimum.
func (s *Solver) SolveBranch(theta []float64, ctx problem.Context, z float64) (y, value float64, err error) {
	qyy, a, b, err := s.coefficients(theta, ctx, z)
	if err != nil {
		return 0, 0, err
	}
	lo, hi, err := ctx.Interval()
	if err != nil {
		return 0, 0, err
	}
	y, err = MinimizeQuadratic(qyy, a, lo, hi)
	if err != nil {
		return 0, 0, err
	}
	return y, qyy*y*y + a*y + b, nil
}

// Objective evaluates Qyy·y² + y·(Q·φ1) + q·φ2 at dec.
func (s *Solver) Objective(theta []float64, ctx problem.Context, dec problem.Decision) (float64, error) {
	qyy, a, b, err := s.coefficients(theta, ctx, dec.Z)
	if err != nil {
		return 0, err
	}
	return qyy*dec.Y*dec.Y + a*dec.Y + b, nil
}

// coefficients は z 固定時の y に関する二次式 qyy·y² + a·y + b の係数を返す
func (s *Solver) coefficients(theta []float64, ctx problem.Context, z float64) (qyy, a, b float64, err error) {
	u := ctx.SignalDim()
	qyy, Q, q, err := problem.SplitTheta(theta, u)
	if err != nil {
		return 0, 0, 0, err
	}
	if err := errors.CheckNumericalStability("forward.coefficients", theta, 0); err != nil {
		return 0, 0, 0, err
	}
	f1 := s.maps.Phi1(ctx.W, z)
	f2 := s.maps.Phi2(ctx.W, z)
	if len(f1) != len(Q) {
		return 0, 0, 0, errors.NewDimensionError("forward.Phi1", len(Q), len(f1), 1)
	}
	if len(f2) != len(q) {
		return 0, 0, 0, errors.NewDimensionError("forward.Phi2", len(q), len(f2), 1)
	}
	return qyy, floats.Dot(Q, f1), floats.Dot(q, f2), nil
}

// MinimizeQuadratic returns argmin_{y ∈ [lo, hi]} c2·y² + c1·y.
//
// For c2 > 0 the stationary point is clamped into the interval. For c2 = 0 the
// minimum lies on the boundary in the descent direction, or at clamp(0) when
// c1 = 0. For c2 < 0 the lower-valued endpoint is taken. An infinite endpoint
// that the minimum would have to reach yields an Unbounded SolverError.
func MinimizeQuadratic(c2, c1, lo, hi float64) (float64, error) {
	if lo > hi {
		return 0, errors.NewSolverError("forward.MinimizeQuadratic", errors.Infeasible, "", -1, nil,
			errors.Newf("empty interval [%g, %g]", lo, hi))
	}
	unbounded := func(side string) error {
		return errors.NewSolverError("forward.MinimizeQuadratic", errors.Unbounded, "", -1, nil,
			errors.Newf("objective %g·y² %+g·y decreases without bound towards %s", c2, c1, side))
	}

	switch {
	case c2 > 0:
		return clamp(-c1/(2*c2), lo, hi), nil
	case c2 == 0:
		switch {
		case c1 > 0:
			if math.IsInf(lo, -1) {
				return 0, unbounded("-inf")
			}
			return lo, nil
		case c1 < 0:
			if math.IsInf(hi, 1) {
				return 0, unbounded("+inf")
			}
			return hi, nil
		default:
			return clamp(0, lo, hi), nil
		}
	default:
		if math.IsInf(lo, -1) {
			return 0, unbounded("-inf")
		}
		if math.IsInf(hi, 1) {
			return 0, unbounded("+inf")
		}
		if c2*hi*hi+c1*hi < c2*lo*lo+c1*lo {
			return hi, nil
		}
		return lo, nil
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
