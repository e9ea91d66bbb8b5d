package inverse

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/invopt/core/problem"
	"github.com/YuminosukeSato/invopt/features"
	"github.com/YuminosukeSato/invopt/forward"
	"github.com/YuminosukeSato/invopt/metrics"
	"github.com/YuminosukeSato/invopt/pkg/errors"
	"github.com/YuminosukeSato/invopt/pkg/log"
)

// Learner は観測された決定から順問題のコストパラメータ θ を推定する
type Learner struct {
	spec      problem.DecisionSpec
	values    []float64
	regParam  float64
	barrier   float64
	variant   LossVariant
	maps      features.Pair
	distZ     metrics.DistanceFunc
	minimizer Minimizer
	logger    log.Logger
}

// NewLearner validates spec and options.
func NewLearner(spec problem.DecisionSpec, opts ...Option) (*Learner, error) {
	values, err := spec.Values()
	if err != nil {
		return nil, errors.Wrap(err, "inverse.NewLearner")
	}
	l := &Learner{
		spec:     spec,
		values:   values,
		regParam: DefaultRegParam,
		barrier:  DefaultDomainBarrier,
		variant:  DiscreteOnly,
		maps:     features.Default(),
		distZ:    metrics.DiscreteL1,
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.regParam < 0 || math.IsNaN(l.regParam) || math.IsInf(l.regParam, 0) {
		return nil, errors.NewValidationError("reg_param", "must be a finite non-negative number", l.regParam)
	}
	if l.barrier < 0 || math.IsNaN(l.barrier) || math.IsInf(l.barrier, 0) {
		return nil, errors.NewValidationError("domain_barrier", "must be a finite non-negative number", l.barrier)
	}
	if l.variant != DiscreteOnly && l.variant != DiscreteAndContinuous {
		return nil, errors.NewValidationError("variant", "unknown loss variant", int(l.variant))
	}
	if l.distZ == nil {
		return nil, errors.NewValidationError("dist_z", "must not be nil", nil)
	}
	if l.minimizer == nil {
		l.minimizer = NewLBFGS()
	}
	if l.logger == nil {
		l.logger = log.GetLoggerWithName("inverse")
	}
	l.logger = l.logger.With(
		log.ModelNameKey, "InverseMIQP",
		log.VariantKey, l.variant.String(),
		log.RegularizationKey, l.regParam,
	)
	return l, nil
}

// Variant returns the configured loss variant.
func (l *Learner) Variant() LossVariant { return l.variant }

// RegParam returns κ.
func (l *Learner) RegParam() float64 { return l.regParam }

// Fit estimates θ from dataset.
//
// Observed discrete decisions are rounded before use. Fit fails with an
// empty-dataset ModelError for zero samples, a DimensionError when the
// signal length varies, an Infeasible SolverError when a context admits no y
// and a NotConverged SolverError when the minimizer does not converge.
func (l *Learner) Fit(ctx context.Context, dataset problem.Dataset) (*Model, error) {
	const op = "inverse.Fit"
	start := time.Now()

	obj, err := buildObjective(op, dataset, l.values, l.maps, l.distZ, l.regParam, l.barrier, l.variant)
	if err != nil {
		l.logger.Error("Training aborted", err, log.OperationKey, log.OperationFit)
		return nil, err
	}

	l.logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, dataset.Len(),
		log.FeaturesKey, dataset.SignalDim(),
		log.ThetaDimKey, obj.dim,
		log.DomainSizeKey, len(l.values),
	)

	res, err := l.minimizer.Minimize(ctx, obj.eval, obj.startPoint())
	if err != nil {
		l.logger.Error("Training failed", err,
			log.OperationKey, log.OperationFit,
			log.ErrorCodeKey, log.ErrorConvergence,
		)
		return nil, errors.Wrap(err, op)
	}
	if len(res.X) != obj.dim || math.IsInf(res.F, 0) || math.IsNaN(res.F) {
		err := errors.NewSolverError(op, errors.NotConverged, res.Status, -1, res.X,
			errors.Newf("minimizer returned an invalid point (F=%g)", res.F))
		l.logger.Error("Training failed", err, log.OperationKey, log.OperationFit)
		return nil, err
	}

	theta := make([]float64, len(res.X))
	copy(theta, res.X)

	solver, err := forward.NewSolver(l.spec, forward.WithFeatureMaps(l.maps.Phi1, l.maps.Phi2))
	if err != nil {
		return nil, err
	}

	l.logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.LossKey, res.F,
		log.IterationKey, res.Iterations,
		log.SolverStatusKey, res.Status,
		log.ThetaNormKey, floats.Norm(theta, 2),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	return &Model{
		theta:      theta,
		spec:       l.spec,
		variant:    l.variant,
		regParam:   l.regParam,
		objective:  res.F,
		iterations: res.Iterations,
		status:     res.Status,
		signalDim:  dataset.SignalDim(),
		solver:     solver,
	}, nil
}
