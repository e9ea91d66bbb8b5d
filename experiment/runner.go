package experiment

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/invopt/core/model"
	"github.com/YuminosukeSato/invopt/core/parallel"
	"github.com/YuminosukeSato/invopt/core/problem"
	"github.com/YuminosukeSato/invopt/inverse"
	"github.com/YuminosukeSato/invopt/linear"
	"github.com/YuminosukeSato/invopt/metrics"
	"github.com/YuminosukeSato/invopt/preprocessing"
	"github.com/YuminosukeSato/invopt/pkg/errors"
	"github.com/YuminosukeSato/invopt/pkg/log"
)

// MethodBaseline names the ridge + logistic regression baseline.
const MethodBaseline = "baseline"

// Scores are mean L1 distances between predicted and observed decisions.
type Scores struct {
	TrainY float64
	TestY  float64
	TrainZ float64
	TestZ  float64
}

// MethodResult is the outcome of one method in one repetition.
type MethodResult struct {
	Method string
	Scores
	// Theta is the learned parameter vector; nil for the baseline.
	Theta      []float64
	Iterations int
}

// RunResult collects every method of one repetition.
type RunResult struct {
	ID       uuid.UUID
	Run      int
	Seed     uint64
	Started  time.Time
	Duration time.Duration
	Methods  []MethodResult
}

// Method returns the result of the named method.
func (r RunResult) Method(name string) (MethodResult, bool) {
	for _, m := range r.Methods {
		if m.Method == name {
			return m, true
		}
	}
	return MethodResult{}, false
}

// Runner repeats split, fit and evaluation over seeded train/test splits.
type Runner struct {
	cfg        Config
	S, X       *mat.Dense
	variants   []inverse.LossVariant
	newContext preprocessing.ContextFunc
	metrics    *Metrics
	store      *Store
	logger     log.Logger
	sequential bool
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithMetrics records fit durations and failures in m.
func WithMetrics(m *Metrics) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// WithStore persists every finished repetition in s.
func WithStore(s *Store) RunnerOption {
	return func(r *Runner) { r.store = s }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithContextFunc replaces the default y ≥ 0 context of every sample.
func WithContextFunc(f preprocessing.ContextFunc) RunnerOption {
	return func(r *Runner) { r.newContext = f }
}

// WithSequential runs the repetitions one after another.
func WithSequential() RunnerOption {
	return func(r *Runner) { r.sequential = true }
}

// NewRunner validates cfg against the data. S holds the signals, X the
// responses with the continuous one in column 0.
func NewRunner(cfg Config, S, X *mat.Dense, opts ...RunnerOption) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if S == nil || X == nil {
		return nil, errors.NewValueError("experiment.NewRunner", "signals and responses are required")
	}
	n, _ := S.Dims()
	nx, k := X.Dims()
	if nx != n {
		return nil, errors.NewDimensionError("experiment.NewRunner", n, nx, 0)
	}
	if k != 2 {
		return nil, errors.NewDimensionError("experiment.NewRunner", 2, k, 1)
	}
	variants, err := cfg.LossVariants()
	if err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:        cfg,
		S:          S,
		X:          X,
		variants:   variants,
		newContext: problem.HalfLine,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = NewMetrics(nil)
	}
	if r.logger == nil {
		r.logger = log.GetLoggerWithName("experiment")
	}
	return r, nil
}

// Run executes cfg.Runs repetitions and returns them in run order. When any
// repetition fails, the error of the lowest failing run is returned and
// nothing is persisted.
func (r *Runner) Run(ctx context.Context) ([]RunResult, error) {
	results := make([]RunResult, r.cfg.Runs)
	errs := parallel.ForEach(r.cfg.Runs, r.sequential, func(i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return errors.SafeExecute("experiment.Run", func() error {
			res, err := r.RunOnce(ctx, i)
			results[i] = res
			return err
		})
	})
	for i, err := range errs {
		if err != nil {
			return nil, errors.Wrapf(err, "run %d", i)
		}
	}

	if r.store != nil {
		for _, res := range results {
			if err := r.store.SaveRun(ctx, res); err != nil {
				return nil, err
			}
		}
	}
	return results, nil
}

// RunOnce executes repetition run. The split is drawn from a PCG source
// seeded with (cfg.Seed, run), so a repetition is reproducible on its own.
func (r *Runner) RunOnce(ctx context.Context, run int) (RunResult, error) {
	res := RunResult{
		ID:      uuid.New(),
		Run:     run,
		Seed:    r.cfg.Seed,
		Started: time.Now().UTC(),
	}
	logger := r.logger.With(
		log.RunKey, run,
		log.RandomSeedKey, r.cfg.Seed,
		log.EstimatorIDKey, res.ID.String(),
	)

	rng := rand.New(rand.NewPCG(r.cfg.Seed, uint64(run)))
	STrain, XTrain, STest, XTest, err := preprocessing.Split(r.S, r.X, r.cfg.TestFraction, rng)
	if err != nil {
		return res, err
	}
	STrain, STest, err = r.scale(STrain, STest)
	if err != nil {
		return res, err
	}

	train, err := preprocessing.BuildDataset(STrain, XTrain, r.newContext)
	if err != nil {
		return res, errors.Wrap(err, "build training set")
	}
	test, err := preprocessing.BuildDataset(STest, XTest, r.newContext)
	if err != nil {
		return res, errors.Wrap(err, "build test set")
	}

	for _, v := range r.variants {
		mr, err := r.fitInverse(ctx, v, train, test, logger)
		if err != nil {
			return res, errors.Wrapf(err, "method %s", v)
		}
		res.Methods = append(res.Methods, mr)
	}

	mr, err := r.fitBaseline(STrain, XTrain, STest, XTest)
	if err != nil {
		return res, errors.Wrapf(err, "method %s", MethodBaseline)
	}
	res.Methods = append(res.Methods, mr)

	res.Duration = time.Since(res.Started)
	r.metrics.RunsCompleted.Inc()
	logger.Info("Run completed",
		log.SamplesKey, train.Len(),
		log.DurationMsKey, res.Duration.Milliseconds(),
	)
	return res, nil
}

func (r *Runner) scale(STrain, STest *mat.Dense) (*mat.Dense, *mat.Dense, error) {
	scaler, err := preprocessing.NewScaler(preprocessing.ScalerKind(r.cfg.Scaler))
	if err != nil || scaler == nil {
		return STrain, STest, err
	}
	a, err := scaler.FitTransform(STrain)
	if err != nil {
		return nil, nil, err
	}
	if STest == nil {
		return toDense(a), nil, nil
	}
	b, err := scaler.Transform(STest)
	if err != nil {
		return nil, nil, err
	}
	return toDense(a), toDense(b), nil
}

func (r *Runner) fitInverse(ctx context.Context, v inverse.LossVariant, train, test problem.Dataset, logger log.Logger) (MethodResult, error) {
	name := v.String()
	learner, err := inverse.NewLearner(problem.BinarySpec(),
		inverse.WithVariant(v),
		inverse.WithRegParam(r.cfg.RegParam),
		inverse.WithDomainBarrier(r.cfg.DomainBarrier),
		inverse.WithMinimizer(r.cfg.lbfgs()),
		inverse.WithLogger(logger),
	)
	if err != nil {
		return MethodResult{}, err
	}

	start := time.Now()
	m, err := learner.Fit(ctx, train)
	r.metrics.observeFit(name, time.Since(start))
	if err != nil {
		r.metrics.recordFailure(name, err)
		logger.Error("Fit failed", err, log.ErrorCodeKey, errorCode(err))
		return MethodResult{}, err
	}

	theta := m.Theta()
	out := MethodResult{Method: name, Theta: theta, Iterations: m.Iterations()}
	eval := func(phase string, metric Metric, ds problem.Dataset, dist metrics.DistanceFunc, dst *float64) error {
		d, err := metrics.Evaluate(theta, ds, m.Solver(), dist)
		if err != nil {
			r.metrics.recordFailure(name, err)
			logger.Error("Evaluation failed", err,
				log.OperationKey, log.OperationEvaluate,
				log.PhaseKey, phase,
				log.ErrorCodeKey, errorCode(err),
			)
			return err
		}
		logger.Debug("Evaluated",
			log.OperationKey, log.OperationEvaluate,
			log.PhaseKey, phase,
			log.DistanceKey, d,
			"metric", string(metric),
		)
		*dst = d
		return nil
	}
	if err := eval(log.PhaseTraining, MetricTrainY, train, metrics.ContinuousL1, &out.TrainY); err != nil {
		return out, err
	}
	if err := eval(log.PhaseTesting, MetricTestY, test, metrics.ContinuousL1, &out.TestY); err != nil {
		return out, err
	}
	if err := eval(log.PhaseTraining, MetricTrainZ, train, metrics.DiscreteL1, &out.TrainZ); err != nil {
		return out, err
	}
	if err := eval(log.PhaseTesting, MetricTestZ, test, metrics.DiscreteL1, &out.TestZ); err != nil {
		return out, err
	}
	r.metrics.recordScores(name, out.Scores)
	return out, nil
}

func (r *Runner) fitBaseline(STrain, XTrain, STest, XTest *mat.Dense) (MethodResult, error) {
	if STest == nil {
		return MethodResult{}, errors.NewEmptyDatasetError("experiment.fitBaseline")
	}
	out := MethodResult{Method: MethodBaseline}

	start := time.Now()
	ridge := linear.NewRidge(linear.WithAlpha(r.cfg.Baselines.RidgeAlpha))
	clf := linear.NewLogisticRegression(linear.WithC(r.cfg.Baselines.LogisticC))

	var err error
	if out.TrainY, out.TestY, err = baselineError(ridge, STrain, column(XTrain, 0, false), STest, column(XTest, 0, false)); err != nil {
		r.metrics.recordFailure(MethodBaseline, err)
		return out, err
	}
	if out.TrainZ, out.TestZ, err = baselineError(clf, STrain, column(XTrain, 1, true), STest, column(XTest, 1, true)); err != nil {
		r.metrics.recordFailure(MethodBaseline, err)
		return out, err
	}
	r.metrics.observeFit(MethodBaseline, time.Since(start))
	r.metrics.recordScores(MethodBaseline, out.Scores)
	return out, nil
}

// baselineError fits est on the training part and returns the mean absolute
// error on both parts.
func baselineError(est model.Estimator, STrain *mat.Dense, yTrain []float64, STest *mat.Dense, yTest []float64) (train, test float64, err error) {
	if err := est.Fit(STrain, mat.NewDense(len(yTrain), 1, yTrain)); err != nil {
		return 0, 0, err
	}
	mae := func(S *mat.Dense, y []float64) (float64, error) {
		pred, err := est.Predict(S)
		if err != nil {
			return 0, err
		}
		return metrics.MAE(y, mat.Col(nil, 0, pred))
	}
	if train, err = mae(STrain, yTrain); err != nil {
		return 0, 0, err
	}
	if test, err = mae(STest, yTest); err != nil {
		return 0, 0, err
	}
	return train, test, nil
}

// column copies column j of X. With round set, values are rounded to the
// nearest integer label and a DataConversionWarning is raised once when any
// value changed.
func column(X *mat.Dense, j int, round bool) []float64 {
	col := mat.Col(nil, j, X)
	if !round {
		return col
	}
	converted := 0
	for i, v := range col {
		if r := math.Round(v); r != v {
			col[i] = r
			converted++
		}
	}
	if converted > 0 {
		errors.Warn(errors.NewDataConversionWarning("float64", "class label",
			fmt.Sprintf("%d non-integer discrete decisions rounded", converted)))
	}
	return col
}

func toDense(m mat.Matrix) *mat.Dense {
	if d, ok := m.(*mat.Dense); ok {
		return d
	}
	return mat.DenseCopyOf(m)
}
