package inverse

import (
	"context"
	"math"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/invopt/core/model"
	"github.com/YuminosukeSato/invopt/core/problem"
	"github.com/YuminosukeSato/invopt/forward"
	"github.com/YuminosukeSato/invopt/metrics"
	"github.com/YuminosukeSato/invopt/pkg/errors"
	"github.com/YuminosukeSato/invopt/pkg/log"
)

// generatingTheta is θ₀ for u = 1: y* = 1 on both branches and z* = 1 iff w > 0.
func generatingTheta() []float64 {
	return []float64{
		1,           // Qyy
		0, 0, 0, -2, // Q over [w, z, w·z, 1]
		0, 0, -1, 0, // q over [w, z, w·z, 1]
	}
}

func generateDataset(t *testing.T, theta []float64, signals []float64) problem.Dataset {
	t.Helper()
	solver, err := forward.NewSolver(problem.BinarySpec())
	require.NoError(t, err)

	ds := make(problem.Dataset, 0, len(signals))
	for _, w := range signals {
		ctx, err := problem.Unconstrained([]float64{w})
		require.NoError(t, err)
		dec, err := solver.Solve(theta, ctx)
		require.NoError(t, err)
		ds = append(ds, problem.Sample{Context: ctx, Decision: dec})
	}
	return ds
}

var trainingSignals = []float64{-2, -1.5, -1, -0.5, 0.5, 1, 1.5, 2}

func newTestLearner(t *testing.T, opts ...Option) *Learner {
	t.Helper()
	logger, _ := log.NewTestLogger(log.LevelDebug)
	l, err := NewLearner(problem.BinarySpec(), append([]Option{WithLogger(logger)}, opts...)...)
	require.NoError(t, err)
	return l
}

func TestGeneratedDataMatchesTheta(t *testing.T) {
	ds := generateDataset(t, generatingTheta(), trainingSignals)
	for _, s := range ds {
		assert.InDelta(t, 1.0, s.Decision.Y, 1e-12)
		want := 0.0
		if s.Context.W[0] > 0 {
			want = 1
		}
		assert.Equal(t, want, s.Decision.Z, "w=%g", s.Context.W[0])
	}

	for _, v := range []LossVariant{DiscreteOnly, DiscreteAndContinuous} {
		loss, err := SuboptimalityLoss(generatingTheta(), ds, problem.BinarySpec(), v, nil, nil)
		require.NoError(t, err)
		assert.InDelta(t, 0.0, loss, 1e-12, v.String())
	}
}

func TestFitZeroLossFixedPoint(t *testing.T) {
	ds := generateDataset(t, generatingTheta(), trainingSignals)
	l := newTestLearner(t, WithRegParam(1e-4), WithVariant(DiscreteOnly))

	m, err := l.Fit(context.Background(), ds)
	require.NoError(t, err)
	require.Len(t, m.Theta(), problem.ThetaLen(1))

	loss, err := SuboptimalityLoss(m.Theta(), ds, problem.BinarySpec(), DiscreteOnly, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, loss)

	dz, err := metrics.Evaluate(m.Theta(), ds, m.Solver(), metrics.DiscreteL1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, dz)

	for _, s := range ds {
		pred, err := m.Predict(s.Context)
		require.NoError(t, err)
		assert.Equal(t, s.Decision.Z, pred.Z)
	}
}

// randomSeparatedDataset draws θ₀ with Qyy = 1.5 and N(0, 1) entries elsewhere
// and labels n signals w ∈ [-2, 2]^u with the forward solver. Signals whose two
// branch values lie within 0.1 of each other are skipped, and θ₀ is redrawn
// until both z classes fill half of the samples.
func randomSeparatedDataset(t *testing.T, u, n int, seed uint64, newContext func([]float64) (problem.Context, error)) problem.Dataset {
	t.Helper()
	solver, err := forward.NewSolver(problem.BinarySpec())
	require.NoError(t, err)
	rng := rand.New(rand.NewPCG(seed, uint64(u)))

	for draw := 0; draw < 50; draw++ {
		theta0 := make([]float64, problem.ThetaLen(u))
		theta0[0] = 1.5
		for j := 1; j < len(theta0); j++ {
			theta0[j] = rng.NormFloat64()
		}

		perClass := [2]int{}
		ds := make(problem.Dataset, 0, n)
		for attempt := 0; attempt < 50*n && len(ds) < n; attempt++ {
			w := make([]float64, u)
			for j := range w {
				w[j] = 4*rng.Float64() - 2
			}
			ctx, err := newContext(w)
			require.NoError(t, err)
			_, v0, err := solver.SolveBranch(theta0, ctx, 0)
			require.NoError(t, err)
			_, v1, err := solver.SolveBranch(theta0, ctx, 1)
			require.NoError(t, err)
			if math.Abs(v0-v1) < 0.1 {
				continue
			}
			dec, err := solver.Solve(theta0, ctx)
			require.NoError(t, err)
			k := int(dec.Z)
			if perClass[k] >= n/2 {
				continue
			}
			perClass[k]++
			ds = append(ds, problem.Sample{Context: ctx, Decision: dec})
		}
		if len(ds) == n {
			return ds
		}
	}
	t.Fatalf("no θ₀ produced %d balanced samples", n)
	return nil
}

func TestFitZeroLossFixedPointRandomTheta(t *testing.T) {
	contexts := []struct {
		name       string
		newContext func([]float64) (problem.Context, error)
	}{
		{"unconstrained", problem.Unconstrained},
		{"half-line", problem.HalfLine},
	}
	for _, tc := range contexts {
		t.Run(tc.name, func(t *testing.T) {
			ds := randomSeparatedDataset(t, 3, 60, 2024, tc.newContext)

			m, err := newTestLearner(t).Fit(context.Background(), ds)
			require.NoError(t, err)
			assert.Equal(t, DefaultRegParam, m.RegParam())

			loss, err := SuboptimalityLoss(m.Theta(), ds, problem.BinarySpec(), DiscreteOnly, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, 0.0, loss)

			dz, err := metrics.Evaluate(m.Theta(), ds, m.Solver(), metrics.DiscreteL1)
			require.NoError(t, err)
			assert.Equal(t, 0.0, dz)
		})
	}
}

func TestFitDiscreteAndContinuous(t *testing.T) {
	ds := generateDataset(t, generatingTheta(), trainingSignals)
	l := newTestLearner(t, WithRegParam(1e-4), WithVariant(DiscreteAndContinuous))

	m, err := l.Fit(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, DiscreteAndContinuous, m.Variant())
	assert.Greater(t, m.Theta()[0], 0.0)

	dz, err := metrics.Evaluate(m.Theta(), ds, m.Solver(), metrics.DiscreteL1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, dz)
}

func TestFitRegularizationMonotone(t *testing.T) {
	ds := generateDataset(t, generatingTheta(), trainingSignals)

	var norms []float64
	for _, kappa := range []float64{1e-4, 1e-1, 10} {
		m, err := newTestLearner(t, WithRegParam(kappa)).Fit(context.Background(), ds)
		require.NoError(t, err, "kappa=%g", kappa)
		norms = append(norms, floats.Norm(m.Theta(), 2))
	}
	for i := 1; i < len(norms); i++ {
		assert.LessOrEqual(t, norms[i], norms[i-1]+1e-6, "norms=%v", norms)
	}
}

func TestFitDeterministic(t *testing.T) {
	ds := generateDataset(t, generatingTheta(), trainingSignals)
	m1, err := newTestLearner(t).Fit(context.Background(), ds)
	require.NoError(t, err)
	m2, err := newTestLearner(t).Fit(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, m1.Theta(), m2.Theta())
}

func TestFitErrors(t *testing.T) {
	l := newTestLearner(t)

	t.Run("empty dataset", func(t *testing.T) {
		_, err := l.Fit(context.Background(), nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrEmptyDataset))
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		c1, _ := problem.Unconstrained([]float64{1})
		c2, _ := problem.Unconstrained([]float64{1, 2})
		ds := problem.Dataset{{Context: c1}, {Context: c2}}
		_, err := l.Fit(context.Background(), ds)
		var dimErr *errors.DimensionError
		assert.True(t, errors.As(err, &dimErr))
	})

	t.Run("infeasible context", func(t *testing.T) {
		ctx, err := problem.NewContext(
			mat.NewDense(2, 1, []float64{1, -1}),
			mat.NewVecDense(2, []float64{-1, -1}),
			nil, []float64{1})
		require.NoError(t, err)
		_, err = l.Fit(context.Background(), problem.Dataset{{Context: ctx}})
		require.Error(t, err)
		assert.True(t, errors.IsInfeasible(err))
		var se *errors.SolverError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, 0, se.Sample)
	})

	t.Run("observed z outside domain", func(t *testing.T) {
		ctx, _ := problem.Unconstrained([]float64{1})
		_, err := l.Fit(context.Background(), problem.Dataset{{Context: ctx, Decision: problem.Decision{Y: 0, Z: 3}}})
		var vErr *errors.ValidationError
		assert.True(t, errors.As(err, &vErr))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ds := generateDataset(t, generatingTheta(), trainingSignals)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := l.Fit(ctx, ds)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestFitRoundsDiscreteObservations(t *testing.T) {
	ds := generateDataset(t, generatingTheta(), trainingSignals)
	noisy := make(problem.Dataset, len(ds))
	copy(noisy, ds)
	for i := range noisy {
		if noisy[i].Decision.Z == 1 {
			noisy[i].Decision.Z = 0.9999999
		}
	}

	m1, err := newTestLearner(t).Fit(context.Background(), ds)
	require.NoError(t, err)
	m2, err := newTestLearner(t).Fit(context.Background(), noisy)
	require.NoError(t, err)
	assert.Equal(t, m1.Theta(), m2.Theta())
}

// failingMinimizer always reports non-convergence.
type failingMinimizer struct{}

func (failingMinimizer) Minimize(_ context.Context, _ Objective, x0 []float64) (Result, error) {
	return Result{X: x0}, errors.NewSolverError("test", errors.NotConverged, "IterationLimit", -1, x0, nil)
}

func TestFitPropagatesMinimizerFailure(t *testing.T) {
	ds := generateDataset(t, generatingTheta(), trainingSignals)
	_, err := newTestLearner(t, WithMinimizer(failingMinimizer{})).Fit(context.Background(), ds)
	require.Error(t, err)
	assert.True(t, errors.IsSolverError(err, errors.NotConverged))
}

func TestNewLearnerValidation(t *testing.T) {
	tests := []struct {
		name string
		spec problem.DecisionSpec
		opts []Option
	}{
		{"negative kappa", problem.BinarySpec(), []Option{WithRegParam(-1)}},
		{"nan kappa", problem.BinarySpec(), []Option{WithRegParam(math.NaN())}},
		{"unknown variant", problem.BinarySpec(), []Option{WithVariant(LossVariant(7))}},
		{"nil distance", problem.BinarySpec(), []Option{WithDiscreteDistance(nil)}},
		{"continuous spec", problem.DecisionSpec{Kind: problem.Continuous, Dimension: 1}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLearner(tt.spec, tt.opts...)
			assert.Error(t, err)
		})
	}

	l, err := NewLearner(problem.BinarySpec())
	require.NoError(t, err)
	assert.Equal(t, DefaultRegParam, l.RegParam())
	assert.Equal(t, DiscreteOnly, l.Variant())
}

func TestParseLossVariant(t *testing.T) {
	for _, v := range []LossVariant{DiscreteOnly, DiscreteAndContinuous} {
		got, err := ParseLossVariant(v.String())
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
	_, err := ParseLossVariant("ASL-x")
	assert.Error(t, err)
}

func TestModelWeightsRoundTrip(t *testing.T) {
	ds := generateDataset(t, generatingTheta(), trainingSignals)
	m, err := newTestLearner(t).Fit(context.Background(), ds)
	require.NoError(t, err)

	w := m.Weights()
	assert.Equal(t, ModelType, w.ModelType)
	assert.Equal(t, m.Theta(), w.Coefficients)

	path := filepath.Join(t.TempDir(), "model.gob")
	require.NoError(t, SaveModel(m, path))
	loaded, err := LoadModel(path, nil)
	require.NoError(t, err)
	assert.Equal(t, m.Theta(), loaded.Theta())
	assert.Equal(t, m.Variant(), loaded.Variant())
	assert.Equal(t, m.Iterations(), loaded.Iterations())
	assert.Equal(t, m.Status(), loaded.Status())
	assert.Equal(t, 1, loaded.SignalDim())

	for _, s := range ds {
		a, err := m.Predict(s.Context)
		require.NoError(t, err)
		b, err := loaded.Predict(s.Context)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestThetaReturnsCopy(t *testing.T) {
	ds := generateDataset(t, generatingTheta(), trainingSignals)
	m, err := newTestLearner(t).Fit(context.Background(), ds)
	require.NoError(t, err)
	th := m.Theta()
	th[0] = -100
	assert.NotEqual(t, -100.0, m.Theta()[0])
}

func TestModelFromWeightsRestoresDomain(t *testing.T) {
	ds := generateDataset(t, generatingTheta(), trainingSignals)
	m, err := newTestLearner(t, WithVariant(DiscreteAndContinuous)).Fit(context.Background(), ds)
	require.NoError(t, err)

	data, err := m.Weights().ToJSON()
	require.NoError(t, err)
	var w model.ModelWeights
	require.NoError(t, w.FromJSON(data))

	loaded, err := ModelFromWeights(&w, nil)
	require.NoError(t, err)
	assert.Equal(t, DiscreteAndContinuous, loaded.Variant())
	assert.Equal(t, m.Iterations(), loaded.Iterations())
	assert.Equal(t, problem.BinarySpec(), loaded.Spec())

	w.Hyperparameters["kind"] = "integer"
	w.Hyperparameters["lower"] = 0.0
	w.Hyperparameters["upper"] = 2.0
	loaded, err = ModelFromWeights(&w, nil)
	require.NoError(t, err)
	assert.Equal(t, problem.IntegerSpec(0, 2), loaded.Spec())
	assert.Equal(t, []float64{0, 1, 2}, loaded.Solver().Values())
}

func TestModelFromWeightsRejectsCorruptEntries(t *testing.T) {
	ds := generateDataset(t, generatingTheta(), trainingSignals)
	m, err := newTestLearner(t).Fit(context.Background(), ds)
	require.NoError(t, err)
	integer := problem.IntegerSpec(0, 3)

	tests := []struct {
		name   string
		mutate func(w *model.ModelWeights)
		spec   *problem.DecisionSpec
	}{
		{"unknown variant", func(w *model.ModelWeights) { w.Hyperparameters["variant"] = "ASL-x" }, nil},
		{"variant of wrong type", func(w *model.ModelWeights) { w.Hyperparameters["variant"] = 3 }, nil},
		{"unknown kind", func(w *model.ModelWeights) { w.Hyperparameters["kind"] = "ternary" }, nil},
		{"kind differs from spec", func(w *model.ModelWeights) {}, &integer},
		{"integer without bounds", func(w *model.ModelWeights) { w.Hyperparameters["kind"] = "integer" }, nil},
		{"continuous kind", func(w *model.ModelWeights) { w.Hyperparameters["kind"] = "continuous" }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := m.Weights()
			tt.mutate(w)
			_, err := ModelFromWeights(w, tt.spec)
			require.Error(t, err)
			var vErr *errors.ValidationError
			assert.True(t, errors.As(err, &vErr), "got %v", err)
		})
	}
}
