package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/invopt/core/problem"
	"github.com/YuminosukeSato/invopt/forward"
	"github.com/YuminosukeSato/invopt/pkg/errors"
)

func TestDistances(t *testing.T) {
	a := problem.Decision{Y: 1.5, Z: 0}
	b := problem.Decision{Y: -0.5, Z: 1}

	assert.Equal(t, 2.0, ContinuousL1(a, b))
	assert.Equal(t, 1.0, DiscreteL1(a, b))
	assert.Equal(t, 0.0, ContinuousL1(a, a))
	assert.Equal(t, 0.0, DiscreteL1(b, b))

	d, err := L1([]float64{1, 2}, []float64{2, 4})
	require.NoError(t, err)
	assert.Equal(t, 1.5, d)

	_, err = L1([]float64{1}, []float64{1, 2})
	assert.Error(t, err)
	_, err = L1(nil, nil)
	assert.Error(t, err)
}

func constantSolver(dec problem.Decision) forward.Backend {
	return forward.Func(func(theta []float64, ctx problem.Context) (problem.Decision, error) {
		return dec, nil
	})
}

func TestEvaluateSingleSample(t *testing.T) {
	ctx, err := problem.Unconstrained([]float64{1})
	require.NoError(t, err)
	observed := problem.Decision{Y: 2, Z: 1}
	predicted := problem.Decision{Y: 0.5, Z: 0}
	ds := problem.Dataset{{Context: ctx, Decision: observed}}

	for _, dist := range []DistanceFunc{ContinuousL1, DiscreteL1} {
		got, err := Evaluate(nil, ds, constantSolver(predicted), dist)
		require.NoError(t, err)
		assert.Equal(t, dist(predicted, observed), got)
	}
}

func TestEvaluateWithForwardSolver(t *testing.T) {
	solver, err := forward.NewSolver(problem.BinarySpec())
	require.NoError(t, err)

	theta := make([]float64, problem.ThetaLen(1))
	theta[0] = 1
	theta[4] = -2 // Q constant entry: y* = 1 on every branch

	c1, _ := problem.Unconstrained([]float64{1})
	c2, _ := problem.Unconstrained([]float64{-1})
	ds := problem.Dataset{
		{Context: c1, Decision: problem.Decision{Y: 1, Z: 0}},
		{Context: c2, Decision: problem.Decision{Y: 3, Z: 1}},
	}

	dy, err := Evaluate(theta, ds, solver, ContinuousL1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, dy, 1e-12)

	dz, err := Evaluate(theta, ds, solver, DiscreteL1)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, dz, 1e-12)
}

func TestEvaluateRoundsObservedDiscrete(t *testing.T) {
	ctx, err := problem.Unconstrained([]float64{1})
	require.NoError(t, err)
	ds := problem.Dataset{
		{Context: ctx, Decision: problem.Decision{Y: 1, Z: 0.9999999}},
		{Context: ctx, Decision: problem.Decision{Y: 1, Z: 1.0000001}},
	}

	dz, err := Evaluate(nil, ds, constantSolver(problem.Decision{Y: 1, Z: 1}), DiscreteL1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, dz)

	dy, err := Evaluate(nil, ds, constantSolver(problem.Decision{Y: 1.5, Z: 1}), ContinuousL1)
	require.NoError(t, err)
	assert.Equal(t, 0.5, dy)
}

func TestEvaluateErrors(t *testing.T) {
	_, err := Evaluate(nil, nil, constantSolver(problem.Decision{}), ContinuousL1)
	assert.True(t, errors.Is(err, errors.ErrEmptyDataset))

	ctx, _ := problem.Unconstrained([]float64{1})
	ds := problem.Dataset{{Context: ctx}, {Context: ctx}}
	calls := 0
	failing := forward.Func(func(theta []float64, c problem.Context) (problem.Decision, error) {
		calls++
		if calls == 2 {
			return problem.Decision{}, errors.NewSolverError("test", errors.Unbounded, "", -1, nil, nil)
		}
		return problem.Decision{}, nil
	})
	_, err = Evaluate(nil, ds, failing, ContinuousL1)
	require.Error(t, err)
	assert.True(t, errors.IsUnbounded(err))
	assert.Contains(t, err.Error(), "sample 1")
}

func TestMeanPercentiles(t *testing.T) {
	values := []float64{5, 1, 4, 2, 3}
	s, err := MeanPercentiles(values, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, 3.0, s.Mean)
	assert.Equal(t, 1.0, s.Lower)
	assert.Equal(t, 5.0, s.Upper)
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, values)

	s, err = MeanPercentiles(values, DefaultLowerPercentile, DefaultUpperPercentile)
	require.NoError(t, err)
	assert.LessOrEqual(t, s.Lower, s.Mean)
	assert.GreaterOrEqual(t, s.Upper, s.Mean)

	_, err = MeanPercentiles(nil, 5, 95)
	assert.Error(t, err)
	_, err = MeanPercentiles(values, 90, 10)
	assert.Error(t, err)
}
