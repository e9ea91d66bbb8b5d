package inverse

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/invopt/core/problem"
	"github.com/YuminosukeSato/invopt/features"
	"github.com/YuminosukeSato/invopt/metrics"
)

func buildTestObjective(t *testing.T, ds problem.Dataset, kappa, mu float64, v LossVariant) *objective {
	t.Helper()
	o, err := buildObjective("test", ds, []float64{0, 1}, features.Default(), metrics.DiscreteL1, kappa, mu, v)
	require.NoError(t, err)
	return o
}

func mixedDataset(t *testing.T) problem.Dataset {
	t.Helper()
	var ds problem.Dataset
	for i, w := range []float64{-1.2, -0.3, 0.4, 0.9, 1.7} {
		var ctx problem.Context
		var err error
		if i%2 == 0 {
			ctx, err = problem.Unconstrained([]float64{w})
		} else {
			ctx, err = problem.HalfLine([]float64{w})
		}
		require.NoError(t, err)
		z := 0.0
		if w > 0 {
			z = 1
		}
		ds = append(ds, problem.Sample{Context: ctx, Decision: problem.Decision{Y: 0.5 + 0.1*float64(i), Z: z}})
	}
	return ds
}

func TestObjectiveGradientMatchesFiniteDifferences(t *testing.T) {
	theta := []float64{0.7, 0.3, -0.2, 0.5, -0.4, 0.1, -0.6, 0.25, 0.05}
	for _, v := range []LossVariant{DiscreteOnly, DiscreteAndContinuous} {
		t.Run(v.String(), func(t *testing.T) {
			o := buildTestObjective(t, mixedDataset(t), 0.05, 1e-2, v)
			grad := make([]float64, len(theta))
			f0 := o.eval(theta, grad)
			require.False(t, math.IsInf(f0, 0))

			const h = 1e-6
			for j := range theta {
				plus := append([]float64(nil), theta...)
				minus := append([]float64(nil), theta...)
				plus[j] += h
				minus[j] -= h
				fd := (o.eval(plus, nil) - o.eval(minus, nil)) / (2 * h)
				assert.InDelta(t, fd, grad[j], 1e-5, "component %d", j)
			}
		})
	}
}

func TestObjectiveOutsideDomain(t *testing.T) {
	ds := generateDataset(t, generatingTheta(), trainingSignals)

	o := buildTestObjective(t, ds, 0.1, 0, DiscreteOnly)
	theta := generatingTheta()
	theta[0] = -1
	assert.True(t, math.IsInf(o.eval(theta, nil), 1))

	theta[0] = 0 // linear in y with a ≠ 0 on an unbounded interval
	assert.True(t, math.IsInf(o.eval(theta, nil), 1))

	withBarrier := buildTestObjective(t, ds, 0.1, 1e-3, DiscreteOnly)
	zero := make([]float64, len(theta))
	assert.True(t, math.IsInf(withBarrier.eval(zero, nil), 1))
	assert.False(t, math.IsInf(o.eval(zero, nil), 1))
}

func TestObjectiveBarrier(t *testing.T) {
	o := &objective{mu: 2}
	v, d := o.barrier(1.5)
	assert.Equal(t, 0.0, v)
	assert.Equal(t, 0.0, d)

	v, d = o.barrier(0.5)
	assert.InDelta(t, 2*(0.5-1-math.Log(0.5)), v, 1e-12)
	assert.InDelta(t, 2*(1-2), d, 1e-12)

	v, _ = o.barrier(1 - 1e-9)
	assert.InDelta(t, 0.0, v, 1e-12)
}

func TestObjectiveMarginAtZeroTheta(t *testing.T) {
	ds := generateDataset(t, generatingTheta(), trainingSignals)
	o := buildTestObjective(t, ds, 0, 0, DiscreteOnly)
	// Every gap is zero at θ = 0, so each sample pays ½·d² = ½ for its single alternative.
	assert.InDelta(t, 0.5, o.eval(make([]float64, problem.ThetaLen(1)), nil), 1e-12)
}

func TestObjectiveStartPoint(t *testing.T) {
	ds := generateDataset(t, generatingTheta(), trainingSignals)
	o := buildTestObjective(t, ds, 0, DefaultDomainBarrier, DiscreteOnly)
	x0 := o.startPoint()
	assert.Equal(t, 1.0, x0[0])
	for _, v := range x0[1:] {
		assert.Equal(t, 0.0, v)
	}
	// y* = 0 in every branch and ŷ = 1, so each gap is 1 and each hinge ½·2².
	assert.InDelta(t, 2.0, o.eval(x0, nil), 1e-12)
}

func TestSuboptimalityLossVariants(t *testing.T) {
	ds := generateDataset(t, generatingTheta(), trainingSignals)
	theta := generatingTheta()
	theta[0] = 2 // y* = 0.5 everywhere while ŷ = 1

	lz, err := SuboptimalityLoss(theta, ds, problem.BinarySpec(), DiscreteOnly, nil, nil)
	require.NoError(t, err)
	lyz, err := SuboptimalityLoss(theta, ds, problem.BinarySpec(), DiscreteAndContinuous, nil, nil)
	require.NoError(t, err)
	assert.Greater(t, lyz, 0.0)
	assert.GreaterOrEqual(t, lyz, lz)

	// Observed branch gap is Qyy(ŷ − y*)² = r²/(4Qyy) with r = 2Qyy·ŷ + a.
	r := 2*theta[0]*1 + theta[4]
	assert.LessOrEqual(t, r*r/(4*theta[0]), lyz+1e-12)

	_, err = SuboptimalityLoss(theta[:5], ds, problem.BinarySpec(), DiscreteOnly, nil, nil)
	assert.Error(t, err)
}

func TestLBFGSMinimizesQuadratic(t *testing.T) {
	f := func(x, grad []float64) float64 {
		if grad != nil {
			grad[0] = 2 * (x[0] - 3)
			grad[1] = 4 * (x[1] + 1)
		}
		return (x[0]-3)*(x[0]-3) + 2*(x[1]+1)*(x[1]+1)
	}
	res, err := NewLBFGS().Minimize(context.Background(), f, []float64{0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, res.X[0], 1e-4)
	assert.InDelta(t, -1.0, res.X[1], 1e-4)
	assert.NotEmpty(t, res.Status)
}

func TestLBFGSRejectsInfiniteStart(t *testing.T) {
	f := func(x, grad []float64) float64 { return math.Inf(1) }
	_, err := NewLBFGS().Minimize(context.Background(), f, []float64{0})
	assert.Error(t, err)
}
