package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/invopt/core/problem"
)

func TestPhi(t *testing.T) {
	tests := []struct {
		name string
		w    []float64
		z    float64
		want []float64
	}{
		{"z zero", []float64{1, 2}, 0, []float64{1, 2, 0, 0, 0, 1}},
		{"z one", []float64{1, 2}, 1, []float64{1, 2, 1, 1, 2, 1}},
		{"scalar signal", []float64{-3}, 1, []float64{-3, 1, -3, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Phi1(tt.w, tt.z))
			assert.Equal(t, tt.want, Phi2(tt.w, tt.z))
			assert.Len(t, Phi1(tt.w, tt.z), Dim(len(tt.w)))
		})
	}
}

func TestPhiDoesNotAliasSignal(t *testing.T) {
	w := []float64{1, 2}
	f := Phi1(w, 1)
	f[0] = 42
	assert.Equal(t, 1.0, w[0])
}

func TestAugmentedReproducesObjective(t *testing.T) {
	ctx, err := problem.Unconstrained([]float64{0.5, -1})
	require.NoError(t, err)
	dec := problem.Decision{Y: 1.5, Z: 1}

	theta := make([]float64, problem.ThetaLen(2))
	for i := range theta {
		theta[i] = float64(i%5) - 1.5
	}
	qyy, Q, q, err := problem.SplitTheta(theta, 2)
	require.NoError(t, err)

	want := qyy*dec.Y*dec.Y + dec.Y*floats.Dot(Q, Phi1(ctx.W, dec.Z)) + floats.Dot(q, Phi2(ctx.W, dec.Z))
	aug := Augmented(Phi1, Phi2, ctx, dec)
	require.Len(t, aug, len(theta))
	assert.InDelta(t, want, floats.Dot(theta, aug), 1e-12)

	into := AugmentedInto(make([]float64, len(theta)), Default(), ctx, dec)
	assert.Equal(t, aug, into)

	joint := Joint(Phi1, Phi2, ctx, dec)
	assert.Equal(t, aug[1:], joint)
}

func TestPairCheck(t *testing.T) {
	assert.NoError(t, Pair{}.Check(3))
	short := Pair{Phi1: func(w []float64, z float64) []float64 { return w }}
	assert.Error(t, short.Check(3))
}
