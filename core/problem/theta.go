package problem

import (
	"github.com/YuminosukeSato/invopt/pkg/errors"
)

// FeatureDim returns cQ = 2u+2, the length of [w, z, w·z, 1].
func FeatureDim(u int) int { return 2*u + 2 }

// ThetaLen returns the length of θ = (Qyy, Q, q) for a signal of length u.
func ThetaLen(u int) int { return 1 + 2*FeatureDim(u) }

// SplitTheta decomposes θ into Qyy, Q and q. Q and q alias theta.
func SplitTheta(theta []float64, u int) (qyy float64, Q, q []float64, err error) {
	cQ := FeatureDim(u)
	if len(theta) != 1+2*cQ {
		return 0, nil, nil, errors.NewDimensionError("problem.SplitTheta", 1+2*cQ, len(theta), 1)
	}
	return theta[0], theta[1 : 1+cQ], theta[1+cQ:], nil
}

// SignalDimForTheta inverts ThetaLen. It fails when n is not of the form 4u+5.
func SignalDimForTheta(n int) (int, error) {
	if n < 9 || (n-5)%4 != 0 {
		return 0, errors.NewValidationError("theta", "length must be 4u+5 for some u ≥ 1", n)
	}
	return (n - 5) / 4, nil
}
