package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/invopt/core/problem"
	"github.com/YuminosukeSato/invopt/pkg/errors"
)

// DistanceFunc measures how far a predicted decision is from an observed one.
// It must be non-negative and zero on identical decisions.
type DistanceFunc func(a, b problem.Decision) float64

// ContinuousL1 is |a.Y - b.Y|.
func ContinuousL1(a, b problem.Decision) float64 { return math.Abs(a.Y - b.Y) }

// DiscreteL1 is |a.Z - b.Z|. On binary decisions this is the Hamming distance.
func DiscreteL1(a, b problem.Decision) float64 { return math.Abs(a.Z - b.Z) }

// L1 returns the mean absolute difference of two vectors of equal length.
func L1(a, b []float64) (float64, error) {
	if len(a) == 0 {
		return 0, errors.NewValueError("L1", "empty vector")
	}
	if len(a) != len(b) {
		return 0, errors.NewDimensionError("L1", len(a), len(b), 0)
	}
	return floats.Distance(a, b, 1) / float64(len(a)), nil
}
