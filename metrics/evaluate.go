package metrics

import (
	"github.com/YuminosukeSato/invopt/core/problem"
	"github.com/YuminosukeSato/invopt/forward"
	"github.com/YuminosukeSato/invopt/pkg/errors"
)

// Evaluate re-solves every sample with theta and returns the mean distance
// between the predicted and the observed decision.
//
// Distances are always dist(predicted, observed), with the observed discrete
// decision rounded to the nearest integer first. Solver failures are returned
// wrapped with the index of the offending sample.
func Evaluate(theta []float64, dataset problem.Dataset, solver forward.Backend, dist DistanceFunc) (float64, error) {
	if dataset.Len() == 0 {
		return 0, errors.NewEmptyDatasetError("metrics.Evaluate")
	}
	if solver == nil || dist == nil {
		return 0, errors.NewValueError("metrics.Evaluate", "solver and distance must not be nil")
	}

	var sum float64
	for i, s := range dataset {
		pred, err := solver.Solve(theta, s.Context)
		if err != nil {
			return 0, errors.Wrapf(err, "evaluate sample %d", i)
		}
		sum += dist(pred, s.Decision.Rounded())
	}
	return sum / float64(dataset.Len()), nil
}
