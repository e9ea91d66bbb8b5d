package metrics

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/invopt/pkg/errors"
)

// Default percentiles reported next to the mean of repeated experiments.
const (
	DefaultLowerPercentile = 5
	DefaultUpperPercentile = 95
)

// Summary is the mean of a sample together with two empirical percentiles.
type Summary struct {
	Mean  float64
	Lower float64
	Upper float64
}

// MeanPercentiles returns the mean of values and its lower/upper empirical
// percentiles, given in [0, 100]. values is not modified.
func MeanPercentiles(values []float64, lower, upper float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, errors.NewValueError("MeanPercentiles", "empty vector")
	}
	if lower < 0 || upper > 100 || lower > upper {
		return Summary{}, errors.NewValidationError("percentiles", "need 0 <= lower <= upper <= 100", [2]float64{lower, upper})
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return Summary{
		Mean:  stat.Mean(sorted, nil),
		Lower: stat.Quantile(lower/100, stat.LinInterp, sorted, nil),
		Upper: stat.Quantile(upper/100, stat.LinInterp, sorted, nil),
	}, nil
}
