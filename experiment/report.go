package experiment

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/YuminosukeSato/invopt/metrics"
	"github.com/YuminosukeSato/invopt/pkg/errors"
)

// Metric names one of the four scores of a method.
type Metric string

// Reported metrics, in report order.
const (
	MetricTrainY Metric = "y train"
	MetricTestY  Metric = "y test"
	MetricTrainZ Metric = "z train"
	MetricTestZ  Metric = "z test"
)

var allMetrics = []Metric{MetricTrainY, MetricTestY, MetricTrainZ, MetricTestZ}

// Value returns the score named by m.
func (s Scores) Value(m Metric) (float64, error) {
	switch m {
	case MetricTrainY:
		return s.TrainY, nil
	case MetricTestY:
		return s.TestY, nil
	case MetricTrainZ:
		return s.TrainZ, nil
	case MetricTestZ:
		return s.TestZ, nil
	default:
		return 0, errors.NewValidationError("metric", "unknown metric", string(m))
	}
}

// ReportRow summarizes one metric of one method across repetitions.
type ReportRow struct {
	Method  string
	Metric  Metric
	Summary metrics.Summary
}

// Report aggregates repetitions with the mean and the 5th/95th percentiles.
type Report struct {
	Runs    int
	Methods []string
	Rows    []ReportRow
}

// Methods returns the method names of results in first-seen order.
func Methods(results []RunResult) []string {
	var names []string
	seen := map[string]bool{}
	for _, res := range results {
		for _, m := range res.Methods {
			if !seen[m.Method] {
				seen[m.Method] = true
				names = append(names, m.Method)
			}
		}
	}
	return names
}

// Collect returns metric of method over every repetition that ran it.
func Collect(results []RunResult, method string, metric Metric) ([]float64, error) {
	var values []float64
	for _, res := range results {
		m, ok := res.Method(method)
		if !ok {
			continue
		}
		v, err := m.Value(metric)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// NewReport summarizes results.
func NewReport(results []RunResult) (*Report, error) {
	if len(results) == 0 {
		return nil, errors.NewValueError("experiment.NewReport", "no results")
	}
	rep := &Report{Runs: len(results), Methods: Methods(results)}
	for _, method := range rep.Methods {
		for _, metric := range allMetrics {
			values, err := Collect(results, method, metric)
			if err != nil {
				return nil, err
			}
			sum, err := metrics.MeanPercentiles(values, metrics.DefaultLowerPercentile, metrics.DefaultUpperPercentile)
			if err != nil {
				return nil, errors.Wrapf(err, "%s %s", method, metric)
			}
			rep.Rows = append(rep.Rows, ReportRow{Method: method, Metric: metric, Summary: sum})
		}
	}
	return rep, nil
}

// Lookup returns the summary of (method, metric).
func (r *Report) Lookup(method string, metric Metric) (metrics.Summary, bool) {
	for _, row := range r.Rows {
		if row.Method == method && row.Metric == metric {
			return row.Summary, true
		}
	}
	return metrics.Summary{}, false
}

// Render writes the report as an aligned table.
func (r *Report) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "runs = %d\n\n", r.Runs)
	fmt.Fprintln(tw, "method\tmetric\tmean\tp5\tp95")
	for _, row := range r.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.4f\t%.4f\n",
			row.Method, row.Metric, row.Summary.Mean, row.Summary.Lower, row.Summary.Upper)
	}
	return errors.Wrap(tw.Flush(), "render report")
}
