package experiment

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/YuminosukeSato/invopt/pkg/errors"
	"github.com/YuminosukeSato/invopt/pkg/log"
)

// Metrics collects fit timings and failures of a runner.
type Metrics struct {
	FitDuration    *prometheus.HistogramVec
	SolverFailures *prometheus.CounterVec
	RunsCompleted  prometheus.Counter
	TestError      *prometheus.GaugeVec
}

// NewMetrics registers the experiment collectors with reg. A nil reg uses a
// fresh private registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		FitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "invopt",
			Name:      "fit_duration_seconds",
			Help:      "Duration of one model fit",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"method"}),
		SolverFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invopt",
			Name:      "solver_failures_total",
			Help:      "Fits or evaluations that failed, by failure kind",
		}, []string{"method", "kind"}),
		RunsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "invopt",
			Name:      "runs_completed_total",
			Help:      "Repetitions that finished without error",
		}),
		TestError: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "invopt",
			Name:      "last_test_error",
			Help:      "Test error of the most recently finished repetition",
		}, []string{"method", "decision"}),
	}
	reg.MustRegister(m.FitDuration, m.SolverFailures, m.RunsCompleted, m.TestError)
	return m
}

func (m *Metrics) observeFit(method string, d time.Duration) {
	m.FitDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) recordFailure(method string, err error) {
	m.SolverFailures.WithLabelValues(method, failureKind(err)).Inc()
}

func (m *Metrics) recordScores(method string, s Scores) {
	m.TestError.WithLabelValues(method, "y").Set(s.TestY)
	m.TestError.WithLabelValues(method, "z").Set(s.TestZ)
}

func failureKind(err error) string {
	switch {
	case errors.IsInfeasible(err):
		return errors.Infeasible.String()
	case errors.IsUnbounded(err):
		return errors.Unbounded.String()
	case errors.IsSolverError(err, errors.NotConverged):
		return errors.NotConverged.String()
	default:
		return "other"
	}
}

// errorCode maps a failure to the error code attached to its log record.
func errorCode(err error) string {
	var dimErr *errors.DimensionError
	switch {
	case errors.IsInfeasible(err):
		return log.ErrorInfeasible
	case errors.IsUnbounded(err):
		return log.ErrorUnbounded
	case errors.IsSolverError(err, errors.NotConverged):
		return log.ErrorConvergence
	case errors.As(err, &dimErr):
		return log.ErrorDimensionMismatch
	case errors.Is(err, errors.ErrEmptyDataset):
		return log.ErrorEmptyData
	default:
		return log.ErrorInvalidInput
	}
}
