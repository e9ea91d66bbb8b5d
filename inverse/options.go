package inverse

import (
	"github.com/YuminosukeSato/invopt/features"
	"github.com/YuminosukeSato/invopt/metrics"
	"github.com/YuminosukeSato/invopt/pkg/log"
)

// DefaultRegParam is the default ridge weight κ. It is small enough that data
// labelled by the forward solver under some θ₀ is refit with zero ASL-z loss;
// larger values trade training fit for a smaller ‖θ̂‖.
const DefaultRegParam = 1e-4

// DefaultDomainBarrier is the default weight μ of the barrier keeping Qyy
// away from zero.
const DefaultDomainBarrier = 1e-3

// Option configures a Learner.
type Option func(*Learner)

// WithRegParam sets κ ≥ 0.
func WithRegParam(kappa float64) Option {
	return func(l *Learner) {
		l.regParam = kappa
	}
}

// WithDomainBarrier sets μ ≥ 0, the weight of μ·(Qyy − 1 − log Qyy) added for
// Qyy < 1. The term keeps the minimizer inside Qyy > 0, where every branch is
// bounded. μ = 0 removes it.
func WithDomainBarrier(mu float64) Option {
	return func(l *Learner) {
		l.barrier = mu
	}
}

// WithVariant sets the loss variant.
func WithVariant(v LossVariant) Option {
	return func(l *Learner) {
		l.variant = v
	}
}

// WithFeatureMaps replaces φ1 and φ2. Both maps must return 2u+2 entries.
func WithFeatureMaps(phi1, phi2 features.Map) Option {
	return func(l *Learner) {
		l.maps = features.Pair{Phi1: phi1, Phi2: phi2}.OrDefault()
	}
}

// WithDiscreteDistance sets the margin d(x̂, (ŷ, z)) charged for alternative branches.
func WithDiscreteDistance(d metrics.DistanceFunc) Option {
	return func(l *Learner) {
		l.distZ = d
	}
}

// WithMinimizer replaces the numeric minimizer.
func WithMinimizer(m Minimizer) Option {
	return func(l *Learner) {
		l.minimizer = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(l *Learner) {
		l.logger = logger
	}
}
