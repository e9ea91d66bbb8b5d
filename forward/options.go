package forward

import (
	"github.com/YuminosukeSato/invopt/features"
	"github.com/YuminosukeSato/invopt/pkg/log"
)

// Option configures a Solver.
type Option func(*Solver)

// WithFeatureMaps replaces the default feature maps. A nil map keeps the default.
func WithFeatureMaps(phi1, phi2 features.Map) Option {
	return func(s *Solver) {
		s.maps = features.Pair{Phi1: phi1, Phi2: phi2}.OrDefault()
	}
}

// WithTieTolerance sets the relative tolerance under which two branch values
// are treated as equal. The lower z wins a tie.
func WithTieTolerance(tol float64) Option {
	return func(s *Solver) {
		s.tieTol = tol
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger log.Logger) Option {
	return func(s *Solver) {
		s.logger = logger
	}
}
