package problem

import (
	"math"

	"github.com/YuminosukeSato/invopt/pkg/errors"
)

// Decision is a pair (y, z): y is the continuous decision, z the discrete one.
type Decision struct {
	Y float64
	Z float64
}

// NewDecision rejects non-finite components.
func NewDecision(y, z float64) (Decision, error) {
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return Decision{}, errors.NewValidationError("y", "must be finite", y)
	}
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return Decision{}, errors.NewValidationError("z", "must be finite", z)
	}
	return Decision{Y: y, Z: z}, nil
}

// Rounded returns the decision with z rounded to the nearest integer.
// Relaxation artifacts such as z = 0.9999999 must pass through here before
// being used as ground truth.
func (d Decision) Rounded() Decision {
	return Decision{Y: d.Y, Z: math.Round(d.Z)}
}

// IsIntegral reports whether z is already an integer.
func (d Decision) IsIntegral() bool {
	return d.Z == math.Trunc(d.Z)
}
