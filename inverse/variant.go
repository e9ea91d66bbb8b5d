package inverse

import (
	"strings"

	"github.com/YuminosukeSato/invopt/pkg/errors"
)

// LossVariant selects which suboptimality the learner penalizes.
type LossVariant int

const (
	// DiscreteOnly (ASL-z) penalizes only alternative discrete branches.
	DiscreteOnly LossVariant = iota
	// DiscreteAndContinuous (ASL-yz) also penalizes a suboptimal continuous
	// decision within the observed branch.
	DiscreteAndContinuous
)

// String returns "ASL-z" or "ASL-yz".
func (v LossVariant) String() string {
	switch v {
	case DiscreteOnly:
		return "ASL-z"
	case DiscreteAndContinuous:
		return "ASL-yz"
	default:
		return "unknown"
	}
}

// ParseLossVariant accepts the names returned by String, case-insensitively.
func ParseLossVariant(s string) (LossVariant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asl-z", "z", "discrete":
		return DiscreteOnly, nil
	case "asl-yz", "yz", "discrete_continuous":
		return DiscreteAndContinuous, nil
	default:
		return 0, errors.NewValidationError("variant", "must be ASL-z or ASL-yz", s)
	}
}
