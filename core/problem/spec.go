package problem

import (
	"fmt"
	"strings"

	"github.com/YuminosukeSato/invopt/pkg/errors"
)

// Kind is the domain kind of the discrete decision.
type Kind int

const (
	// Binary restricts z to {0, 1}.
	Binary Kind = iota
	// Integer restricts z to the integers of a bounded range.
	Integer
	// Continuous is accepted for completeness but has no finite domain.
	Continuous
)

// String returns the name used in configuration files.
func (k Kind) String() string {
	switch k {
	case Binary:
		return "binary"
	case Integer:
		return "integer"
	case Continuous:
		return "continuous"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps "binary", "integer" and "continuous" to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "binary":
		return Binary, nil
	case "integer":
		return Integer, nil
	case "continuous":
		return Continuous, nil
	default:
		return 0, errors.NewValidationError("kind", "must be binary, integer or continuous", s)
	}
}

// IntBound is an inclusive integer range.
type IntBound struct {
	Lower int
	Upper int
}

// DecisionSpec declares the domain of the discrete decision: kind, dimension
// and an optional bound. Only one-dimensional discrete decisions are
// supported.
type DecisionSpec struct {
	Kind      Kind
	Dimension int
	Bound     *IntBound
}

// BinarySpec returns (binary, 1, no bound).
func BinarySpec() DecisionSpec {
	return DecisionSpec{Kind: Binary, Dimension: 1}
}

// IntegerSpec returns a one-dimensional integer spec over [lower, upper].
func IntegerSpec(lower, upper int) DecisionSpec {
	return DecisionSpec{Kind: Integer, Dimension: 1, Bound: &IntBound{Lower: lower, Upper: upper}}
}

// maxDomainSize caps the enumeration performed by the solver and learner.
const maxDomainSize = 1 << 16

// Validate checks that the spec describes a finite one-dimensional domain.
func (s DecisionSpec) Validate() error {
	if s.Dimension != 1 {
		return errors.NewValidationError("dimension", "only one-dimensional discrete decisions are supported", s.Dimension)
	}
	switch s.Kind {
	case Binary:
		return nil
	case Integer:
		if s.Bound == nil {
			return errors.NewValidationError("bound", "integer decisions need a finite bound", nil)
		}
		if s.Bound.Lower > s.Bound.Upper {
			return errors.NewValidationError("bound", "lower exceeds upper", *s.Bound)
		}
		if s.Bound.Upper-s.Bound.Lower+1 > maxDomainSize {
			return errors.NewValidationError("bound", "domain too large to enumerate", *s.Bound)
		}
		return nil
	case Continuous:
		return errors.NewValidationError("kind", "continuous discrete part has no finite domain", s.Kind.String())
	default:
		return errors.NewValidationError("kind", "unknown kind", int(s.Kind))
	}
}

// Values enumerates the feasible values of z in ascending order.
func (s DecisionSpec) Values() ([]float64, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.Kind == Binary {
		return []float64{0, 1}, nil
	}
	vals := make([]float64, 0, s.Bound.Upper-s.Bound.Lower+1)
	for v := s.Bound.Lower; v <= s.Bound.Upper; v++ {
		vals = append(vals, float64(v))
	}
	return vals, nil
}

// Contains reports whether z is a feasible discrete value.
func (s DecisionSpec) Contains(z float64) bool {
	vals, err := s.Values()
	if err != nil {
		return false
	}
	for _, v := range vals {
		if v == z {
			return true
		}
	}
	return false
}
