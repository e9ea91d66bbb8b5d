// Package features provides the feature maps that make the forward objective
// linear in its cost parameters.
//
// For a signal w of length u and a discrete value z both default maps return
//
//	[w, z, w·z, 1]
//
// of length 2u+2. The augmented vector of a decision (y, z) is
//
//	[y², y·φ1(w, z), φ2(w, z)]
//
// so that θ·Augmented equals Qyy·y² + y·(Q·φ1) + q·φ2 for θ = (Qyy, Q, q).
package features

import (
	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/invopt/core/problem"
	"github.com/YuminosukeSato/invopt/pkg/errors"
)

// Map maps a signal and a discrete value to a feature vector.
type Map func(w []float64, z float64) []float64

// Dim returns the length of the default feature vector for a signal of length u.
func Dim(u int) int { return problem.FeatureDim(u) }

// Phi1 is the default feature map paired with the y-linear block Q.
func Phi1(w []float64, z float64) []float64 { return interaction(w, z) }

// Phi2 is the default feature map paired with the y-free block q.
func Phi2(w []float64, z float64) []float64 { return interaction(w, z) }

func interaction(w []float64, z float64) []float64 {
	u := len(w)
	out := make([]float64, 2*u+2)
	copy(out, w)
	out[u] = z
	floats.ScaleTo(out[u+1:2*u+1], z, w)
	out[2*u+1] = 1
	return out
}

// Pair bundles the two maps. A zero Pair falls back to Phi1 and Phi2.
type Pair struct {
	Phi1 Map
	Phi2 Map
}

// Default returns the pair (Phi1, Phi2).
func Default() Pair { return Pair{Phi1: Phi1, Phi2: Phi2} }

// OrDefault fills nil maps with the defaults.
func (p Pair) OrDefault() Pair {
	if p.Phi1 == nil {
		p.Phi1 = Phi1
	}
	if p.Phi2 == nil {
		p.Phi2 = Phi2
	}
	return p
}

// Check evaluates both maps on a signal of length u and verifies that each
// yields 2u+2 entries, the length the θ layout is built around.
func (p Pair) Check(u int) error {
	p = p.OrDefault()
	w := make([]float64, u)
	if n := len(p.Phi1(w, 0)); n != Dim(u) {
		return errors.NewDimensionError("features.Phi1", Dim(u), n, 1)
	}
	if n := len(p.Phi2(w, 0)); n != Dim(u) {
		return errors.NewDimensionError("features.Phi2", Dim(u), n, 1)
	}
	return nil
}

// Joint returns concat(y·φ1(w, z), φ2(w, z)).
func Joint(phi1, phi2 Map, ctx problem.Context, dec problem.Decision) []float64 {
	f1 := phi1(ctx.W, dec.Z)
	f2 := phi2(ctx.W, dec.Z)
	out := make([]float64, len(f1)+len(f2))
	floats.ScaleTo(out[:len(f1)], dec.Y, f1)
	copy(out[len(f1):], f2)
	return out
}

// Augmented returns concat([y²], Joint(phi1, phi2, ctx, dec)).
func Augmented(phi1, phi2 Map, ctx problem.Context, dec problem.Decision) []float64 {
	joint := Joint(phi1, phi2, ctx, dec)
	out := make([]float64, 1+len(joint))
	out[0] = dec.Y * dec.Y
	copy(out[1:], joint)
	return out
}

// AugmentedInto writes the augmented vector into dst, which must have length
// 1 + len(φ1) + len(φ2), and returns dst.
func AugmentedInto(dst []float64, p Pair, ctx problem.Context, dec problem.Decision) []float64 {
	f1 := p.Phi1(ctx.W, dec.Z)
	f2 := p.Phi2(ctx.W, dec.Z)
	dst[0] = dec.Y * dec.Y
	floats.ScaleTo(dst[1:1+len(f1)], dec.Y, f1)
	copy(dst[1+len(f1):], f2)
	return dst
}
