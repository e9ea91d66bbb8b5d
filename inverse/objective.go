package inverse

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/invopt/core/problem"
	"github.com/YuminosukeSato/invopt/features"
	"github.com/YuminosukeSato/invopt/forward"
	"github.com/YuminosukeSato/invopt/metrics"
	"github.com/YuminosukeSato/invopt/pkg/errors"
)

// branch holds the θ-independent data of one discrete value for one sample.
type branch struct {
	z      float64
	phi1   []float64
	phi2   []float64
	margin float64
}

// term holds the θ-independent data of one sample.
type term struct {
	lo, hi   float64
	psiHat   []float64
	observed int // index of ẑ in branches
	branches []branch
}

// objective evaluates the learning loss and its gradient for a fixed dataset.
type objective struct {
	terms   []term
	cQ      int
	dim     int
	kappa   float64
	mu      float64
	variant LossVariant

	psi []float64 // scratch
}

// buildObjective validates the dataset and precomputes every quantity that
// does not depend on θ.
func buildObjective(op string, dataset problem.Dataset, values []float64, maps features.Pair, distZ metrics.DistanceFunc, kappa, mu float64, variant LossVariant) (*objective, error) {
	if err := dataset.Validate(op); err != nil {
		return nil, err
	}
	u := dataset.SignalDim()
	if err := maps.Check(u); err != nil {
		return nil, err
	}

	o := &objective{
		terms:   make([]term, dataset.Len()),
		cQ:      problem.FeatureDim(u),
		dim:     problem.ThetaLen(u),
		kappa:   kappa,
		mu:      mu,
		variant: variant,
	}
	o.psi = make([]float64, o.dim)

	for i, s := range dataset {
		lo, hi, err := s.Context.Interval()
		if err != nil {
			return nil, errors.NewSolverError(op, errors.Infeasible, "", i, nil, err)
		}
		obs, err := problem.NewDecision(s.Decision.Y, s.Decision.Z)
		if err != nil {
			return nil, errors.Wrapf(err, "sample %d", i)
		}
		obs = obs.Rounded()

		t := term{
			lo:       lo,
			hi:       hi,
			psiHat:   features.AugmentedInto(make([]float64, o.dim), maps, s.Context, obs),
			observed: -1,
			branches: make([]branch, len(values)),
		}
		for k, z := range values {
			if z == obs.Z {
				t.observed = k
			}
			t.branches[k] = branch{
				z:      z,
				phi1:   maps.Phi1(s.Context.W, z),
				phi2:   maps.Phi2(s.Context.W, z),
				margin: distZ(obs, problem.Decision{Y: obs.Y, Z: z}),
			}
		}
		if t.observed < 0 {
			return nil, errors.Wrapf(
				errors.NewValidationError("z", "observed discrete decision is outside the domain", obs.Z),
				"sample %d", i)
		}
		o.terms[i] = t
	}
	return o, nil
}

// startPoint returns Qyy = 1 and zeros elsewhere.
func (o *objective) startPoint() []float64 {
	x := make([]float64, o.dim)
	x[0] = 1
	return x
}

// branchGap returns g = f(θ, x̂) − f(θ, (y*, z)) and leaves ψ((y*, z)) in o.psi.
func (o *objective) branchGap(theta []float64, t *term, br *branch, fHat float64) (float64, error) {
	qyy := theta[0]
	a := floats.Dot(theta[1:1+o.cQ], br.phi1)
	y, err := forward.MinimizeQuadratic(qyy, a, t.lo, t.hi)
	if err != nil {
		return 0, err
	}
	o.psi[0] = y * y
	floats.ScaleTo(o.psi[1:1+o.cQ], y, br.phi1)
	copy(o.psi[1+o.cQ:], br.phi2)
	return fHat - floats.Dot(theta, o.psi), nil
}

// barrier returns μ·(Qyy − 1 − log Qyy) for Qyy < 1 and 0 otherwise, with
// its derivative. It is convex, C¹ at Qyy = 1 and infinite for Qyy ≤ 0.
func (o *objective) barrier(qyy float64) (val, deriv float64) {
	if o.mu == 0 || qyy >= 1 {
		return 0, 0
	}
	if qyy <= 0 {
		return math.Inf(1), 0
	}
	return o.mu * (qyy - 1 - math.Log(qyy)), o.mu * (1 - 1/qyy)
}

// eval returns J(θ) and, when grad is non-nil, writes ∇J(θ) into it.
// Parameters for which some branch is unbounded below evaluate to +Inf.
func (o *objective) eval(theta, grad []float64) float64 {
	if grad != nil {
		for j := range grad {
			grad[j] = 0
		}
	}
	bVal, bDeriv := o.barrier(theta[0])
	if math.IsInf(bVal, 1) {
		return bVal
	}

	var total float64
	for i := range o.terms {
		t := &o.terms[i]
		fHat := floats.Dot(theta, t.psiHat)
		for k := range t.branches {
			g, err := o.branchGap(theta, t, &t.branches[k], fHat)
			if err != nil {
				return math.Inf(1)
			}

			var weight float64
			if k == t.observed {
				if o.variant != DiscreteAndContinuous {
					continue
				}
				total += g
				weight = 1
			} else {
				m := g + t.branches[k].margin
				if m <= 0 {
					continue
				}
				total += 0.5 * m * m
				weight = m
			}
			if grad != nil {
				floats.AddScaled(grad, weight, t.psiHat)
				floats.AddScaled(grad, -weight, o.psi)
			}
		}
	}

	n := float64(len(o.terms))
	total /= n
	total += o.kappa*floats.Dot(theta, theta) + bVal
	if grad != nil {
		floats.Scale(1/n, grad)
		floats.AddScaled(grad, 2*o.kappa, theta)
		grad[0] += bDeriv
	}
	return total
}

// suboptimality returns the mean per-sample loss without margin or ridge.
func (o *objective) suboptimality(op string, theta []float64, variant LossVariant) (float64, error) {
	if len(theta) != o.dim {
		return 0, errors.NewDimensionError(op, o.dim, len(theta), 1)
	}
	var total float64
	for i := range o.terms {
		t := &o.terms[i]
		fHat := floats.Dot(theta, t.psiHat)
		worst := 0.0
		for k := range t.branches {
			if k == t.observed && variant != DiscreteAndContinuous {
				continue
			}
			g, err := o.branchGap(theta, t, &t.branches[k], fHat)
			if err != nil {
				return 0, errors.NewSolverError(op, errors.Unbounded, "", i, theta, err)
			}
			worst = math.Max(worst, g)
		}
		total += worst
	}
	return total / float64(len(o.terms)), nil
}

// SuboptimalityLoss returns the mean suboptimality of the observed decisions
// under theta. For DiscreteOnly a sample contributes max(0, max_{z≠ẑ} g_z);
// for DiscreteAndContinuous it contributes f(θ, x̂) − min_z min_y f(θ, (y, z)).
// Both are zero when every observation is optimal for theta.
//
// Nil feature maps fall back to the defaults.
func SuboptimalityLoss(theta []float64, dataset problem.Dataset, spec problem.DecisionSpec, variant LossVariant, phi1, phi2 features.Map) (float64, error) {
	const op = "inverse.SuboptimalityLoss"
	values, err := spec.Values()
	if err != nil {
		return 0, err
	}
	maps := features.Pair{Phi1: phi1, Phi2: phi2}.OrDefault()
	o, err := buildObjective(op, dataset, values, maps, metrics.DiscreteL1, 0, 0, variant)
	if err != nil {
		return 0, err
	}
	return o.suboptimality(op, theta, variant)
}
