package inverse

import (
	"math"

	"github.com/YuminosukeSato/invopt/core/model"
	"github.com/YuminosukeSato/invopt/core/problem"
	"github.com/YuminosukeSato/invopt/forward"
	"github.com/YuminosukeSato/invopt/pkg/errors"
)

// ModelType identifies learned θ in exported weights.
const ModelType = "InverseMIQP"

// WeightsVersion is the format version of exported weights.
const WeightsVersion = "1.0.0"

// Model is a learned θ. It is immutable.
type Model struct {
	theta      []float64
	spec       problem.DecisionSpec
	variant    LossVariant
	regParam   float64
	objective  float64
	iterations int
	status     string
	signalDim  int
	solver     *forward.Solver
}

// Theta returns a copy of the learned parameters.
func (m *Model) Theta() []float64 {
	out := make([]float64, len(m.theta))
	copy(out, m.theta)
	return out
}

// Spec returns the discrete domain the model was trained on.
func (m *Model) Spec() problem.DecisionSpec { return m.spec }

// Variant returns the loss variant used for training.
func (m *Model) Variant() LossVariant { return m.variant }

// RegParam returns κ.
func (m *Model) RegParam() float64 { return m.regParam }

// Objective returns the final value of the training loss.
func (m *Model) Objective() float64 { return m.objective }

// Iterations returns the number of major minimizer iterations.
func (m *Model) Iterations() int { return m.iterations }

// Status returns the termination status reported by the minimizer.
func (m *Model) Status() string { return m.status }

// SignalDim returns u.
func (m *Model) SignalDim() int { return m.signalDim }

// Solver returns the forward solver bound to the model's spec and feature maps.
func (m *Model) Solver() *forward.Solver { return m.solver }

// Predict solves the forward problem for ctx with the learned θ.
func (m *Model) Predict(ctx problem.Context) (problem.Decision, error) {
	return m.solver.Solve(m.theta, ctx)
}

// Weights exports θ and the training settings.
func (m *Model) Weights() *model.ModelWeights {
	hp := map[string]interface{}{
		"reg_param": m.regParam,
		"variant":   m.variant.String(),
		"kind":      m.spec.Kind.String(),
	}
	if m.spec.Bound != nil {
		hp["lower"] = m.spec.Bound.Lower
		hp["upper"] = m.spec.Bound.Upper
	}
	return &model.ModelWeights{
		ModelType:       ModelType,
		Version:         WeightsVersion,
		Coefficients:    m.Theta(),
		Hyperparameters: hp,
		Metadata: map[string]interface{}{
			"signal_dim": m.signalDim,
			"objective":  m.objective,
			"iterations": m.iterations,
			"status":     m.status,
		},
		IsFitted: true,
	}
}

// ModelFromWeights rebuilds a model from exported weights. A nil spec is
// restored from the stored kind and bounds; a non-nil spec must match the
// stored kind. Unknown variants and kinds are rejected with a ValidationError.
func ModelFromWeights(w *model.ModelWeights, spec *problem.DecisionSpec) (*Model, error) {
	const op = "inverse.ModelFromWeights"
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if w.ModelType != ModelType {
		return nil, errors.NewValidationError("model_type", "not an inverse-optimization model", w.ModelType)
	}
	u, err := problem.SignalDimForTheta(len(w.Coefficients))
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	s, err := storedSpec(w.Hyperparameters, spec)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	solver, err := forward.NewSolver(s)
	if err != nil {
		return nil, err
	}

	m := &Model{
		theta:     append([]float64(nil), w.Coefficients...),
		spec:      s,
		signalDim: u,
		solver:    solver,
	}
	if v, ok := w.Hyperparameters["reg_param"].(float64); ok {
		m.regParam = v
	}
	if raw, ok := w.Hyperparameters["variant"]; ok {
		name, _ := raw.(string)
		variant, err := ParseLossVariant(name)
		if err != nil {
			return nil, errors.Wrap(errors.NewValidationError("variant", "unknown loss variant", raw), op)
		}
		m.variant = variant
	}
	if v, ok := w.Metadata["objective"].(float64); ok {
		m.objective = v
	}
	if v, ok := intValue(w.Metadata["iterations"]); ok {
		m.iterations = v
	}
	if v, ok := w.Metadata["status"].(string); ok {
		m.status = v
	}
	return m, nil
}

// storedSpec resolves the decision domain of exported weights. Weights
// without a kind are binary.
func storedSpec(hp map[string]interface{}, spec *problem.DecisionSpec) (problem.DecisionSpec, error) {
	kind := problem.Binary
	if raw, ok := hp["kind"]; ok {
		name, _ := raw.(string)
		k, err := problem.ParseKind(name)
		if err != nil {
			return problem.DecisionSpec{}, err
		}
		kind = k
	}

	if spec != nil {
		if spec.Kind != kind {
			return problem.DecisionSpec{}, errors.NewValidationError("kind",
				"does not match the stored domain "+kind.String(), spec.Kind.String())
		}
		return *spec, nil
	}

	switch kind {
	case problem.Binary:
		return problem.BinarySpec(), nil
	case problem.Integer:
		lower, okL := intValue(hp["lower"])
		upper, okU := intValue(hp["upper"])
		if !okL || !okU {
			return problem.DecisionSpec{}, errors.NewValidationError("kind",
				"integer domain without stored bounds needs an explicit spec", kind.String())
		}
		return problem.IntegerSpec(lower, upper), nil
	default:
		return problem.DecisionSpec{}, errors.NewValidationError("kind", "has no finite domain", kind.String())
	}
}

// intValue accepts the integer encodings produced by gob and JSON.
func intValue(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	}
	return 0, false
}

// SaveModel writes the model's weights to filename.
func SaveModel(m *Model, filename string) error {
	return model.SaveWeights(m.Weights(), filename)
}

// LoadModel reads weights written by SaveModel. spec follows ModelFromWeights.
func LoadModel(filename string, spec *problem.DecisionSpec) (*Model, error) {
	w, err := model.LoadWeights(filename)
	if err != nil {
		return nil, err
	}
	return ModelFromWeights(w, spec)
}
