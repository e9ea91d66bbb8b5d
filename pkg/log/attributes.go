// Package log defines standard attribute keys for inverse-optimization runs.
//
// Keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples") so that logs of fit, solve and evaluate calls can be
// filtered uniformly.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the component type.
	// Examples: "Learner", "ForwardSolver", "Ridge"
	ModelNameKey = "model.name"

	// EstimatorIDKey provides a unique identifier for a specific run or model instance.
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "evaluate", "solve"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the experiment.
	// Examples: "training", "testing"
	PhaseKey = "ml.phase"

	// VariantKey records the loss variant ("ASL-z", "ASL-yz").
	VariantKey = "model.variant"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of (context, decision) samples.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the signal dimension u.
	FeaturesKey = "data.features"

	// ThetaDimKey indicates the length of the parameter vector.
	ThetaDimKey = "data.theta_dim"

	// DomainSizeKey indicates the number of feasible discrete values.
	DomainSizeKey = "data.domain_size"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// LossKey records the objective value reached by the learner.
	LossKey = "metrics.loss"

	// DistanceKey records a mean decision distance produced by the evaluator.
	DistanceKey = "metrics.distance"

	// IterationKey records the number of solver iterations.
	IterationKey = "training.iteration"

	// SolverStatusKey records the termination status reported by the numeric solver.
	SolverStatusKey = "solver.status"

	// ThetaNormKey records the Euclidean norm of the learned parameters.
	ThetaNormKey = "model.theta_norm"
)

// Error and Warning Context
const (
	// ErrorKey holds the error message.
	ErrorKey = "error"

	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// StacktraceKey contains stack trace information extracted from cockroachdb/errors.
	StacktraceKey = "error.stacktrace"
)

// Hyperparameters and Configuration
const (
	// RegularizationKey records the regularization strength κ.
	RegularizationKey = "hyperparams.regularization"

	// RandomSeedKey records the seed of a repetition.
	RandomSeedKey = "config.random_seed"

	// RunKey records the repetition index.
	RunKey = "config.run"
)

// Standard attribute values.
const (
	OperationFit      = "fit"
	OperationSolve    = "solve"
	OperationEvaluate = "evaluate"

	PhaseTraining = "training"
	PhaseTesting  = "testing"

	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
	ErrorInfeasible        = "INFEASIBLE"
	ErrorUnbounded         = "UNBOUNDED"
)
