// Package problem defines the data model shared by the forward solver, the
// inverse learner and the evaluator: contexts, decisions, samples, datasets,
// the discrete decision descriptor and the layout of the parameter vector θ.
//
// Values are validated at construction and treated as read-only afterwards.
package problem
