// Package invopt learns the cost parameters of a mixed-integer quadratic
// decision problem from observed decisions (inverse optimization).
//
// The forward problem has one continuous decision y restricted to the
// half-spaces A·y ≤ B of a context and one discrete decision z from a finite
// domain. Its cost is linear in the parameter vector θ:
//
//	f(θ, s, (y, z)) = Qyy·y² + y·(Q·φ1(w, z)) + q·φ2(w, z)
//
// Given (context, decision) pairs, the learner estimates θ so that re-solving
// the forward problem reproduces the observed decisions.
//
// # Quick Start
//
//	learner, err := inverse.NewLearner(problem.BinarySpec(),
//	    inverse.WithVariant(inverse.DiscreteAndContinuous),
//	    inverse.WithRegParam(1e-4),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	model, err := learner.Fit(ctx, dataset)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	dist, err := metrics.Evaluate(model.Theta(), testSet, model.Solver(), metrics.DiscreteL1)
//
// # Packages
//
//   - core/problem: contexts, decisions, datasets, discrete domains, θ layout
//   - features: the feature maps φ1, φ2 and the augmented vector ψ
//   - forward: the forward solver (branch enumeration, closed-form y)
//   - inverse: the learner, suboptimality losses and the L-BFGS minimizer
//   - metrics: decision distances, the evaluator, mean/percentile summaries
//   - core/model: estimator state and exported weights
//   - core/parallel: parallel processing utilities
//   - preprocessing: CSV loading, seeded splits, scalers, dataset construction
//   - linear: ridge and logistic regression baselines
//   - experiment: config, repeated-split runner, SQLite store, metrics, report
//   - pkg/errors, pkg/log: error taxonomy and structured logging
//
// The cmd/bcwp command runs the breast-cancer prognosis experiment end to end.
package invopt
