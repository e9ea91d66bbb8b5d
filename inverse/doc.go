// Package inverse learns the cost parameters θ = (Qyy, Q, q) of the forward
// problem from observed (context, decision) pairs.
//
// The learner minimizes a single convex loss over θ built from the
// suboptimality gaps
//
//	g_iz(θ) = f_i(θ, x̂_i) − min_{y ∈ Y_i} f_i(θ, (y, z))
//
// where f_i is the forward objective of sample i and x̂_i its observed
// decision. For every alternative z ≠ ẑ_i the squared hinge
// ½·max(0, g_iz + d(x̂_i, (ŷ_i, z)))² is charged; the ASL-yz variant adds the
// gap of the observed branch g_iẑ_i, which vanishes only when ŷ_i is optimal
// for ẑ_i. A ridge term κ‖θ‖² and a barrier μ·(Qyy − 1 − log Qyy), active
// only for Qyy < 1, complete the objective.
//
// Gradients follow from Danskin's theorem: the gradient of g_iz is
// ψ(x̂_i) − ψ((y*_iz, z)) where ψ is the augmented feature vector and y*_iz the
// closed-form branch minimizer of the forward solver.
//
// Example:
//
//	learner, err := inverse.NewLearner(problem.BinarySpec(),
//	    inverse.WithRegParam(1e-4),
//	    inverse.WithVariant(inverse.DiscreteOnly),
//	)
//	model, err := learner.Fit(ctx, dataset)
//	dec, err := model.Predict(dataset[0].Context)
package inverse
