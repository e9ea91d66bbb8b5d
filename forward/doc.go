// Package forward solves the forward problem
//
//	min_{y, z}  Qyy·y² + y·(Q·φ1(w, z)) + q·φ2(w, z)
//	s.t.        A·y ≤ B,  z ∈ Z
//
// for a given θ = (Qyy, Q, q) and context (A, B, C, w), where y is a scalar
// continuous decision and Z is the finite discrete domain of a DecisionSpec.
//
// The solver enumerates Z in ascending order and minimizes each branch in
// closed form over the interval {y : A·y ≤ B}. No external optimizer is
// required; callers that want one can plug it in through Backend.
package forward
