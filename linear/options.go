package linear

// RidgeOption configures Ridge.
type RidgeOption func(*Ridge)

// WithAlpha sets the L2 penalty on the weights. The intercept is not penalized.
func WithAlpha(alpha float64) RidgeOption {
	return func(r *Ridge) {
		r.alpha = alpha
	}
}

// WithFitIntercept sets whether to calculate the intercept
func WithFitIntercept(fit bool) RidgeOption {
	return func(r *Ridge) {
		r.fitIntercept = fit
	}
}

// LogisticOption configures LogisticRegression.
type LogisticOption func(*LogisticRegression)

// WithC sets the inverse regularization strength.
func WithC(c float64) LogisticOption {
	return func(lr *LogisticRegression) {
		lr.c = c
	}
}

// WithMaxIter sets the maximum number of gradient steps.
func WithMaxIter(n int) LogisticOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = n
	}
}

// WithTol sets the tolerance on the largest gradient component.
func WithTol(tol float64) LogisticOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLearningRate sets the base step size of the decaying schedule.
func WithLearningRate(eta float64) LogisticOption {
	return func(lr *LogisticRegression) {
		lr.learningRate = eta
	}
}
