package linear

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/invopt/core/model"
	"github.com/YuminosukeSato/invopt/pkg/errors"
)

// LogisticRegression is an L2-regularized binary classifier trained by
// gradient descent with a decaying step size. Labels must be 0 or 1.
type LogisticRegression struct {
	state *model.StateManager

	c            float64 // inverse regularization strength
	maxIter      int
	tol          float64
	learningRate float64

	coef      []float64
	intercept float64
	nIter     int
}

var _ model.Estimator = (*LogisticRegression)(nil)

// NewLogisticRegression creates a classifier with C = 1, 1000 iterations and tolerance 1e-4.
func NewLogisticRegression(opts ...LogisticOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		c:            1.0,
		maxIter:      1000,
		tol:          1e-4,
		learningRate: 1.0,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// IsFitted reports whether Fit has completed.
func (lr *LogisticRegression) IsFitted() bool { return lr.state.IsFitted() }

// NIter returns the number of gradient steps taken by the last Fit.
func (lr *LogisticRegression) NIter() int { return lr.nIter }

// Fit trains the classifier.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LogisticRegression.Fit", "y must be a column vector")
	}
	if lr.c <= 0 {
		return errors.NewValidationError("C", "must be positive", lr.c)
	}
	labels := make([]float64, nSamples)
	for i := range labels {
		v := y.At(i, 0)
		if v != 0 && v != 1 {
			return errors.NewValidationError("y", "labels must be 0 or 1", v)
		}
		labels[i] = v
	}

	weights := make([]float64, nFeatures)
	intercept := 0.0
	lambda := 1.0 / lr.c
	gradWeights := make([]float64, nFeatures)

	lr.nIter = 0
	for iter := 0; iter < lr.maxIter; iter++ {
		for j := range gradWeights {
			gradWeights[j] = 0
		}
		gradIntercept := 0.0
		for i := 0; i < nSamples; i++ {
			z := intercept
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * weights[j]
			}
			residual := sigmoid(z) - labels[i]
			gradIntercept += residual
			for j := 0; j < nFeatures; j++ {
				gradWeights[j] += residual * X.At(i, j)
			}
		}

		maxGrad := math.Abs(gradIntercept / float64(nSamples))
		for j := range gradWeights {
			gradWeights[j] = gradWeights[j]/float64(nSamples) + lambda*weights[j]/float64(nSamples)
			maxGrad = math.Max(maxGrad, math.Abs(gradWeights[j]))
		}
		gradIntercept /= float64(nSamples)

		lr.nIter = iter + 1
		if maxGrad < lr.tol {
			break
		}

		eta := lr.learningRate / (1.0 + 0.01*float64(iter))
		for j := range weights {
			weights[j] -= eta * gradWeights[j]
		}
		intercept -= eta * gradIntercept
	}

	if err := errors.CheckNumericalStability("LogisticRegression.Fit", weights, lr.nIter); err != nil {
		return err
	}

	lr.coef = weights
	lr.intercept = intercept
	lr.state.SetFitted(nFeatures, nSamples)
	return nil
}

// PredictProba returns P(z = 1 | x) as a column vector.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	n, c := X.Dims()
	if err := lr.state.RequireFitted("LogisticRegression", "PredictProba", c); err != nil {
		return nil, err
	}
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		z := lr.intercept
		for j := 0; j < c; j++ {
			z += X.At(i, j) * lr.coef[j]
		}
		out.Set(i, 0, sigmoid(z))
	}
	return out, nil
}

// Predict returns 0/1 labels thresholded at probability ½.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}
	n, _ := proba.Dims()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		if proba.At(i, 0) > 0.5 {
			out.Set(i, 0, 1)
		}
	}
	return out, nil
}

// Coef returns a copy of the weights and the intercept.
func (lr *LogisticRegression) Coef() ([]float64, float64) {
	return append([]float64(nil), lr.coef...), lr.intercept
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
