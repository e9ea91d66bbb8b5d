// Package linear provides the regression and classification baselines the
// inverse-optimization learner is compared against: ridge regression for the
// continuous decision and logistic regression for the binary one.
package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/invopt/core/model"
	"github.com/YuminosukeSato/invopt/core/parallel"
	"github.com/YuminosukeSato/invopt/pkg/errors"
)

// Ridge は L2 正則化付き線形回帰モデル
type Ridge struct {
	model.BaseEstimator
	Weights   *mat.VecDense // 重み（係数）
	Intercept float64       // 切片
	NFeatures int           // 特徴量の数

	alpha        float64
	fitIntercept bool
}

var _ model.Estimator = (*Ridge)(nil)

// NewRidge は新しいリッジ回帰モデルを作成する。既定は alpha = 1、切片あり。
func NewRidge(opts ...RidgeOption) *Ridge {
	r := &Ridge{alpha: 1, fitIntercept: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fit はモデルを訓練データで学習させる
// 正規方程式 w = (X^T X + αI)^(-1) X^T y を使用（切片は正則化しない）
func (r *Ridge) Fit(X, y mat.Matrix) error {
	n, c := X.Dims()
	ry, cy := y.Dims()

	if n == 0 || c == 0 {
		return errors.NewModelError("Ridge.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != n {
		return errors.NewDimensionError("Ridge.Fit", n, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("Ridge.Fit", "y must be a column vector")
	}
	if r.alpha < 0 {
		return errors.NewValidationError("alpha", "must be non-negative", r.alpha)
	}
	if err := errors.CheckMatrix("Ridge.Fit", X, n, c, 0); err != nil {
		return err
	}

	offset := 0
	if r.fitIntercept {
		offset = 1
	}
	p := c + offset

	// 切片項のために X に 1 の列を追加
	design := mat.NewDense(n, p, nil)

	// 並列処理の閾値（この値以下の行数では逐次処理を使用）
	const parallelThreshold = 1000
	parallel.ParallelizeWithThreshold(n, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			if r.fitIntercept {
				design.Set(i, 0, 1)
			}
			for j := 0; j < c; j++ {
				design.Set(i, j+offset, X.At(i, j))
			}
		}
	})

	var gram mat.Dense
	gram.Mul(design.T(), design)
	for j := offset; j < p; j++ {
		gram.Set(j, j, gram.At(j, j)+r.alpha)
	}

	yVec := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}
	var xty mat.VecDense
	xty.MulVec(design.T(), yVec)

	var coef mat.VecDense
	if err := coef.SolveVec(&gram, &xty); err != nil {
		return errors.NewModelError("Ridge.Fit", "singular matrix", errors.ErrSingularMatrix)
	}

	r.NFeatures = c
	r.Intercept = 0
	if r.fitIntercept {
		r.Intercept = coef.AtVec(0)
	}
	r.Weights = mat.NewVecDense(c, nil)
	for j := 0; j < c; j++ {
		r.Weights.SetVec(j, coef.AtVec(j+offset))
	}

	r.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行う
func (r *Ridge) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := r.RequireFitted("Ridge", "Predict"); err != nil {
		return nil, err
	}
	n, c := X.Dims()
	if c != r.NFeatures {
		return nil, errors.NewDimensionError("Ridge.Predict", r.NFeatures, c, 1)
	}

	// 予測: y = X * weights + intercept
	var pred mat.VecDense
	pred.MulVec(X, r.Weights)
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		out.Set(i, 0, pred.AtVec(i)+r.Intercept)
	}
	return out, nil
}

// ExportWeights returns the exported weights of the fitted model.
func (r *Ridge) ExportWeights() (*model.ModelWeights, error) {
	if err := r.RequireFitted("Ridge", "ExportWeights"); err != nil {
		return nil, err
	}
	return &model.ModelWeights{
		ModelType:       "Ridge",
		Version:         "1.0.0",
		Coefficients:    append([]float64(nil), r.Weights.RawVector().Data...),
		Intercept:       r.Intercept,
		Hyperparameters: map[string]interface{}{"alpha": r.alpha, "fit_intercept": r.fitIntercept},
		IsFitted:        true,
	}, nil
}
