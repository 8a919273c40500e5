// Package linear_model implements the linear estimators: least-squares
// linear regression and logistic regression with L2 regularization.
package linear_model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/EmmanuelUgo/ML-models/core/model"
	"github.com/EmmanuelUgo/ML-models/metrics"
	"github.com/EmmanuelUgo/ML-models/pkg/errors"
)

// LinearRegression fits ordinary least squares via QR decomposition.
type LinearRegression struct {
	state *model.StateManager

	fitIntercept bool

	// Coef holds the fitted coefficients, one per feature.
	Coef []float64

	// Intercept holds the fitted intercept (0 when fitIntercept is false).
	Intercept float64
}

// LinearRegressionOption configures a LinearRegression.
type LinearRegressionOption func(*LinearRegression)

// WithFitIntercept controls whether an intercept column is added.
func WithFitIntercept(fit bool) LinearRegressionOption {
	return func(lr *LinearRegression) { lr.fitIntercept = fit }
}

// NewLinearRegression creates a LinearRegression with an intercept.
func NewLinearRegression(opts ...LinearRegressionOption) *LinearRegression {
	lr := &LinearRegression{
		state:        model.NewStateManager(),
		fitIntercept: true,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// IsFitted reports whether the model has been fitted.
func (lr *LinearRegression) IsFitted() bool { return lr.state.IsFitted() }

// Fit solves the least-squares problem for X and y.
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if yRows != nSamples {
		return errors.NewDimensionError("LinearRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LinearRegression.Fit", "y must be a column vector")
	}

	design := designMatrix(X, lr.fitIntercept)
	_, cols := design.Dims()
	if nSamples < cols {
		return errors.NewValueError("LinearRegression.Fit", "more coefficients than samples")
	}

	var qr mat.QR
	qr.Factorize(design)
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, denseFrom(y)); err != nil {
		return errors.NewModelError("LinearRegression.Fit", "singular design matrix", errors.ErrSingularMatrix)
	}

	offset := 0
	if lr.fitIntercept {
		lr.Intercept = beta.At(0, 0)
		offset = 1
	} else {
		lr.Intercept = 0
	}
	lr.Coef = make([]float64, nFeatures)
	for j := 0; j < nFeatures; j++ {
		lr.Coef[j] = beta.At(j+offset, 0)
	}

	lr.state.SetDimensions(nFeatures, nSamples)
	lr.state.SetFitted()
	return nil
}

// Predict returns fitted values for X as an n×1 matrix.
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.state.IsFitted() {
		return nil, errors.NewNotFittedError("LinearRegression", "Predict")
	}
	r, c := X.Dims()
	nFeatures, _ := lr.state.GetDimensions()
	if c != nFeatures {
		return nil, errors.NewDimensionError("LinearRegression.Predict", nFeatures, c, 1)
	}

	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		v := lr.Intercept
		for j := 0; j < c; j++ {
			v += lr.Coef[j] * X.At(i, j)
		}
		out.Set(i, 0, v)
	}
	return out, nil
}

// Score returns R² on the given data.
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	pred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(colVec(y), colVec(pred))
}

// GetParams returns the model's hyperparameters.
func (lr *LinearRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"fit_intercept": lr.fitIntercept,
	}
}

// String returns a printable representation.
func (lr *LinearRegression) String() string {
	if !lr.state.IsFitted() {
		return fmt.Sprintf("LinearRegression(fit_intercept=%t)", lr.fitIntercept)
	}
	nFeatures, _ := lr.state.GetDimensions()
	return fmt.Sprintf("LinearRegression(fit_intercept=%t, n_features=%d)", lr.fitIntercept, nFeatures)
}

// designMatrix prepends an all-ones column when an intercept is requested.
func designMatrix(X mat.Matrix, intercept bool) *mat.Dense {
	r, c := X.Dims()
	if !intercept {
		return denseFrom(X)
	}
	out := mat.NewDense(r, c+1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, 1)
		for j := 0; j < c; j++ {
			out.Set(i, j+1, X.At(i, j))
		}
	}
	return out
}

func denseFrom(m mat.Matrix) *mat.Dense {
	if d, ok := m.(*mat.Dense); ok {
		return d
	}
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	out.Copy(m)
	return out
}

func colVec(m mat.Matrix) *mat.VecDense {
	r, _ := m.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}
