// Package mars implements multivariate adaptive regression splines: a
// forward pass that greedily adds mirrored hinge-function pairs, followed by
// a backward pruning pass scored by generalized cross-validation.
package mars

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/EmmanuelUgo/ML-models/core/model"
	"github.com/EmmanuelUgo/ML-models/metrics"
	"github.com/EmmanuelUgo/ML-models/pkg/errors"
)

// basisTerm is one hinge term max(0, sign*(x[Feature]-Knot)). The intercept
// term has Feature == -1.
type basisTerm struct {
	Feature int
	Knot    float64
	Sign    float64
}

func (t basisTerm) eval(x []float64) float64 {
	if t.Feature < 0 {
		return 1
	}
	v := t.Sign * (x[t.Feature] - t.Knot)
	if v > 0 {
		return v
	}
	return 0
}

// MARS is an additive spline regressor.
type MARS struct {
	state *model.StateManager

	maxTerms int
	penalty  float64

	Terms []basisTerm
	Coef  []float64
	GCV   float64
}

// MARSOption configures a MARS model.
type MARSOption func(*MARS)

// WithMaxTerms caps the number of basis terms grown in the forward pass
// (including the intercept).
func WithMaxTerms(n int) MARSOption {
	return func(m *MARS) { m.maxTerms = n }
}

// WithPenalty sets the GCV cost per knot. Friedman's default for additive
// models is 2.
func WithPenalty(d float64) MARSOption {
	return func(m *MARS) { m.penalty = d }
}

// NewMARS creates a model with at most 21 terms and penalty 2.
func NewMARS(opts ...MARSOption) *MARS {
	m := &MARS{
		state:    model.NewStateManager(),
		maxTerms: 21,
		penalty:  2,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// IsFitted reports whether the model has been fitted.
func (m *MARS) IsFitted() bool { return m.state.IsFitted() }

// Fit grows hinge pairs forward, then prunes backward by GCV.
func (m *MARS) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("MARS.Fit", "empty data", errors.ErrEmptyData)
	}
	if yRows != nSamples {
		return errors.NewDimensionError("MARS.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("MARS.Fit", "y must be a column vector")
	}

	rows := make([][]float64, nSamples)
	target := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		rows[i] = make([]float64, nFeatures)
		for j := 0; j < nFeatures; j++ {
			rows[i][j] = X.At(i, j)
		}
		target[i] = y.At(i, 0)
	}

	terms := m.forward(rows, target, nFeatures)
	terms, coef, gcv := m.backward(rows, target, terms)

	m.Terms = terms
	m.Coef = coef
	m.GCV = gcv
	m.state.SetDimensions(nFeatures, nSamples)
	m.state.SetFitted()
	return nil
}

// candidateKnots returns the distinct sorted values of a feature, trimming
// the extremes so every hinge splits the data.
func candidateKnots(rows [][]float64, feature int) []float64 {
	vals := make([]float64, len(rows))
	for i, r := range rows {
		vals[i] = r[feature]
	}
	sort.Float64s(vals)
	knots := vals[:0:0]
	for i, v := range vals {
		if i > 0 && v == vals[i-1] {
			continue
		}
		knots = append(knots, v)
	}
	if len(knots) > 2 {
		knots = knots[1 : len(knots)-1]
	}
	return knots
}

// forward greedily adds the hinge pair that most reduces residual error
// until maxTerms is reached or no pair improves the fit.
func (m *MARS) forward(rows [][]float64, y []float64, nFeatures int) []basisTerm {
	terms := []basisTerm{{Feature: -1}}

	for len(terms)+1 < m.maxTerms {
		_, baseSSE := fitLeastSquares(rows, y, terms)
		bestSSE := baseSSE
		var bestPair []basisTerm

		for f := 0; f < nFeatures; f++ {
			for _, knot := range candidateKnots(rows, f) {
				pair := []basisTerm{
					{Feature: f, Knot: knot, Sign: 1},
					{Feature: f, Knot: knot, Sign: -1},
				}
				trial := append(append([]basisTerm{}, terms...), pair...)
				if _, sse := fitLeastSquares(rows, y, trial); sse < bestSSE-1e-12 {
					bestSSE = sse
					bestPair = pair
				}
			}
		}

		if bestPair == nil {
			break
		}
		terms = append(terms, bestPair...)
	}
	return terms
}

// backward removes terms one at a time, each time dropping whichever term
// least hurts the fit, and keeps the subset with the lowest GCV.
func (m *MARS) backward(rows [][]float64, y []float64, terms []basisTerm) ([]basisTerm, []float64, float64) {
	n := float64(len(rows))

	best := append([]basisTerm{}, terms...)
	bestCoef, bestSSE := fitLeastSquares(rows, y, best)
	bestGCV := m.gcv(bestSSE, n, len(best))

	current := append([]basisTerm{}, terms...)
	for len(current) > 1 {
		dropSSE := math.Inf(1)
		dropIdx := -1
		for i := 1; i < len(current); i++ { // never drop the intercept
			trial := append([]basisTerm{}, current[:i]...)
			trial = append(trial, current[i+1:]...)
			if _, sse := fitLeastSquares(rows, y, trial); sse < dropSSE {
				dropSSE = sse
				dropIdx = i
			}
		}
		if dropIdx < 0 {
			break
		}
		current = append(current[:dropIdx], current[dropIdx+1:]...)
		if g := m.gcv(dropSSE, n, len(current)); g < bestGCV {
			best = append([]basisTerm{}, current...)
			bestCoef, _ = fitLeastSquares(rows, y, best)
			bestGCV = g
		}
	}
	if bestCoef == nil {
		bestCoef, _ = fitLeastSquares(rows, y, best)
	}
	return best, bestCoef, bestGCV
}

// gcv is Friedman's generalized cross-validation criterion. The effective
// parameter count charges penalty extra degrees of freedom per knot.
func (m *MARS) gcv(sse, n float64, nTerms int) float64 {
	nKnots := float64((nTerms - 1) / 2)
	c := float64(nTerms) + m.penalty*nKnots
	if c >= n {
		return math.Inf(1)
	}
	d := 1 - c/n
	return sse / n / (d * d)
}

// fitLeastSquares solves for the term weights by QR and returns the
// coefficients with the residual sum of squares.
func fitLeastSquares(rows [][]float64, y []float64, terms []basisTerm) ([]float64, float64) {
	n, k := len(rows), len(terms)
	B := mat.NewDense(n, k, nil)
	for i, r := range rows {
		for j, t := range terms {
			B.Set(i, j, t.eval(r))
		}
	}
	yv := mat.NewDense(n, 1, append([]float64{}, y...))

	var qr mat.QR
	qr.Factorize(B)
	var sol mat.Dense
	if err := qr.SolveTo(&sol, false, yv); err != nil {
		// Singular basis; score it as useless.
		return nil, math.Inf(1)
	}

	coef := make([]float64, k)
	for j := 0; j < k; j++ {
		coef[j] = sol.At(j, 0)
	}

	var sse float64
	for i, r := range rows {
		var pred float64
		for j, t := range terms {
			pred += coef[j] * t.eval(r)
		}
		d := y[i] - pred
		sse += d * d
	}
	return coef, sse
}

// Predict returns fitted values for X as an n×1 matrix.
func (m *MARS) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !m.state.IsFitted() {
		return nil, errors.NewNotFittedError("MARS", "Predict")
	}
	r, c := X.Dims()
	nFeatures, _ := m.state.GetDimensions()
	if c != nFeatures {
		return nil, errors.NewDimensionError("MARS.Predict", nFeatures, c, 1)
	}

	out := mat.NewDense(r, 1, nil)
	x := make([]float64, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			x[j] = X.At(i, j)
		}
		var pred float64
		for j, t := range m.Terms {
			pred += m.Coef[j] * t.eval(x)
		}
		out.Set(i, 0, pred)
	}
	return out, nil
}

// Score returns R² on the given data.
func (m *MARS) Score(X, y mat.Matrix) (float64, error) {
	pred, err := m.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(colVec(y), colVec(pred))
}

// NTerms returns the number of basis terms kept after pruning.
func (m *MARS) NTerms() int { return len(m.Terms) }

// GetParams returns the model's hyperparameters.
func (m *MARS) GetParams() map[string]interface{} {
	return map[string]interface{}{"max_terms": m.maxTerms, "penalty": m.penalty}
}

// String returns a printable representation.
func (m *MARS) String() string {
	return fmt.Sprintf("MARS(max_terms=%d, penalty=%g)", m.maxTerms, m.penalty)
}

func colVec(v mat.Matrix) *mat.VecDense {
	rows, _ := v.Dims()
	out := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		out.SetVec(i, v.At(i, 0))
	}
	return out
}
