// Package neighbors implements k-nearest-neighbor estimators. Training
// stores the data; prediction brute-forces distances with row-level
// parallelism and keeps a bounded candidate list per query.
package neighbors

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/EmmanuelUgo/ML-models/core/model"
	"github.com/EmmanuelUgo/ML-models/core/parallel"
	"github.com/EmmanuelUgo/ML-models/metrics"
	"github.com/EmmanuelUgo/ML-models/pkg/errors"
)

// Weighting selects how neighbor votes are combined.
type Weighting string

const (
	// Uniform weights every neighbor equally.
	Uniform Weighting = "uniform"
	// Distance weights neighbors by inverse distance.
	Distance Weighting = "distance"
)

type knnBase struct {
	state   *model.StateManager
	k       int
	weights Weighting

	trainX *mat.Dense
	trainY []float64
}

// KNNOption configures a KNN estimator.
type KNNOption func(*knnBase)

// WithK sets the neighborhood size.
func WithK(k int) KNNOption {
	return func(b *knnBase) { b.k = k }
}

// WithWeights selects uniform or distance vote weighting.
func WithWeights(w Weighting) KNNOption {
	return func(b *knnBase) { b.weights = w }
}

func newKNNBase(opts []KNNOption) knnBase {
	b := knnBase{
		state:   model.NewStateManager(),
		k:       5,
		weights: Uniform,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *knnBase) fit(op string, X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if yRows != nSamples {
		return errors.NewDimensionError(op, nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError(op, "y must be a column vector")
	}
	if b.k < 1 {
		return errors.NewValidationError("k", "must be at least 1", b.k)
	}
	if b.k > nSamples {
		return errors.NewValidationError("k", fmt.Sprintf("must not exceed %d training samples", nSamples), b.k)
	}

	b.trainX = mat.NewDense(nSamples, nFeatures, nil)
	b.trainX.Copy(X)
	b.trainY = make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		b.trainY[i] = y.At(i, 0)
	}

	b.state.SetDimensions(nFeatures, nSamples)
	b.state.SetFitted()
	return nil
}

type neighbor struct {
	dist  float64
	value float64
}

// nearest returns the k nearest training points to x, closest first. A small
// sorted slice is maintained instead of sorting every distance.
func (b *knnBase) nearest(x []float64) []neighbor {
	nbrs := make([]neighbor, 0, b.k+1)
	nTrain, p := b.trainX.Dims()
	for j := 0; j < nTrain; j++ {
		var d2 float64
		for f := 0; f < p; f++ {
			diff := x[f] - b.trainX.At(j, f)
			d2 += diff * diff
		}
		if len(nbrs) == b.k && d2 >= nbrs[len(nbrs)-1].dist {
			continue
		}
		pos := sort.Search(len(nbrs), func(i int) bool { return nbrs[i].dist > d2 })
		nbrs = append(nbrs, neighbor{})
		copy(nbrs[pos+1:], nbrs[pos:])
		nbrs[pos] = neighbor{dist: d2, value: b.trainY[j]}
		if len(nbrs) > b.k {
			nbrs = nbrs[:b.k]
		}
	}
	return nbrs
}

func (b *knnBase) weight(n neighbor) float64 {
	if b.weights == Distance {
		// dist holds the squared Euclidean distance.
		return 1 / (math.Sqrt(n.dist) + 1e-10)
	}
	return 1
}

func (b *knnBase) checkPredict(name string, X mat.Matrix) error {
	if !b.state.IsFitted() {
		return errors.NewNotFittedError(name, "Predict")
	}
	_, c := X.Dims()
	nFeatures, _ := b.state.GetDimensions()
	if c != nFeatures {
		return errors.NewDimensionError(name+".Predict", nFeatures, c, 1)
	}
	return nil
}

// KNNClassifier predicts the weighted majority class among the k nearest
// training points.
type KNNClassifier struct {
	knnBase
	ClassList []int
}

// NewKNNClassifier creates a classifier with k=5 and uniform weights.
func NewKNNClassifier(opts ...KNNOption) *KNNClassifier {
	return &KNNClassifier{knnBase: newKNNBase(opts)}
}

// IsFitted reports whether the model has been fitted.
func (c *KNNClassifier) IsFitted() bool { return c.state.IsFitted() }

// Classes returns the labels seen during fitting, ascending.
func (c *KNNClassifier) Classes() []int { return c.ClassList }

// Fit stores the training data and enumerates classes.
func (c *KNNClassifier) Fit(X, y mat.Matrix) error {
	if err := c.fit("KNNClassifier.Fit", X, y); err != nil {
		return err
	}
	classMap := make(map[int]bool)
	for _, v := range c.trainY {
		classMap[int(v)] = true
	}
	c.ClassList = c.ClassList[:0]
	for cls := range classMap {
		c.ClassList = append(c.ClassList, cls)
	}
	sort.Ints(c.ClassList)
	if len(c.ClassList) < 2 {
		c.state.Reset()
		return errors.NewValueError("KNNClassifier.Fit", "need at least 2 classes")
	}
	return nil
}

// PredictProba returns neighbor-vote shares per class.
func (c *KNNClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := c.checkPredict("KNNClassifier", X); err != nil {
		return nil, err
	}
	r, p := X.Dims()
	classIndex := make(map[int]int, len(c.ClassList))
	for i, cls := range c.ClassList {
		classIndex[cls] = i
	}

	out := mat.NewDense(r, len(c.ClassList), nil)
	parallel.Parallelize(r, func(start, end int) {
		x := make([]float64, p)
		for i := start; i < end; i++ {
			for f := 0; f < p; f++ {
				x[f] = X.At(i, f)
			}
			var total float64
			for _, nb := range c.nearest(x) {
				w := c.weight(nb)
				out.Set(i, classIndex[int(nb.value)], out.At(i, classIndex[int(nb.value)])+w)
				total += w
			}
			if total > 0 {
				for k := range c.ClassList {
					out.Set(i, k, out.At(i, k)/total)
				}
			}
		}
	})
	return out, nil
}

// Predict returns the winning class label per row.
func (c *KNNClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := c.PredictProba(X)
	if err != nil {
		return nil, err
	}
	r, _ := proba.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		best, bestP := 0, proba.At(i, 0)
		for k := 1; k < len(c.ClassList); k++ {
			if proba.At(i, k) > bestP {
				best, bestP = k, proba.At(i, k)
			}
		}
		out.Set(i, 0, float64(c.ClassList[best]))
	}
	return out, nil
}

// Score returns accuracy on the given data.
func (c *KNNClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := c.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(colVec(y), colVec(pred))
}

// GetParams returns the model's hyperparameters.
func (c *KNNClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{"k": c.k, "weights": string(c.weights)}
}

// String returns a printable representation.
func (c *KNNClassifier) String() string {
	return fmt.Sprintf("KNNClassifier(k=%d, weights=%s)", c.k, c.weights)
}

// KNNRegressor predicts the weighted mean target among the k nearest
// training points.
type KNNRegressor struct {
	knnBase
}

// NewKNNRegressor creates a regressor with k=5 and uniform weights.
func NewKNNRegressor(opts ...KNNOption) *KNNRegressor {
	return &KNNRegressor{knnBase: newKNNBase(opts)}
}

// IsFitted reports whether the model has been fitted.
func (r *KNNRegressor) IsFitted() bool { return r.state.IsFitted() }

// Fit stores the training data.
func (r *KNNRegressor) Fit(X, y mat.Matrix) error {
	return r.fit("KNNRegressor.Fit", X, y)
}

// Predict returns the weighted neighbor mean per row.
func (r *KNNRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := r.checkPredict("KNNRegressor", X); err != nil {
		return nil, err
	}
	rows, p := X.Dims()
	out := mat.NewDense(rows, 1, nil)
	parallel.Parallelize(rows, func(start, end int) {
		x := make([]float64, p)
		for i := start; i < end; i++ {
			for f := 0; f < p; f++ {
				x[f] = X.At(i, f)
			}
			var sum, total float64
			for _, nb := range r.nearest(x) {
				w := r.weight(nb)
				sum += w * nb.value
				total += w
			}
			if total > 0 {
				out.Set(i, 0, sum/total)
			}
		}
	})
	return out, nil
}

// Score returns R² on the given data.
func (r *KNNRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := r.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(colVec(y), colVec(pred))
}

// GetParams returns the model's hyperparameters.
func (r *KNNRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{"k": r.k, "weights": string(r.weights)}
}

// String returns a printable representation.
func (r *KNNRegressor) String() string {
	return fmt.Sprintf("KNNRegressor(k=%d, weights=%s)", r.k, r.weights)
}

func colVec(m mat.Matrix) *mat.VecDense {
	rows, _ := m.Dims()
	v := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}
