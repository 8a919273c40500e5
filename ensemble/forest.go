package ensemble

import (
	"fmt"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/EmmanuelUgo/ML-models/core/model"
	"github.com/EmmanuelUgo/ML-models/metrics"
	"github.com/EmmanuelUgo/ML-models/pkg/errors"
)

// forestParams are the hyperparameters shared by both forest flavors.
type forestParams struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MaxFeatures     int // 0 selects the task default
	Bootstrap       bool
	RandomState     int64
}

func defaultForestParams() forestParams {
	return forestParams{
		NEstimators:     100,
		MaxDepth:        0,
		MinSamplesSplit: 2,
		Bootstrap:       true,
		RandomState:     42,
	}
}

// ForestOption configures a RandomForestClassifier or
// RandomForestRegressor.
type ForestOption func(*forestParams)

// WithNEstimators sets the number of trees.
func WithNEstimators(n int) ForestOption {
	return func(p *forestParams) { p.NEstimators = n }
}

// WithMaxDepth caps tree depth; 0 means unlimited.
func WithMaxDepth(d int) ForestOption {
	return func(p *forestParams) { p.MaxDepth = d }
}

// WithMinSamplesSplit sets the minimum node size eligible for splitting.
func WithMinSamplesSplit(m int) ForestOption {
	return func(p *forestParams) { p.MinSamplesSplit = m }
}

// WithMaxFeatures sets the per-split feature budget (mtry); 0 selects
// sqrt(p) for classification and p/3 for regression.
func WithMaxFeatures(m int) ForestOption {
	return func(p *forestParams) { p.MaxFeatures = m }
}

// WithBootstrap toggles bootstrap sampling per tree.
func WithBootstrap(b bool) ForestOption {
	return func(p *forestParams) { p.Bootstrap = b }
}

// WithForestRandomState seeds tree growth for reproducibility.
func WithForestRandomState(seed int64) ForestOption {
	return func(p *forestParams) { p.RandomState = seed }
}

// RandomForestClassifier is a bagged ensemble of CART trees voting by
// averaged leaf class distributions.
type RandomForestClassifier struct {
	state  *model.StateManager
	params forestParams

	Trees     []*cartTree
	ClassList []int
}

// NewRandomForestClassifier creates a classifier forest with 100 trees.
func NewRandomForestClassifier(opts ...ForestOption) *RandomForestClassifier {
	p := defaultForestParams()
	for _, opt := range opts {
		opt(&p)
	}
	return &RandomForestClassifier{
		state:  model.NewStateManager(),
		params: p,
	}
}

// IsFitted reports whether the forest has been fitted.
func (rf *RandomForestClassifier) IsFitted() bool { return rf.state.IsFitted() }

// Classes returns the labels seen during fitting, ascending.
func (rf *RandomForestClassifier) Classes() []int { return rf.ClassList }

// Fit grows the forest. Trees grow concurrently, one goroutine per tree
// with a derived seed so results are reproducible for a fixed RandomState.
func (rf *RandomForestClassifier) Fit(X, y mat.Matrix) error {
	labels, err := validateForestInput("RandomForestClassifier.Fit", X, y)
	if err != nil {
		return err
	}

	rf.ClassList = extractClasses(labels)
	if len(rf.ClassList) < 2 {
		return errors.NewValueError("RandomForestClassifier.Fit", "need at least 2 classes")
	}
	classIndex := make(map[int]int, len(rf.ClassList))
	for i, c := range rf.ClassList {
		classIndex[c] = i
	}
	encoded := make([]float64, len(labels))
	for i, v := range labels {
		encoded[i] = float64(classIndex[int(v)])
	}

	nSamples, nFeatures := X.Dims()
	rf.Trees = growForest(X, encoded, rf.params, len(rf.ClassList))

	rf.state.SetDimensions(nFeatures, nSamples)
	rf.state.SetFitted()
	return nil
}

// PredictProba averages leaf class distributions across trees.
func (rf *RandomForestClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !rf.state.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestClassifier", "PredictProba")
	}
	r, c := X.Dims()
	nFeatures, _ := rf.state.GetDimensions()
	if c != nFeatures {
		return nil, errors.NewDimensionError("RandomForestClassifier.PredictProba", nFeatures, c, 1)
	}

	out := mat.NewDense(r, len(rf.ClassList), nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			row[j] = X.At(i, j)
		}
		for _, tree := range rf.Trees {
			leaf := tree.predictRow(row)
			for k, p := range leaf.ClassCounts {
				out.Set(i, k, out.At(i, k)+p)
			}
		}
		for k := 0; k < len(rf.ClassList); k++ {
			out.Set(i, k, out.At(i, k)/float64(len(rf.Trees)))
		}
	}
	return out, nil
}

// Predict returns the majority-vote class label for each row.
func (rf *RandomForestClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := rf.PredictProba(X)
	if err != nil {
		return nil, err
	}
	r, _ := proba.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		best, bestP := 0, proba.At(i, 0)
		for k := 1; k < len(rf.ClassList); k++ {
			if proba.At(i, k) > bestP {
				best, bestP = k, proba.At(i, k)
			}
		}
		out.Set(i, 0, float64(rf.ClassList[best]))
	}
	return out, nil
}

// Score returns accuracy on the given data.
func (rf *RandomForestClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := rf.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(colVec(y), colVec(pred))
}

// FeatureImportances averages normalized impurity decreases across trees.
func (rf *RandomForestClassifier) FeatureImportances() []float64 {
	return averageImportances(rf.Trees)
}

// GetParams returns the forest's hyperparameters.
func (rf *RandomForestClassifier) GetParams() map[string]interface{} {
	return forestParamMap(rf.params)
}

// String returns a printable representation.
func (rf *RandomForestClassifier) String() string {
	return fmt.Sprintf("RandomForestClassifier(n_estimators=%d, max_depth=%d)",
		rf.params.NEstimators, rf.params.MaxDepth)
}

// RandomForestRegressor is a bagged ensemble of CART trees averaged for
// numeric prediction.
type RandomForestRegressor struct {
	state  *model.StateManager
	params forestParams

	Trees []*cartTree
}

// NewRandomForestRegressor creates a regression forest with 100 trees.
func NewRandomForestRegressor(opts ...ForestOption) *RandomForestRegressor {
	p := defaultForestParams()
	for _, opt := range opts {
		opt(&p)
	}
	return &RandomForestRegressor{
		state:  model.NewStateManager(),
		params: p,
	}
}

// IsFitted reports whether the forest has been fitted.
func (rf *RandomForestRegressor) IsFitted() bool { return rf.state.IsFitted() }

// Fit grows the forest on a numeric target.
func (rf *RandomForestRegressor) Fit(X, y mat.Matrix) error {
	target, err := validateForestInput("RandomForestRegressor.Fit", X, y)
	if err != nil {
		return err
	}

	nSamples, nFeatures := X.Dims()
	rf.Trees = growForest(X, target, rf.params, 0)

	rf.state.SetDimensions(nFeatures, nSamples)
	rf.state.SetFitted()
	return nil
}

// Predict averages tree predictions for each row.
func (rf *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !rf.state.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestRegressor", "Predict")
	}
	r, c := X.Dims()
	nFeatures, _ := rf.state.GetDimensions()
	if c != nFeatures {
		return nil, errors.NewDimensionError("RandomForestRegressor.Predict", nFeatures, c, 1)
	}

	out := mat.NewDense(r, 1, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			row[j] = X.At(i, j)
		}
		var sum float64
		for _, tree := range rf.Trees {
			sum += tree.predictRow(row).Value
		}
		out.Set(i, 0, sum/float64(len(rf.Trees)))
	}
	return out, nil
}

// Score returns R² on the given data.
func (rf *RandomForestRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := rf.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(colVec(y), colVec(pred))
}

// FeatureImportances averages normalized impurity decreases across trees.
func (rf *RandomForestRegressor) FeatureImportances() []float64 {
	return averageImportances(rf.Trees)
}

// GetParams returns the forest's hyperparameters.
func (rf *RandomForestRegressor) GetParams() map[string]interface{} {
	return forestParamMap(rf.params)
}

// String returns a printable representation.
func (rf *RandomForestRegressor) String() string {
	return fmt.Sprintf("RandomForestRegressor(n_estimators=%d, max_depth=%d)",
		rf.params.NEstimators, rf.params.MaxDepth)
}

// growForest grows params.NEstimators trees concurrently. Index-based
// bootstrap sampling keeps per-tree memory at one int slice.
func growForest(X mat.Matrix, y []float64, params forestParams, nClasses int) []*cartTree {
	nSamples, nFeatures := X.Dims()
	maxFeatures := params.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = defaultMaxFeatures(nFeatures, nClasses > 0)
	}

	trees := make([]*cartTree, params.NEstimators)
	var wg sync.WaitGroup
	for t := 0; t < params.NEstimators; t++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(params.RandomState + int64(idx)))

			indices := make([]int, nSamples)
			for i := range indices {
				if params.Bootstrap {
					indices[i] = rng.Intn(nSamples)
				} else {
					indices[i] = i
				}
			}

			tree := &cartTree{
				MaxDepth:        params.MaxDepth,
				MinSamplesSplit: params.MinSamplesSplit,
				MaxFeatures:     maxFeatures,
				NClasses:        nClasses,
			}
			tree.fit(X, y, indices, rng)
			trees[idx] = tree
		}(t)
	}
	wg.Wait()
	return trees
}

func validateForestInput(op string, X, y mat.Matrix) ([]float64, error) {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if yRows != nSamples {
		return nil, errors.NewDimensionError(op, nSamples, yRows, 0)
	}
	if yCols != 1 {
		return nil, errors.NewValueError(op, "y must be a column vector")
	}
	out := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		out[i] = y.At(i, 0)
	}
	return out, nil
}

func averageImportances(trees []*cartTree) []float64 {
	if len(trees) == 0 {
		return nil
	}
	out := make([]float64, len(trees[0].Importances))
	for _, t := range trees {
		for j, v := range t.Importances {
			out[j] += v
		}
	}
	for j := range out {
		out[j] /= float64(len(trees))
	}
	return out
}

func forestParamMap(p forestParams) map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      p.NEstimators,
		"max_depth":         p.MaxDepth,
		"min_samples_split": p.MinSamplesSplit,
		"max_features":      p.MaxFeatures,
		"bootstrap":         p.Bootstrap,
	}
}

func extractClasses(y []float64) []int {
	classMap := make(map[int]bool)
	for _, v := range y {
		classMap[int(v)] = true
	}
	classes := make([]int, 0, len(classMap))
	for c := range classMap {
		classes = append(classes, c)
	}
	for i := 1; i < len(classes); i++ {
		for j := i; j > 0 && classes[j] < classes[j-1]; j-- {
			classes[j], classes[j-1] = classes[j-1], classes[j]
		}
	}
	return classes
}

func colVec(m mat.Matrix) *mat.VecDense {
	r, _ := m.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}
