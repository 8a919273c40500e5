// Package workflow bundles a preprocessing recipe with a model so the pair
// trains, predicts, and evaluates as one unit. Resampling, grid tuning, and
// workflow sets build on the same bundle, re-prepping the recipe inside every
// fold so no information leaks from assessment rows.
package workflow

import (
	"gonum.org/v1/gonum/mat"

	"github.com/EmmanuelUgo/ML-models/core/model"
	"github.com/EmmanuelUgo/ML-models/dataset"
	"github.com/EmmanuelUgo/ML-models/metrics"
	"github.com/EmmanuelUgo/ML-models/pkg/errors"
	"github.com/EmmanuelUgo/ML-models/pkg/log"
	"github.com/EmmanuelUgo/ML-models/recipe"
)

// Mode distinguishes classification from regression workflows.
type Mode string

const (
	// Classification workflows encode the outcome as level indices.
	Classification Mode = "classification"
	// Regression workflows use the numeric outcome directly.
	Regression Mode = "regression"
)

// Params holds hyperparameter values for one model candidate.
type Params map[string]interface{}

// Float reads a float parameter, accepting ints.
func (p Params) Float(key string, fallback float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

// Int reads an integer parameter, accepting floats.
func (p Params) Int(key string, fallback int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}

// String reads a string parameter.
func (p Params) String(key, fallback string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return fallback
}

func (p Params) clone() Params {
	c := make(Params, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Builder constructs a fresh untrained model for a parameter candidate.
type Builder func(p Params) (model.Estimator, error)

// Workflow pairs a recipe with a model builder.
type Workflow struct {
	name     string
	rec      *recipe.Recipe
	mode     Mode
	build    Builder
	params   Params
	positive string

	prepped  *recipe.Recipe
	est      model.Estimator
	features []string
	levels   []string

	logger log.Logger
}

// New creates an untrained workflow.
func New(name string, rec *recipe.Recipe, mode Mode, build Builder) *Workflow {
	return &Workflow{
		name:   name,
		rec:    rec,
		mode:   mode,
		build:  build,
		params: Params{},
		logger: log.GetLoggerWithName("workflow").With(log.WorkflowKey, name),
	}
}

// Name returns the workflow identifier.
func (w *Workflow) Name() string { return w.name }

// Mode returns classification or regression.
func (w *Workflow) Mode() Mode { return w.mode }

// IsFitted reports whether Fit has run.
func (w *Workflow) IsFitted() bool { return w.est != nil && w.est.IsFitted() }

// Estimator exposes the fitted model.
func (w *Workflow) Estimator() model.Estimator { return w.est }

// Levels returns the outcome levels of a fitted classification workflow.
func (w *Workflow) Levels() []string { return w.levels }

// Outcome returns the recipe's outcome column.
func (w *Workflow) Outcome() string { return w.rec.Outcome() }

// Features returns the predictor columns of the fitted workflow.
func (w *Workflow) Features() []string { return w.features }

// Clone returns an untrained copy sharing the recipe definition and builder.
func (w *Workflow) Clone() *Workflow {
	return &Workflow{
		name:     w.name,
		rec:      w.rec.Clone(),
		mode:     w.mode,
		build:    w.build,
		params:   w.params.clone(),
		positive: w.positive,
		logger:   w.logger,
	}
}

// WithParams returns an untrained copy finalized to the given candidate.
func (w *Workflow) WithParams(p Params) *Workflow {
	c := w.Clone()
	for k, v := range p {
		c.params[k] = v
	}
	return c
}

// WithPositive sets the outcome level treated as the event for binary
// metrics. The default is the last level in sorted order.
func (w *Workflow) WithPositive(level string) *Workflow {
	w.positive = level
	return w
}

// Fit preps the recipe on the training table, converts the processed data to
// matrices, and fits a fresh model built from the current parameters.
func (w *Workflow) Fit(train *dataset.Table) error {
	prepped, err := w.rec.Prep(train)
	if err != nil {
		return err
	}
	juiced, err := prepped.Juice()
	if err != nil {
		return err
	}

	features := w.predictorColumns(juiced)
	if len(features) == 0 {
		return errors.NewValueError("Workflow.Fit", "no numeric predictors after preprocessing")
	}
	X, err := juiced.Matrix(features...)
	if err != nil {
		return err
	}

	var y *mat.Dense
	switch w.mode {
	case Classification:
		levels, err := juiced.Levels(w.rec.Outcome())
		if err != nil {
			return err
		}
		if len(levels) < 2 {
			return errors.NewValueError("Workflow.Fit", "outcome has fewer than 2 levels")
		}
		w.levels = levels
		y, err = juiced.LabelVector(w.rec.Outcome(), levels)
		if err != nil {
			return err
		}
	case Regression:
		y, err = juiced.FloatVector(w.rec.Outcome())
		if err != nil {
			return err
		}
	default:
		return errors.NewValueError("Workflow.Fit", "unknown mode "+string(w.mode))
	}

	est, err := w.build(w.params)
	if err != nil {
		return err
	}
	if err := est.Fit(X, y); err != nil {
		return err
	}

	w.prepped = prepped
	w.est = est
	w.features = features

	r, _ := X.Dims()
	w.logger.Debug("workflow fitted",
		log.SamplesKey, r,
		log.FeaturesKey, len(features),
	)
	return nil
}

// predictorColumns lists the numeric columns of a processed table, excluding
// the outcome and id roles.
func (w *Workflow) predictorColumns(t *dataset.Table) []string {
	skip := map[string]bool{w.rec.Outcome(): true}
	for _, id := range w.rec.IDs() {
		skip[id] = true
	}
	var out []string
	for _, c := range t.NumericColumns() {
		if !skip[c] {
			out = append(out, c)
		}
	}
	return out
}

// bakeMatrix applies the trained recipe to new data and extracts the
// predictor matrix.
func (w *Workflow) bakeMatrix(t *dataset.Table) (*dataset.Table, *mat.Dense, error) {
	if !w.IsFitted() {
		return nil, nil, errors.NewNotFittedError("Workflow", "Predict")
	}
	baked, err := w.prepped.Bake(t)
	if err != nil {
		return nil, nil, err
	}
	missing := 0
	for _, c := range w.features {
		if !baked.HasColumn(c) {
			missing++
		}
	}
	if missing > 0 {
		return nil, nil, errors.NewDimensionError("Workflow.Predict",
			len(w.features), len(w.features)-missing, 1)
	}
	X, err := baked.Matrix(w.features...)
	if err != nil {
		return nil, nil, err
	}
	return baked, X, nil
}

// Predict returns point predictions for new data: class indices for
// classification, values for regression.
func (w *Workflow) Predict(t *dataset.Table) (*mat.Dense, error) {
	_, X, err := w.bakeMatrix(t)
	if err != nil {
		return nil, err
	}
	pred, err := w.est.(model.Predictor).Predict(X)
	if err != nil {
		return nil, err
	}
	r, _ := pred.Dims()
	out := mat.NewDense(r, 1, nil)
	out.Copy(pred)
	return out, nil
}

// PredictLevels returns class-label predictions as level strings.
func (w *Workflow) PredictLevels(t *dataset.Table) ([]string, error) {
	if w.mode != Classification {
		return nil, errors.NewValueError("Workflow.PredictLevels", "regression workflow has no levels")
	}
	pred, err := w.Predict(t)
	if err != nil {
		return nil, err
	}
	r, _ := pred.Dims()
	out := make([]string, r)
	for i := 0; i < r; i++ {
		idx := int(pred.At(i, 0))
		if idx < 0 || idx >= len(w.levels) {
			return nil, errors.NewValueError("Workflow.PredictLevels", "prediction outside known levels")
		}
		out[i] = w.levels[idx]
	}
	return out, nil
}

// PredictProba returns per-level probabilities, one column per outcome level
// in Levels() order. Levels absent from the fitted model get zero columns.
func (w *Workflow) PredictProba(t *dataset.Table) (*mat.Dense, error) {
	if w.mode != Classification {
		return nil, errors.NewValueError("Workflow.PredictProba", "regression workflow has no probabilities")
	}
	_, X, err := w.bakeMatrix(t)
	if err != nil {
		return nil, err
	}
	clf, ok := w.est.(model.Classifier)
	if !ok {
		return nil, errors.NewValueError("Workflow.PredictProba", "model does not expose probabilities")
	}
	proba, err := clf.PredictProba(X)
	if err != nil {
		return nil, err
	}

	r, _ := proba.Dims()
	out := mat.NewDense(r, len(w.levels), nil)
	for col, cls := range clf.Classes() {
		if cls < 0 || cls >= len(w.levels) {
			return nil, errors.NewValueError("Workflow.PredictProba", "model class outside known levels")
		}
		for i := 0; i < r; i++ {
			out.Set(i, cls, proba.At(i, col))
		}
	}
	return out, nil
}

// PositiveIndex returns the index into Levels of the event level used by
// binary metrics: the WithPositive level when set, the last sorted level
// otherwise.
func (w *Workflow) PositiveIndex() int { return w.positiveIndex() }

// positiveIndex resolves the event level to its index.
func (w *Workflow) positiveIndex() int {
	if w.positive != "" {
		for i, lv := range w.levels {
			if lv == w.positive {
				return i
			}
		}
	}
	return len(w.levels) - 1
}

// Evaluate scores the fitted workflow on an assessment table.
func (w *Workflow) Evaluate(t *dataset.Table, set *metrics.Set) ([]metrics.Result, error) {
	if !w.IsFitted() {
		return nil, errors.NewNotFittedError("Workflow", "Evaluate")
	}
	baked, X, err := w.bakeMatrix(t)
	if err != nil {
		return nil, err
	}

	pred, err := w.est.(model.Predictor).Predict(X)
	if err != nil {
		return nil, err
	}

	ev := metrics.EvalData{Estimate: colVec(pred)}
	switch w.mode {
	case Classification:
		truth, err := baked.LabelVector(w.rec.Outcome(), w.levels)
		if err != nil {
			return nil, err
		}
		ev.Truth = colVec(truth)
		ev.Positive = w.positiveIndex()
		if clf, ok := w.est.(model.Classifier); ok {
			proba, err := clf.PredictProba(X)
			if err != nil {
				return nil, err
			}
			full := mat.NewDense(ev.Truth.Len(), len(w.levels), nil)
			for col, cls := range clf.Classes() {
				for i := 0; i < ev.Truth.Len(); i++ {
					full.Set(i, cls, proba.At(i, col))
				}
			}
			ev.Proba = full
		}
	case Regression:
		truth, err := baked.FloatVector(w.rec.Outcome())
		if err != nil {
			return nil, err
		}
		ev.Truth = colVec(truth)
	}

	return set.Evaluate(ev)
}

func colVec(m mat.Matrix) *mat.VecDense {
	r, _ := m.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}
