// Package recipe implements declarative preprocessing pipelines. A Recipe is
// an ordered list of steps; Prep estimates each step's parameters from
// training data and Bake applies the trained steps to new data. Steps that
// change row membership (downsampling) run only on training data.
package recipe

import (
	"strings"

	"github.com/EmmanuelUgo/ML-models/dataset"
	"github.com/EmmanuelUgo/ML-models/pkg/errors"
)

// Info carries the column roles a selector or step may need.
type Info struct {
	Outcome string
	IDs     []string
}

func (in Info) isID(col string) bool {
	for _, id := range in.IDs {
		if id == col {
			return true
		}
	}
	return false
}

// Selector resolves a set of column names against a table at prep time.
type Selector func(t *dataset.Table, info Info) ([]string, error)

// Cols selects the named columns.
func Cols(names ...string) Selector {
	return func(t *dataset.Table, _ Info) ([]string, error) {
		for _, n := range names {
			if !t.HasColumn(n) {
				return nil, errors.NewValueError("recipe", "unknown column "+n)
			}
		}
		return names, nil
	}
}

// AllNumeric selects every numeric column, including the outcome.
func AllNumeric() Selector {
	return func(t *dataset.Table, _ Info) ([]string, error) {
		return t.NumericColumns(), nil
	}
}

// AllPredictors selects every column except the outcome and id roles.
func AllPredictors() Selector {
	return func(t *dataset.Table, info Info) ([]string, error) {
		var out []string
		for _, n := range t.Names() {
			if n == info.Outcome || info.isID(n) {
				continue
			}
			out = append(out, n)
		}
		return out, nil
	}
}

// AllNumericPredictors selects numeric columns except the outcome and ids.
func AllNumericPredictors() Selector {
	return func(t *dataset.Table, info Info) ([]string, error) {
		var out []string
		for _, n := range t.NumericColumns() {
			if n == info.Outcome || info.isID(n) {
				continue
			}
			out = append(out, n)
		}
		return out, nil
	}
}

// AllNominalPredictors selects string columns except the outcome and ids.
func AllNominalPredictors() Selector {
	return func(t *dataset.Table, info Info) ([]string, error) {
		var out []string
		for _, n := range t.NominalColumns() {
			if n == info.Outcome || info.isID(n) {
				continue
			}
			out = append(out, n)
		}
		return out, nil
	}
}

// Step is one trainable preprocessing operation.
type Step interface {
	// Name identifies the step in logs and errors.
	Name() string
	// Prep estimates the step's parameters from training data.
	Prep(t *dataset.Table, info Info) error
	// Bake applies the trained step.
	Bake(t *dataset.Table) (*dataset.Table, error)
	// TrainingOnly marks steps skipped when baking new data.
	TrainingOnly() bool
	// Clone returns an untrained copy.
	Clone() Step
}

// Recipe is an ordered preprocessing specification bound to an outcome
// column.
type Recipe struct {
	outcome string
	ids     []string
	steps   []Step

	prepared  bool
	juiced    *dataset.Table
	trainCols []string
}

// New creates a recipe predicting the given outcome column.
func New(outcome string) *Recipe {
	return &Recipe{outcome: outcome}
}

// WithID marks columns as identifiers: kept through baking but excluded from
// predictor selectors.
func (r *Recipe) WithID(cols ...string) *Recipe {
	r.ids = append(r.ids, cols...)
	return r
}

// Add appends a step.
func (r *Recipe) Add(s Step) *Recipe {
	r.steps = append(r.steps, s)
	return r
}

// Outcome returns the outcome column name.
func (r *Recipe) Outcome() string { return r.outcome }

// IDs returns the identifier columns.
func (r *Recipe) IDs() []string { return r.ids }

// IsPrepped reports whether Prep has run.
func (r *Recipe) IsPrepped() bool { return r.prepared }

// Clone returns an untrained copy with cloned steps. Re-prepping a clone on
// each analysis set is how resampling avoids information leaking between
// folds.
func (r *Recipe) Clone() *Recipe {
	c := &Recipe{outcome: r.outcome, ids: append([]string{}, r.ids...)}
	for _, s := range r.steps {
		c.steps = append(c.steps, s.Clone())
	}
	return c
}

// Prep trains every step in order on the training table and returns a new
// prepped recipe. The receiver is left untouched. Training-only steps are
// applied to the training data as part of prepping.
func (r *Recipe) Prep(training *dataset.Table) (*Recipe, error) {
	if training == nil || training.NRow() == 0 {
		return nil, errors.NewModelError("Recipe.Prep", "empty training data", errors.ErrEmptyData)
	}
	if r.outcome != "" && !training.HasColumn(r.outcome) {
		return nil, errors.NewValueError("Recipe.Prep", "outcome column "+r.outcome+" not found")
	}

	prepped := r.Clone()
	prepped.trainCols = append([]string{}, training.Names()...)
	info := Info{Outcome: prepped.outcome, IDs: prepped.ids}
	cur := training
	for _, s := range prepped.steps {
		if err := s.Prep(cur, info); err != nil {
			return nil, errors.Wrapf(err, "recipe step %s", s.Name())
		}
		baked, err := s.Bake(cur)
		if err != nil {
			return nil, errors.Wrapf(err, "recipe step %s", s.Name())
		}
		cur = baked
	}
	prepped.prepared = true
	prepped.juiced = cur
	return prepped, nil
}

// Bake applies the trained steps to new data. Training-only steps are
// skipped so assessment sets keep their class balance. Data lacking columns
// the recipe was prepped on is rejected with a DimensionError; the outcome
// column alone may be absent.
func (r *Recipe) Bake(t *dataset.Table) (*dataset.Table, error) {
	if !r.prepared {
		return nil, errors.NewNotFittedError("Recipe", "Bake")
	}
	required, missing := 0, 0
	for _, c := range r.trainCols {
		if c == r.outcome {
			continue
		}
		required++
		if !t.HasColumn(c) {
			missing++
		}
	}
	if missing > 0 {
		return nil, errors.NewDimensionError("Recipe.Bake", required, required-missing, 1)
	}
	cur := t
	for _, s := range r.steps {
		if s.TrainingOnly() {
			continue
		}
		baked, err := s.Bake(cur)
		if err != nil {
			return nil, errors.Wrapf(err, "recipe step %s", s.Name())
		}
		cur = baked
	}
	return cur, nil
}

// Juice returns the already-processed training data from Prep.
func (r *Recipe) Juice() (*dataset.Table, error) {
	if !r.prepared {
		return nil, errors.NewNotFittedError("Recipe", "Juice")
	}
	return r.juiced, nil
}

// StepNames lists the step names in order.
func (r *Recipe) StepNames() []string {
	out := make([]string, len(r.steps))
	for i, s := range r.steps {
		out[i] = s.Name()
	}
	return out
}

// String returns a printable summary like "recipe(outcome ~ .) + normalize + dummy".
func (r *Recipe) String() string {
	var b strings.Builder
	b.WriteString("recipe(" + r.outcome + " ~ .)")
	for _, s := range r.steps {
		b.WriteString(" + " + s.Name())
	}
	return b.String()
}
