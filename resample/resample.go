// Package resample provides the data-splitting schemes used for model
// assessment: a stratified train/test split, v-fold cross-validation with
// optional repeats, and bootstrap resamples. All splitters are deterministic
// for a given seed.
package resample

import (
	"fmt"
	"math/rand"

	"github.com/EmmanuelUgo/ML-models/dataset"
	"github.com/EmmanuelUgo/ML-models/pkg/errors"
)

// Split holds one train/assessment partition as row indices into the source
// table.
type Split struct {
	ID    string
	Train []int
	Test  []int

	src *dataset.Table
}

// Training materializes the analysis rows.
func (s *Split) Training() (*dataset.Table, error) { return s.src.Subset(s.Train) }

// Testing materializes the assessment rows.
func (s *Split) Testing() (*dataset.Table, error) { return s.src.Subset(s.Test) }

type splitParams struct {
	prop    float64
	strata  string
	v       int
	repeats int
	times   int
	seed    int64
}

// Option configures a splitter.
type Option func(*splitParams)

// WithProp sets the training proportion for an initial split.
func WithProp(prop float64) Option {
	return func(p *splitParams) { p.prop = prop }
}

// WithStrata stratifies the split on the given column so each partition
// preserves its level frequencies.
func WithStrata(col string) Option {
	return func(p *splitParams) { p.strata = col }
}

// WithV sets the number of cross-validation folds.
func WithV(v int) Option {
	return func(p *splitParams) { p.v = v }
}

// WithRepeats repeats the whole fold assignment with fresh shuffles.
func WithRepeats(n int) Option {
	return func(p *splitParams) { p.repeats = n }
}

// WithTimes sets the number of bootstrap resamples.
func WithTimes(n int) Option {
	return func(p *splitParams) { p.times = n }
}

// WithSeed seeds the shuffles.
func WithSeed(seed int64) Option {
	return func(p *splitParams) { p.seed = seed }
}

func buildParams(opts []Option) splitParams {
	p := splitParams{
		prop:    0.75,
		v:       10,
		repeats: 1,
		times:   25,
		seed:    42,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// strataGroups partitions row indices by the level of the strata column, or
// returns a single group when no strata is set.
func strataGroups(t *dataset.Table, strata string) ([][]int, error) {
	n := t.NRow()
	if strata == "" {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return [][]int{all}, nil
	}
	if !t.HasColumn(strata) {
		return nil, errors.NewValueError("resample", fmt.Sprintf("strata column %q not found", strata))
	}
	levels, err := t.Strings(strata)
	if err != nil {
		return nil, err
	}
	byLevel := make(map[string][]int)
	var order []string
	for i, lv := range levels {
		if _, ok := byLevel[lv]; !ok {
			order = append(order, lv)
		}
		byLevel[lv] = append(byLevel[lv], i)
	}
	groups := make([][]int, 0, len(order))
	for _, lv := range order {
		groups = append(groups, byLevel[lv])
	}
	return groups, nil
}

// InitialSplit partitions a table into training and testing rows, taking
// prop of each stratum for training.
func InitialSplit(t *dataset.Table, opts ...Option) (*Split, error) {
	p := buildParams(opts)
	if t == nil || t.NRow() == 0 {
		return nil, errors.NewModelError("resample.InitialSplit", "empty data", errors.ErrEmptyData)
	}
	if p.prop <= 0 || p.prop >= 1 {
		return nil, errors.NewValidationError("prop", "must be in (0, 1)", p.prop)
	}

	groups, err := strataGroups(t, p.strata)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(p.seed))
	split := &Split{ID: "initial", src: t}
	for _, group := range groups {
		idx := append([]int{}, group...)
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		nTrain := int(float64(len(idx))*p.prop + 0.5)
		if nTrain == len(idx) && len(idx) > 1 {
			nTrain--
		}
		if nTrain == 0 && len(idx) > 1 {
			nTrain = 1
		}
		split.Train = append(split.Train, idx[:nTrain]...)
		split.Test = append(split.Test, idx[nTrain:]...)
	}
	return split, nil
}

// VFold builds v cross-validation folds, stratified when a strata column is
// set. Each fold's assessment set is one of v roughly equal shares; the
// remaining rows form the analysis set. Repeats produce repeats*v splits.
func VFold(t *dataset.Table, opts ...Option) ([]*Split, error) {
	p := buildParams(opts)
	if t == nil || t.NRow() == 0 {
		return nil, errors.NewModelError("resample.VFold", "empty data", errors.ErrEmptyData)
	}
	if p.v < 2 {
		return nil, errors.NewValidationError("v", "must be at least 2", p.v)
	}
	if p.v > t.NRow() {
		return nil, errors.NewValidationError("v", fmt.Sprintf("must not exceed %d rows", t.NRow()), p.v)
	}

	groups, err := strataGroups(t, p.strata)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(p.seed))
	var splits []*Split
	for rep := 0; rep < p.repeats; rep++ {
		// foldOf assigns every row to a fold, spreading each stratum evenly.
		foldOf := make([]int, t.NRow())
		for _, group := range groups {
			idx := append([]int{}, group...)
			rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
			for k, row := range idx {
				foldOf[row] = k % p.v
			}
		}

		for f := 0; f < p.v; f++ {
			s := &Split{src: t}
			if p.repeats > 1 {
				s.ID = fmt.Sprintf("Repeat%d.Fold%02d", rep+1, f+1)
			} else {
				s.ID = fmt.Sprintf("Fold%02d", f+1)
			}
			for row := 0; row < t.NRow(); row++ {
				if foldOf[row] == f {
					s.Test = append(s.Test, row)
				} else {
					s.Train = append(s.Train, row)
				}
			}
			splits = append(splits, s)
		}
	}
	return splits, nil
}

// Bootstraps draws times resamples with replacement. The assessment set of
// each resample is the out-of-bag rows.
func Bootstraps(t *dataset.Table, opts ...Option) ([]*Split, error) {
	p := buildParams(opts)
	if t == nil || t.NRow() == 0 {
		return nil, errors.NewModelError("resample.Bootstraps", "empty data", errors.ErrEmptyData)
	}
	if p.times < 1 {
		return nil, errors.NewValidationError("times", "must be at least 1", p.times)
	}

	n := t.NRow()
	rng := rand.New(rand.NewSource(p.seed))
	splits := make([]*Split, p.times)
	for b := 0; b < p.times; b++ {
		s := &Split{ID: fmt.Sprintf("Bootstrap%02d", b+1), src: t}
		inBag := make([]bool, n)
		s.Train = make([]int, n)
		for i := 0; i < n; i++ {
			j := rng.Intn(n)
			s.Train[i] = j
			inBag[j] = true
		}
		for i := 0; i < n; i++ {
			if !inBag[i] {
				s.Test = append(s.Test, i)
			}
		}
		splits[b] = s
	}
	return splits, nil
}
