package recipe

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/go-gota/gota/series"

	"github.com/EmmanuelUgo/ML-models/dataset"
	"github.com/EmmanuelUgo/ML-models/decomposition"
	"github.com/EmmanuelUgo/ML-models/pkg/errors"
)

// StepDownsample balances class frequencies by sampling every level of a
// factor down to the rarest level's count. It only runs on training data so
// assessment sets keep their natural balance.
type StepDownsample struct {
	col  string
	seed int64
}

// Downsample appends a class-balancing step on the given column.
func (r *Recipe) Downsample(col string, seed int64) *Recipe {
	return r.Add(&StepDownsample{col: col, seed: seed})
}

func (s *StepDownsample) Name() string       { return "downsample" }
func (s *StepDownsample) TrainingOnly() bool { return true }
func (s *StepDownsample) Clone() Step        { return &StepDownsample{col: s.col, seed: s.seed} }

func (s *StepDownsample) Prep(t *dataset.Table, _ Info) error {
	if !t.HasColumn(s.col) {
		return errors.NewValueError(s.Name(), "unknown column "+s.col)
	}
	return nil
}

func (s *StepDownsample) Bake(t *dataset.Table) (*dataset.Table, error) {
	recs, err := t.Strings(s.col)
	if err != nil {
		return nil, err
	}
	byLevel := make(map[string][]int)
	var order []string
	for i, r := range recs {
		if _, ok := byLevel[r]; !ok {
			order = append(order, r)
		}
		byLevel[r] = append(byLevel[r], i)
	}
	if len(order) < 2 {
		return t, nil
	}

	minCount := len(recs)
	for _, idx := range byLevel {
		if len(idx) < minCount {
			minCount = len(idx)
		}
	}

	rng := rand.New(rand.NewSource(s.seed))
	var keep []int
	for _, lv := range order {
		idx := append([]int{}, byLevel[lv]...)
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		keep = append(keep, idx[:minCount]...)
	}
	sort.Ints(keep)
	return t.Subset(keep)
}

// StepPCA replaces numeric columns with their leading principal-component
// scores, named PC1..PCk. The projection is estimated on training data.
type StepPCA struct {
	sel  Selector
	k    int
	cols []string
	pca  *decomposition.PCA
}

// PCA appends a principal-component step keeping k components.
func (r *Recipe) PCA(sel Selector, k int) *Recipe {
	return r.Add(&StepPCA{sel: sel, k: k})
}

func (s *StepPCA) Name() string       { return "pca" }
func (s *StepPCA) TrainingOnly() bool { return false }
func (s *StepPCA) Clone() Step        { return &StepPCA{sel: s.sel, k: s.k} }

func (s *StepPCA) Prep(t *dataset.Table, info Info) error {
	cols, err := resolveNumeric(s.Name(), t, info, s.sel)
	if err != nil {
		return err
	}
	if len(cols) < s.k {
		return errors.NewValidationError("num_comp",
			fmt.Sprintf("requested %d components from %d columns", s.k, len(cols)), s.k)
	}
	s.cols = cols

	X, err := t.Matrix(cols...)
	if err != nil {
		return err
	}
	s.pca = decomposition.NewPCA(s.k)
	return s.pca.Fit(X)
}

func (s *StepPCA) Bake(t *dataset.Table) (*dataset.Table, error) {
	X, err := t.Matrix(s.cols...)
	if err != nil {
		return nil, err
	}
	scores, err := s.pca.Transform(X)
	if err != nil {
		return nil, err
	}

	cur, err := t.Drop(s.cols...)
	if err != nil {
		// PCA may consume every column; synthesize a fresh table then.
		names := make([]string, s.k)
		for j := range names {
			names[j] = fmt.Sprintf("PC%d", j+1)
		}
		return dataset.FromMatrix(scores, names)
	}

	r, _ := scores.Dims()
	col := make([]float64, r)
	for j := 0; j < s.k; j++ {
		for i := 0; i < r; i++ {
			col[i] = scores.At(i, j)
		}
		cur, err = cur.Mutate(series.New(append([]float64{}, col...), series.Float, fmt.Sprintf("PC%d", j+1)))
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}
