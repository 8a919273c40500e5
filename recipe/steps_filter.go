package recipe

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/EmmanuelUgo/ML-models/dataset"
)

// StepZV removes columns with a single distinct training value.
type StepZV struct {
	sel  Selector
	drop []string
}

// ZV appends a zero-variance filter.
func (r *Recipe) ZV(sel Selector) *Recipe { return r.Add(&StepZV{sel: sel}) }

func (s *StepZV) Name() string       { return "zv" }
func (s *StepZV) TrainingOnly() bool { return false }
func (s *StepZV) Clone() Step        { return &StepZV{sel: s.sel} }

func (s *StepZV) Prep(t *dataset.Table, info Info) error {
	cols, err := s.sel(t, info)
	if err != nil {
		return err
	}
	s.drop = s.drop[:0]
	for _, c := range cols {
		recs, err := t.Strings(c)
		if err != nil {
			return err
		}
		distinct := make(map[string]bool)
		for _, r := range recs {
			distinct[r] = true
			if len(distinct) > 1 {
				break
			}
		}
		if len(distinct) <= 1 {
			s.drop = append(s.drop, c)
		}
	}
	return nil
}

func (s *StepZV) Bake(t *dataset.Table) (*dataset.Table, error) {
	if len(s.drop) == 0 {
		return t, nil
	}
	return t.Drop(s.drop...)
}

// StepNZV removes near-zero-variance columns: few distinct values and a
// dominant mode, using the caret freqRatio/uniqueCut rule.
type StepNZV struct {
	sel       Selector
	freqRatio float64
	uniqueCut float64
	drop      []string
}

// NZVOption configures a near-zero-variance filter.
type NZVOption func(*StepNZV)

// WithFreqRatio sets the most-common to second-most-common frequency ratio
// above which a column is suspect (default 95/5).
func WithFreqRatio(r float64) NZVOption {
	return func(s *StepNZV) { s.freqRatio = r }
}

// WithUniqueCut sets the percentage of distinct values below which a column
// is suspect (default 10).
func WithUniqueCut(c float64) NZVOption {
	return func(s *StepNZV) { s.uniqueCut = c }
}

// NZV appends a near-zero-variance filter.
func (r *Recipe) NZV(sel Selector, opts ...NZVOption) *Recipe {
	s := &StepNZV{sel: sel, freqRatio: 95.0 / 5.0, uniqueCut: 10}
	for _, opt := range opts {
		opt(s)
	}
	return r.Add(s)
}

func (s *StepNZV) Name() string       { return "nzv" }
func (s *StepNZV) TrainingOnly() bool { return false }
func (s *StepNZV) Clone() Step {
	return &StepNZV{sel: s.sel, freqRatio: s.freqRatio, uniqueCut: s.uniqueCut}
}

func (s *StepNZV) Prep(t *dataset.Table, info Info) error {
	cols, err := s.sel(t, info)
	if err != nil {
		return err
	}
	s.drop = s.drop[:0]
	n := float64(t.NRow())
	for _, c := range cols {
		recs, err := t.Strings(c)
		if err != nil {
			return err
		}
		counts := make(map[string]int)
		for _, r := range recs {
			counts[r]++
		}
		if len(counts) <= 1 {
			s.drop = append(s.drop, c)
			continue
		}

		freqs := make([]int, 0, len(counts))
		for _, cnt := range counts {
			freqs = append(freqs, cnt)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(freqs)))
		ratio := float64(freqs[0]) / float64(freqs[1])
		pctUnique := 100 * float64(len(counts)) / n
		if ratio > s.freqRatio && pctUnique < s.uniqueCut {
			s.drop = append(s.drop, c)
		}
	}
	return nil
}

func (s *StepNZV) Bake(t *dataset.Table) (*dataset.Table, error) {
	if len(s.drop) == 0 {
		return t, nil
	}
	return t.Drop(s.drop...)
}

// StepCorr removes numeric columns so that no surviving pair has absolute
// Pearson correlation above the threshold. When a pair exceeds it, the
// column with the larger mean absolute correlation is removed.
type StepCorr struct {
	sel       Selector
	threshold float64
	drop      []string
}

// CorrOption configures a correlation filter.
type CorrOption func(*StepCorr)

// WithCorrThreshold sets the absolute correlation cutoff (default 0.9).
func WithCorrThreshold(th float64) CorrOption {
	return func(s *StepCorr) { s.threshold = th }
}

// Corr appends a high-correlation filter.
func (r *Recipe) Corr(sel Selector, opts ...CorrOption) *Recipe {
	s := &StepCorr{sel: sel, threshold: 0.9}
	for _, opt := range opts {
		opt(s)
	}
	return r.Add(s)
}

func (s *StepCorr) Name() string       { return "corr" }
func (s *StepCorr) TrainingOnly() bool { return false }
func (s *StepCorr) Clone() Step        { return &StepCorr{sel: s.sel, threshold: s.threshold} }

func (s *StepCorr) Prep(t *dataset.Table, info Info) error {
	cols, err := resolveNumeric(s.Name(), t, info, s.sel)
	if err != nil {
		return err
	}
	s.drop = s.drop[:0]
	if len(cols) < 2 {
		return nil
	}

	data := make([][]float64, len(cols))
	for i, c := range cols {
		vals, err := t.Floats(c)
		if err != nil {
			return err
		}
		data[i] = vals
	}

	p := len(cols)
	corr := make([][]float64, p)
	for i := range corr {
		corr[i] = make([]float64, p)
		corr[i][i] = 1
	}
	for i := 0; i < p; i++ {
		for j := i + 1; j < p; j++ {
			r := stat.Correlation(data[i], data[j], nil)
			if math.IsNaN(r) {
				r = 0
			}
			corr[i][j] = math.Abs(r)
			corr[j][i] = corr[i][j]
		}
	}

	removed := make([]bool, p)
	for {
		// Find the worst surviving pair.
		bi, bj, best := -1, -1, s.threshold
		for i := 0; i < p; i++ {
			if removed[i] {
				continue
			}
			for j := i + 1; j < p; j++ {
				if removed[j] {
					continue
				}
				if corr[i][j] > best {
					bi, bj, best = i, j, corr[i][j]
				}
			}
		}
		if bi < 0 {
			break
		}
		// Drop whichever member correlates more with everything else.
		if meanAbsCorr(corr, removed, bi) >= meanAbsCorr(corr, removed, bj) {
			removed[bi] = true
		} else {
			removed[bj] = true
		}
	}

	for i, c := range cols {
		if removed[i] {
			s.drop = append(s.drop, c)
		}
	}
	return nil
}

func meanAbsCorr(corr [][]float64, removed []bool, i int) float64 {
	var sum float64
	var n int
	for j := range corr[i] {
		if j == i || removed[j] {
			continue
		}
		sum += corr[i][j]
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func (s *StepCorr) Bake(t *dataset.Table) (*dataset.Table, error) {
	if len(s.drop) == 0 {
		return t, nil
	}
	return t.Drop(s.drop...)
}
