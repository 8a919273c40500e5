package recipe

import (
	"math"
	"sort"

	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/stat"

	"github.com/EmmanuelUgo/ML-models/dataset"
	"github.com/EmmanuelUgo/ML-models/pkg/errors"
)

// resolveNumeric runs a selector and rejects non-numeric results.
func resolveNumeric(name string, t *dataset.Table, info Info, sel Selector) ([]string, error) {
	cols, err := sel(t, info)
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		if !t.IsNumeric(c) {
			return nil, errors.NewValueError(name, "column "+c+" is not numeric")
		}
	}
	return cols, nil
}

func replaceFloats(t *dataset.Table, col string, vals []float64) (*dataset.Table, error) {
	return t.Mutate(series.New(vals, series.Float, col))
}

// finite filters out NaN and Inf values.
func finite(vals []float64) []float64 {
	out := vals[:0:0]
	for _, v := range vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// StepNormalize centers and scales numeric columns to zero mean and unit
// variance using statistics from the training data.
type StepNormalize struct {
	sel   Selector
	cols  []string
	means map[string]float64
	sds   map[string]float64
}

// Normalize appends a normalization step.
func (r *Recipe) Normalize(sel Selector) *Recipe { return r.Add(&StepNormalize{sel: sel}) }

func (s *StepNormalize) Name() string       { return "normalize" }
func (s *StepNormalize) TrainingOnly() bool { return false }
func (s *StepNormalize) Clone() Step        { return &StepNormalize{sel: s.sel} }

func (s *StepNormalize) Prep(t *dataset.Table, info Info) error {
	cols, err := resolveNumeric(s.Name(), t, info, s.sel)
	if err != nil {
		return err
	}
	s.cols = cols
	s.means = make(map[string]float64, len(cols))
	s.sds = make(map[string]float64, len(cols))
	for _, c := range cols {
		vals, err := t.Floats(c)
		if err != nil {
			return err
		}
		mean, sd := stat.MeanStdDev(finite(vals), nil)
		if sd < 1e-8 || math.IsNaN(sd) {
			sd = 1
		}
		s.means[c] = mean
		s.sds[c] = sd
	}
	return nil
}

func (s *StepNormalize) Bake(t *dataset.Table) (*dataset.Table, error) {
	cur := t
	for _, c := range s.cols {
		vals, err := cur.Floats(c)
		if err != nil {
			return nil, err
		}
		scaled := make([]float64, len(vals))
		for i, v := range vals {
			scaled[i] = (v - s.means[c]) / s.sds[c]
		}
		if cur, err = replaceFloats(cur, c, scaled); err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// StepRange rescales numeric columns into [0, 1] using training min/max.
type StepRange struct {
	sel  Selector
	cols []string
	mins map[string]float64
	maxs map[string]float64
}

// Range appends a min-max scaling step.
func (r *Recipe) Range(sel Selector) *Recipe { return r.Add(&StepRange{sel: sel}) }

func (s *StepRange) Name() string       { return "range" }
func (s *StepRange) TrainingOnly() bool { return false }
func (s *StepRange) Clone() Step        { return &StepRange{sel: s.sel} }

func (s *StepRange) Prep(t *dataset.Table, info Info) error {
	cols, err := resolveNumeric(s.Name(), t, info, s.sel)
	if err != nil {
		return err
	}
	s.cols = cols
	s.mins = make(map[string]float64, len(cols))
	s.maxs = make(map[string]float64, len(cols))
	for _, c := range cols {
		vals, err := t.Floats(c)
		if err != nil {
			return err
		}
		fv := finite(vals)
		if len(fv) == 0 {
			return errors.NewValueError(s.Name(), "column "+c+" has no finite values")
		}
		lo, hi := fv[0], fv[0]
		for _, v := range fv[1:] {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		s.mins[c] = lo
		s.maxs[c] = hi
	}
	return nil
}

func (s *StepRange) Bake(t *dataset.Table) (*dataset.Table, error) {
	cur := t
	for _, c := range s.cols {
		vals, err := cur.Floats(c)
		if err != nil {
			return nil, err
		}
		span := s.maxs[c] - s.mins[c]
		scaled := make([]float64, len(vals))
		for i, v := range vals {
			if span == 0 {
				scaled[i] = 0
				continue
			}
			scaled[i] = (v - s.mins[c]) / span
		}
		if cur, err = replaceFloats(cur, c, scaled); err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// StepLog log-transforms numeric columns. An offset keeps zero counts
// finite.
type StepLog struct {
	sel    Selector
	offset float64
	base   float64
	cols   []string
}

// LogOption configures a log step.
type LogOption func(*StepLog)

// WithOffset adds a constant before taking the log.
func WithOffset(off float64) LogOption {
	return func(s *StepLog) { s.offset = off }
}

// WithBase sets the logarithm base (default e).
func WithBase(base float64) LogOption {
	return func(s *StepLog) { s.base = base }
}

// Log appends a log-transform step.
func (r *Recipe) Log(sel Selector, opts ...LogOption) *Recipe {
	s := &StepLog{sel: sel, base: math.E}
	for _, opt := range opts {
		opt(s)
	}
	return r.Add(s)
}

func (s *StepLog) Name() string       { return "log" }
func (s *StepLog) TrainingOnly() bool { return false }
func (s *StepLog) Clone() Step        { return &StepLog{sel: s.sel, offset: s.offset, base: s.base} }

func (s *StepLog) Prep(t *dataset.Table, info Info) error {
	cols, err := resolveNumeric(s.Name(), t, info, s.sel)
	if err != nil {
		return err
	}
	s.cols = cols
	return nil
}

func (s *StepLog) Bake(t *dataset.Table) (*dataset.Table, error) {
	logBase := math.Log(s.base)
	cur := t
	for _, c := range s.cols {
		vals, err := cur.Floats(c)
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(vals))
		for i, v := range vals {
			out[i] = math.Log(v+s.offset) / logBase
		}
		if cur, err = replaceFloats(cur, c, out); err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// ImputeStrategy selects the statistic used to fill missing values.
type ImputeStrategy string

const (
	// ImputeMean fills numeric gaps with the training mean.
	ImputeMean ImputeStrategy = "mean"
	// ImputeMedian fills numeric gaps with the training median.
	ImputeMedian ImputeStrategy = "median"
	// ImputeMode fills nominal gaps with the most frequent level.
	ImputeMode ImputeStrategy = "mode"
)

// StepImpute fills missing values with a training-set statistic.
type StepImpute struct {
	sel      Selector
	strategy ImputeStrategy

	cols     []string
	numFill  map[string]float64
	nomFill  map[string]string
}

// Impute appends an imputation step.
func (r *Recipe) Impute(sel Selector, strategy ImputeStrategy) *Recipe {
	return r.Add(&StepImpute{sel: sel, strategy: strategy})
}

func (s *StepImpute) Name() string       { return "impute_" + string(s.strategy) }
func (s *StepImpute) TrainingOnly() bool { return false }
func (s *StepImpute) Clone() Step        { return &StepImpute{sel: s.sel, strategy: s.strategy} }

func (s *StepImpute) Prep(t *dataset.Table, info Info) error {
	cols, err := s.sel(t, info)
	if err != nil {
		return err
	}
	s.cols = cols
	s.numFill = make(map[string]float64)
	s.nomFill = make(map[string]string)

	for _, c := range cols {
		if s.strategy == ImputeMode {
			recs, err := t.Strings(c)
			if err != nil {
				return err
			}
			counts := make(map[string]int)
			for _, r := range recs {
				if dataset.IsMissing(r) {
					continue
				}
				counts[r]++
			}
			best, bestN := "", -1
			for lv, n := range counts {
				if n > bestN || (n == bestN && lv < best) {
					best, bestN = lv, n
				}
			}
			if bestN < 0 {
				return errors.NewValueError(s.Name(), "column "+c+" is entirely missing")
			}
			s.nomFill[c] = best
			continue
		}

		if !t.IsNumeric(c) {
			return errors.NewValueError(s.Name(), "column "+c+" is not numeric")
		}
		vals, err := t.Floats(c)
		if err != nil {
			return err
		}
		fv := finite(vals)
		if len(fv) == 0 {
			return errors.NewValueError(s.Name(), "column "+c+" is entirely missing")
		}
		if s.strategy == ImputeMedian {
			sort.Float64s(fv)
			s.numFill[c] = stat.Quantile(0.5, stat.Empirical, fv, nil)
		} else {
			s.numFill[c] = stat.Mean(fv, nil)
		}
	}
	return nil
}

func (s *StepImpute) Bake(t *dataset.Table) (*dataset.Table, error) {
	cur := t
	for _, c := range s.cols {
		if s.strategy == ImputeMode {
			recs, err := cur.Strings(c)
			if err != nil {
				return nil, err
			}
			out := make([]string, len(recs))
			for i, r := range recs {
				if dataset.IsMissing(r) {
					out[i] = s.nomFill[c]
				} else {
					out[i] = r
				}
			}
			next, err := cur.Mutate(series.New(out, series.String, c))
			if err != nil {
				return nil, err
			}
			cur = next
			continue
		}

		vals, err := cur.Floats(c)
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(vals))
		for i, v := range vals {
			if math.IsNaN(v) {
				out[i] = s.numFill[c]
			} else {
				out[i] = v
			}
		}
		if cur, err = replaceFloats(cur, c, out); err != nil {
			return nil, err
		}
	}
	return cur, nil
}
