package recipe

import (
	"strings"

	"github.com/go-gota/gota/series"

	"github.com/EmmanuelUgo/ML-models/dataset"
	"github.com/EmmanuelUgo/ML-models/pkg/errors"
)

// cleanLevel turns a factor level into a column-name suffix.
func cleanLevel(lv string) string {
	var b strings.Builder
	for _, r := range lv {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// StepDummy one-hot encodes nominal columns. The first training level of
// each column is the reference and gets no indicator. Levels unseen during
// training encode as all zeros with a warning.
type StepDummy struct {
	sel    Selector
	cols   []string
	levels map[string][]string // Full training levels; index 0 is the reference
}

// Dummy appends a dummy-encoding step.
func (r *Recipe) Dummy(sel Selector) *Recipe { return r.Add(&StepDummy{sel: sel}) }

func (s *StepDummy) Name() string       { return "dummy" }
func (s *StepDummy) TrainingOnly() bool { return false }
func (s *StepDummy) Clone() Step        { return &StepDummy{sel: s.sel} }

func (s *StepDummy) Prep(t *dataset.Table, info Info) error {
	cols, err := s.sel(t, info)
	if err != nil {
		return err
	}
	s.cols = cols
	s.levels = make(map[string][]string, len(cols))
	for _, c := range cols {
		levels, err := t.Levels(c)
		if err != nil {
			return err
		}
		if len(levels) < 2 {
			return errors.NewValueError(s.Name(), "column "+c+" has fewer than 2 levels")
		}
		s.levels[c] = levels
	}
	return nil
}

func (s *StepDummy) Bake(t *dataset.Table) (*dataset.Table, error) {
	cur := t
	for _, c := range s.cols {
		recs, err := cur.Strings(c)
		if err != nil {
			return nil, err
		}
		reference := s.levels[c][0]
		kept := s.levels[c][1:]
		known := make(map[string]int, len(kept))
		for i, lv := range kept {
			known[lv] = i
		}

		indicator := make([][]float64, len(kept))
		for j := range indicator {
			indicator[j] = make([]float64, len(recs))
		}
		warned := false
		for i, r := range recs {
			j, ok := known[r]
			if !ok {
				// Unseen levels encode as all zeros and are reported once.
				if r != reference && !dataset.IsMissing(r) && !warned {
					errors.Warn(errors.NewDataConversionWarning(
						"level "+r, "zero indicators", "not seen during training of column "+c))
					warned = true
				}
				continue
			}
			indicator[j][i] = 1
		}

		next, err := cur.Drop(c)
		if err != nil {
			return nil, err
		}
		for j, lv := range kept {
			next, err = next.Mutate(series.New(indicator[j], series.Float, c+"_"+cleanLevel(lv)))
			if err != nil {
				return nil, err
			}
		}
		cur = next
	}
	return cur, nil
}

// StepOther collapses infrequent factor levels into a single "other" level.
// Levels below the threshold share of training rows are pooled; unseen levels
// at bake time are pooled as well.
type StepOther struct {
	sel       Selector
	threshold float64
	other     string

	cols []string
	keep map[string]map[string]bool
}

// OtherOption configures an other-pooling step.
type OtherOption func(*StepOther)

// WithThreshold sets the minimum share of rows a level needs to survive.
func WithThreshold(th float64) OtherOption {
	return func(s *StepOther) { s.threshold = th }
}

// WithOtherLabel renames the pooled level.
func WithOtherLabel(label string) OtherOption {
	return func(s *StepOther) { s.other = label }
}

// Other appends an infrequent-level pooling step.
func (r *Recipe) Other(sel Selector, opts ...OtherOption) *Recipe {
	s := &StepOther{sel: sel, threshold: 0.05, other: "other"}
	for _, opt := range opts {
		opt(s)
	}
	return r.Add(s)
}

func (s *StepOther) Name() string       { return "other" }
func (s *StepOther) TrainingOnly() bool { return false }
func (s *StepOther) Clone() Step {
	return &StepOther{sel: s.sel, threshold: s.threshold, other: s.other}
}

func (s *StepOther) Prep(t *dataset.Table, info Info) error {
	cols, err := s.sel(t, info)
	if err != nil {
		return err
	}
	s.cols = cols
	s.keep = make(map[string]map[string]bool, len(cols))
	for _, c := range cols {
		recs, err := t.Strings(c)
		if err != nil {
			return err
		}
		counts := make(map[string]int)
		var n int
		for _, r := range recs {
			if dataset.IsMissing(r) {
				continue
			}
			counts[r]++
			n++
		}
		kept := make(map[string]bool)
		for lv, cnt := range counts {
			if float64(cnt)/float64(n) >= s.threshold {
				kept[lv] = true
			}
		}
		s.keep[c] = kept
	}
	return nil
}

func (s *StepOther) Bake(t *dataset.Table) (*dataset.Table, error) {
	cur := t
	for _, c := range s.cols {
		recs, err := cur.Strings(c)
		if err != nil {
			return nil, err
		}
		out := make([]string, len(recs))
		for i, r := range recs {
			if dataset.IsMissing(r) || s.keep[c][r] {
				out[i] = r
			} else {
				out[i] = s.other
			}
		}
		next, err := cur.Mutate(series.New(out, series.String, c))
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
