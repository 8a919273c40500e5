package workflow

import (
	"sort"

	"github.com/EmmanuelUgo/ML-models/metrics"
	"github.com/EmmanuelUgo/ML-models/pkg/errors"
	"github.com/EmmanuelUgo/ML-models/resample"
)

// Set screens several workflows against the same resamples, the way a
// workflow set compares candidate models before committing to one.
type Set struct {
	workflows []*Workflow
}

// NewSet builds a workflow set. Names must be unique.
func NewSet(workflows ...*Workflow) (*Set, error) {
	if len(workflows) == 0 {
		return nil, errors.NewValueError("workflow.NewSet", "no workflows given")
	}
	seen := make(map[string]bool, len(workflows))
	for _, w := range workflows {
		if seen[w.Name()] {
			return nil, errors.NewValueError("workflow.NewSet", "duplicate workflow name "+w.Name())
		}
		seen[w.Name()] = true
	}
	return &Set{workflows: workflows}, nil
}

// Names lists the member workflows in order.
func (s *Set) Names() []string {
	out := make([]string, len(s.workflows))
	for i, w := range s.workflows {
		out[i] = w.Name()
	}
	return out
}

// Get returns a member workflow by name.
func (s *Set) Get(name string) (*Workflow, bool) {
	for _, w := range s.workflows {
		if w.Name() == name {
			return w, true
		}
	}
	return nil, false
}

// FitResamples evaluates every member on the same splits.
func (s *Set) FitResamples(splits []*resample.Split, set *metrics.Set) ([]*ResampleResult, error) {
	results := make([]*ResampleResult, 0, len(s.workflows))
	for _, w := range s.workflows {
		rr, err := FitResamples(w, splits, set)
		if err != nil {
			return nil, errors.Wrapf(err, "workflow %s", w.Name())
		}
		results = append(results, rr)
	}
	return results, nil
}

// RankEntry is one row of a workflow ranking.
type RankEntry struct {
	Rank     int
	Workflow string
	Metric   string
	Mean     float64
	Std      float64
}

// RankResults orders resample results by mean performance on the given
// metric, best first.
func RankResults(results []*ResampleResult, metric string, set *metrics.Set) ([]RankEntry, error) {
	larger := set.LargerBetter(metric)

	entries := make([]RankEntry, 0, len(results))
	for _, rr := range results {
		s, ok := rr.Summary(metric)
		if !ok {
			return nil, errors.NewValueError("workflow.RankResults", "metric "+metric+" missing for "+rr.Workflow)
		}
		entries = append(entries, RankEntry{
			Workflow: rr.Workflow,
			Metric:   metric,
			Mean:     s.Mean,
			Std:      s.Std,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if larger {
			return entries[i].Mean > entries[j].Mean
		}
		return entries[i].Mean < entries[j].Mean
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
