package workflow

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/EmmanuelUgo/ML-models/metrics"
	"github.com/EmmanuelUgo/ML-models/pkg/errors"
	"github.com/EmmanuelUgo/ML-models/pkg/log"
	"github.com/EmmanuelUgo/ML-models/resample"
)

// GridRegular builds the full cross product of the given value lists.
// Parameter names are iterated in sorted order so the candidate sequence is
// deterministic.
func GridRegular(values map[string][]interface{}) []Params {
	names := make([]string, 0, len(values))
	for name, vals := range values {
		if len(vals) == 0 {
			return nil
		}
		names = append(names, name)
	}
	sort.Strings(names)

	grid := []Params{{}}
	for _, name := range names {
		var next []Params
		for _, p := range grid {
			for _, v := range values[name] {
				c := p.clone()
				c[name] = v
				next = append(next, c)
			}
		}
		grid = next
	}
	if len(grid) == 1 && len(grid[0]) == 0 {
		return nil
	}
	return grid
}

// Range is a sampling interval for one tunable parameter.
type Range struct {
	Low, High float64
	// Log samples on a log10 scale, for penalty-style parameters.
	Log bool
	// Int rounds samples to integers.
	Int bool
}

// GridRandom draws n parameter candidates uniformly from the given ranges.
func GridRandom(space map[string]Range, n int, seed int64) []Params {
	if n <= 0 || len(space) == 0 {
		return nil
	}
	names := make([]string, 0, len(space))
	for name := range space {
		names = append(names, name)
	}
	sort.Strings(names)

	rng := rand.New(rand.NewSource(seed))
	grid := make([]Params, n)
	for i := 0; i < n; i++ {
		p := Params{}
		for _, name := range names {
			r := space[name]
			var v float64
			if r.Log {
				v = math.Pow(10, r.Low+rng.Float64()*(r.High-r.Low))
			} else {
				v = r.Low + rng.Float64()*(r.High-r.Low)
			}
			if r.Int {
				p[name] = int(math.Round(v))
			} else {
				p[name] = v
			}
		}
		grid[i] = p
	}
	return grid
}

// CandidateResult holds the resampled metrics for one parameter candidate.
type CandidateResult struct {
	Params    Params
	Summaries []MetricSummary
}

// Summary returns the aggregate for one metric.
func (c CandidateResult) Summary(metric string) (MetricSummary, bool) {
	for _, s := range c.Summaries {
		if s.Metric == metric {
			return s, true
		}
	}
	return MetricSummary{}, false
}

// TuneResult holds every candidate's resampled performance.
type TuneResult struct {
	RunID      string
	Workflow   string
	Candidates []CandidateResult

	set *metrics.Set
}

// TuneGrid resamples the workflow once per parameter candidate. An empty
// grid degenerates to plain FitResamples with the workflow's current
// parameters.
func TuneGrid(w *Workflow, splits []*resample.Split, grid []Params, set *metrics.Set) (*TuneResult, error) {
	if len(grid) == 0 {
		grid = []Params{{}}
	}

	runID := uuid.NewString()
	logger := log.GetLoggerWithName("tune").With(
		log.RunIDKey, runID,
		log.WorkflowKey, w.Name(),
	)
	started := time.Now()
	logger.Info("tuning grid",
		log.CandidateKey, len(grid),
		log.FoldsKey, len(splits),
	)

	result := &TuneResult{RunID: runID, Workflow: w.Name(), set: set}
	for i, candidate := range grid {
		rr, err := FitResamples(w.WithParams(candidate), splits, set)
		if err != nil {
			return nil, errors.Wrapf(err, "candidate %d", i)
		}
		result.Candidates = append(result.Candidates, CandidateResult{
			Params:    candidate,
			Summaries: rr.Summaries(),
		})
		logger.Debug("candidate scored", log.CandidateKey, i)
	}

	logger.Info("tuning complete", log.DurationMsKey, time.Since(started).Milliseconds())
	return result, nil
}

// SelectBest returns the parameters of the candidate with the best mean for
// the given metric, honoring its ranking direction.
func (t *TuneResult) SelectBest(metric string) (Params, error) {
	if len(t.Candidates) == 0 {
		return nil, errors.NewValueError("TuneResult.SelectBest", "no candidates")
	}
	larger := t.set.LargerBetter(metric)

	bestIdx := -1
	bestVal := 0.0
	for i, c := range t.Candidates {
		s, ok := c.Summary(metric)
		if !ok {
			return nil, errors.NewValueError("TuneResult.SelectBest", "metric "+metric+" was not evaluated")
		}
		if bestIdx < 0 || (larger && s.Mean > bestVal) || (!larger && s.Mean < bestVal) {
			bestIdx, bestVal = i, s.Mean
		}
	}
	return t.Candidates[bestIdx].Params.clone(), nil
}

// Finalize returns an untrained workflow bound to the best parameters for
// the given metric.
func (t *TuneResult) Finalize(w *Workflow, metric string) (*Workflow, error) {
	best, err := t.SelectBest(metric)
	if err != nil {
		return nil, err
	}
	return w.WithParams(best), nil
}
