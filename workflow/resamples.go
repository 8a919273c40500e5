package workflow

import (
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/EmmanuelUgo/ML-models/core/parallel"
	"github.com/EmmanuelUgo/ML-models/dataset"
	"github.com/EmmanuelUgo/ML-models/metrics"
	"github.com/EmmanuelUgo/ML-models/pkg/errors"
	"github.com/EmmanuelUgo/ML-models/pkg/log"
	"github.com/EmmanuelUgo/ML-models/resample"
)

// FoldResult holds the metrics of one resample.
type FoldResult struct {
	ID      string
	Metrics []metrics.Result
}

// MetricSummary aggregates one metric across folds.
type MetricSummary struct {
	Metric string
	Mean   float64
	Std    float64
	N      int
}

// ResampleResult collects per-fold and aggregated metrics for one workflow.
type ResampleResult struct {
	RunID    string
	Workflow string
	Folds    []FoldResult
}

// Summaries returns the fold-averaged metrics in first-seen order.
func (r *ResampleResult) Summaries() []MetricSummary {
	byName := make(map[string][]float64)
	var order []string
	for _, fold := range r.Folds {
		for _, m := range fold.Metrics {
			if _, ok := byName[m.Name]; !ok {
				order = append(order, m.Name)
			}
			byName[m.Name] = append(byName[m.Name], m.Value)
		}
	}

	out := make([]MetricSummary, 0, len(order))
	for _, name := range order {
		vals := byName[name]
		mean := stat.Mean(vals, nil)
		sd := 0.0
		if len(vals) > 1 {
			sd = stat.StdDev(vals, nil)
		}
		if math.IsNaN(sd) {
			sd = 0
		}
		out = append(out, MetricSummary{Metric: name, Mean: mean, Std: sd, N: len(vals)})
	}
	return out
}

// Summary returns the aggregate for one metric.
func (r *ResampleResult) Summary(metric string) (MetricSummary, bool) {
	for _, s := range r.Summaries() {
		if s.Metric == metric {
			return s, true
		}
	}
	return MetricSummary{}, false
}

// FitResamples fits the workflow on each split's analysis rows and scores it
// on the assessment rows. The recipe is re-prepped inside every fold. Folds
// run in parallel.
func FitResamples(w *Workflow, splits []*resample.Split, set *metrics.Set) (*ResampleResult, error) {
	if len(splits) == 0 {
		return nil, errors.NewValueError("workflow.FitResamples", "no resamples given")
	}

	runID := uuid.NewString()
	logger := log.GetLoggerWithName("resamples").With(
		log.RunIDKey, runID,
		log.WorkflowKey, w.Name(),
	)
	started := time.Now()
	logger.Info("fitting resamples", log.FoldsKey, len(splits))

	results := make([]FoldResult, len(splits))
	errs := make([]error, len(splits))
	parallel.ForEach(len(splits), func(i int) {
		results[i], errs[i] = fitOneSplit(w, splits[i], set)
	})
	for i, err := range errs {
		if err != nil {
			return nil, errors.Wrapf(err, "resample %s", splits[i].ID)
		}
	}

	logger.Info("resamples complete", log.DurationMsKey, time.Since(started).Milliseconds())
	return &ResampleResult{RunID: runID, Workflow: w.Name(), Folds: results}, nil
}

func fitOneSplit(w *Workflow, split *resample.Split, set *metrics.Set) (FoldResult, error) {
	training, err := split.Training()
	if err != nil {
		return FoldResult{}, err
	}
	testing, err := split.Testing()
	if err != nil {
		return FoldResult{}, err
	}

	fold := w.Clone()
	if err := fold.Fit(training); err != nil {
		return FoldResult{}, err
	}
	ms, err := fold.Evaluate(testing, set)
	if err != nil {
		return FoldResult{}, err
	}
	return FoldResult{ID: split.ID, Metrics: ms}, nil
}

// LastFitResult holds the final fit on training data and its held-out
// assessment.
type LastFitResult struct {
	Workflow *Workflow
	Metrics  []metrics.Result

	// Predictions holds the assessment-set point predictions.
	Predictions *dataset.Table
}

// LastFit fits the workflow on the initial split's training rows and
// evaluates it once on the held-out test rows.
func LastFit(w *Workflow, split *resample.Split, set *metrics.Set) (*LastFitResult, error) {
	training, err := split.Training()
	if err != nil {
		return nil, err
	}
	testing, err := split.Testing()
	if err != nil {
		return nil, err
	}

	final := w.Clone()
	if err := final.Fit(training); err != nil {
		return nil, err
	}
	ms, err := final.Evaluate(testing, set)
	if err != nil {
		return nil, err
	}

	preds, err := predictionTable(final, testing)
	if err != nil {
		return nil, err
	}
	return &LastFitResult{Workflow: final, Metrics: ms, Predictions: preds}, nil
}

// predictionTable pairs observed outcomes with predictions for reporting.
func predictionTable(w *Workflow, testing *dataset.Table) (*dataset.Table, error) {
	outcome := w.rec.Outcome()
	truth, err := testing.Strings(outcome)
	if err != nil {
		return nil, err
	}

	records := [][]string{{outcome, ".pred"}}
	if w.Mode() == Classification {
		levels, err := w.PredictLevels(testing)
		if err != nil {
			return nil, err
		}
		for i := range truth {
			records = append(records, []string{truth[i], levels[i]})
		}
		return dataset.FromRecords(records)
	}

	pred, err := w.Predict(testing)
	if err != nil {
		return nil, err
	}
	for i := range truth {
		records = append(records, []string{truth[i], formatFloat(pred.At(i, 0))})
	}
	return dataset.FromRecords(records)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
