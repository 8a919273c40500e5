// Package analysis contains the five end-to-end studies the CLI exposes.
// Each study follows the same arc: load a CSV, clean it, split it, declare a
// recipe, resample one or more workflows, and report metrics and plots.
package analysis

import (
	"path/filepath"
	"strconv"

	"github.com/EmmanuelUgo/ML-models/core/model"
	"github.com/EmmanuelUgo/ML-models/dataset"
	"github.com/EmmanuelUgo/ML-models/internal/config"
	"github.com/EmmanuelUgo/ML-models/metrics"
	"github.com/EmmanuelUgo/ML-models/pkg/errors"
	"github.com/EmmanuelUgo/ML-models/pkg/log"
	"github.com/EmmanuelUgo/ML-models/visualize"
	"github.com/EmmanuelUgo/ML-models/workflow"
)

// Run carries the shared context of one analysis invocation.
type Run struct {
	cfg    *config.Config
	logger log.Logger
}

// NewRun binds an analysis run to its configuration.
func NewRun(cfg *config.Config, name string) *Run {
	return &Run{
		cfg:    cfg,
		logger: log.GetLoggerWithName("analysis").With(log.ComponentKey, name),
	}
}

// Config exposes the run configuration.
func (r *Run) Config() *config.Config { return r.cfg }

// Logger exposes the contextual logger.
func (r *Run) Logger() log.Logger { return r.logger }

// load reads a CSV from the data directory.
func (r *Run) load(name string) (*dataset.Table, error) {
	path := filepath.Join(r.cfg.DataDir, name)
	t, err := dataset.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	r.logger.Info("dataset loaded",
		log.OperationKey, "load",
		log.SamplesKey, t.NRow(),
		log.FeaturesKey, t.NCol(),
	)
	return t, nil
}

// outPath resolves a file inside the output directory.
func (r *Run) outPath(name string) string {
	return filepath.Join(r.cfg.OutputDir, name)
}

// writeMetricTable persists a metric table as CSV and logs each row.
func (r *Run) writeMetricTable(name string, header []string, rows [][]string) error {
	records := append([][]string{header}, rows...)
	t, err := dataset.FromRecords(records)
	if err != nil {
		return err
	}
	path := r.outPath(name)
	if err := dataset.WriteCSV(t, path); err != nil {
		return err
	}
	r.logger.Info("metric table written", log.OperationKey, name)
	return nil
}

// summaryRows flattens resample summaries for a metric table.
func summaryRows(rr *workflow.ResampleResult) [][]string {
	var rows [][]string
	for _, s := range rr.Summaries() {
		rows = append(rows, []string{
			rr.Workflow,
			s.Metric,
			formatFloat(s.Mean),
			formatFloat(s.Std),
			strconv.Itoa(s.N),
		})
	}
	return rows
}

// logMetrics reports a final metric list at info level.
func (r *Run) logMetrics(stage string, ms []metrics.Result) {
	for _, m := range ms {
		r.logger.Info(stage,
			log.MetricKey, m.Name,
			log.ValueKey, m.Value,
		)
	}
}

// maybeSave persists a fitted workflow's model when saving is enabled.
func (r *Run) maybeSave(w *workflow.Workflow, name string) error {
	if !r.cfg.SaveModels {
		return nil
	}
	if !w.IsFitted() {
		return errors.NewNotFittedError("Workflow", "Save")
	}
	path := r.outPath(name + ".gob")
	if err := model.SaveModel(w.Estimator(), path); err != nil {
		return err
	}
	r.logger.Info("model saved", log.ModelNameKey, name)
	return nil
}

// plotPredictedVsActual renders test-set predictions against the observed
// outcome column.
func plotPredictedVsActual(r *Run, w *workflow.Workflow, testing *dataset.Table, outcome, file string) error {
	pred, err := w.Predict(testing)
	if err != nil {
		return err
	}
	actual, err := testing.Floats(outcome)
	if err != nil {
		return err
	}
	preds := make([]float64, len(actual))
	for i := range preds {
		preds[i] = pred.At(i, 0)
	}
	return visualize.PredictedVsActual(actual, preds, "Predicted vs actual", r.outPath(file))
}

// visualizeHistogram renders a distribution plot into the output dir.
func visualizeHistogram(r *Run, values []float64, title, file string) error {
	return visualize.Histogram(values, 30, title, r.outPath(file))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
