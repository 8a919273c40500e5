package analysis

import (
	"gonum.org/v1/gonum/mat"

	"github.com/EmmanuelUgo/ML-models/core/model"
	"github.com/EmmanuelUgo/ML-models/dataset"
	"github.com/EmmanuelUgo/ML-models/ensemble"
	"github.com/EmmanuelUgo/ML-models/linear_model"
	"github.com/EmmanuelUgo/ML-models/metrics"
	"github.com/EmmanuelUgo/ML-models/pkg/errors"
	"github.com/EmmanuelUgo/ML-models/pkg/log"
	"github.com/EmmanuelUgo/ML-models/recipe"
	"github.com/EmmanuelUgo/ML-models/resample"
	"github.com/EmmanuelUgo/ML-models/visualize"
	"github.com/EmmanuelUgo/ML-models/workflow"
)

// waterpointCols are the survey columns the study uses when present.
var waterpointCols = []string{
	"lat_deg", "lon_deg", "install_year",
	"water_source", "facility_type", "pay",
}

// Waterpoints classifies Tanzanian water points as working or broken. A
// tuned random forest is screened against a logistic baseline on shared
// folds; the winner is refit on the full training set and scored once on the
// held-out test rows.
func Waterpoints(r *Run) error {
	raw, err := r.load("water.csv")
	if err != nil {
		return err
	}
	if !raw.HasColumn("status_id") {
		return errors.NewValueError("waterpoints", "missing column status_id")
	}

	keep := []string{"status_id"}
	for _, c := range waterpointCols {
		if raw.HasColumn(c) {
			keep = append(keep, c)
		}
	}
	if len(keep) < 3 {
		return errors.NewValueError("waterpoints", "too few predictor columns")
	}
	data, err := raw.Select(keep...)
	if err != nil {
		return err
	}
	if data, err = data.DropNA("status_id"); err != nil {
		return err
	}

	split, err := resample.InitialSplit(data,
		resample.WithProp(0.75),
		resample.WithStrata("status_id"),
		resample.WithSeed(r.Config().Seed),
	)
	if err != nil {
		return err
	}
	training, err := split.Training()
	if err != nil {
		return err
	}
	folds, err := resample.VFold(training,
		resample.WithV(5),
		resample.WithStrata("status_id"),
		resample.WithSeed(r.Config().Seed),
	)
	if err != nil {
		return err
	}

	rec := recipe.New("status_id").
		Impute(recipe.AllNumericPredictors(), recipe.ImputeMedian).
		Other(recipe.AllNominalPredictors(), recipe.WithThreshold(0.03)).
		Dummy(recipe.AllNominalPredictors()).
		ZV(recipe.AllPredictors()).
		Normalize(recipe.AllNumericPredictors())

	seed := r.Config().Seed
	forest := workflow.New("random_forest", rec, workflow.Classification,
		func(p workflow.Params) (model.Estimator, error) {
			return ensemble.NewRandomForestClassifier(
				ensemble.WithNEstimators(p.Int("trees", 100)),
				ensemble.WithMinSamplesSplit(p.Int("min_n", 2)),
				ensemble.WithForestRandomState(seed),
			), nil
		})
	logistic := workflow.New("logistic", rec, workflow.Classification,
		func(p workflow.Params) (model.Estimator, error) {
			return linear_model.NewLogisticRegression(
				linear_model.WithLRC(p.Float("penalty", 1.0)),
				linear_model.WithLRMaxIter(200),
			), nil
		})

	set, err := metrics.ClassificationSet("accuracy", "roc_auc")
	if err != nil {
		return err
	}

	grid := workflow.GridRegular(map[string][]interface{}{
		"trees": {50, 100},
		"min_n": {2, 10},
	})
	tuned, err := workflow.TuneGrid(forest, folds, grid, set)
	if err != nil {
		return err
	}
	bestForest, err := tuned.Finalize(forest, "roc_auc")
	if err != nil {
		return err
	}

	baseline, err := workflow.FitResamples(logistic, folds, set)
	if err != nil {
		return err
	}
	forestCV, err := workflow.FitResamples(bestForest, folds, set)
	if err != nil {
		return err
	}

	ranked, err := workflow.RankResults([]*workflow.ResampleResult{forestCV, baseline}, "roc_auc", set)
	if err != nil {
		return err
	}
	for _, e := range ranked {
		r.Logger().Info("workflow ranked",
			log.WorkflowKey, e.Workflow,
			log.MetricKey, e.Metric,
			log.ValueKey, e.Mean,
		)
	}

	rows := append(summaryRows(forestCV), summaryRows(baseline)...)
	if err := r.writeMetricTable("waterpoints_cv_metrics.csv",
		[]string{"workflow", "metric", "mean", "std", "n"}, rows); err != nil {
		return err
	}

	winner := bestForest
	if ranked[0].Workflow == logistic.Name() {
		winner = logistic
	}
	final, err := workflow.LastFit(winner, split, set)
	if err != nil {
		return err
	}
	r.logMetrics("test metrics", final.Metrics)

	testing, err := split.Testing()
	if err != nil {
		return err
	}
	if err := plotROC(r, final.Workflow, testing, "waterpoints_roc.png"); err != nil {
		return err
	}
	if err := plotForestImportances(r, final.Workflow, "waterpoints_importance.png"); err != nil {
		return err
	}
	return r.maybeSave(final.Workflow, "waterpoints_model")
}

// plotROC renders the test-set ROC curve for a binary workflow.
func plotROC(r *Run, w *workflow.Workflow, testing *dataset.Table, file string) error {
	proba, err := w.PredictProba(testing)
	if err != nil {
		return err
	}
	levels := w.Levels()
	if len(levels) != 2 {
		// ROC curves only make sense for binary outcomes.
		return nil
	}
	truth, err := binaryTruth(w, testing)
	if err != nil {
		return err
	}

	n, _ := proba.Dims()
	pos := w.PositiveIndex()
	score := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		score.SetVec(i, proba.At(i, pos))
	}
	points, err := metrics.ROCCurve(truth, score)
	if err != nil {
		return err
	}
	return visualize.ROC(points, "ROC curve, held-out test set", r.outPath(file))
}

// binaryTruth encodes the outcome as 1 for the workflow's event level, 0
// otherwise.
func binaryTruth(w *workflow.Workflow, t *dataset.Table) (*mat.VecDense, error) {
	y, err := t.LabelVector(w.Outcome(), w.Levels())
	if err != nil {
		return nil, err
	}
	pos := w.PositiveIndex()
	n, _ := y.Dims()
	out := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		if int(y.At(i, 0)) == pos {
			out.SetVec(i, 1)
		}
	}
	return out, nil
}

// plotForestImportances renders impurity-decrease importances when the final
// model exposes them.
func plotForestImportances(r *Run, w *workflow.Workflow, file string) error {
	imp, ok := w.Estimator().(model.FeatureImporter)
	if !ok {
		return nil
	}
	return visualize.Importances(w.Features(), imp.FeatureImportances(),
		"Feature importance", r.outPath(file))
}
