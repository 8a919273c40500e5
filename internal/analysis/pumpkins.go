package analysis

import (
	"github.com/EmmanuelUgo/ML-models/core/model"
	"github.com/EmmanuelUgo/ML-models/linear_model"
	"github.com/EmmanuelUgo/ML-models/mars"
	"github.com/EmmanuelUgo/ML-models/metrics"
	"github.com/EmmanuelUgo/ML-models/neighbors"
	"github.com/EmmanuelUgo/ML-models/pkg/errors"
	"github.com/EmmanuelUgo/ML-models/pkg/log"
	"github.com/EmmanuelUgo/ML-models/recipe"
	"github.com/EmmanuelUgo/ML-models/resample"
	"github.com/EmmanuelUgo/ML-models/workflow"
)

// pumpkinCols are the competition columns the study uses when present.
var pumpkinCols = []string{"year", "ott", "est_weight", "country"}

// Pumpkins predicts giant-pumpkin weights from competition measurements,
// comparing a linear baseline against MARS and KNN on bootstrap resamples.
func Pumpkins(r *Run) error {
	raw, err := r.load("pumpkins.csv")
	if err != nil {
		return err
	}
	if !raw.HasColumn("weight_lbs") {
		return errors.NewValueError("pumpkins", "missing column weight_lbs")
	}

	keep := []string{"weight_lbs"}
	for _, c := range pumpkinCols {
		if raw.HasColumn(c) {
			keep = append(keep, c)
		}
	}
	if len(keep) < 2 {
		return errors.NewValueError("pumpkins", "too few predictor columns")
	}
	data, err := raw.Select(keep...)
	if err != nil {
		return err
	}
	if data, err = data.DropNA(); err != nil {
		return err
	}

	seed := r.Config().Seed
	split, err := resample.InitialSplit(data,
		resample.WithProp(0.75),
		resample.WithSeed(seed),
	)
	if err != nil {
		return err
	}
	training, err := split.Training()
	if err != nil {
		return err
	}
	boots, err := resample.Bootstraps(training,
		resample.WithTimes(25),
		resample.WithSeed(seed),
	)
	if err != nil {
		return err
	}

	rec := recipe.New("weight_lbs").
		Other(recipe.AllNominalPredictors(), recipe.WithThreshold(0.02)).
		Dummy(recipe.AllNominalPredictors()).
		ZV(recipe.AllPredictors()).
		Normalize(recipe.AllNumericPredictors())

	candidates := []*workflow.Workflow{
		workflow.New("linear", rec, workflow.Regression,
			func(p workflow.Params) (model.Estimator, error) {
				return linear_model.NewLinearRegression(), nil
			}),
		workflow.New("mars", rec, workflow.Regression,
			func(p workflow.Params) (model.Estimator, error) {
				return mars.NewMARS(
					mars.WithMaxTerms(p.Int("num_terms", 15)),
				), nil
			}),
		workflow.New("knn", rec, workflow.Regression,
			func(p workflow.Params) (model.Estimator, error) {
				return neighbors.NewKNNRegressor(
					neighbors.WithK(p.Int("neighbors", 7)),
					neighbors.WithWeights(neighbors.Distance),
				), nil
			}),
	}

	wfSet, err := workflow.NewSet(candidates...)
	if err != nil {
		return err
	}
	set, err := metrics.RegressionSet("rmse", "rsq", "mae")
	if err != nil {
		return err
	}

	results, err := wfSet.FitResamples(boots, set)
	if err != nil {
		return err
	}
	ranked, err := workflow.RankResults(results, "rmse", set)
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

	var rows [][]string
	for _, rr := range results {
		rows = append(rows, summaryRows(rr)...)
	}
	if err := r.writeMetricTable("pumpkins_cv_metrics.csv",
		[]string{"workflow", "metric", "mean", "std", "n"}, rows); err != nil {
		return err
	}

	winner, ok := wfSet.Get(ranked[0].Workflow)
	if !ok {
		return errors.NewValueError("pumpkins", "ranked workflow missing from set")
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
	if err := plotPredictedVsActual(r, final.Workflow, testing, "weight_lbs", "pumpkins_pred_vs_actual.png"); err != nil {
		return err
	}

	weights, err := data.Floats("weight_lbs")
	if err != nil {
		return err
	}
	if err := visualizeHistogram(r, weights, "Pumpkin weights (lbs)", "pumpkins_weights_hist.png"); err != nil {
		return err
	}
	return r.maybeSave(final.Workflow, "pumpkins_model")
}
