package analysis

import (
	"math"

	"github.com/EmmanuelUgo/ML-models/core/model"
	"github.com/EmmanuelUgo/ML-models/dataset"
	"github.com/EmmanuelUgo/ML-models/ensemble"
	"github.com/EmmanuelUgo/ML-models/metrics"
	"github.com/EmmanuelUgo/ML-models/pkg/errors"
	"github.com/EmmanuelUgo/ML-models/pkg/log"
	"github.com/EmmanuelUgo/ML-models/recipe"
	"github.com/EmmanuelUgo/ML-models/resample"
	"github.com/EmmanuelUgo/ML-models/svm"
	"github.com/EmmanuelUgo/ML-models/visualize"
	"github.com/EmmanuelUgo/ML-models/workflow"
)

// furnitureCols are the catalog columns the study uses when present.
var furnitureCols = []string{
	"category", "depth", "height", "width",
	"sellable_online", "other_colors",
}

// Furniture predicts catalog furniture prices on a log scale, tuning a
// linear support vector regressor against a random forest on shared folds.
func Furniture(r *Run) error {
	raw, err := r.load("furniture.csv")
	if err != nil {
		return err
	}
	if !raw.HasColumn("price") {
		return errors.NewValueError("furniture", "missing column price")
	}

	keep := []string{"price"}
	for _, c := range furnitureCols {
		if raw.HasColumn(c) {
			keep = append(keep, c)
		}
	}
	if len(keep) < 3 {
		return errors.NewValueError("furniture", "too few predictor columns")
	}
	data, err := raw.Select(keep...)
	if err != nil {
		return err
	}
	if data, err = data.DropNA("price"); err != nil {
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
	folds, err := resample.VFold(training,
		resample.WithV(5),
		resample.WithSeed(seed),
	)
	if err != nil {
		return err
	}

	// Prices are heavily right-skewed, so the models fit log(price).
	rec := recipe.New("price").
		Log(recipe.Cols("price"), recipe.WithOffset(1)).
		Impute(recipe.AllNumericPredictors(), recipe.ImputeMedian).
		Other(recipe.AllNominalPredictors(), recipe.WithThreshold(0.02)).
		Dummy(recipe.AllNominalPredictors()).
		ZV(recipe.AllPredictors()).
		Normalize(recipe.AllNumericPredictors())

	svr := workflow.New("svm_linear", rec, workflow.Regression,
		func(p workflow.Params) (model.Estimator, error) {
			return svm.NewLinearSVR(
				svm.WithC(p.Float("cost", 1.0)),
				svm.WithSVMRandomState(seed),
			), nil
		})
	forest := workflow.New("random_forest", rec, workflow.Regression,
		func(p workflow.Params) (model.Estimator, error) {
			return ensemble.NewRandomForestRegressor(
				ensemble.WithNEstimators(p.Int("trees", 100)),
				ensemble.WithMinSamplesSplit(p.Int("min_n", 5)),
				ensemble.WithForestRandomState(seed),
			), nil
		})

	set, err := metrics.RegressionSet("rmse", "rsq")
	if err != nil {
		return err
	}

	svrGrid := workflow.GridRandom(map[string]workflow.Range{
		"cost": {Low: -2, High: 1, Log: true},
	}, 8, seed)
	svrTuned, err := workflow.TuneGrid(svr, folds, svrGrid, set)
	if err != nil {
		return err
	}
	bestSVR, err := svrTuned.Finalize(svr, "rmse")
	if err != nil {
		return err
	}

	forestGrid := workflow.GridRegular(map[string][]interface{}{
		"trees": {50, 100},
		"min_n": {2, 10},
	})
	forestTuned, err := workflow.TuneGrid(forest, folds, forestGrid, set)
	if err != nil {
		return err
	}
	bestForest, err := forestTuned.Finalize(forest, "rmse")
	if err != nil {
		return err
	}

	svrCV, err := workflow.FitResamples(bestSVR, folds, set)
	if err != nil {
		return err
	}
	forestCV, err := workflow.FitResamples(bestForest, folds, set)
	if err != nil {
		return err
	}

	ranked, err := workflow.RankResults([]*workflow.ResampleResult{svrCV, forestCV}, "rmse", set)
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

	rows := append(summaryRows(svrCV), summaryRows(forestCV)...)
	if err := r.writeMetricTable("furniture_cv_metrics.csv",
		[]string{"workflow", "metric", "mean", "std", "n"}, rows); err != nil {
		return err
	}

	winner := bestSVR
	if ranked[0].Workflow == forest.Name() {
		winner = bestForest
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
	if err := plotLogPredictedVsActual(r, final, testing); err != nil {
		return err
	}
	return r.maybeSave(final.Workflow, "furniture_model")
}

// plotLogPredictedVsActual compares predictions with observed prices on the
// log scale the models were trained on.
func plotLogPredictedVsActual(r *Run, final *workflow.LastFitResult, testing *dataset.Table) error {
	pred, err := final.Workflow.Predict(testing)
	if err != nil {
		return err
	}
	prices, err := testing.Floats("price")
	if err != nil {
		return err
	}
	actual := make([]float64, len(prices))
	preds := make([]float64, len(prices))
	for i, p := range prices {
		actual[i] = math.Log(p + 1)
		preds[i] = pred.At(i, 0)
	}
	return visualize.PredictedVsActual(actual, preds, "Predicted vs actual log price",
		r.outPath("furniture_pred_vs_actual.png"))
}
