package analysis

import (
	"github.com/EmmanuelUgo/ML-models/core/model"
	"github.com/EmmanuelUgo/ML-models/ensemble"
	"github.com/EmmanuelUgo/ML-models/linear_model"
	"github.com/EmmanuelUgo/ML-models/metrics"
	"github.com/EmmanuelUgo/ML-models/neighbors"
	"github.com/EmmanuelUgo/ML-models/pkg/errors"
	"github.com/EmmanuelUgo/ML-models/pkg/log"
	"github.com/EmmanuelUgo/ML-models/recipe"
	"github.com/EmmanuelUgo/ML-models/resample"
	"github.com/EmmanuelUgo/ML-models/svm"
	"github.com/EmmanuelUgo/ML-models/workflow"
)

// Churn screens four classifiers against telco customer churn on one shared
// resampling scheme. The training data is downsampled to balance the churn
// classes; assessment folds keep their natural balance. The best workflow by
// ROC-AUC is refit and scored on the held-out test set.
func Churn(r *Run) error {
	raw, err := r.load("churn.csv")
	if err != nil {
		return err
	}
	if !raw.HasColumn("Churn") {
		return errors.NewValueError("churn", "missing column Churn")
	}
	data, err := raw.DropNA()
	if err != nil {
		return err
	}
	if data.HasColumn("customerID") {
		if data, err = data.Drop("customerID"); err != nil {
			return err
		}
	}

	seed := r.Config().Seed
	split, err := resample.InitialSplit(data,
		resample.WithProp(0.75),
		resample.WithStrata("Churn"),
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
		resample.WithStrata("Churn"),
		resample.WithSeed(seed),
	)
	if err != nil {
		return err
	}

	rec := recipe.New("Churn").
		Downsample("Churn", seed).
		Impute(recipe.AllNumericPredictors(), recipe.ImputeMedian).
		Other(recipe.AllNominalPredictors(), recipe.WithThreshold(0.02)).
		Dummy(recipe.AllNominalPredictors()).
		ZV(recipe.AllPredictors()).
		Normalize(recipe.AllNumericPredictors())

	candidates := []*workflow.Workflow{
		workflow.New("logistic", rec, workflow.Classification,
			func(p workflow.Params) (model.Estimator, error) {
				return linear_model.NewLogisticRegression(
					linear_model.WithLRMaxIter(200),
				), nil
			}),
		workflow.New("random_forest", rec, workflow.Classification,
			func(p workflow.Params) (model.Estimator, error) {
				return ensemble.NewRandomForestClassifier(
					ensemble.WithNEstimators(100),
					ensemble.WithForestRandomState(seed),
				), nil
			}),
		workflow.New("svm_linear", rec, workflow.Classification,
			func(p workflow.Params) (model.Estimator, error) {
				return svm.NewLinearSVC(
					svm.WithSVMRandomState(seed),
				), nil
			}),
		workflow.New("knn", rec, workflow.Classification,
			func(p workflow.Params) (model.Estimator, error) {
				return neighbors.NewKNNClassifier(
					neighbors.WithK(15),
					neighbors.WithWeights(neighbors.Distance),
				), nil
			}),
	}
	for _, w := range candidates {
		w.WithPositive("Yes")
	}

	wfSet, err := workflow.NewSet(candidates...)
	if err != nil {
		return err
	}
	set, err := metrics.ClassificationSet("accuracy", "roc_auc", "f1")
	if err != nil {
		return err
	}

	results, err := wfSet.FitResamples(folds, set)
	if err != nil {
		return err
	}
	ranked, err := workflow.RankResults(results, "roc_auc", set)
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
	if err := r.writeMetricTable("churn_cv_metrics.csv",
		[]string{"workflow", "metric", "mean", "std", "n"}, rows); err != nil {
		return err
	}

	winner, ok := wfSet.Get(ranked[0].Workflow)
	if !ok {
		return errors.NewValueError("churn", "ranked workflow missing from set")
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
	if err := plotROC(r, final.Workflow, testing, "churn_roc.png"); err != nil {
		return err
	}
	return r.maybeSave(final.Workflow, "churn_model")
}
