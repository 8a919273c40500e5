// Package tidyflow provides a tidymodels-style machine learning toolkit for
// Go, built around declarative preprocessing recipes, composable workflows,
// and resampling-based model evaluation on tabular data.
//
// # Quick Start
//
// A typical run prepares a recipe on training data, fits a model through a
// workflow, and evaluates it on held-out rows:
//
//	package main
//
//	import (
//	    "log"
//
//	    "github.com/EmmanuelUgo/ML-models/core/model"
//	    "github.com/EmmanuelUgo/ML-models/dataset"
//	    "github.com/EmmanuelUgo/ML-models/linear_model"
//	    "github.com/EmmanuelUgo/ML-models/metrics"
//	    "github.com/EmmanuelUgo/ML-models/recipe"
//	    "github.com/EmmanuelUgo/ML-models/resample"
//	    "github.com/EmmanuelUgo/ML-models/workflow"
//	)
//
//	func main() {
//	    data, err := dataset.ReadCSV("churn.csv")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    rec := recipe.New("Churn").
//	        Dummy(recipe.AllNominalPredictors()).
//	        Normalize(recipe.AllNumericPredictors())
//
//	    wf := workflow.New("logistic", rec, workflow.Classification,
//	        func(p workflow.Params) (model.Estimator, error) {
//	            return linear_model.NewLogisticRegression(), nil
//	        })
//
//	    split, err := resample.InitialSplit(data, resample.WithStrata("Churn"))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    set, err := metrics.ClassificationSet("accuracy", "roc_auc")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    final, err := workflow.LastFit(wf, split, set)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    for _, m := range final.Metrics {
//	        log.Printf("%s = %.3f", m.Name, m.Value)
//	    }
//	}
//
// # Packages
//
// The library is organized into several packages:
//
//   - dataset: Tabular data loading, selection, and reshaping
//   - recipe: Declarative preprocessing steps (normalize, dummy, impute, PCA)
//   - workflow: Recipe plus model bundles, tuning grids, and workflow sets
//   - resample: Stratified splits, cross-validation folds, and bootstraps
//   - metrics: Classification and regression metric sets
//   - linear_model, ensemble, neighbors, svm, mars: Model families
//   - decomposition: PCA and UMAP embeddings
//   - visualize: Plot helpers for embeddings, ROC curves, and importances
//   - core/model: Core estimator interfaces and persistence
//   - core/parallel: Parallel processing utilities
//
// The tidyflow command under cmd/tidyflow runs the bundled example analyses
// end to end.
package tidyflow
