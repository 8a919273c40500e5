package model

import (
	"gonum.org/v1/gonum/mat"
)

// Estimator is anything that can be fitted to a feature matrix and target.
type Estimator interface {
	Fit(X, y mat.Matrix) error
	IsFitted() bool
}

// Predictor produces point predictions for new data.
type Predictor interface {
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Transformer is the fit/transform contract implemented by preprocessing
// steps and decomposition models.
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// Scorer computes a default score: R² for regressors, accuracy for
// classifiers.
type Scorer interface {
	Score(X, y mat.Matrix) (float64, error)
}

// Regressor combines the interfaces implemented by regression models.
type Regressor interface {
	Estimator
	Predictor
	Scorer
}

// Classifier combines the interfaces implemented by classification models.
type Classifier interface {
	Estimator
	Predictor
	Scorer

	// PredictProba returns per-class probability estimates, one column per
	// class in Classes() order.
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the unique labels seen during fitting, ascending.
	Classes() []int
}

// FeatureImporter is implemented by models that expose per-feature
// importance scores, e.g. tree ensembles.
type FeatureImporter interface {
	FeatureImportances() []float64
}

// ParameterGetter exposes hyperparameters for logging and tuning results.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// Persistable is implemented by models that can be saved and loaded.
type Persistable interface {
	Save(path string) error
	Load(path string) error
}
