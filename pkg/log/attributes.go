package log

// Standard attribute keys so log queries line up across packages.
const (
	// ComponentKey identifies the package or subsystem emitting the record.
	ComponentKey = "component"

	// OperationKey names the phase: "fit", "predict", "prep", "bake",
	// "resample", "tune", "last_fit".
	OperationKey = "operation"

	// RunIDKey carries the uuid assigned to a resampling or tuning run.
	RunIDKey = "run_id"

	// ModelNameKey names the estimator, e.g. "RandomForestClassifier".
	ModelNameKey = "model"

	// RecipeKey names the recipe attached to a workflow.
	RecipeKey = "recipe"

	// WorkflowKey names a workflow inside a workflow set.
	WorkflowKey = "workflow"

	// SamplesKey and FeaturesKey describe data shape.
	SamplesKey  = "n_samples"
	FeaturesKey = "n_features"

	// FoldKey and FoldsKey locate a record inside a resampling scheme.
	FoldKey  = "fold"
	FoldsKey = "n_folds"

	// CandidateKey indexes a hyperparameter candidate during tuning.
	CandidateKey = "candidate"

	// MetricKey and ValueKey report a single evaluated metric.
	MetricKey = "metric"
	ValueKey  = "value"

	// DurationMsKey reports elapsed wall time in milliseconds.
	DurationMsKey = "duration_ms"

	// WorkersKey reports the parallel backend width in use.
	WorkersKey = "workers"
)
