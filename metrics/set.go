package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/EmmanuelUgo/ML-models/pkg/errors"
)

// EvalData bundles everything a metric may need for one assessment set.
type EvalData struct {
	// Truth holds the observed outcome: class indices for classification,
	// numeric values for regression.
	Truth *mat.VecDense

	// Estimate holds point predictions in the same encoding as Truth.
	Estimate *mat.VecDense

	// Proba holds per-class probabilities (n×k), classification only.
	Proba mat.Matrix

	// Positive is the class index treated as the event for binary metrics.
	Positive int
}

// Result is one evaluated metric.
type Result struct {
	Name  string
	Value float64
}

type metricDef struct {
	name         string
	largerBetter bool
	needsProba   bool
	compute      func(ev EvalData) (float64, error)
}

// Set is a named collection of metrics evaluated together per assessment
// set.
type Set struct {
	defs []metricDef
}

var classificationRegistry = map[string]metricDef{
	"accuracy": {name: "accuracy", largerBetter: true, compute: func(ev EvalData) (float64, error) {
		return Accuracy(ev.Truth, ev.Estimate)
	}},
	"precision": {name: "precision", largerBetter: true, compute: func(ev EvalData) (float64, error) {
		return Precision(ev.Truth, ev.Estimate, float64(ev.Positive))
	}},
	"recall": {name: "recall", largerBetter: true, compute: func(ev EvalData) (float64, error) {
		return Recall(ev.Truth, ev.Estimate, float64(ev.Positive))
	}},
	"f1": {name: "f1", largerBetter: true, compute: func(ev EvalData) (float64, error) {
		return F1(ev.Truth, ev.Estimate, float64(ev.Positive))
	}},
	"roc_auc": {name: "roc_auc", largerBetter: true, needsProba: true, compute: func(ev EvalData) (float64, error) {
		score, truth, err := binaryEventView(ev)
		if err != nil {
			return 0, err
		}
		return ROCAUC(truth, score)
	}},
	"log_loss": {name: "log_loss", largerBetter: false, needsProba: true, compute: func(ev EvalData) (float64, error) {
		return LogLoss(ev.Truth, ev.Proba)
	}},
}

var regressionRegistry = map[string]metricDef{
	"mse": {name: "mse", largerBetter: false, compute: func(ev EvalData) (float64, error) {
		return MSE(ev.Truth, ev.Estimate)
	}},
	"rmse": {name: "rmse", largerBetter: false, compute: func(ev EvalData) (float64, error) {
		return RMSE(ev.Truth, ev.Estimate)
	}},
	"mae": {name: "mae", largerBetter: false, compute: func(ev EvalData) (float64, error) {
		return MAE(ev.Truth, ev.Estimate)
	}},
	"rsq": {name: "rsq", largerBetter: true, compute: func(ev EvalData) (float64, error) {
		return R2Score(ev.Truth, ev.Estimate)
	}},
}

// ClassificationSet builds a Set from classification metric names:
// accuracy, precision, recall, f1, roc_auc, log_loss.
func ClassificationSet(names ...string) (*Set, error) {
	return newSet(classificationRegistry, names)
}

// RegressionSet builds a Set from regression metric names: mse, rmse, mae, rsq.
func RegressionSet(names ...string) (*Set, error) {
	return newSet(regressionRegistry, names)
}

func newSet(registry map[string]metricDef, names []string) (*Set, error) {
	if len(names) == 0 {
		return nil, errors.NewValueError("metrics.Set", "no metric names given")
	}
	s := &Set{}
	for _, n := range names {
		def, ok := registry[n]
		if !ok {
			return nil, errors.NewValueError("metrics.Set", "unknown metric "+n)
		}
		s.defs = append(s.defs, def)
	}
	return s, nil
}

// Names returns the metric names in evaluation order.
func (s *Set) Names() []string {
	out := make([]string, len(s.defs))
	for i, d := range s.defs {
		out[i] = d.name
	}
	return out
}

// LargerBetter reports the ranking direction for a metric in the set.
func (s *Set) LargerBetter(name string) bool {
	for _, d := range s.defs {
		if d.name == name {
			return d.largerBetter
		}
	}
	return false
}

// Evaluate computes every metric in the set for one assessment set.
func (s *Set) Evaluate(ev EvalData) ([]Result, error) {
	if ev.Truth == nil || ev.Estimate == nil {
		return nil, errors.NewValueError("metrics.Set.Evaluate", "truth and estimate are required")
	}
	results := make([]Result, 0, len(s.defs))
	for _, d := range s.defs {
		if d.needsProba && ev.Proba == nil {
			return nil, errors.NewValueError("metrics.Set.Evaluate", d.name+" requires class probabilities")
		}
		v, err := d.compute(ev)
		if err != nil {
			return nil, errors.Wrapf(err, "computing %s", d.name)
		}
		results = append(results, Result{Name: d.name, Value: v})
	}
	return results, nil
}

// binaryEventView reduces multiclass eval data to the binary event view used
// by ROC metrics: truth becomes 1 for the positive class, score is the
// positive-class probability column.
func binaryEventView(ev EvalData) (score, truth *mat.VecDense, err error) {
	n := ev.Truth.Len()
	_, cols := ev.Proba.Dims()
	if ev.Positive < 0 || ev.Positive >= cols {
		return nil, nil, errors.NewValidationError("positive", "class index outside probability columns", ev.Positive)
	}
	score = mat.NewVecDense(n, nil)
	truth = mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		score.SetVec(i, ev.Proba.At(i, ev.Positive))
		if int(ev.Truth.AtVec(i)) == ev.Positive {
			truth.SetVec(i, 1)
		}
	}
	return score, truth, nil
}
