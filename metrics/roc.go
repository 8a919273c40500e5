package metrics

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/EmmanuelUgo/ML-models/pkg/errors"
)

// ROCPoint is one point on a ROC curve.
type ROCPoint struct {
	Threshold float64
	FPR       float64
	TPR       float64
}

// ROCCurve computes the ROC curve for a binary problem. score holds the
// predicted probability of the positive class; yTrue holds 0/1 labels with 1
// as the positive class.
func ROCCurve(yTrue, score *mat.VecDense) ([]ROCPoint, error) {
	n := yTrue.Len()
	if n == 0 {
		return nil, errors.NewValueError("ROCCurve", "empty vector")
	}
	if score.Len() != n {
		return nil, errors.NewDimensionError("ROCCurve", n, score.Len(), 0)
	}

	var pos, neg float64
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("roc_curve", "only one class present", 0.5))
		return []ROCPoint{{Threshold: 1, FPR: 0, TPR: 0}, {Threshold: 0, FPR: 1, TPR: 1}}, nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return score.AtVec(order[a]) > score.AtVec(order[b])
	})

	points := []ROCPoint{{Threshold: score.AtVec(order[0]) + 1, FPR: 0, TPR: 0}}
	var tp, fp float64
	for k := 0; k < n; k++ {
		i := order[k]
		if yTrue.AtVec(i) == 1 {
			tp++
		} else {
			fp++
		}
		// Emit a point only where the threshold actually changes.
		if k+1 < n && score.AtVec(order[k+1]) == score.AtVec(i) {
			continue
		}
		points = append(points, ROCPoint{
			Threshold: score.AtVec(i),
			FPR:       fp / neg,
			TPR:       tp / pos,
		})
	}
	return points, nil
}

// ROCAUC computes the area under the ROC curve by trapezoidal integration.
// With only one class present the metric is undefined: an
// UndefinedMetricWarning is raised and 0.5 returned.
func ROCAUC(yTrue, score *mat.VecDense) (float64, error) {
	points, err := ROCCurve(yTrue, score)
	if err != nil {
		return 0, err
	}

	singleClass := true
	first := yTrue.AtVec(0)
	for i := 1; i < yTrue.Len(); i++ {
		if yTrue.AtVec(i) != first {
			singleClass = false
			break
		}
	}
	if singleClass {
		errors.Warn(errors.NewUndefinedMetricWarning("roc_auc", "only one class present", 0.5))
		return 0.5, nil
	}

	var auc float64
	for i := 1; i < len(points); i++ {
		dx := points[i].FPR - points[i-1].FPR
		auc += dx * (points[i].TPR + points[i-1].TPR) / 2
	}
	return auc, nil
}
