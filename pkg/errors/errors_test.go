package errors

import (
	"strings"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "not fitted",
			err:  NewNotFittedError("PCA", "Transform"),
			want: "tidyflow: PCA: this model is not fitted yet",
		},
		{
			name: "dimension mismatch on features",
			err:  NewDimensionError("KNN.Predict", 4, 2, 1),
			want: "Expected 4, got 2",
		},
		{
			name: "validation",
			err:  NewValidationError("k", "must be at least 1", 0),
			want: "validation failed for parameter 'k'",
		},
		{
			name: "value",
			err:  NewValueError("Table.Select", "unknown column x"),
			want: "tidyflow: Table.Select: unknown column x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); !strings.Contains(got, tt.want) {
				t.Errorf("Error() = %q, want substring %q", got, tt.want)
			}
		})
	}
}

func TestErrorAs(t *testing.T) {
	err := Wrap(NewNotFittedError("Forest", "Predict"), "outer context")

	var nf *NotFittedError
	if !As(err, &nf) {
		t.Fatal("As() should find NotFittedError through the wrap")
	}
	if nf.ModelName != "Forest" {
		t.Errorf("ModelName = %q, want Forest", nf.ModelName)
	}

	var de *DimensionError
	if As(err, &de) {
		t.Error("As() should not match DimensionError")
	}
}

func TestModelErrorUnwrap(t *testing.T) {
	err := NewModelError("Fit", "empty data", ErrEmptyData)
	if !Is(err, ErrEmptyData) {
		t.Error("Is() should unwrap to ErrEmptyData")
	}
}

func TestWarnHandler(t *testing.T) {
	var captured error
	SetWarningHandler(func(w error) { captured = w })
	defer SetWarningHandler(nil)

	w := NewConvergenceWarning("LogisticRegression", 100, "")
	Warn(w)

	if captured == nil {
		t.Fatal("handler was not called")
	}
	if !strings.Contains(captured.Error(), "failed to converge after 100 iterations") {
		t.Errorf("warning message = %q", captured.Error())
	}
}

func TestUndefinedMetricWarningMessage(t *testing.T) {
	w := NewUndefinedMetricWarning("roc_auc", "only one class present", 0.5)
	if !strings.Contains(w.Error(), "roc_auc") || !strings.Contains(w.Error(), "only one class present") {
		t.Errorf("warning message = %q", w.Error())
	}
}
