package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestRMSE(t *testing.T) {
	tests := []struct {
		name      string
		yTrue     *mat.VecDense
		yPred     *mat.VecDense
		want      float64
		tolerance float64
		wantErr   bool
	}{
		{
			name:      "perfect prediction",
			yTrue:     mat.NewVecDense(4, []float64{1, 2, 3, 4}),
			yPred:     mat.NewVecDense(4, []float64{1, 2, 3, 4}),
			want:      0,
			tolerance: 1e-10,
		},
		{
			name:      "constant offset",
			yTrue:     mat.NewVecDense(3, []float64{1, 2, 3}),
			yPred:     mat.NewVecDense(3, []float64{2, 3, 4}),
			want:      1,
			tolerance: 1e-10,
		},
		{
			name:    "dimension mismatch",
			yTrue:   mat.NewVecDense(3, []float64{1, 2, 3}),
			yPred:   mat.NewVecDense(2, []float64{1, 2}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RMSE(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Errorf("RMSE() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("RMSE() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestR2Score(t *testing.T) {
	tests := []struct {
		name      string
		yTrue     *mat.VecDense
		yPred     *mat.VecDense
		want      float64
		tolerance float64
	}{
		{
			name:      "perfect prediction",
			yTrue:     mat.NewVecDense(4, []float64{1, 2, 3, 4}),
			yPred:     mat.NewVecDense(4, []float64{1, 2, 3, 4}),
			want:      1,
			tolerance: 1e-10,
		},
		{
			name:      "mean prediction",
			yTrue:     mat.NewVecDense(4, []float64{1, 2, 3, 4}),
			yPred:     mat.NewVecDense(4, []float64{2.5, 2.5, 2.5, 2.5}),
			want:      0,
			tolerance: 1e-10,
		},
		{
			name:      "constant truth is undefined",
			yTrue:     mat.NewVecDense(3, []float64{5, 5, 5}),
			yPred:     mat.NewVecDense(3, []float64{4, 5, 6}),
			want:      0,
			tolerance: 1e-10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := R2Score(tt.yTrue, tt.yPred)
			if err != nil {
				t.Fatalf("R2Score() error = %v", err)
			}
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("R2Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAccuracy(t *testing.T) {
	yTrue := mat.NewVecDense(5, []float64{0, 1, 1, 0, 1})
	yPred := mat.NewVecDense(5, []float64{0, 1, 0, 0, 1})

	got, err := Accuracy(yTrue, yPred)
	if err != nil {
		t.Fatalf("Accuracy() error = %v", err)
	}
	if math.Abs(got-0.8) > 1e-10 {
		t.Errorf("Accuracy() = %v, want 0.8", got)
	}
}

func TestF1(t *testing.T) {
	// TP=2, FP=1, FN=1 for class 1: precision 2/3, recall 2/3, F1 2/3.
	yTrue := mat.NewVecDense(6, []float64{1, 1, 1, 0, 0, 0})
	yPred := mat.NewVecDense(6, []float64{1, 1, 0, 1, 0, 0})

	got, err := F1(yTrue, yPred, 1)
	if err != nil {
		t.Fatalf("F1() error = %v", err)
	}
	if math.Abs(got-2.0/3.0) > 1e-10 {
		t.Errorf("F1() = %v, want %v", got, 2.0/3.0)
	}
}

func TestROCAUC(t *testing.T) {
	tests := []struct {
		name      string
		yTrue     *mat.VecDense
		score     *mat.VecDense
		want      float64
		tolerance float64
	}{
		{
			name:      "perfect separation",
			yTrue:     mat.NewVecDense(4, []float64{0, 0, 1, 1}),
			score:     mat.NewVecDense(4, []float64{0.1, 0.2, 0.8, 0.9}),
			want:      1,
			tolerance: 1e-10,
		},
		{
			name:      "inverted scores",
			yTrue:     mat.NewVecDense(4, []float64{0, 0, 1, 1}),
			score:     mat.NewVecDense(4, []float64{0.9, 0.8, 0.2, 0.1}),
			want:      0,
			tolerance: 1e-10,
		},
		{
			name:      "single class falls back to chance",
			yTrue:     mat.NewVecDense(3, []float64{1, 1, 1}),
			score:     mat.NewVecDense(3, []float64{0.2, 0.5, 0.8}),
			want:      0.5,
			tolerance: 1e-10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ROCAUC(tt.yTrue, tt.score)
			if err != nil {
				t.Fatalf("ROCAUC() error = %v", err)
			}
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("ROCAUC() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogLoss(t *testing.T) {
	yTrue := mat.NewVecDense(2, []float64{0, 1})
	proba := mat.NewDense(2, 2, []float64{
		0.9, 0.1,
		0.2, 0.8,
	})

	got, err := LogLoss(yTrue, proba)
	if err != nil {
		t.Fatalf("LogLoss() error = %v", err)
	}
	want := -(math.Log(0.9) + math.Log(0.8)) / 2
	if math.Abs(got-want) > 1e-10 {
		t.Errorf("LogLoss() = %v, want %v", got, want)
	}
}

func TestClassificationSet(t *testing.T) {
	set, err := ClassificationSet("accuracy", "roc_auc")
	if err != nil {
		t.Fatalf("ClassificationSet() error = %v", err)
	}
	if !set.LargerBetter("accuracy") {
		t.Error("accuracy should rank larger-is-better")
	}

	ev := EvalData{
		Truth:    mat.NewVecDense(4, []float64{0, 0, 1, 1}),
		Estimate: mat.NewVecDense(4, []float64{0, 0, 1, 1}),
		Proba: mat.NewDense(4, 2, []float64{
			0.9, 0.1,
			0.8, 0.2,
			0.2, 0.8,
			0.1, 0.9,
		}),
		Positive: 1,
	}
	results, err := set.Evaluate(ev)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Evaluate() returned %d results, want 2", len(results))
	}
	for _, res := range results {
		if math.Abs(res.Value-1) > 1e-10 {
			t.Errorf("%s = %v, want 1", res.Name, res.Value)
		}
	}
}

func TestRegressionSetUnknownMetric(t *testing.T) {
	if _, err := RegressionSet("rmse", "nope"); err == nil {
		t.Error("expected error for unknown metric")
	}
}
