package linear_model

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestLinearRegressionExactFit(t *testing.T) {
	// y = 2*x0 - x1 + 3 with no noise: QR recovers the coefficients exactly.
	X := mat.NewDense(5, 2, []float64{
		1, 0,
		0, 1,
		1, 1,
		2, 1,
		3, 2,
	})
	y := mat.NewDense(5, 1, []float64{5, 2, 4, 6, 7})

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	wantCoef := []float64{2, -1}
	for j, want := range wantCoef {
		if math.Abs(lr.Coef[j]-want) > 1e-9 {
			t.Errorf("Coef[%d] = %v, want %v", j, lr.Coef[j], want)
		}
	}
	if math.Abs(lr.Intercept-3) > 1e-9 {
		t.Errorf("Intercept = %v, want 3", lr.Intercept)
	}

	score, err := lr.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if math.Abs(score-1) > 1e-9 {
		t.Errorf("R² = %v, want 1", score)
	}
}

func TestLinearRegressionNoIntercept(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{2, 4, 6})

	lr := NewLinearRegression(WithFitIntercept(false))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if math.Abs(lr.Coef[0]-2) > 1e-9 {
		t.Errorf("Coef[0] = %v, want 2", lr.Coef[0])
	}
	if lr.Intercept != 0 {
		t.Errorf("Intercept = %v, want 0", lr.Intercept)
	}
}

func TestLogisticRegressionBinary(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	X := mat.NewDense(100, 2, nil)
	y := mat.NewDense(100, 1, nil)
	for i := 0; i < 100; i++ {
		offset := -2.0
		if i >= 50 {
			offset = 2.0
			y.Set(i, 0, 1)
		}
		X.Set(i, 0, offset+rng.NormFloat64())
		X.Set(i, 1, offset+rng.NormFloat64())
	}

	lr := NewLogisticRegression(WithLRMaxIter(500))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	score, err := lr.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if score < 0.95 {
		t.Errorf("training accuracy = %v, want >= 0.95", score)
	}

	proba, err := lr.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba() error = %v", err)
	}
	r, c := proba.Dims()
	if r != 100 || c != 2 {
		t.Fatalf("proba dims = %dx%d, want 100x2", r, c)
	}
	for i := 0; i < r; i++ {
		sum := proba.At(i, 0) + proba.At(i, 1)
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("row %d probabilities sum to %v", i, sum)
		}
	}
}

func TestLogisticRegressionMulticlass(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	centers := [][2]float64{{0, 0}, {6, 0}, {0, 6}}
	X := mat.NewDense(90, 2, nil)
	y := mat.NewDense(90, 1, nil)
	for i := 0; i < 90; i++ {
		c := i / 30
		X.Set(i, 0, centers[c][0]+0.5*rng.NormFloat64())
		X.Set(i, 1, centers[c][1]+0.5*rng.NormFloat64())
		y.Set(i, 0, float64(c))
	}

	lr := NewLogisticRegression(WithLRMaxIter(500))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if got := lr.Classes(); len(got) != 3 {
		t.Fatalf("Classes() = %v, want 3 labels", got)
	}
	score, err := lr.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if score < 0.9 {
		t.Errorf("training accuracy = %v, want >= 0.9", score)
	}
}

func TestLinearModelErrors(t *testing.T) {
	tests := []struct {
		name string
		run  func() error
	}{
		{
			name: "linear predict before fit",
			run: func() error {
				_, err := NewLinearRegression().Predict(mat.NewDense(1, 1, nil))
				return err
			},
		},
		{
			name: "logistic single class",
			run: func() error {
				return NewLogisticRegression().Fit(
					mat.NewDense(3, 1, []float64{1, 2, 3}),
					mat.NewDense(3, 1, []float64{0, 0, 0}),
				)
			},
		},
		{
			name: "target length mismatch",
			run: func() error {
				return NewLinearRegression().Fit(
					mat.NewDense(3, 1, []float64{1, 2, 3}),
					mat.NewDense(2, 1, []float64{1, 2}),
				)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
