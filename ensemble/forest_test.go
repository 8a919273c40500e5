package ensemble

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// blobs builds a linearly separable two-class problem.
func blobs(n int, seed int64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(2*n, 3, nil)
	y := mat.NewDense(2*n, 1, nil)
	for i := 0; i < 2*n; i++ {
		offset := -2.0
		if i >= n {
			offset = 2.0
			y.Set(i, 0, 1)
		}
		for j := 0; j < 3; j++ {
			X.Set(i, j, offset+0.5*rng.NormFloat64())
		}
	}
	return X, y
}

func TestRandomForestClassifier(t *testing.T) {
	X, y := blobs(40, 1)

	rf := NewRandomForestClassifier(
		WithNEstimators(30),
		WithForestRandomState(1),
	)
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if !rf.IsFitted() {
		t.Fatal("IsFitted() = false after Fit")
	}
	if got := rf.Classes(); len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("Classes() = %v, want [0 1]", got)
	}

	score, err := rf.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if score < 0.95 {
		t.Errorf("training accuracy = %v, want >= 0.95 on separable data", score)
	}

	proba, err := rf.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba() error = %v", err)
	}
	r, c := proba.Dims()
	if r != 80 || c != 2 {
		t.Fatalf("proba dims = %dx%d, want 80x2", r, c)
	}
	for i := 0; i < r; i++ {
		sum := proba.At(i, 0) + proba.At(i, 1)
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("row %d probabilities sum to %v", i, sum)
		}
	}
}

func TestRandomForestImportances(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	// Only the first feature carries signal.
	X := mat.NewDense(100, 3, nil)
	y := mat.NewDense(100, 1, nil)
	for i := 0; i < 100; i++ {
		x0 := rng.Float64()
		X.Set(i, 0, x0)
		X.Set(i, 1, rng.Float64())
		X.Set(i, 2, rng.Float64())
		if x0 > 0.5 {
			y.Set(i, 0, 1)
		}
	}

	rf := NewRandomForestClassifier(WithNEstimators(30), WithForestRandomState(2))
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	imp := rf.FeatureImportances()
	if len(imp) != 3 {
		t.Fatalf("importances length = %d, want 3", len(imp))
	}
	var total float64
	for _, v := range imp {
		total += v
	}
	if math.Abs(total-1) > 1e-9 {
		t.Errorf("importances sum to %v, want 1", total)
	}
	if imp[0] < imp[1] || imp[0] < imp[2] {
		t.Errorf("informative feature should dominate: %v", imp)
	}
}

func TestRandomForestRegressor(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	X := mat.NewDense(120, 2, nil)
	y := mat.NewDense(120, 1, nil)
	for i := 0; i < 120; i++ {
		a, b := rng.Float64(), rng.Float64()
		X.Set(i, 0, a)
		X.Set(i, 1, b)
		y.Set(i, 0, 3*a+b)
	}

	rf := NewRandomForestRegressor(WithNEstimators(30), WithForestRandomState(3))
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	score, err := rf.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if score < 0.8 {
		t.Errorf("training R² = %v, want >= 0.8", score)
	}
}

func TestRandomForestErrors(t *testing.T) {
	rf := NewRandomForestClassifier()
	if _, err := rf.Predict(mat.NewDense(2, 2, nil)); err == nil {
		t.Error("expected not-fitted error")
	}

	X, y := blobs(10, 4)
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if _, err := rf.Predict(mat.NewDense(2, 7, nil)); err == nil {
		t.Error("expected dimension error for feature mismatch")
	}
}
