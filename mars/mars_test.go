package mars

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// hingeData samples y = 2*max(0, x-0.5) on a grid, the kind of kink a single
// basis pair captures exactly.
func hingeData(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)
		X.Set(i, 0, x)
		y.Set(i, 0, 2*math.Max(0, x-0.5))
	}
	return X, y
}

func TestMARSFitsHinge(t *testing.T) {
	X, y := hingeData(41)

	m := NewMARS(WithMaxTerms(9))
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if !m.IsFitted() {
		t.Fatal("IsFitted() = false after Fit")
	}

	score, err := m.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if score < 0.99 {
		t.Errorf("R² = %v, want >= 0.99 for an exact hinge target", score)
	}
}

func TestMARSBackwardPrunes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	// Pure noise: pruning should collapse most of the forward terms.
	X := mat.NewDense(60, 2, nil)
	y := mat.NewDense(60, 1, nil)
	for i := 0; i < 60; i++ {
		X.Set(i, 0, rng.Float64())
		X.Set(i, 1, rng.Float64())
		y.Set(i, 0, rng.NormFloat64())
	}

	m := NewMARS(WithMaxTerms(11))
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if m.NTerms() > 11 {
		t.Errorf("NTerms() = %d, want <= max_terms", m.NTerms())
	}
	if m.GCV <= 0 {
		t.Errorf("GCV = %v, want positive", m.GCV)
	}
}

func TestMARSLinearTrend(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	X := mat.NewDense(80, 2, nil)
	y := mat.NewDense(80, 1, nil)
	for i := 0; i < 80; i++ {
		a, b := rng.Float64(), rng.Float64()
		X.Set(i, 0, a)
		X.Set(i, 1, b)
		y.Set(i, 0, 3*a-2*b+0.01*rng.NormFloat64())
	}

	m := NewMARS()
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	score, err := m.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if score < 0.95 {
		t.Errorf("R² = %v, want >= 0.95 on a nearly linear target", score)
	}
}

func TestMARSErrors(t *testing.T) {
	if _, err := NewMARS().Predict(mat.NewDense(1, 1, nil)); err == nil {
		t.Error("expected not-fitted error")
	}

	X, y := hingeData(20)
	m := NewMARS()
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if _, err := m.Predict(mat.NewDense(1, 3, nil)); err == nil {
		t.Error("expected dimension error for feature mismatch")
	}
}
