package neighbors

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestKNNClassifier(t *testing.T) {
	X := mat.NewDense(6, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		10, 10,
		10, 11,
		11, 10,
	})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})

	knn := NewKNNClassifier(WithK(3))
	if err := knn.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	query := mat.NewDense(2, 2, []float64{
		0.2, 0.2,
		10.5, 10.5,
	})
	pred, err := knn.Predict(query)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if pred.At(0, 0) != 0 || pred.At(1, 0) != 1 {
		t.Errorf("Predict() = [%v %v], want [0 1]", pred.At(0, 0), pred.At(1, 0))
	}

	proba, err := knn.PredictProba(query)
	if err != nil {
		t.Fatalf("PredictProba() error = %v", err)
	}
	if math.Abs(proba.At(0, 0)-1) > 1e-9 {
		t.Errorf("P(class 0) = %v, want 1 for a point inside the cluster", proba.At(0, 0))
	}
}

func TestKNNDistanceWeighting(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{0, 1, 10})
	y := mat.NewDense(3, 1, []float64{0, 0, 1})

	knn := NewKNNClassifier(WithK(3), WithWeights(Distance))
	if err := knn.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	// Query next to the class-1 point: inverse-distance weighting must beat
	// the uniform 2-vs-1 majority.
	pred, err := knn.Predict(mat.NewDense(1, 1, []float64{9.9}))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if pred.At(0, 0) != 1 {
		t.Errorf("Predict() = %v, want 1 with distance weights", pred.At(0, 0))
	}
}

func TestKNNRegressor(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
	y := mat.NewDense(4, 1, []float64{0, 10, 20, 30})

	knn := NewKNNRegressor(WithK(2))
	if err := knn.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	pred, err := knn.Predict(mat.NewDense(1, 1, []float64{1.5}))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	// Neighbors are x=1 and x=2, uniform mean 15.
	if math.Abs(pred.At(0, 0)-15) > 1e-9 {
		t.Errorf("Predict() = %v, want 15", pred.At(0, 0))
	}
}

func TestKNNRegressorInverseDistanceWeights(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{0, 3})
	y := mat.NewDense(2, 1, []float64{0, 3})

	knn := NewKNNRegressor(WithK(2), WithWeights(Distance))
	if err := knn.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	// Neighbors sit at distances 1 and 2, so their votes weigh 1 and 1/2:
	// (0*1 + 3*0.5) / 1.5 = 1. Squared-distance weights would give 0.6.
	pred, err := knn.Predict(mat.NewDense(1, 1, []float64{1}))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if math.Abs(pred.At(0, 0)-1) > 1e-6 {
		t.Errorf("Predict() = %v, want 1 with inverse-distance weights", pred.At(0, 0))
	}
}

func TestKNNValidation(t *testing.T) {
	tests := []struct {
		name string
		run  func() error
	}{
		{
			name: "k larger than training set",
			run: func() error {
				return NewKNNClassifier(WithK(10)).Fit(
					mat.NewDense(2, 1, []float64{0, 1}),
					mat.NewDense(2, 1, []float64{0, 1}),
				)
			},
		},
		{
			name: "single class",
			run: func() error {
				return NewKNNClassifier(WithK(2)).Fit(
					mat.NewDense(3, 1, []float64{0, 1, 2}),
					mat.NewDense(3, 1, []float64{1, 1, 1}),
				)
			},
		},
		{
			name: "predict before fit",
			run: func() error {
				_, err := NewKNNRegressor().Predict(mat.NewDense(1, 1, nil))
				return err
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
