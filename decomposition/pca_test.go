package decomposition

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestPCAFitTransform(t *testing.T) {
	// Points on a line y = 2x plus tiny noise: one component carries nearly
	// all variance.
	X := mat.NewDense(6, 2, []float64{
		1, 2.01,
		2, 3.98,
		3, 6.02,
		4, 7.99,
		5, 10.01,
		6, 11.98,
	})

	pca := NewPCA(2)
	scores, err := pca.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	r, c := scores.Dims()
	if r != 6 || c != 2 {
		t.Fatalf("scores dims = %dx%d, want 6x2", r, c)
	}

	if pca.ExplainedVarianceRatio[0] < 0.99 {
		t.Errorf("first component ratio = %v, want > 0.99", pca.ExplainedVarianceRatio[0])
	}
	if pca.ExplainedVariance[0] < pca.ExplainedVariance[1] {
		t.Error("explained variance must be non-increasing")
	}

	var total float64
	for _, v := range pca.ExplainedVarianceRatio {
		total += v
	}
	if math.Abs(total-1) > 1e-9 {
		t.Errorf("variance ratios sum to %v, want 1", total)
	}
}

func TestPCATransformCentersWithTrainingMean(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		0, 0,
		0, 2,
		2, 0,
		2, 2,
	})
	pca := NewPCA(1)
	if err := pca.Fit(X); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	// The training mean projects to the origin.
	mean := mat.NewDense(1, 2, []float64{1, 1})
	scores, err := pca.Transform(mean)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if math.Abs(scores.At(0, 0)) > 1e-9 {
		t.Errorf("projected mean = %v, want 0", scores.At(0, 0))
	}
}

func TestPCAErrors(t *testing.T) {
	tests := []struct {
		name string
		run  func() error
	}{
		{
			name: "transform before fit",
			run: func() error {
				_, err := NewPCA(1).Transform(mat.NewDense(2, 2, nil))
				return err
			},
		},
		{
			name: "too many components",
			run: func() error {
				return NewPCA(5).Fit(mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6}))
			},
		},
		{
			name: "feature mismatch at transform",
			run: func() error {
				p := NewPCA(1)
				if err := p.Fit(mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})); err != nil {
					return err
				}
				_, err := p.Transform(mat.NewDense(2, 3, nil))
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
