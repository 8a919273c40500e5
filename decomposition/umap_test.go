package decomposition

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// twoClusters builds two well-separated Gaussian blobs.
func twoClusters(n int, seed int64) (*mat.Dense, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(2*n, 5, nil)
	labels := make([]int, 2*n)
	for i := 0; i < 2*n; i++ {
		offset := 0.0
		if i >= n {
			offset = 20
			labels[i] = 1
		}
		for j := 0; j < 5; j++ {
			X.Set(i, j, offset+rng.NormFloat64())
		}
	}
	return X, labels
}

func TestUMAPSeparatesClusters(t *testing.T) {
	X, labels := twoClusters(30, 7)

	umap := NewUMAP(
		WithNNeighbors(10),
		WithNEpochs(50),
		WithUMAPRandomState(7),
	)
	emb, err := umap.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}
	r, c := emb.Dims()
	if r != 60 || c != 2 {
		t.Fatalf("embedding dims = %dx%d, want 60x2", r, c)
	}

	// Cluster centroids in the embedding stay farther apart than the average
	// within-cluster spread.
	var cent [2][2]float64
	var count [2]int
	for i := 0; i < r; i++ {
		l := labels[i]
		cent[l][0] += emb.At(i, 0)
		cent[l][1] += emb.At(i, 1)
		count[l]++
	}
	for l := 0; l < 2; l++ {
		cent[l][0] /= float64(count[l])
		cent[l][1] /= float64(count[l])
	}
	between := math.Hypot(cent[0][0]-cent[1][0], cent[0][1]-cent[1][1])

	var within float64
	for i := 0; i < r; i++ {
		l := labels[i]
		within += math.Hypot(emb.At(i, 0)-cent[l][0], emb.At(i, 1)-cent[l][1])
	}
	within /= float64(r)

	if between < within {
		t.Errorf("between-cluster distance %v should exceed mean within-cluster spread %v", between, within)
	}
}

func TestUMAPDeterministicForSeed(t *testing.T) {
	X, _ := twoClusters(15, 3)

	a, err := NewUMAP(WithNEpochs(20), WithUMAPRandomState(5)).FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}
	b, err := NewUMAP(WithNEpochs(20), WithUMAPRandomState(5)).FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	if !mat.EqualApprox(a, b, 1e-12) {
		t.Error("same seed should reproduce the embedding")
	}
}

func TestUMAPValidation(t *testing.T) {
	if _, err := NewUMAP(WithNNeighbors(1)).FitTransform(mat.NewDense(5, 2, nil)); err == nil {
		t.Error("expected error for n_neighbors < 2")
	}
	if _, err := NewUMAP().Embedding(); err == nil {
		t.Error("expected not-fitted error")
	}
}
