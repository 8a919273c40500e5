package decomposition

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/EmmanuelUgo/ML-models/core/model"
	"github.com/EmmanuelUgo/ML-models/core/parallel"
	"github.com/EmmanuelUgo/ML-models/pkg/errors"
)

// UMAP computes a low-dimensional layout of the training data: a fuzzy
// k-nearest-neighbor graph in the input space, embedded by stochastic
// gradient descent on an attraction/repulsion objective. It embeds the data
// it is fitted on; projecting unseen rows is not supported.
type UMAP struct {
	state *model.StateManager

	NNeighbors      int
	NComponents     int
	MinDist         float64
	NEpochs         int
	LearningRate    float64
	NegativeSamples int
	RandomState     int64

	embedding *mat.Dense
	a, b      float64
}

// UMAPOption configures a UMAP instance.
type UMAPOption func(*UMAP)

// WithNNeighbors sets the neighborhood size of the fuzzy graph.
func WithNNeighbors(k int) UMAPOption {
	return func(u *UMAP) { u.NNeighbors = k }
}

// WithMinDist sets the minimum spacing of embedded points.
func WithMinDist(d float64) UMAPOption {
	return func(u *UMAP) { u.MinDist = d }
}

// WithNEpochs sets the number of layout optimization epochs.
func WithNEpochs(n int) UMAPOption {
	return func(u *UMAP) { u.NEpochs = n }
}

// WithUMAPComponents sets the embedding dimensionality.
func WithUMAPComponents(n int) UMAPOption {
	return func(u *UMAP) { u.NComponents = n }
}

// WithUMAPRandomState seeds the layout for reproducible plots.
func WithUMAPRandomState(seed int64) UMAPOption {
	return func(u *UMAP) { u.RandomState = seed }
}

// NewUMAP creates a UMAP with the defaults the analyses relied on:
// 15 neighbors, 2 components, minDist 0.1, 200 epochs.
func NewUMAP(opts ...UMAPOption) *UMAP {
	u := &UMAP{
		state:           model.NewStateManager(),
		NNeighbors:      15,
		NComponents:     2,
		MinDist:         0.1,
		NEpochs:         200,
		LearningRate:    1.0,
		NegativeSamples: 5,
		RandomState:     42,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// IsFitted reports whether a layout has been computed.
func (u *UMAP) IsFitted() bool { return u.state.IsFitted() }

type umapEdge struct {
	from, to int
	weight   float64
}

// FitTransform computes and returns the embedding of X, one row per input
// row, NComponents columns.
func (u *UMAP) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	n, p := X.Dims()
	if n == 0 || p == 0 {
		return nil, errors.NewModelError("UMAP.FitTransform", "empty data", errors.ErrEmptyData)
	}
	k := u.NNeighbors
	if k < 2 {
		return nil, errors.NewValidationError("n_neighbors", "must be at least 2", k)
	}
	if k >= n {
		k = n - 1
	}
	if u.NComponents < 1 {
		return nil, errors.NewValidationError("n_components", "must be at least 1", u.NComponents)
	}

	neighbors, dists := kNearest(X, k)
	edges := fuzzyGraph(neighbors, dists, k)
	u.a, u.b = findABParams(u.MinDist)

	emb, err := u.initialLayout(X, n)
	if err != nil {
		return nil, err
	}
	u.optimizeLayout(emb, edges, n)

	u.embedding = emb
	u.state.SetDimensions(p, n)
	u.state.SetFitted()
	return emb, nil
}

// Embedding returns the fitted layout.
func (u *UMAP) Embedding() (mat.Matrix, error) {
	if !u.state.IsFitted() {
		return nil, errors.NewNotFittedError("UMAP", "Embedding")
	}
	return u.embedding, nil
}

// GetParams returns the layout hyperparameters.
func (u *UMAP) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_neighbors":  u.NNeighbors,
		"n_components": u.NComponents,
		"min_dist":     u.MinDist,
		"n_epochs":     u.NEpochs,
	}
}

// String returns a printable representation.
func (u *UMAP) String() string {
	return fmt.Sprintf("UMAP(n_neighbors=%d, n_components=%d, min_dist=%g)",
		u.NNeighbors, u.NComponents, u.MinDist)
}

// kNearest brute-forces the k nearest neighbors of every row, fanned out
// across the parallel backend.
func kNearest(X mat.Matrix, k int) (neighbors [][]int, dists [][]float64) {
	n, p := X.Dims()
	neighbors = make([][]int, n)
	dists = make([][]float64, n)

	parallel.Parallelize(n, func(start, end int) {
		type cand struct {
			idx int
			d   float64
		}
		for i := start; i < end; i++ {
			cands := make([]cand, 0, n-1)
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				var d float64
				for f := 0; f < p; f++ {
					diff := X.At(i, f) - X.At(j, f)
					d += diff * diff
				}
				cands = append(cands, cand{idx: j, d: math.Sqrt(d)})
			}
			sort.Slice(cands, func(a, b int) bool { return cands[a].d < cands[b].d })
			neighbors[i] = make([]int, k)
			dists[i] = make([]float64, k)
			for c := 0; c < k; c++ {
				neighbors[i][c] = cands[c].idx
				dists[i][c] = cands[c].d
			}
		}
	})
	return neighbors, dists
}

// fuzzyGraph converts neighbor distances into symmetrized membership
// strengths. Per-point bandwidths are found by binary search so that the
// effective neighborhood size is log2(k).
func fuzzyGraph(neighbors [][]int, dists [][]float64, k int) []umapEdge {
	n := len(neighbors)
	target := math.Log2(float64(k))

	directed := make(map[[2]int]float64, n*k)
	for i := 0; i < n; i++ {
		rho := dists[i][0]
		sigma := smoothKNNDist(dists[i], rho, target)
		for c, j := range neighbors[i] {
			d := dists[i][c] - rho
			if d < 0 {
				d = 0
			}
			w := 1.0
			if sigma > 0 {
				w = math.Exp(-d / sigma)
			}
			directed[[2]int{i, j}] = w
		}
	}

	// Symmetrize: w = w1 + w2 - w1*w2.
	edges := make([]umapEdge, 0, len(directed))
	done := make(map[[2]int]bool, len(directed))
	for key, w1 := range directed {
		i, j := key[0], key[1]
		rev := [2]int{j, i}
		if done[key] || done[rev] {
			continue
		}
		w2 := directed[rev]
		w := w1 + w2 - w1*w2
		edges = append(edges, umapEdge{from: i, to: j, weight: w})
		done[key] = true
		done[rev] = true
	}
	sort.Slice(edges, func(a, b int) bool {
		if edges[a].from != edges[b].from {
			return edges[a].from < edges[b].from
		}
		return edges[a].to < edges[b].to
	})
	return edges
}

func smoothKNNDist(dists []float64, rho, target float64) float64 {
	lo, hi, mid := 0.0, math.Inf(1), 1.0
	for iter := 0; iter < 64; iter++ {
		var sum float64
		for _, d := range dists {
			dd := d - rho
			if dd < 0 {
				dd = 0
			}
			sum += math.Exp(-dd / mid)
		}
		if math.Abs(sum-target) < 1e-5 {
			break
		}
		if sum > target {
			hi = mid
			mid = (lo + hi) / 2
		} else {
			lo = mid
			if math.IsInf(hi, 1) {
				mid *= 2
			} else {
				mid = (lo + hi) / 2
			}
		}
	}
	return mid
}

// findABParams fits the differentiable curve 1/(1+a*d^(2b)) to the target
// membership function implied by minDist, by coarse grid search refined once.
func findABParams(minDist float64) (float64, float64) {
	targets := func(x float64) float64 {
		if x < minDist {
			return 1.0
		}
		return math.Exp(-(x - minDist))
	}

	bestA, bestB, bestErr := 1.0, 1.0, math.Inf(1)
	for _, scale := range []float64{1.0, 0.1} {
		loA, loB := bestA-scale*5, bestB-scale
		for a := loA; a <= bestA+scale*5; a += scale / 4 {
			if a <= 0 {
				continue
			}
			for b := loB; b <= bestB+scale; b += scale / 10 {
				if b <= 0 {
					continue
				}
				var sse float64
				for x := 0.05; x <= 3.0; x += 0.05 {
					curve := 1.0 / (1.0 + a*math.Pow(x, 2*b))
					diff := curve - targets(x)
					sse += diff * diff
				}
				if sse < bestErr {
					bestErr, bestA, bestB = sse, a, b
				}
			}
		}
	}
	return bestA, bestB
}

// initialLayout seeds the embedding from PCA scores rescaled to a +-10 box,
// falling back to small random coordinates when PCA is unavailable.
func (u *UMAP) initialLayout(X mat.Matrix, n int) (*mat.Dense, error) {
	rng := rand.New(rand.NewSource(u.RandomState))
	emb := mat.NewDense(n, u.NComponents, nil)

	_, p := X.Dims()
	if p >= u.NComponents && n > 2 {
		pca := NewPCA(u.NComponents)
		if scores, err := pca.FitTransform(X); err == nil {
			var maxAbs float64
			for i := 0; i < n; i++ {
				for j := 0; j < u.NComponents; j++ {
					if a := math.Abs(scores.At(i, j)); a > maxAbs {
						maxAbs = a
					}
				}
			}
			if maxAbs > 0 {
				for i := 0; i < n; i++ {
					for j := 0; j < u.NComponents; j++ {
						emb.Set(i, j, scores.At(i, j)/maxAbs*10)
					}
				}
				return emb, nil
			}
		}
	}

	for i := 0; i < n; i++ {
		for j := 0; j < u.NComponents; j++ {
			emb.Set(i, j, rng.Float64()*20-10)
		}
	}
	return emb, nil
}

// optimizeLayout runs the attraction/repulsion SGD over the edge list.
func (u *UMAP) optimizeLayout(emb *mat.Dense, edges []umapEdge, n int) {
	rng := rand.New(rand.NewSource(u.RandomState + 1))
	dim := u.NComponents

	var maxW float64
	for _, e := range edges {
		if e.weight > maxW {
			maxW = e.weight
		}
	}
	if maxW == 0 {
		return
	}

	const gradClip = 4.0
	clip := func(v float64) float64 {
		if v > gradClip {
			return gradClip
		}
		if v < -gradClip {
			return -gradClip
		}
		return v
	}

	for epoch := 0; epoch < u.NEpochs; epoch++ {
		alpha := u.LearningRate * (1 - float64(epoch)/float64(u.NEpochs))
		for _, e := range edges {
			// High-weight edges move every epoch, weak ones rarely.
			if rng.Float64() > e.weight/maxW {
				continue
			}

			var d2 float64
			for f := 0; f < dim; f++ {
				diff := emb.At(e.from, f) - emb.At(e.to, f)
				d2 += diff * diff
			}
			if d2 > 0 {
				coeff := -2 * u.a * u.b * math.Pow(d2, u.b-1) / (1 + u.a*math.Pow(d2, u.b))
				for f := 0; f < dim; f++ {
					grad := clip(coeff * (emb.At(e.from, f) - emb.At(e.to, f)))
					emb.Set(e.from, f, emb.At(e.from, f)+alpha*grad)
					emb.Set(e.to, f, emb.At(e.to, f)-alpha*grad)
				}
			}

			for s := 0; s < u.NegativeSamples; s++ {
				other := rng.Intn(n)
				if other == e.from {
					continue
				}
				var nd2 float64
				for f := 0; f < dim; f++ {
					diff := emb.At(e.from, f) - emb.At(other, f)
					nd2 += diff * diff
				}
				coeff := 2 * u.b / ((0.001 + nd2) * (1 + u.a*math.Pow(nd2, u.b)))
				for f := 0; f < dim; f++ {
					grad := clip(coeff * (emb.At(e.from, f) - emb.At(other, f)))
					emb.Set(e.from, f, emb.At(e.from, f)+alpha*grad)
				}
			}
		}
	}
}
