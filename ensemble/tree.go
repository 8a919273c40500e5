// Package ensemble implements the random-forest models used by the
// classification and regression studies: CART trees grown on bootstrap
// samples with random feature subsets, aggregated by vote or mean.
package ensemble

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// treeNode is one node of a CART tree. Leaves carry class counts for
// classification or a mean value for regression.
type treeNode struct {
	Feature   int
	Threshold float64
	Left      *treeNode
	Right     *treeNode

	Leaf        bool
	Value       float64
	ClassCounts []float64
}

// cartTree grows a single CART tree. nClasses == 0 selects regression
// (variance reduction), otherwise gini impurity.
type cartTree struct {
	MaxDepth        int // 0 means unlimited
	MinSamplesSplit int
	MaxFeatures     int
	NClasses        int

	Root        *treeNode
	Importances []float64

	rng *rand.Rand
}

func (t *cartTree) fit(X mat.Matrix, y []float64, indices []int, rng *rand.Rand) {
	_, p := X.Dims()
	t.rng = rng
	t.Importances = make([]float64, p)
	t.Root = t.grow(X, y, indices, 0)

	var total float64
	for _, v := range t.Importances {
		total += v
	}
	if total > 0 {
		for j := range t.Importances {
			t.Importances[j] /= total
		}
	}
}

func (t *cartTree) grow(X mat.Matrix, y []float64, indices []int, depth int) *treeNode {
	if len(indices) < t.MinSamplesSplit ||
		(t.MaxDepth > 0 && depth >= t.MaxDepth) ||
		t.pure(y, indices) {
		return t.leaf(y, indices)
	}

	feature, threshold, gain := t.bestSplit(X, y, indices)
	if feature < 0 || gain <= 0 {
		return t.leaf(y, indices)
	}

	var left, right []int
	for _, i := range indices {
		if X.At(i, feature) <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return t.leaf(y, indices)
	}

	t.Importances[feature] += gain * float64(len(indices))

	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      t.grow(X, y, left, depth+1),
		Right:     t.grow(X, y, right, depth+1),
	}
}

func (t *cartTree) pure(y []float64, indices []int) bool {
	first := y[indices[0]]
	for _, i := range indices[1:] {
		if y[i] != first {
			return false
		}
	}
	return true
}

func (t *cartTree) leaf(y []float64, indices []int) *treeNode {
	if t.NClasses > 0 {
		counts := make([]float64, t.NClasses)
		for _, i := range indices {
			counts[int(y[i])]++
		}
		for j := range counts {
			counts[j] /= float64(len(indices))
		}
		return &treeNode{Leaf: true, ClassCounts: counts}
	}
	var sum float64
	for _, i := range indices {
		sum += y[i]
	}
	return &treeNode{Leaf: true, Value: sum / float64(len(indices))}
}

// bestSplit scans a random feature subset for the split with the largest
// impurity decrease. Thresholds are midpoints between distinct sorted values.
func (t *cartTree) bestSplit(X mat.Matrix, y []float64, indices []int) (feature int, threshold, gain float64) {
	_, p := X.Dims()
	feature = -1

	features := t.rng.Perm(p)
	if t.MaxFeatures > 0 && t.MaxFeatures < p {
		features = features[:t.MaxFeatures]
	}

	parent := t.impurity(y, indices)
	n := float64(len(indices))

	vals := make([]float64, len(indices))
	order := make([]int, len(indices))
	for _, f := range features {
		for k, i := range indices {
			vals[k] = X.At(i, f)
			order[k] = i
		}
		sort.Sort(&byValue{vals: vals, idx: order})

		for k := 0; k < len(order)-1; k++ {
			if vals[k] == vals[k+1] {
				continue
			}
			thr := (vals[k] + vals[k+1]) / 2
			left := order[:k+1]
			right := order[k+1:]
			g := parent -
				(float64(len(left))/n)*t.impurity(y, left) -
				(float64(len(right))/n)*t.impurity(y, right)
			if g > gain {
				gain, feature, threshold = g, f, thr
			}
		}
	}
	return feature, threshold, gain
}

func (t *cartTree) impurity(y []float64, indices []int) float64 {
	n := float64(len(indices))
	if n == 0 {
		return 0
	}
	if t.NClasses > 0 {
		counts := make([]float64, t.NClasses)
		for _, i := range indices {
			counts[int(y[i])]++
		}
		gini := 1.0
		for _, c := range counts {
			frac := c / n
			gini -= frac * frac
		}
		return gini
	}
	var mean float64
	for _, i := range indices {
		mean += y[i]
	}
	mean /= n
	var sse float64
	for _, i := range indices {
		d := y[i] - mean
		sse += d * d
	}
	return sse / n
}

func (t *cartTree) predictRow(x []float64) *treeNode {
	node := t.Root
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node
}

type byValue struct {
	vals []float64
	idx  []int
}

func (b *byValue) Len() int           { return len(b.vals) }
func (b *byValue) Less(i, j int) bool { return b.vals[i] < b.vals[j] }
func (b *byValue) Swap(i, j int) {
	b.vals[i], b.vals[j] = b.vals[j], b.vals[i]
	b.idx[i], b.idx[j] = b.idx[j], b.idx[i]
}

// defaultMaxFeatures returns the conventional per-split feature budget:
// sqrt(p) for classification, p/3 for regression.
func defaultMaxFeatures(p int, classification bool) int {
	var m int
	if classification {
		m = int(math.Sqrt(float64(p)))
	} else {
		m = p / 3
	}
	if m < 1 {
		m = 1
	}
	return m
}
