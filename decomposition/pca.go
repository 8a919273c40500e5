// Package decomposition provides the dimensionality-reduction transforms used
// by the embedding studies: PCA over gonum's principal-component routine and
// a UMAP implementation for non-linear layouts.
package decomposition

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/EmmanuelUgo/ML-models/core/model"
	"github.com/EmmanuelUgo/ML-models/pkg/errors"
)

// PCA projects data onto its top principal components.
type PCA struct {
	state *model.StateManager

	// NComponents is the number of components kept.
	NComponents int

	// Mean holds the per-feature training means used for centering.
	Mean []float64

	// Components is the p×k projection matrix, one component per column.
	Components *mat.Dense

	// ExplainedVariance holds the variance carried by each kept component.
	ExplainedVariance []float64

	// ExplainedVarianceRatio holds each kept component's share of total
	// variance.
	ExplainedVarianceRatio []float64
}

// NewPCA creates a PCA keeping nComponents components.
func NewPCA(nComponents int) *PCA {
	return &PCA{
		state:       model.NewStateManager(),
		NComponents: nComponents,
	}
}

// IsFitted reports whether the transform has been fitted.
func (p *PCA) IsFitted() bool { return p.state.IsFitted() }

// Fit learns the principal components of X.
func (p *PCA) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("PCA.Fit", "empty data", errors.ErrEmptyData)
	}
	if p.NComponents <= 0 || p.NComponents > c {
		return errors.NewValidationError("n_components", fmt.Sprintf("must be in [1, %d]", c), p.NComponents)
	}
	if r < 2 {
		return errors.NewValueError("PCA.Fit", "need at least 2 samples")
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(X, nil); !ok {
		return errors.NewModelError("PCA.Fit", "decomposition failed", errors.ErrSingularMatrix)
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)

	p.Mean = make([]float64, c)
	for j := 0; j < c; j++ {
		var sum float64
		for i := 0; i < r; i++ {
			sum += X.At(i, j)
		}
		p.Mean[j] = sum / float64(r)
	}

	k := p.NComponents
	p.Components = mat.NewDense(c, k, nil)
	for j := 0; j < c; j++ {
		for comp := 0; comp < k; comp++ {
			p.Components.Set(j, comp, vecs.At(j, comp))
		}
	}

	var total float64
	for _, v := range vars {
		total += v
	}
	p.ExplainedVariance = make([]float64, k)
	p.ExplainedVarianceRatio = make([]float64, k)
	for comp := 0; comp < k; comp++ {
		p.ExplainedVariance[comp] = vars[comp]
		if total > 0 {
			p.ExplainedVarianceRatio[comp] = vars[comp] / total
		}
	}

	p.state.SetDimensions(c, r)
	p.state.SetFitted()
	return nil
}

// Transform projects X onto the learned components, returning n×k scores.
func (p *PCA) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !p.state.IsFitted() {
		return nil, errors.NewNotFittedError("PCA", "Transform")
	}
	r, c := X.Dims()
	nFeatures, _ := p.state.GetDimensions()
	if c != nFeatures {
		return nil, errors.NewDimensionError("PCA.Transform", nFeatures, c, 1)
	}

	centered := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			centered.Set(i, j, X.At(i, j)-p.Mean[j])
		}
	}

	var scores mat.Dense
	scores.Mul(centered, p.Components)
	return &scores, nil
}

// FitTransform fits the components and returns the training scores.
func (p *PCA) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := p.Fit(X); err != nil {
		return nil, err
	}
	return p.Transform(X)
}

// GetParams returns the transform's hyperparameters.
func (p *PCA) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_components": p.NComponents,
	}
}

// String returns a printable representation.
func (p *PCA) String() string {
	if !p.state.IsFitted() {
		return fmt.Sprintf("PCA(n_components=%d)", p.NComponents)
	}
	nFeatures, _ := p.state.GetDimensions()
	return fmt.Sprintf("PCA(n_components=%d, n_features=%d)", p.NComponents, nFeatures)
}
