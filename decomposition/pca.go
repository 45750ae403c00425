package decomposition

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/dicl/core/model"
	"github.com/ezoic/dicl/core/tensor"
	scigoErrors "github.com/ezoic/dicl/pkg/errors"
	"github.com/ezoic/dicl/pkg/log"
)

// PCA projects centred data onto its first NComponents principal axes.
//
// Fit computes the singular value decomposition of the centred data with gonum's
// mat.SVD. Components are stored row-wise (n_components × n_features) as in
// scikit-learn, with the sign of each axis fixed so that its largest absolute
// loading is positive.
//
//	Z = (X - mean) · Componentsᵀ
//	X = Z · Components + mean
type PCA struct {
	model.BaseEstimator

	// NComponents is the number of axes kept
	NComponents int

	// Components holds the principal axes, one per row
	Components *mat.Dense

	// Mean is the per-feature mean seen during Fit
	Mean []float64

	// ExplainedVariance is the variance along each kept axis (ddof = 1)
	ExplainedVariance []float64

	// ExplainedVarianceRatio is ExplainedVariance divided by the total variance
	ExplainedVarianceRatio []float64

	NFeatures int
}

// NewPCA creates an unfitted PCA keeping nComponents axes.
func NewPCA(nComponents int) *PCA {
	return &PCA{NComponents: nComponents}
}

// Fit learns the principal axes of X.
//
// Errors:
//   - ErrEmptyData: if X is empty
//   - ValueError: if NComponents is outside [1, n_features]
//   - ModelError: if the decomposition fails
func (p *PCA) Fit(X mat.Matrix) (err error) {
	defer scigoErrors.Recover(&err, "PCA.Fit")
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return scigoErrors.NewModelError("PCA.Fit", "empty data", scigoErrors.ErrEmptyData)
	}
	if p.NComponents < 1 || p.NComponents > c {
		return scigoErrors.NewValueError("PCA.Fit",
			fmt.Sprintf("n_components must be in [1, %d], got %d", c, p.NComponents))
	}

	mean := make([]float64, c)
	for j := 0; j < c; j++ {
		mean[j] = floats.Sum(tensor.Column(X, j)) / float64(r)
	}
	centred := mat.NewDense(r, c, nil)
	centred.Apply(func(i, j int, v float64) float64 { return v - mean[j] }, X)

	var svd mat.SVD
	if ok := svd.Factorize(centred, mat.SVDFullV); !ok {
		return scigoErrors.NewModelError("PCA.Fit", "unable to factorize", scigoErrors.ErrSingularMatrix)
	}
	var v mat.Dense
	svd.VTo(&v)
	values := svd.Values(nil)

	ddof := float64(r - 1)
	if ddof < 1 {
		ddof = 1
	}
	variance := make([]float64, c)
	for i, s := range values {
		variance[i] = s * s / ddof
	}
	total := floats.Sum(variance)

	components := mat.NewDense(p.NComponents, c, nil)
	p.ExplainedVariance = make([]float64, p.NComponents)
	p.ExplainedVarianceRatio = make([]float64, p.NComponents)
	for k := 0; k < p.NComponents; k++ {
		axis := tensor.Column(&v, k)
		if floats.Max(axis) < -floats.Min(axis) {
			floats.Scale(-1, axis)
		}
		components.SetRow(k, axis)

		p.ExplainedVariance[k] = variance[k]
		if total > 0 {
			p.ExplainedVarianceRatio[k] = variance[k] / total
		}
	}

	p.Components = components
	p.Mean = mean
	p.NFeatures = c
	p.SetFitted()
	p.LogDebug("PCA fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, r,
		log.FeaturesKey, c,
		log.ComponentsKey, p.NComponents,
		"explained_variance_ratio", floats.Sum(p.ExplainedVarianceRatio),
	)
	return nil
}

// Transform projects X onto the principal axes.
func (p *PCA) Transform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer scigoErrors.Recover(&err, "PCA.Transform")
	if !p.IsFitted() {
		return nil, scigoErrors.NewNotFittedError("PCA", "Transform")
	}
	r, c := X.Dims()
	if c != p.NFeatures {
		return nil, scigoErrors.NewDimensionError("PCA.Transform", p.NFeatures, c, 1)
	}

	centred := mat.NewDense(r, c, nil)
	centred.Apply(func(i, j int, v float64) float64 { return v - p.Mean[j] }, X)

	var z mat.Dense
	z.Mul(centred, p.Components.T())
	return &z, nil
}

// InverseTransform maps component scores back to feature space.
func (p *PCA) InverseTransform(Z mat.Matrix) (_ mat.Matrix, err error) {
	defer scigoErrors.Recover(&err, "PCA.InverseTransform")
	if !p.IsFitted() {
		return nil, scigoErrors.NewNotFittedError("PCA", "InverseTransform")
	}
	if _, c := Z.Dims(); c != p.NComponents {
		return nil, scigoErrors.NewDimensionError("PCA.InverseTransform", p.NComponents, c, 1)
	}

	var x mat.Dense
	x.Mul(Z, p.Components)
	x.Apply(func(i, j int, v float64) float64 { return v + p.Mean[j] }, &x)
	return &x, nil
}

// FitTransform fits the model and projects X.
func (p *PCA) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := p.Fit(X); err != nil {
		return nil, err
	}
	return p.Transform(X)
}

// GetParams returns the constructor parameters
func (p *PCA) GetParams() map[string]interface{} {
	return map[string]interface{}{"n_components": p.NComponents}
}

func (p *PCA) String() string {
	return fmt.Sprintf("PCA(n_components=%d)", p.NComponents)
}

// PCAFromSKLearn restores a fitted PCA from exported parameters.
func PCAFromSKLearn(sk *model.SKLearnModel) (*PCA, error) {
	var params model.SKLearnPCAParams
	if err := sk.DecodeParams("PCA", &params); err != nil {
		return nil, err
	}
	k := len(params.Components)
	if k == 0 || len(params.Mean) == 0 {
		return nil, scigoErrors.NewValueError("PCAFromSKLearn", "components and mean are required")
	}

	nFeatures := len(params.Mean)
	components := mat.NewDense(k, nFeatures, nil)
	for i, row := range params.Components {
		if len(row) != nFeatures {
			return nil, scigoErrors.NewDimensionError("PCAFromSKLearn", nFeatures, len(row), 1)
		}
		for _, v := range row {
			if err := scigoErrors.CheckScalar("PCAFromSKLearn", v); err != nil {
				return nil, err
			}
		}
		components.SetRow(i, row)
	}

	p := NewPCA(k)
	p.Components = components
	p.Mean = append([]float64(nil), params.Mean...)
	p.NFeatures = nFeatures
	p.ExplainedVariance = append([]float64(nil), params.ExplainedVariance...)
	if total := floats.Sum(p.ExplainedVariance); total > 0 {
		p.ExplainedVarianceRatio = make([]float64, len(p.ExplainedVariance))
		floats.ScaleTo(p.ExplainedVarianceRatio, 1/total, p.ExplainedVariance)
	}
	p.SetFitted()
	return p, nil
}
