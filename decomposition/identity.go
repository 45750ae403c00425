// Package decomposition provides the reduction stage of the disentangling transform.
//
// Two reducers are available:
//
//   - Identity: components are the (scaled) features themselves
//   - PCA: linear projection onto the leading principal axes
//
// Both implement model.Transformer and are placed last in the pipeline built by the
// forecaster (MinMaxScaler, StandardScaler, reducer).
package decomposition

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/dicl/core/model"
	scigoErrors "github.com/ezoic/dicl/pkg/errors"
	"github.com/ezoic/dicl/pkg/log"
)

// Identity is the no-op reducer: Transform and InverseTransform return a copy of the input.
type Identity struct {
	model.BaseEstimator

	NFeatures int
}

// NewIdentity creates an unfitted Identity reducer.
func NewIdentity() *Identity {
	return &Identity{}
}

// Fit records the number of features.
func (id *Identity) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return scigoErrors.NewModelError("Identity.Fit", "empty data", scigoErrors.ErrEmptyData)
	}
	id.NFeatures = c
	id.SetFitted()
	id.LogDebug("Identity fitted", log.OperationKey, log.OperationFit, log.FeaturesKey, c)
	return nil
}

// Transform returns a copy of X.
func (id *Identity) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := id.check(X, "Transform"); err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(X), nil
}

// InverseTransform returns a copy of X.
func (id *Identity) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := id.check(X, "InverseTransform"); err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(X), nil
}

// NComponents equals the number of fitted features.
func (id *Identity) NComponents() int {
	return id.NFeatures
}

func (id *Identity) check(X mat.Matrix, method string) error {
	if !id.IsFitted() {
		return scigoErrors.NewNotFittedError("Identity", method)
	}
	if _, c := X.Dims(); c != id.NFeatures {
		return scigoErrors.NewDimensionError("Identity."+method, id.NFeatures, c, 1)
	}
	return nil
}

func (id *Identity) String() string {
	return fmt.Sprintf("Identity(n_features=%d)", id.NFeatures)
}
