// Package preprocessing provides the scaling stages of the disentangling transform and
// the rescaling math that maps components into a sequence model's numeric band.
//
// The disentangling pipeline always starts with the same two fitted stages:
//
//   - MinMaxScaler: maps every feature into a feature range (default [0, 1])
//   - StandardScaler: centres every feature and scales it to unit variance
//
// followed by a reduction stage from the decomposition package. Both scalers follow
// the Fit / Transform / InverseTransform pattern of model.Transformer and can be
// restored from parameters fitted by scikit-learn (FromSKLearn).
//
// Rescaler implements the per-call affine map of a component into the band
// [up_shift, up_shift + rescale_factor] and its inverse.
//
// Example usage:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	err := scaler.Fit(trainingData)
//	if err != nil {
//		log.Fatal(err)
//	}
//	scaledData, err := scaler.Transform(testData)
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ezoic/dicl/core/model"
	"github.com/ezoic/dicl/core/tensor"
	scigoErrors "github.com/ezoic/dicl/pkg/errors"
	"github.com/ezoic/dicl/pkg/log"
)

// constantTolerance is the spread under which a feature is treated as constant.
const constantTolerance = 1e-8

// StandardScaler standardizes features by removing the mean and scaling to unit variance
type StandardScaler struct {
	model.BaseEstimator

	// Mean is the per-feature mean (zeros when WithMean is false)
	Mean []float64

	// Scale is the per-feature population standard deviation (ones when WithStd is false)
	Scale []float64

	// NFeatures is the number of features seen during Fit
	NFeatures int

	WithMean bool
	WithStd  bool
}

// NewStandardScaler creates a new StandardScaler.
//
// Parameters:
//   - withMean: whether to centre the data by removing the mean
//   - withStd: whether to divide by the standard deviation
//
// Example:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	err := scaler.Fit(X)
//	XScaled, err := scaler.Transform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault creates a StandardScaler with centring and scaling enabled
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit computes the per-feature mean and standard deviation of X.
//
// The standard deviation is the population one (ddof = 0) as in scikit-learn; a
// feature whose deviation is below 1e-8 keeps a scale of 1 so that Transform never
// divides by zero.
//
// Errors:
//   - ErrEmptyData: if X is empty
func (s *StandardScaler) Fit(X mat.Matrix) (err error) {
	defer scigoErrors.Recover(&err, "StandardScaler.Fit")
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return scigoErrors.NewModelError("StandardScaler.Fit", "empty data", scigoErrors.ErrEmptyData)
	}

	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		col := tensor.Column(X, j)

		if s.WithMean {
			s.Mean[j] = stat.Mean(col, nil)
		}

		s.Scale[j] = 1.0
		if s.WithStd {
			var sumSquares float64
			for _, v := range col {
				d := v - s.Mean[j]
				sumSquares += d * d
			}
			if std := math.Sqrt(sumSquares / float64(r)); std >= constantTolerance {
				s.Scale[j] = std
			}
		}
	}

	s.SetFitted()
	s.LogDebug("StandardScaler fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, r,
		log.FeaturesKey, c,
	)
	return nil
}

// Transform applies X_scaled = (X - mean) / scale.
//
// Errors:
//   - ErrNotFitted: if the scaler hasn't been fitted yet
//   - ErrDimensionMismatch: if X doesn't match the number of features from training
func (s *StandardScaler) Transform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer scigoErrors.Recover(&err, "StandardScaler.Transform")
	if err := s.check(X, "Transform"); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, X)
	return result, nil
}

// FitTransform fits the scaler and transforms X in one step.
func (s *StandardScaler) FitTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer scigoErrors.Recover(&err, "StandardScaler.FitTransform")
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform applies X = X_scaled * scale + mean.
func (s *StandardScaler) InverseTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer scigoErrors.Recover(&err, "StandardScaler.InverseTransform")
	if err := s.check(X, "InverseTransform"); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	}, X)
	return result, nil
}

func (s *StandardScaler) check(X mat.Matrix, method string) error {
	if !s.IsFitted() {
		return scigoErrors.NewNotFittedError("StandardScaler", method)
	}
	if _, c := X.Dims(); c != s.NFeatures {
		return scigoErrors.NewDimensionError("StandardScaler."+method, s.NFeatures, c, 1)
	}
	return nil
}

// GetParams returns the constructor parameters of the scaler
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

// String returns a short description of the scaler
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.NFeatures)
}

// StandardScalerFromSKLearn restores a fitted StandardScaler from exported parameters.
func StandardScalerFromSKLearn(m *model.SKLearnModel) (*StandardScaler, error) {
	var params model.SKLearnStandardScalerParams
	if err := m.DecodeParams("StandardScaler", &params); err != nil {
		return nil, err
	}
	if len(params.Mean) == 0 {
		return nil, scigoErrors.NewValueError("StandardScalerFromSKLearn", "mean cannot be empty")
	}
	if len(params.Scale) != len(params.Mean) {
		return nil, scigoErrors.NewDimensionError("StandardScalerFromSKLearn", len(params.Mean), len(params.Scale), 1)
	}

	s := NewStandardScalerDefault()
	s.NFeatures = len(params.Mean)
	s.Mean = append([]float64(nil), params.Mean...)
	s.Scale = append([]float64(nil), params.Scale...)
	for j, v := range s.Scale {
		if v == 0 {
			s.Scale[j] = 1.0
		}
	}
	s.SetFitted()
	return s, nil
}

// MinMaxScaler scales each feature into FeatureRange
type MinMaxScaler struct {
	model.BaseEstimator

	// DataMin and DataMax are the per-feature extremes seen during Fit
	DataMin []float64
	DataMax []float64

	// Scale is DataMax - DataMin, or 1 for constant features
	Scale []float64

	// NFeatures is the number of features seen during Fit
	NFeatures int

	// FeatureRange is the target range [min, max]
	FeatureRange [2]float64
}

// NewMinMaxScaler creates a new MinMaxScaler for the given target range.
//
// The transformation is X_scaled = (X - X.min) / (X.max - X.min) * (max - min) + min.
//
// Example:
//
//	scaler := preprocessing.NewMinMaxScaler([2]float64{0.0, 1.0})
//	err := scaler.Fit(trainingData)
//	scaledData, err := scaler.Transform(testData)
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		FeatureRange: featureRange,
	}
}

// NewMinMaxScalerDefault creates a MinMaxScaler for the [0, 1] range
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// Fit records the per-feature minimum and maximum of X.
//
// Errors:
//   - ErrEmptyData: if X is empty
//   - ValueError: if the feature range is empty or reversed
func (m *MinMaxScaler) Fit(X mat.Matrix) (err error) {
	defer scigoErrors.Recover(&err, "MinMaxScaler.Fit")
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return scigoErrors.NewModelError("MinMaxScaler.Fit", "empty data", scigoErrors.ErrEmptyData)
	}
	if m.FeatureRange[1] <= m.FeatureRange[0] {
		return scigoErrors.NewValueError("MinMaxScaler.Fit",
			fmt.Sprintf("feature range must be increasing, got %v", m.FeatureRange))
	}

	m.NFeatures = c
	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		col := tensor.Column(X, j)
		m.DataMin[j] = floats.Min(col)
		m.DataMax[j] = floats.Max(col)
	}
	m.updateScale()

	m.SetFitted()
	m.LogDebug("MinMaxScaler fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, r,
		log.FeaturesKey, c,
	)
	return nil
}

func (m *MinMaxScaler) updateScale() {
	for j := range m.DataMin {
		m.Scale[j] = 1.0
		if spread := m.DataMax[j] - m.DataMin[j]; math.Abs(spread) >= constantTolerance {
			m.Scale[j] = spread
		}
	}
}

// Transform scales X into the fitted feature range.
//
// Errors:
//   - ErrNotFitted: if the scaler hasn't been fitted yet
//   - ErrDimensionMismatch: if X doesn't match the number of features from training
func (m *MinMaxScaler) Transform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer scigoErrors.Recover(&err, "MinMaxScaler.Transform")
	if err := m.check(X, "Transform"); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	width := m.FeatureRange[1] - m.FeatureRange[0]
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v-m.DataMin[j])/m.Scale[j]*width + m.FeatureRange[0]
	}, X)
	return result, nil
}

// FitTransform fits the scaler and transforms X in one step.
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer scigoErrors.Recover(&err, "MinMaxScaler.FitTransform")
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform maps scaled values back to the original range.
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer scigoErrors.Recover(&err, "MinMaxScaler.InverseTransform")
	if err := m.check(X, "InverseTransform"); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	width := m.FeatureRange[1] - m.FeatureRange[0]
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v-m.FeatureRange[0])/width*m.Scale[j] + m.DataMin[j]
	}, X)
	return result, nil
}

func (m *MinMaxScaler) check(X mat.Matrix, method string) error {
	if !m.IsFitted() {
		return scigoErrors.NewNotFittedError("MinMaxScaler", method)
	}
	if _, c := X.Dims(); c != m.NFeatures {
		return scigoErrors.NewDimensionError("MinMaxScaler."+method, m.NFeatures, c, 1)
	}
	return nil
}

// GetParams returns the constructor parameters of the scaler
func (m *MinMaxScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"feature_range": m.FeatureRange,
	}
}

// String returns a short description of the scaler
func (m *MinMaxScaler) String() string {
	if !m.IsFitted() {
		return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])",
			m.FeatureRange[0], m.FeatureRange[1])
	}
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f], n_features=%d)",
		m.FeatureRange[0], m.FeatureRange[1], m.NFeatures)
}

// MinMaxScalerFromSKLearn restores a fitted MinMaxScaler from exported parameters.
func MinMaxScalerFromSKLearn(sk *model.SKLearnModel) (*MinMaxScaler, error) {
	var params model.SKLearnMinMaxScalerParams
	if err := sk.DecodeParams("MinMaxScaler", &params); err != nil {
		return nil, err
	}
	if len(params.DataMin) == 0 {
		return nil, scigoErrors.NewValueError("MinMaxScalerFromSKLearn", "data_min cannot be empty")
	}
	if len(params.DataMax) != len(params.DataMin) {
		return nil, scigoErrors.NewDimensionError("MinMaxScalerFromSKLearn", len(params.DataMin), len(params.DataMax), 1)
	}

	featureRange := params.FeatureRange
	if featureRange == [2]float64{} {
		featureRange = [2]float64{0, 1}
	}

	m := NewMinMaxScaler(featureRange)
	m.NFeatures = len(params.DataMin)
	m.DataMin = append([]float64(nil), params.DataMin...)
	m.DataMax = append([]float64(nil), params.DataMax...)
	m.Scale = make([]float64, m.NFeatures)
	m.updateScale()
	m.SetFitted()
	return m, nil
}
