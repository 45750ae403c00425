package dicl

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/dicl/core/tensor"
	"github.com/ezoic/dicl/icl"
	"github.com/ezoic/dicl/pkg/errors"
)

// Bundle holds the reconstructed forecast in raw feature units. Every matrix is
// (T-1) × n_features and row t forecasts row t+1 of the window.
//
// Lower and Upper are the inverse transforms of mean ∓ sigma taken in component space.
// For a non-linear disentangler this is an approximation of the feature-space band.
type Bundle struct {
	Mean  *mat.Dense
	Mode  *mat.Dense
	Lower *mat.Dense
	Upper *mat.Dense
}

// Result is the outcome of one predict call.
type Result struct {
	// Window is a copy of the T × n_features input
	Window *mat.Dense
	// ContextLength is T
	ContextLength int
	// PredictionHorizon is H for multi-step results and 0 otherwise
	PredictionHorizon int
	Mode              icl.GenerationMode

	Bundle Bundle

	// Statistics are the trainer outputs in rescaled units, one entry per component
	Statistics []icl.ComponentStatistics
}

// Steps returns the number of forecast rows, T-1.
func (r *Result) Steps() int {
	return r.ContextLength - 1
}

// HorizonStart returns the first row produced by the autoregressive path. It equals
// Steps() for single-step results.
func (r *Result) HorizonStart() int {
	return r.Steps() - r.PredictionHorizon
}

// GroundTruth returns rows 1..T-1 of the window, aligned with the bundle.
func (r *Result) GroundTruth() (*mat.Dense, error) {
	if r == nil || r.Window == nil {
		return nil, errors.NewNotReadyError("Result.GroundTruth")
	}
	return tensor.Rows(r.Window, 1, r.ContextLength)
}

// Forecast is the plain representation of a Result used for JSON output.
type Forecast struct {
	ContextLength     int         `json:"context_length"`
	PredictionHorizon int         `json:"prediction_horizon"`
	GenerationMode    string      `json:"generation_mode"`
	GroundTruth       [][]float64 `json:"groundtruth"`
	Mean              [][]float64 `json:"mean"`
	Mode              [][]float64 `json:"mode"`
	Lower             [][]float64 `json:"lower"`
	Upper             [][]float64 `json:"upper"`
}

// Forecast converts r to nested slices.
func (r *Result) Forecast() (Forecast, error) {
	truth, err := r.GroundTruth()
	if err != nil {
		return Forecast{}, err
	}
	return Forecast{
		ContextLength:     r.ContextLength,
		PredictionHorizon: r.PredictionHorizon,
		GenerationMode:    r.Mode.String(),
		GroundTruth:       rowsOf(truth),
		Mean:              rowsOf(r.Bundle.Mean),
		Mode:              rowsOf(r.Bundle.Mode),
		Lower:             rowsOf(r.Bundle.Lower),
		Upper:             rowsOf(r.Bundle.Upper),
	}, nil
}

func rowsOf(m *mat.Dense) [][]float64 {
	if m == nil {
		return nil
	}
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = tensor.Row(m, i)
	}
	return out
}
