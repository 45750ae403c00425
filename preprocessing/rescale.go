package preprocessing

import (
	"gonum.org/v1/gonum/floats"

	scigoErrors "github.com/ezoic/dicl/pkg/errors"
)

// Default band parameters for Rescaler.
const (
	DefaultRescaleFactor = 7.0
	DefaultUpShift       = 1.5
)

// RescaleFrame is the per-component min/max captured when a series is mapped into the band.
type RescaleFrame struct {
	Min float64
	Max float64
}

// Width returns Max - Min.
func (f RescaleFrame) Width() float64 {
	return f.Max - f.Min
}

// Rescaler maps values into [UpShift, UpShift+Factor] and back.
//
//	r   = (x - min) / (max - min) * Factor + UpShift
//	x   = (r - UpShift) / Factor * (max - min) + min
//	σ_x = σ_r / Factor * (max - min)
type Rescaler struct {
	Factor  float64
	UpShift float64
}

// NewRescaler creates a Rescaler with the given band parameters.
func NewRescaler(factor, upShift float64) Rescaler {
	return Rescaler{Factor: factor, UpShift: upShift}
}

// DefaultRescaler returns NewRescaler(DefaultRescaleFactor, DefaultUpShift).
func DefaultRescaler() Rescaler {
	return NewRescaler(DefaultRescaleFactor, DefaultUpShift)
}

// Validate rejects a non-positive or non-finite band.
func (r Rescaler) Validate() error {
	if err := scigoErrors.CheckScalar("Rescaler.Factor", r.Factor); err != nil {
		return err
	}
	if err := scigoErrors.CheckScalar("Rescaler.UpShift", r.UpShift); err != nil {
		return err
	}
	if r.Factor <= 0 {
		return scigoErrors.NewValidationError("rescale_factor", "must be positive", r.Factor)
	}
	return nil
}

// FitFrame returns the min/max of series for component c.
//
// Errors:
//   - ErrEmptyData: if series is empty
//   - DegenerateRangeError: if every value in series is equal
func FitFrame(c int, series []float64) (RescaleFrame, error) {
	if len(series) == 0 {
		return RescaleFrame{}, scigoErrors.NewModelError("preprocessing.FitFrame", "empty series", scigoErrors.ErrEmptyData)
	}
	frame := RescaleFrame{Min: floats.Min(series), Max: floats.Max(series)}
	if frame.Width() == 0 {
		return RescaleFrame{}, scigoErrors.NewDegenerateRangeError("preprocessing.FitFrame", c, frame.Min)
	}
	return frame, nil
}

// Forward maps series into the band and returns a new slice.
func (r Rescaler) Forward(frame RescaleFrame, series []float64) []float64 {
	out := make([]float64, len(series))
	width := frame.Width()
	for i, v := range series {
		out[i] = (v-frame.Min)/width*r.Factor + r.UpShift
	}
	return out
}

// Inverse maps band values back to the component's scale.
func (r Rescaler) Inverse(frame RescaleFrame, values []float64) []float64 {
	out := make([]float64, len(values))
	width := frame.Width()
	for i, v := range values {
		out[i] = (v-r.UpShift)/r.Factor*width + frame.Min
	}
	return out
}

// InverseSigma maps band standard deviations back to the component's scale.
func (r Rescaler) InverseSigma(frame RescaleFrame, sigmas []float64) []float64 {
	out := make([]float64, len(sigmas))
	width := frame.Width()
	for i, v := range sigmas {
		out[i] = v / r.Factor * width
	}
	return out
}

// CheckFrame returns a DegenerateRangeError when frame has zero width.
func CheckFrame(op string, c int, frame RescaleFrame) error {
	if frame.Width() == 0 {
		return scigoErrors.NewDegenerateRangeError(op, c, frame.Min)
	}
	return nil
}
