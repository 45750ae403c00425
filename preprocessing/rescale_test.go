package preprocessing_test

import (
	"math"
	"testing"

	scigoErrors "github.com/ezoic/dicl/pkg/errors"
	"github.com/ezoic/dicl/preprocessing"
)

func TestRescaler_RoundTrip(t *testing.T) {
	series := []float64{-2.5, 0.1, 3.7, 1.2, -0.4}

	frame, err := preprocessing.FitFrame(0, series)
	if err != nil {
		t.Fatalf("FitFrame failed: %v", err)
	}
	if frame.Min != -2.5 || frame.Max != 3.7 {
		t.Errorf("Expected frame [-2.5, 3.7], got [%f, %f]", frame.Min, frame.Max)
	}

	r := preprocessing.DefaultRescaler()
	banded := r.Forward(frame, series)
	for i, v := range banded {
		if v < r.UpShift-epsilon || v > r.UpShift+r.Factor+epsilon {
			t.Errorf("banded[%d] = %f outside [%f, %f]", i, v, r.UpShift, r.UpShift+r.Factor)
		}
	}
	if math.Abs(banded[0]-r.UpShift) > epsilon {
		t.Errorf("Minimum should map to %f, got %f", r.UpShift, banded[0])
	}
	if math.Abs(banded[2]-(r.UpShift+r.Factor)) > epsilon {
		t.Errorf("Maximum should map to %f, got %f", r.UpShift+r.Factor, banded[2])
	}

	restored := r.Inverse(frame, banded)
	for i, expected := range series {
		if math.Abs(restored[i]-expected) > 1e-12 {
			t.Errorf("restored[%d]: expected %f, got %f", i, expected, restored[i])
		}
	}
}

func TestRescaler_InverseSigma(t *testing.T) {
	frame := preprocessing.RescaleFrame{Min: 10, Max: 24}
	r := preprocessing.NewRescaler(7, 1.5)

	got := r.InverseSigma(frame, []float64{0, 1, 2})
	for i, expected := range []float64{0, 2, 4} {
		if math.Abs(got[i]-expected) > epsilon {
			t.Errorf("sigma[%d]: expected %f, got %f", i, expected, got[i])
		}
	}
}

func TestFitFrame_Degenerate(t *testing.T) {
	_, err := preprocessing.FitFrame(3, []float64{4, 4, 4})
	if !scigoErrors.Is(err, scigoErrors.ErrDegenerateRange) {
		t.Fatalf("Expected ErrDegenerateRange, got %v", err)
	}

	var rangeErr *scigoErrors.DegenerateRangeError
	if !scigoErrors.As(err, &rangeErr) {
		t.Fatalf("Expected DegenerateRangeError, got %T", err)
	}
	if rangeErr.Component != 3 || rangeErr.Value != 4.0 {
		t.Errorf("Expected component 3 with value 4, got component %d with value %f",
			rangeErr.Component, rangeErr.Value)
	}

	_, err = preprocessing.FitFrame(0, nil)
	if !scigoErrors.Is(err, scigoErrors.ErrEmptyData) {
		t.Errorf("Expected ErrEmptyData, got %v", err)
	}

	err = preprocessing.CheckFrame("test", 1, preprocessing.RescaleFrame{Min: 2, Max: 2})
	if !scigoErrors.Is(err, scigoErrors.ErrDegenerateRange) {
		t.Errorf("CheckFrame: expected ErrDegenerateRange, got %v", err)
	}
}

func TestRescaler_Validate(t *testing.T) {
	if err := preprocessing.DefaultRescaler().Validate(); err != nil {
		t.Errorf("Default rescaler should be valid: %v", err)
	}

	tests := []struct {
		name    string
		factor  float64
		upShift float64
	}{
		{"zero factor", 0, 1.5},
		{"NaN factor", math.NaN(), 1.5},
		{"infinite shift", 7, math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := preprocessing.NewRescaler(tt.factor, tt.upShift).Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
