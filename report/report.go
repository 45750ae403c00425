// Package report renders forecasts and calibration curves.
//
// PNG/JPEG/TIFF figures are drawn with gonum/plot, one panel per feature laid out three
// per row. WriteHTML produces an interactive go-echarts page with the same series.
package report

import (
	"fmt"

	"github.com/ezoic/dicl/core/tensor"
	"github.com/ezoic/dicl/dicl"
	"github.com/ezoic/dicl/pkg/errors"
)

// panelsPerRow is the number of feature panels on one row of a figure.
const panelsPerRow = 3

// FeatureNames returns names when it has n entries, and f0..f{n-1} when names is empty.
func FeatureNames(names []string, n int) ([]string, error) {
	if len(names) == 0 {
		out := make([]string, n)
		for i := range out {
			out[i] = fmt.Sprintf("f%d", i)
		}
		return out, nil
	}
	if len(names) != n {
		return nil, errors.NewDimensionError("report.FeatureNames", n, len(names), 1)
	}
	return names, nil
}

func checkResult(op string, res *dicl.Result) error {
	if res == nil || res.Window == nil {
		return errors.NewNotReadyError(op)
	}
	if b := res.Bundle; b.Mean == nil || b.Mode == nil || b.Lower == nil || b.Upper == nil {
		return errors.NewNotReadyError(op)
	}
	return nil
}

// series holds the per-feature columns shared by the PNG and HTML renderers.
type series struct {
	truth, mean, mode, lower, upper []float64
}

func featureSeries(res *dicl.Result, f int) (series, error) {
	truth, err := res.GroundTruth()
	if err != nil {
		return series{}, err
	}
	return series{
		truth: tensor.Column(truth, f),
		mean:  tensor.Column(res.Bundle.Mean, f),
		mode:  tensor.Column(res.Bundle.Mode, f),
		lower: tensor.Column(res.Bundle.Lower, f),
		upper: tensor.Column(res.Bundle.Upper, f),
	}, nil
}
