package report_test

import (
	"bytes"
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/dicl/dicl"
	"github.com/ezoic/dicl/icl"
	scigoErrors "github.com/ezoic/dicl/pkg/errors"
	"github.com/ezoic/dicl/pkg/log"
	"github.com/ezoic/dicl/report"
)

func forecast(t *testing.T, horizon int) (*dicl.Forecaster, *dicl.Result) {
	t.Helper()

	X := mat.NewDense(30, 2, nil)
	for i := 0; i < 30; i++ {
		X.Set(i, 0, math.Sin(0.3*float64(i)))
		X.Set(i, 1, math.Cos(0.2*float64(i)))
	}

	logger := log.NewZerologProviderWithWriter(io.Discard, log.ToLogLevel("error")).GetLogger()
	f, err := dicl.NewVICL(2, 2, icl.NewMovingWindowFactory(4, 7), dicl.WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, f.FitDisentangler(X))

	var res *dicl.Result
	if horizon == 0 {
		res, err = f.PredictSingleStep(context.Background(), X)
	} else {
		res, err = f.PredictMultiStep(context.Background(), X, horizon, icl.StochasticMean)
	}
	require.NoError(t, err)
	return f, res
}

func requireImage(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestFeatureNames(t *testing.T) {
	names, err := report.FeatureNames(nil, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"f0", "f1", "f2"}, names)

	names, err = report.FeatureNames([]string{"x", "y"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, names)

	_, err = report.FeatureNames([]string{"x"}, 2)
	assert.ErrorIs(t, err, scigoErrors.ErrDimensionMismatch)
}

func TestPlotSingleStep(t *testing.T) {
	_, res := forecast(t, 0)
	path := filepath.Join(t.TempDir(), "single.png")

	require.NoError(t, report.PlotSingleStep(res, []string{"sin", "cos"}, path))
	requireImage(t, path)
}

func TestPlotMultiStep(t *testing.T) {
	_, res := forecast(t, 6)
	path := filepath.Join(t.TempDir(), "multi.jpg")

	require.NoError(t, report.PlotMultiStep(res, nil, path))
	requireImage(t, path)
}

func TestPlotCalibration(t *testing.T) {
	f, res := forecast(t, 0)
	cal, err := f.Calibration(res, 3)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "calibration.png")
	require.NoError(t, report.PlotCalibration(cal, nil, path))
	requireImage(t, path)
}

func TestPlotErrors(t *testing.T) {
	dir := t.TempDir()

	err := report.PlotSingleStep(nil, nil, filepath.Join(dir, "a.png"))
	assert.ErrorIs(t, err, scigoErrors.ErrNotReady)

	err = report.PlotMultiStep(&dicl.Result{}, nil, filepath.Join(dir, "b.png"))
	assert.ErrorIs(t, err, scigoErrors.ErrNotReady)

	err = report.PlotCalibration(nil, nil, filepath.Join(dir, "c.png"))
	assert.ErrorIs(t, err, scigoErrors.ErrNotReady)

	_, res := forecast(t, 0)
	noMode := *res
	noMode.Bundle.Mode = nil
	err = report.PlotSingleStep(&noMode, nil, filepath.Join(dir, "m.png"))
	assert.ErrorIs(t, err, scigoErrors.ErrNotReady)

	err = report.PlotSingleStep(res, nil, filepath.Join(dir, "d.svg"))
	var valueErr *scigoErrors.ValueError
	assert.ErrorAs(t, err, &valueErr)

	err = report.PlotSingleStep(res, []string{"only"}, filepath.Join(dir, "e.png"))
	assert.ErrorIs(t, err, scigoErrors.ErrDimensionMismatch)
}

func TestWriteHTML(t *testing.T) {
	_, res := forecast(t, 5)

	var buf bytes.Buffer
	require.NoError(t, report.WriteHTML(&buf, res, []string{"sin", "cos"}))

	html := buf.String()
	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "sin")
	assert.Contains(t, html, "cos")
	assert.Contains(t, html, "Mean")
	assert.Contains(t, html, "Mode")

	assert.ErrorIs(t, report.WriteHTML(&buf, nil, nil), scigoErrors.ErrNotReady)
}
