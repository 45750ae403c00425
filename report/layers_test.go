package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeries(steps int) series {
	s := series{
		truth: make([]float64, steps),
		mean:  make([]float64, steps),
		mode:  make([]float64, steps),
		lower: make([]float64, steps),
		upper: make([]float64, steps),
	}
	for i := 0; i < steps; i++ {
		s.truth[i] = float64(i)
		s.mean[i] = float64(i) + 0.5
		s.mode[i] = float64(i) + 0.25
		s.lower[i] = float64(i) - 1
		s.upper[i] = float64(i) + 2
	}
	return s
}

func findLayer(t *testing.T, layers []layer, label string) layer {
	t.Helper()
	for _, l := range layers {
		if l.label == label {
			return l
		}
	}
	require.Failf(t, "layer not found", "%q", label)
	return layer{}
}

func TestForecastLayers_SingleStep(t *testing.T) {
	s := testSeries(10)
	layers := forecastLayers(s, 10)
	require.Len(t, layers, 4)

	mode := findLayer(t, layers, "mode")
	assert.Equal(t, dashedLine, mode.kind)
	assert.Equal(t, modeColor, mode.color)
	assert.Equal(t, 0, mode.from)
	assert.Equal(t, 10, mode.to)
	assert.Equal(t, s.mode, mode.values)

	truth := findLayer(t, layers, "groundtruth")
	assert.Equal(t, dashedLine, truth.kind)

	b := findLayer(t, layers, "mean ± std")
	assert.Equal(t, band, b.kind)
	assert.Equal(t, 10, b.to)

	for _, l := range layers {
		assert.NotContains(t, l.label, "multi-step")
	}
}

func TestForecastLayers_MultiStep(t *testing.T) {
	s := testSeries(10)
	layers := forecastLayers(s, 7)
	require.Len(t, layers, 6)

	oneStep := findLayer(t, layers, "mean ± std")
	assert.Equal(t, 0, oneStep.from)
	assert.Equal(t, 7, oneStep.to)

	tail := findLayer(t, layers, "multi-step ± std")
	assert.Equal(t, band, tail.kind)
	assert.Equal(t, 6, tail.from, "the tail band starts on the last one-step row")
	assert.Equal(t, 10, tail.to)
	assert.Equal(t, s.lower, tail.lower)
	assert.Equal(t, s.upper, tail.upper)
	assert.NotEqual(t, oneStep.color, tail.color)

	tailMean := findLayer(t, layers, "multi-step")
	assert.Equal(t, solidLine, tailMean.kind)
	assert.Equal(t, 6, tailMean.from)

	mode := findLayer(t, layers, "mode")
	assert.Equal(t, 10, mode.to, "the mode spans the autoregressive tail too")
}
