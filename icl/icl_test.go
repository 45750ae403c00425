package icl_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/dicl/icl"
	scigoErrors "github.com/ezoic/dicl/pkg/errors"
)

const epsilon = 1e-12

func defaultSettings(n int) icl.Settings {
	return icl.Settings{NComponents: n, RescaleFactor: 7, UpShift: 1.5}
}

func ramp(n int) *mat.Dense {
	data := make([]float64, n)
	for i := range data {
		data[i] = float64(i)
	}
	return mat.NewDense(n, 1, data)
}

func TestGenerationMode(t *testing.T) {
	tests := []struct {
		mode       icl.GenerationMode
		stochastic bool
		usesMean   bool
		name       string
	}{
		{icl.Deterministic, false, false, "deterministic"},
		{icl.StochasticMean, true, true, "stochastic_mean"},
		{icl.StochasticMode, true, false, "stochastic_mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.stochastic, tt.mode.Stochastic())
			assert.Equal(t, tt.usesMean, tt.mode.UsesMean())
			assert.Equal(t, tt.name, tt.mode.String())

			parsed, err := icl.ParseGenerationMode(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.mode, parsed)

			text, err := tt.mode.MarshalText()
			require.NoError(t, err)
			var back icl.GenerationMode
			require.NoError(t, back.UnmarshalText(text))
			assert.Equal(t, tt.mode, back)
		})
	}

	_, err := icl.ParseGenerationMode("greedy")
	assert.Error(t, err)

	empty, err := icl.ParseGenerationMode("")
	require.NoError(t, err)
	assert.Equal(t, icl.Deterministic, empty)
}

func TestMovingWindowTrainer_Run(t *testing.T) {
	trainer, err := icl.NewMovingWindowTrainer(defaultSettings(1), 2, 1)
	require.NoError(t, err)

	require.NoError(t, trainer.UpdateContext(icl.Context{Series: ramp(5), Length: 5, UpdateMinMax: true}))
	require.NoError(t, trainer.Run(context.Background(), icl.StochasticMode))

	stats, err := trainer.ComputeStatistics()
	require.NoError(t, err)
	require.Len(t, stats, 1)

	s := stats[0]
	assert.Equal(t, 0.0, s.RescalingMin)
	assert.Equal(t, 4.0, s.RescalingMax)
	require.NoError(t, s.Validate(0))
	assert.Equal(t, 5, s.Len())

	// rescaled context: [1.5, 3.25, 5, 6.75, 8.5]
	assert.InDeltaSlice(t, []float64{1.5, 3.25, 5, 6.75, 8.5}, s.Mode, epsilon)
	assert.InDeltaSlice(t, []float64{1.5, 2.375, 4.125, 5.875, 7.625}, s.Mean, epsilon)
	assert.InDeltaSlice(t, []float64{0, 0.875, 0.875, 0.875, 0.875}, s.Sigma, epsilon)
}

func TestMovingWindowTrainer_LongHorizon(t *testing.T) {
	trainer, err := icl.NewMovingWindowTrainer(defaultSettings(1), 1, 1)
	require.NoError(t, err)
	require.NoError(t, trainer.UpdateContext(icl.Context{Series: ramp(4), Length: 4, UpdateMinMax: true}))
	require.NoError(t, trainer.Run(context.Background(), icl.Deterministic))

	stats, err := trainer.PredictLongHorizon(context.Background(), 3, icl.Deterministic)
	require.NoError(t, err)
	require.Len(t, stats, 1)

	s := stats[0]
	assert.Equal(t, 7, s.Len())
	require.NoError(t, s.Validate(0))
	// window 1 repeats the last value with zero dispersion
	for i := 3; i < 7; i++ {
		assert.InDelta(t, 8.5, s.Mean[i], epsilon)
		assert.InDelta(t, 8.5, s.Mode[i], epsilon)
		assert.Equal(t, 0.0, s.Sigma[i])
	}
	assert.Equal(t, 0.0, s.RescalingMin)
	assert.Equal(t, 3.0, s.RescalingMax)

	// one-step statistics are untouched
	oneStep, err := trainer.ComputeStatistics()
	require.NoError(t, err)
	assert.Equal(t, 4, oneStep[0].Len())
}

func TestMovingWindowTrainer_SeededSampling(t *testing.T) {
	run := func(seed uint64) []float64 {
		trainer, err := icl.NewMovingWindowTrainer(defaultSettings(1), 3, seed)
		require.NoError(t, err)
		require.NoError(t, trainer.UpdateContext(icl.Context{
			Series:       mat.NewDense(6, 1, []float64{0, 2, 1, 3, 2, 4}),
			Length:       6,
			UpdateMinMax: true,
		}))
		require.NoError(t, trainer.Run(context.Background(), icl.StochasticMean))
		stats, err := trainer.PredictLongHorizon(context.Background(), 4, icl.StochasticMean)
		require.NoError(t, err)
		return stats[0].Mean
	}

	assert.Equal(t, run(42), run(42))
	assert.NotEqual(t, run(42), run(7))
}

func TestMovingWindowTrainer_Errors(t *testing.T) {
	_, err := icl.NewMovingWindowTrainer(defaultSettings(0), 2, 1)
	assert.Error(t, err)
	_, err = icl.NewMovingWindowTrainer(defaultSettings(1), 0, 1)
	assert.Error(t, err)
	_, err = icl.NewMovingWindowTrainer(icl.Settings{NComponents: 1, RescaleFactor: -1}, 2, 1)
	assert.Error(t, err)

	trainer, err := icl.NewMovingWindowFactory(2, 1)(defaultSettings(2))
	require.NoError(t, err)

	_, err = trainer.ComputeStatistics()
	assert.ErrorIs(t, err, scigoErrors.ErrNotReady)
	assert.ErrorIs(t, trainer.Run(context.Background(), icl.Deterministic), scigoErrors.ErrNotReady)

	err = trainer.UpdateContext(icl.Context{Series: ramp(3), Length: 3, UpdateMinMax: true})
	assert.ErrorIs(t, err, scigoErrors.ErrShapeMismatch)

	two := mat.NewDense(3, 2, []float64{1, 5, 2, 5, 3, 5})
	err = trainer.UpdateContext(icl.Context{Series: two, Length: 3, UpdateMinMax: true})
	assert.ErrorIs(t, err, scigoErrors.ErrDegenerateRange)

	err = trainer.UpdateContext(icl.Context{Series: two, Length: 4, UpdateMinMax: true})
	var valueErr *scigoErrors.ValueError
	assert.ErrorAs(t, err, &valueErr)

	err = trainer.UpdateContext(icl.Context{Series: two, Length: 3})
	assert.ErrorAs(t, err, &valueErr, "first context without a frame")

	ok := mat.NewDense(3, 2, []float64{1, 5, 2, 6, 3, 4})
	require.NoError(t, trainer.UpdateContext(icl.Context{Series: ok, Length: 3, UpdateMinMax: true}))
	require.NoError(t, trainer.Run(context.Background(), icl.Deterministic))

	_, err = trainer.PredictLongHorizon(context.Background(), 0, icl.Deterministic)
	assert.ErrorAs(t, err, &valueErr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = trainer.PredictLongHorizon(ctx, 2, icl.Deterministic)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMovingWindowTrainer_KeepsFrame(t *testing.T) {
	trainer, err := icl.NewMovingWindowTrainer(defaultSettings(1), 2, 1)
	require.NoError(t, err)
	require.NoError(t, trainer.UpdateContext(icl.Context{Series: ramp(5), Length: 5, UpdateMinMax: true}))

	// a shorter context reuses the [0, 4] frame
	require.NoError(t, trainer.UpdateContext(icl.Context{Series: ramp(3), Length: 3}))
	require.NoError(t, trainer.Run(context.Background(), icl.Deterministic))

	stats, err := trainer.ComputeStatistics()
	require.NoError(t, err)
	assert.Equal(t, 4.0, stats[0].RescalingMax)
	assert.InDelta(t, 5.0, stats[0].Mode[2], epsilon)
}
