package dicl

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/dicl/core/tensor"
	"github.com/ezoic/dicl/icl"
	"github.com/ezoic/dicl/pkg/errors"
	"github.com/ezoic/dicl/pkg/log"
	"github.com/ezoic/dicl/preprocessing"
)

// PredictSingleStep forecasts every row of X from the rows before it.
//
// The context X[:T-1] is disentangled and handed to the trainer, which returns rolling
// one-step-ahead statistics; these are inverse-rescaled per component and mapped back to
// feature space. The returned bundle is (T-1) × n_features.
//
// Errors:
//   - DimensionError: if X does not have n_features columns
//   - ValueError: if T < 2
//   - DegenerateRangeError: if a component of the context is constant
//   - any trainer error, wrapped
func (f *Forecaster) PredictSingleStep(ctx context.Context, X mat.Matrix) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	start := time.Now()
	T, err := f.checkWindow("PredictSingleStep", X, 2)
	if err != nil {
		return nil, err
	}

	mode := icl.StochasticMode
	if err := f.runContext(ctx, X, T-1, mode); err != nil {
		return nil, err
	}
	stats, err := f.trainer.ComputeStatistics()
	if err != nil {
		return nil, errors.Wrap(err, "trainer statistics")
	}

	bundle, err := f.reconstruct(stats, T-1)
	if err != nil {
		return nil, err
	}

	f.logger.Info("Single-step prediction done",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.ContextLengthKey, T,
		log.PredsKey, T-1,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return &Result{
		Window:        mat.DenseCopyOf(X),
		ContextLength: T,
		Mode:          mode,
		Bundle:        bundle,
		Statistics:    stats,
	}, nil
}

// PredictMultiStep forecasts the first T-1-horizon rows one step ahead, as
// PredictSingleStep does on X[:T-horizon], and the last horizon rows autoregressively.
// Context preparation and reconstruction are identical to PredictSingleStep; the whole
// call uses the rescaling frame of the shortened context.
//
// Errors:
//   - ValueError: if horizon is outside [1, T-1), or the trainer changed the frame
//   - the errors of PredictSingleStep
func (f *Forecaster) PredictMultiStep(ctx context.Context, X mat.Matrix, horizon int, mode icl.GenerationMode) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	start := time.Now()
	T, err := f.checkWindow("PredictMultiStep", X, 3)
	if err != nil {
		return nil, err
	}
	if horizon < 1 || horizon >= T-1 {
		return nil, errors.NewValueError("PredictMultiStep",
			fmt.Sprintf("prediction horizon must be in [1, %d), got %d", T-1, horizon))
	}

	if err := f.runContext(ctx, X, T-1-horizon, mode); err != nil {
		return nil, err
	}
	oneStep, err := f.trainer.ComputeStatistics()
	if err != nil {
		return nil, errors.Wrap(err, "trainer statistics")
	}
	stats, err := f.trainer.PredictLongHorizon(ctx, horizon, mode)
	if err != nil {
		return nil, errors.Wrap(err, "trainer long horizon")
	}
	if err := sameFrames(oneStep, stats); err != nil {
		return nil, err
	}

	bundle, err := f.reconstruct(stats, T-1)
	if err != nil {
		return nil, err
	}

	f.logger.Info("Multi-step prediction done",
		log.OperationKey, log.OperationPredictMultiStep,
		log.PhaseKey, log.PhaseInference,
		log.ContextLengthKey, T,
		log.HorizonKey, horizon,
		log.PredsKey, T-1,
		log.ModeKey, mode.String(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return &Result{
		Window:            mat.DenseCopyOf(X),
		ContextLength:     T,
		PredictionHorizon: horizon,
		Mode:              mode,
		Bundle:            bundle,
		Statistics:        stats,
	}, nil
}

func (f *Forecaster) checkWindow(op string, X mat.Matrix, minRows int) (int, error) {
	if err := f.checkFeatures(op, X); err != nil {
		return 0, err
	}
	T, _ := X.Dims()
	if T < minRows {
		return 0, errors.NewValueError(op, fmt.Sprintf("window needs at least %d rows, got %d", minRows, T))
	}
	return T, nil
}

// runContext disentangles X[:n] and runs the trainer's one-step pass on it.
func (f *Forecaster) runContext(ctx context.Context, X mat.Matrix, n int, mode icl.GenerationMode) error {
	window, err := tensor.Rows(X, 0, n)
	if err != nil {
		return err
	}
	Z, err := f.transform(window)
	if err != nil {
		return err
	}

	err = f.trainer.UpdateContext(icl.Context{
		Series:       Z,
		Mean:         mat.DenseCopyOf(Z),
		Sigma:        tensor.Zeros(n, f.nComponents),
		Length:       n,
		UpdateMinMax: true,
	})
	if err != nil {
		return errors.Wrap(err, "trainer context")
	}

	f.logger.Debug("Running trainer", log.ContextLengthKey, n, log.ModeKey, mode.String())
	if err := f.trainer.Run(ctx, mode); err != nil {
		return errors.Wrap(err, "trainer run")
	}
	return nil
}

func sameFrames(oneStep, extended []icl.ComponentStatistics) error {
	if len(oneStep) != len(extended) {
		return errors.NewDimensionError("PredictMultiStep", len(oneStep), len(extended), 1)
	}
	for k := range oneStep {
		if oneStep[k].RescalingMin != extended[k].RescalingMin || oneStep[k].RescalingMax != extended[k].RescalingMax {
			return errors.NewValueError("PredictMultiStep",
				fmt.Sprintf("component %d: long horizon rescaling frame [%g, %g] differs from context frame [%g, %g]",
					k, extended[k].RescalingMin, extended[k].RescalingMax, oneStep[k].RescalingMin, oneStep[k].RescalingMax))
		}
	}
	return nil
}

// reconstruct inverse-rescales the trainer statistics and maps them to feature space.
func (f *Forecaster) reconstruct(stats []icl.ComponentStatistics, rows int) (Bundle, error) {
	if len(stats) != f.nComponents {
		return Bundle{}, errors.NewDimensionError("reconstruct", f.nComponents, len(stats), 1)
	}

	means := make([][]float64, f.nComponents)
	modes := make([][]float64, f.nComponents)
	lower := make([][]float64, f.nComponents)
	upper := make([][]float64, f.nComponents)
	for k, s := range stats {
		if err := s.Validate(k); err != nil {
			return Bundle{}, err
		}
		if s.Len() != rows {
			return Bundle{}, errors.NewDimensionError(fmt.Sprintf("reconstruct component %d", k), rows, s.Len(), 0)
		}
		frame := preprocessing.RescaleFrame{Min: s.RescalingMin, Max: s.RescalingMax}
		if err := preprocessing.CheckFrame("reconstruct", k, frame); err != nil {
			return Bundle{}, err
		}

		means[k] = f.rescaler.Inverse(frame, s.Mean)
		modes[k] = f.rescaler.Inverse(frame, s.Mode)
		sigma := f.rescaler.InverseSigma(frame, s.Sigma)

		lower[k] = make([]float64, rows)
		upper[k] = make([]float64, rows)
		for t := 0; t < rows; t++ {
			for _, v := range [...]float64{means[k][t], modes[k][t], sigma[t]} {
				if err := errors.CheckScalar(fmt.Sprintf("reconstruct component %d step %d", k, t), v); err != nil {
					return Bundle{}, err
				}
			}
			lower[k][t] = means[k][t] - sigma[t]
			upper[k][t] = means[k][t] + sigma[t]
		}
	}

	var bundle Bundle
	for _, part := range []struct {
		cols [][]float64
		dst  **mat.Dense
	}{
		{means, &bundle.Mean},
		{modes, &bundle.Mode},
		{lower, &bundle.Lower},
		{upper, &bundle.Upper},
	} {
		Z, err := tensor.HStack(part.cols)
		if err != nil {
			return Bundle{}, err
		}
		X, err := f.InverseTransform(Z)
		if err != nil {
			return Bundle{}, err
		}
		*part.dst = mat.DenseCopyOf(X)
	}
	return bundle, nil
}
