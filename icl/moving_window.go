package icl

import (
	"context"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ezoic/dicl/core/tensor"
	"github.com/ezoic/dicl/pkg/errors"
	"github.com/ezoic/dicl/pkg/log"
	"github.com/ezoic/dicl/preprocessing"
)

// DefaultWindow is the number of past values averaged by a MovingWindowTrainer.
const DefaultWindow = 5

// MovingWindowTrainer is a baseline trainer that predicts each next value from the
// previous Window rescaled values: the mean is their average, the mode is the latest
// value and the dispersion their population standard deviation.
//
// Long horizons feed back the predicted mean or mode, drawn from N(center, sigma) when
// the generation mode is stochastic. Sampling draws from a distuv.Normal over a PCG
// source seeded at construction.
type MovingWindowTrainer struct {
	settings Settings
	window   int
	rescaler preprocessing.Rescaler
	src      *rand.PCG
	logger   log.Logger

	frames []preprocessing.RescaleFrame
	series [][]float64
	stats  []ComponentStatistics
}

// NewMovingWindowTrainer validates settings and creates a trainer.
func NewMovingWindowTrainer(settings Settings, window int, seed uint64) (*MovingWindowTrainer, error) {
	if settings.NComponents < 1 {
		return nil, errors.NewValidationError("n_components", "must be at least 1", settings.NComponents)
	}
	if window < 1 {
		return nil, errors.NewValidationError("window", "must be at least 1", window)
	}
	rescaler := preprocessing.NewRescaler(settings.RescaleFactor, settings.UpShift)
	if err := rescaler.Validate(); err != nil {
		return nil, err
	}

	return &MovingWindowTrainer{
		settings: settings,
		window:   window,
		rescaler: rescaler,
		src:      rand.NewPCG(seed, seed^0x9e3779b97f4a7c15),
		logger:   log.GetLoggerWithName("MovingWindowTrainer"),
	}, nil
}

// NewMovingWindowFactory returns a Factory building MovingWindowTrainers.
func NewMovingWindowFactory(window int, seed uint64) Factory {
	return func(s Settings) (Trainer, error) {
		return NewMovingWindowTrainer(s, window, seed)
	}
}

// Window returns the averaging window.
func (m *MovingWindowTrainer) Window() int {
	return m.window
}

// UpdateContext rescales the first c.Length rows of c.Series.
func (m *MovingWindowTrainer) UpdateContext(c Context) error {
	if c.Series == nil {
		return errors.NewModelError("MovingWindowTrainer.UpdateContext", "nil series", errors.ErrEmptyData)
	}
	rows, cols := c.Series.Dims()
	if cols != m.settings.NComponents {
		return errors.NewDimensionError("MovingWindowTrainer.UpdateContext", m.settings.NComponents, cols, 1)
	}
	if c.Length < 1 || c.Length > rows {
		return errors.NewValueError("MovingWindowTrainer.UpdateContext",
			fmt.Sprintf("context length %d outside [1, %d]", c.Length, rows))
	}
	for _, aux := range []mat.Matrix{c.Mean, c.Sigma} {
		if aux == nil {
			continue
		}
		if r, cc := aux.Dims(); r < c.Length || cc != cols {
			return errors.NewDimensionError("MovingWindowTrainer.UpdateContext", cols, cc, 1)
		}
	}
	if !c.UpdateMinMax && m.frames == nil {
		return errors.NewValueError("MovingWindowTrainer.UpdateContext",
			"no rescaling frame yet, the first context must set UpdateMinMax")
	}

	series, err := tensor.Rows(c.Series, 0, c.Length)
	if err != nil {
		return err
	}

	frames := m.frames
	if c.UpdateMinMax {
		frames = make([]preprocessing.RescaleFrame, cols)
		for k := 0; k < cols; k++ {
			if frames[k], err = preprocessing.FitFrame(k, tensor.Column(series, k)); err != nil {
				return err
			}
		}
	}

	m.frames = frames
	m.series = make([][]float64, cols)
	for k := 0; k < cols; k++ {
		m.series[k] = m.rescaler.Forward(frames[k], tensor.Column(series, k))
	}
	m.stats = nil

	m.logger.Debug("Context updated",
		log.ContextLengthKey, c.Length,
		log.ComponentsKey, cols,
	)
	return nil
}

// Run computes the rolling one-step-ahead statistics of the current context.
// The one-step pass does not sample, so mode only matters for PredictLongHorizon.
func (m *MovingWindowTrainer) Run(ctx context.Context, mode GenerationMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.series == nil {
		return errors.NewNotReadyError("MovingWindowTrainer.Run")
	}

	stats := make([]ComponentStatistics, len(m.series))
	for k, values := range m.series {
		s := ComponentStatistics{
			Mean:         make([]float64, len(values)),
			Mode:         make([]float64, len(values)),
			Sigma:        make([]float64, len(values)),
			RescalingMin: m.frames[k].Min,
			RescalingMax: m.frames[k].Max,
		}
		for t := range values {
			s.Mean[t], s.Mode[t], s.Sigma[t] = m.predictAt(values, t)
		}
		stats[k] = s
	}
	m.stats = stats

	m.logger.Debug("One-step pass done", log.ModeKey, mode.String())
	return nil
}

func (m *MovingWindowTrainer) predictAt(values []float64, t int) (mean, mode, sigma float64) {
	lo := t - m.window + 1
	if lo < 0 {
		lo = 0
	}
	mean, sigma = stat.PopMeanStdDev(values[lo:t+1], nil)
	return mean, values[t], sigma
}

// ComputeStatistics returns copies of the statistics of the last Run.
func (m *MovingWindowTrainer) ComputeStatistics() ([]ComponentStatistics, error) {
	if m.stats == nil {
		return nil, errors.NewNotReadyError("MovingWindowTrainer.ComputeStatistics")
	}
	out := make([]ComponentStatistics, len(m.stats))
	for k, s := range m.stats {
		out[k] = s.clone(0)
	}
	return out, nil
}

// PredictLongHorizon extends the statistics of the last Run by horizon steps. The stored
// context is left untouched.
func (m *MovingWindowTrainer) PredictLongHorizon(ctx context.Context, horizon int, mode GenerationMode) ([]ComponentStatistics, error) {
	if m.stats == nil {
		return nil, errors.NewNotReadyError("MovingWindowTrainer.PredictLongHorizon")
	}
	if horizon < 1 {
		return nil, errors.NewValueError("MovingWindowTrainer.PredictLongHorizon",
			fmt.Sprintf("horizon must be at least 1, got %d", horizon))
	}

	out := make([]ComponentStatistics, len(m.stats))
	for k, s := range m.stats {
		extended := s.clone(horizon)
		values := make([]float64, len(m.series[k]), len(m.series[k])+horizon)
		copy(values, m.series[k])

		for h := 0; h < horizon; h++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			last := len(values) - 1
			next := extended.Mode[last]
			if mode.UsesMean() {
				next = extended.Mean[last]
			}
			if mode.Stochastic() {
				next = distuv.Normal{Mu: next, Sigma: extended.Sigma[last], Src: m.src}.Rand()
			}
			values = append(values, next)

			mean, md, sigma := m.predictAt(values, last+1)
			extended.Mean = append(extended.Mean, mean)
			extended.Mode = append(extended.Mode, md)
			extended.Sigma = append(extended.Sigma, sigma)
		}
		out[k] = extended
	}

	m.logger.Debug("Long horizon done", log.HorizonKey, horizon, log.ModeKey, mode.String())
	return out, nil
}

func (s ComponentStatistics) clone(extra int) ComponentStatistics {
	cp := func(v []float64) []float64 {
		out := make([]float64, len(v), len(v)+extra)
		copy(out, v)
		return out
	}
	return ComponentStatistics{
		Mean:         cp(s.Mean),
		Mode:         cp(s.Mode),
		Sigma:        cp(s.Sigma),
		RescalingMin: s.RescalingMin,
		RescalingMax: s.RescalingMax,
	}
}
