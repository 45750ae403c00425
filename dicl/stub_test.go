package dicl_test

import (
	"context"
	"io"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/dicl/core/tensor"
	"github.com/ezoic/dicl/dicl"
	"github.com/ezoic/dicl/icl"
	"github.com/ezoic/dicl/pkg/log"
	"github.com/ezoic/dicl/preprocessing"
)

// constantTrainer predicts the rescaled context mean with zero dispersion at every step.
type constantTrainer struct {
	settings icl.Settings
	frames   []preprocessing.RescaleFrame
	means    []float64
	length   int

	updates  int
	runErr   error
	mutate   func([]icl.ComponentStatistics)
	mutateLH func([]icl.ComponentStatistics)
}

func (c *constantTrainer) UpdateContext(ctx icl.Context) error {
	c.updates++
	rescaler := preprocessing.NewRescaler(c.settings.RescaleFactor, c.settings.UpShift)
	c.length = ctx.Length
	c.frames = make([]preprocessing.RescaleFrame, c.settings.NComponents)
	c.means = make([]float64, c.settings.NComponents)
	for k := range c.frames {
		col := tensor.Column(ctx.Series, k)[:ctx.Length]
		frame, err := preprocessing.FitFrame(k, col)
		if err != nil {
			return err
		}
		c.frames[k] = frame
		r := rescaler.Forward(frame, col)
		c.means[k] = floats.Sum(r) / float64(len(r))
	}
	return nil
}

func (c *constantTrainer) Run(context.Context, icl.GenerationMode) error {
	return c.runErr
}

func (c *constantTrainer) stats(n int) []icl.ComponentStatistics {
	out := make([]icl.ComponentStatistics, len(c.means))
	for k, m := range c.means {
		s := icl.ComponentStatistics{
			Mean:         make([]float64, n),
			Mode:         make([]float64, n),
			Sigma:        make([]float64, n),
			RescalingMin: c.frames[k].Min,
			RescalingMax: c.frames[k].Max,
		}
		for t := 0; t < n; t++ {
			s.Mean[t], s.Mode[t] = m, m
		}
		out[k] = s
	}
	return out
}

func (c *constantTrainer) ComputeStatistics() ([]icl.ComponentStatistics, error) {
	out := c.stats(c.length)
	if c.mutate != nil {
		c.mutate(out)
	}
	return out, nil
}

func (c *constantTrainer) PredictLongHorizon(_ context.Context, horizon int, _ icl.GenerationMode) ([]icl.ComponentStatistics, error) {
	out := c.stats(c.length + horizon)
	if c.mutateLH != nil {
		c.mutateLH(out)
	}
	return out, nil
}

// stubFactory returns a factory and a pointer to the trainer it builds.
func stubFactory() (icl.Factory, **constantTrainer) {
	var built *constantTrainer
	return func(s icl.Settings) (icl.Trainer, error) {
		built = &constantTrainer{settings: s}
		return built, nil
	}, &built
}

func quietLogger() dicl.Option {
	return dicl.WithLogger(log.NewZerologProviderWithWriter(io.Discard, log.ToLogLevel("debug")).GetLogger())
}

// window returns a T × 2 window of smooth, non-constant series.
func window(T int) *mat.Dense {
	X := mat.NewDense(T, 2, nil)
	for t := 0; t < T; t++ {
		X.Set(t, 0, math.Sin(0.5*float64(t)))
		X.Set(t, 1, math.Cos(0.3*float64(t))+0.1*float64(t))
	}
	return X
}

// window3 returns a T × 3 window whose third feature mixes the first two.
func window3(T int) *mat.Dense {
	X := mat.NewDense(T, 3, nil)
	for t := 0; t < T; t++ {
		a := math.Sin(0.4 * float64(t))
		b := math.Cos(0.25*float64(t)) + 0.05*float64(t)
		X.Set(t, 0, a)
		X.Set(t, 1, b)
		X.Set(t, 2, 0.5*a-b+0.01*float64(t*t%7))
	}
	return X
}
