// Package icl defines the boundary between the forecaster and an in-context sequence
// predictor (the component trainer), and ships a moving-window reference trainer.
//
// A trainer receives the disentangled context of every component, rescales it into its
// numeric band, and reports for every context position the one-step-ahead mean, mode and
// dispersion, all in rescaled units together with the min/max used for rescaling. The
// forecaster inverts those values; it never looks inside the trainer.
package icl

import (
	"context"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/dicl/pkg/errors"
)

// GenerationMode selects how a trainer generates values.
type GenerationMode int

const (
	// Deterministic feeds back the mode without sampling.
	Deterministic GenerationMode = iota
	// StochasticMean samples around the mean and feeds it back.
	StochasticMean
	// StochasticMode samples and feeds back around the mode.
	StochasticMode
)

// Stochastic reports whether values are sampled.
func (m GenerationMode) Stochastic() bool {
	return m == StochasticMean || m == StochasticMode
}

// UsesMean reports whether the mean (true) or the mode (false) is fed back.
func (m GenerationMode) UsesMean() bool {
	return m == StochasticMean
}

func (m GenerationMode) String() string {
	switch m {
	case Deterministic:
		return "deterministic"
	case StochasticMean:
		return "stochastic_mean"
	case StochasticMode:
		return "stochastic_mode"
	default:
		return fmt.Sprintf("GenerationMode(%d)", int(m))
	}
}

// ParseGenerationMode parses the String form of a mode. An empty string is Deterministic.
func ParseGenerationMode(s string) (GenerationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deterministic", "":
		return Deterministic, nil
	case "stochastic_mean", "mean":
		return StochasticMean, nil
	case "stochastic_mode", "mode":
		return StochasticMode, nil
	default:
		return 0, errors.NewValidationError("generation_mode", "unknown mode", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m GenerationMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *GenerationMode) UnmarshalText(text []byte) error {
	mode, err := ParseGenerationMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// Context is the per-call input handed to a trainer. Every matrix is Length × n_components
// (extra rows are ignored).
type Context struct {
	// Series is the component context
	Series mat.Matrix
	// Mean and Sigma seed the trainer's running statistics; nil means Series and zeros
	Mean  mat.Matrix
	Sigma mat.Matrix
	// Length is the number of rows that make up the context
	Length int
	// UpdateMinMax recomputes the per-component rescaling frame from Series
	UpdateMinMax bool
}

// ComponentStatistics holds one component's predictions in rescaled units.
//
// Mean[t], Mode[t] and Sigma[t] describe the value following position t.
type ComponentStatistics struct {
	Mean  []float64
	Mode  []float64
	Sigma []float64

	RescalingMin float64
	RescalingMax float64
}

// Len returns the number of predicted positions.
func (s ComponentStatistics) Len() int {
	return len(s.Mean)
}

// Validate checks that the three series have equal length.
func (s ComponentStatistics) Validate(component int) error {
	if len(s.Mode) != len(s.Mean) {
		return errors.NewDimensionError(fmt.Sprintf("component %d mode", component), len(s.Mean), len(s.Mode), 0)
	}
	if len(s.Sigma) != len(s.Mean) {
		return errors.NewDimensionError(fmt.Sprintf("component %d sigma", component), len(s.Mean), len(s.Sigma), 0)
	}
	return nil
}

// Trainer is a stateful in-context sequence predictor working on one context at a time.
//
// Calls follow the order UpdateContext, Run, then ComputeStatistics or PredictLongHorizon.
// Implementations need not be safe for concurrent use.
type Trainer interface {
	// UpdateContext replaces the working context.
	UpdateContext(c Context) error
	// Run computes one-step-ahead predictions for every context position.
	Run(ctx context.Context, mode GenerationMode) error
	// ComputeStatistics returns the predictions of the last Run, one entry per component.
	ComputeStatistics() ([]ComponentStatistics, error)
	// PredictLongHorizon extends the last Run by horizon autoregressive steps. The result
	// covers the context followed by the horizon and keeps the rescaling frame of the context.
	PredictLongHorizon(ctx context.Context, horizon int, mode GenerationMode) ([]ComponentStatistics, error)
}

// Settings are the parameters the forecaster passes to a trainer factory.
type Settings struct {
	NComponents   int
	RescaleFactor float64
	UpShift       float64
}

// Factory builds a trainer for the forecaster's settings.
type Factory func(Settings) (Trainer, error)
