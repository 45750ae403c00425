// Package pipeline chains invertible transformers, mirroring sklearn.pipeline.Pipeline
// restricted to transformer steps.
//
// The disentangling transform of the forecaster is a Pipeline of a MinMaxScaler, a
// StandardScaler and a reducer. Fit fits the stages in order, Transform applies them in
// order and InverseTransform applies their inverses in reverse order.
package pipeline

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/dicl/core/model"
	"github.com/ezoic/dicl/decomposition"
	"github.com/ezoic/dicl/pkg/errors"
	"github.com/ezoic/dicl/pkg/log"
	"github.com/ezoic/dicl/preprocessing"
)

// Step is a named stage of the pipeline.
type Step struct {
	Name        string
	Transformer model.Transformer
}

// Pipeline applies a fixed sequence of transformers.
//
// A Pipeline is itself a model.Transformer and can be nested.
type Pipeline struct {
	state  *model.StateManager
	logger log.Logger

	steps   []Step
	verbose bool

	namedSteps map[string]model.Transformer
}

// New creates a Pipeline from named steps.
func New(steps ...Step) *Pipeline {
	namedSteps := make(map[string]model.Transformer, len(steps))
	for _, step := range steps {
		namedSteps[step.Name] = step.Transformer
	}

	return &Pipeline{
		state:      model.NewStateManager(),
		logger:     log.GetLoggerWithName("Pipeline"),
		steps:      steps,
		namedSteps: namedSteps,
	}
}

// Make is the equivalent of sklearn.pipeline.make_pipeline: step names are derived
// from the lower-cased type name, with a numeric suffix on collisions.
func Make(transformers ...model.Transformer) *Pipeline {
	steps := make([]Step, len(transformers))
	seen := make(map[string]int)
	for i, t := range transformers {
		name := stepName(t)
		seen[name]++
		if seen[name] > 1 {
			name = fmt.Sprintf("%s-%d", name, seen[name])
		}
		steps[i] = Step{Name: name, Transformer: t}
	}
	return New(steps...)
}

func stepName(t model.Transformer) string {
	switch t.(type) {
	case *preprocessing.MinMaxScaler:
		return "minmaxscaler"
	case *preprocessing.StandardScaler:
		return "standardscaler"
	case *decomposition.PCA:
		return "pca"
	case *decomposition.Identity:
		return "identity"
	case *Pipeline:
		return "pipeline"
	default:
		return fmt.Sprintf("%T", t)
	}
}

// SetVerbose enables per-step timing logs during Fit.
func (p *Pipeline) SetVerbose(verbose bool) *Pipeline {
	p.verbose = verbose
	return p
}

// SetLogger routes the pipeline's logs to logger when it is a log.Logger, and hands
// logger to every step that accepts one, tagged with the step name.
func (p *Pipeline) SetLogger(logger interface{}) {
	base, ok := logger.(log.Logger)
	if ok {
		p.logger = base
	}
	for _, step := range p.steps {
		setter, accepts := step.Transformer.(interface{ SetLogger(interface{}) })
		if !accepts {
			continue
		}
		if ok {
			setter.SetLogger(base.With(log.ComponentKey, step.Name))
		} else {
			setter.SetLogger(logger)
		}
	}
}

// Fit fits every step on the output of the previous one.
func (p *Pipeline) Fit(X mat.Matrix) error {
	_, err := p.fitTransform(X, false)
	return err
}

// FitTransform fits every step and returns the output of the last one.
func (p *Pipeline) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	return p.fitTransform(X, true)
}

func (p *Pipeline) fitTransform(X mat.Matrix, transformLast bool) (mat.Matrix, error) {
	if len(p.steps) == 0 {
		return nil, errors.NewValueError("Pipeline.Fit", "pipeline has no steps")
	}

	p.state.Reset()
	Xt := X
	var err error
	for i, step := range p.steps {
		start := time.Now()
		if err = step.Transformer.Fit(Xt); err != nil {
			return nil, errors.Wrapf(err, "failed to fit step '%s'", step.Name)
		}

		if i < len(p.steps)-1 || transformLast {
			Xt, err = step.Transformer.Transform(Xt)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to transform at step '%s'", step.Name)
			}
		}

		if p.verbose {
			p.logger.Info("Pipeline step fitted",
				log.OperationKey, log.OperationFit,
				"step", step.Name,
				log.DurationMsKey, time.Since(start).Milliseconds(),
			)
		}
	}

	p.state.SetFitted()
	return Xt, nil
}

// Transform applies every step in order.
func (p *Pipeline) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !p.state.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "Transform")
	}

	Xt := X
	var err error
	for _, step := range p.steps {
		Xt, err = step.Transformer.Transform(Xt)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to transform at step '%s'", step.Name)
		}
	}
	return Xt, nil
}

// InverseTransform applies the inverse of every step in reverse order.
func (p *Pipeline) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !p.state.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "InverseTransform")
	}

	Xt := X
	var err error
	for i := len(p.steps) - 1; i >= 0; i-- {
		step := p.steps[i]
		Xt, err = step.Transformer.InverseTransform(Xt)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to inverse transform at step '%s'", step.Name)
		}
	}
	return Xt, nil
}

// IsFitted reports whether Fit succeeded, or every step was already fitted when imported.
func (p *Pipeline) IsFitted() bool {
	return p.state.IsFitted()
}

// GetParams returns the parameters of every step prefixed with the step name.
func (p *Pipeline) GetParams() map[string]interface{} {
	params := map[string]interface{}{
		"verbose": p.verbose,
	}
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name
		if getter, ok := step.Transformer.(interface {
			GetParams() map[string]interface{}
		}); ok {
			for key, value := range getter.GetParams() {
				params[fmt.Sprintf("%s__%s", step.Name, key)] = value
			}
		}
	}
	params["steps"] = names
	return params
}

// NamedSteps returns the steps keyed by name.
func (p *Pipeline) NamedSteps() map[string]model.Transformer {
	return p.namedSteps
}

// Steps returns a copy of the step list.
func (p *Pipeline) Steps() []Step {
	steps := make([]Step, len(p.steps))
	copy(steps, p.steps)
	return steps
}

// Last returns the final transformer, or nil for an empty pipeline.
func (p *Pipeline) Last() model.Transformer {
	if len(p.steps) == 0 {
		return nil
	}
	return p.steps[len(p.steps)-1].Transformer
}

// FromSKLearn rebuilds a fitted Pipeline exported from scikit-learn. Supported steps are
// MinMaxScaler, StandardScaler and PCA; the result is ready for Transform without Fit.
func FromSKLearn(sk *model.SKLearnModel) (*Pipeline, error) {
	exported, err := sk.PipelineSteps()
	if err != nil {
		return nil, err
	}

	steps := make([]model.Transformer, len(exported))
	for i := range exported {
		step := &exported[i]
		switch step.ModelSpec.Name {
		case "MinMaxScaler":
			steps[i], err = preprocessing.MinMaxScalerFromSKLearn(step)
		case "StandardScaler":
			steps[i], err = preprocessing.StandardScalerFromSKLearn(step)
		case "PCA":
			steps[i], err = decomposition.PCAFromSKLearn(step)
		default:
			err = errors.NewValueError("pipeline.FromSKLearn",
				fmt.Sprintf("unsupported step %q", step.ModelSpec.Name))
		}
		if err != nil {
			return nil, errors.Wrapf(err, "step %d", i)
		}
	}

	p := Make(steps...)
	p.state.SetFitted()
	return p, nil
}
