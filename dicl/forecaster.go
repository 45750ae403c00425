// Package dicl implements disentangled in-context forecasting of multivariate time series.
//
// A Forecaster disentangles a raw window into components (MinMaxScaler, StandardScaler,
// reducer), hands the component context to an in-context trainer, and maps the trainer's
// rescaled mean, mode and dispersion back to feature space. Each predict call returns a
// Result that carries everything needed for metrics and reports.
//
// Example usage:
//
//	f, err := dicl.NewPCA(6, 3, icl.NewMovingWindowFactory(5, 1))
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := f.FitDisentangler(X); err != nil {
//		log.Fatal(err)
//	}
//	res, err := f.PredictSingleStep(ctx, X)
//	m, err := f.ComputeMetrics(res, 0)
package dicl

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/dicl/core/model"
	"github.com/ezoic/dicl/decomposition"
	"github.com/ezoic/dicl/icl"
	"github.com/ezoic/dicl/pkg/errors"
	"github.com/ezoic/dicl/pkg/log"
	"github.com/ezoic/dicl/preprocessing"
	"github.com/ezoic/dicl/sklearn/pipeline"
)

// Forecaster is the prediction-and-reconstruction engine.
//
// Predict calls on one Forecaster are serialised because they share the trainer.
type Forecaster struct {
	mu sync.Mutex

	name        string
	nFeatures   int
	nComponents int
	rescaler    preprocessing.Rescaler
	verbose     bool

	disentangler model.Transformer
	trainer      icl.Trainer
	logger       log.Logger
}

// Option configures a Forecaster.
type Option func(*Forecaster)

// WithRescaleFactor sets the width of the trainer's numeric band (default 7.0).
func WithRescaleFactor(factor float64) Option {
	return func(f *Forecaster) {
		f.rescaler.Factor = factor
	}
}

// WithUpShift sets the offset of the trainer's numeric band (default 1.5).
func WithUpShift(shift float64) Option {
	return func(f *Forecaster) {
		f.rescaler.UpShift = shift
	}
}

// WithLogger replaces the default named logger.
func WithLogger(logger log.Logger) Option {
	return func(f *Forecaster) {
		f.logger = logger
	}
}

// WithVerbose logs the fitting time of every disentangler stage.
func WithVerbose(verbose bool) Option {
	return func(f *Forecaster) {
		f.verbose = verbose
	}
}

// WithDisentangler replaces the whole disentangling pipeline, for example with one
// imported from scikit-learn by pipeline.FromSKLearn. Its output must have
// nComponents columns.
func WithDisentangler(t model.Transformer) Option {
	return func(f *Forecaster) {
		f.disentangler = t
	}
}

// New creates a Forecaster whose disentangler is MinMaxScaler, StandardScaler and reducer.
//
// Errors:
//   - ConfigError: if nFeatures, nComponents, the band or factory are invalid
//   - any error returned by factory, wrapped
func New(reducer model.Transformer, nFeatures, nComponents int, factory icl.Factory, opts ...Option) (*Forecaster, error) {
	return newForecaster("DICL", reducer, nFeatures, nComponents, factory, opts...)
}

// NewVICL creates the identity variant. nComponents must equal nFeatures.
func NewVICL(nFeatures, nComponents int, factory icl.Factory, opts ...Option) (*Forecaster, error) {
	if nComponents != nFeatures {
		return nil, errors.NewConfigError("n_components",
			fmt.Sprintf("identity variant needs n_components == n_features (%d), got %d", nFeatures, nComponents))
	}
	return newForecaster("vICL", decomposition.NewIdentity(), nFeatures, nComponents, factory, opts...)
}

// NewPCA creates the reduced variant with nComponents principal components.
func NewPCA(nFeatures, nComponents int, factory icl.Factory, opts ...Option) (*Forecaster, error) {
	return newForecaster("DICL-PCA", decomposition.NewPCA(nComponents), nFeatures, nComponents, factory, opts...)
}

// NewFromConfig creates the variant described by cfg. A nil factory uses the moving-window
// reference trainer with cfg.Window and cfg.Seed.
func NewFromConfig(cfg Config, factory icl.Factory, opts ...Option) (*Forecaster, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if factory == nil {
		factory = icl.NewMovingWindowFactory(cfg.Window, cfg.Seed)
	}
	opts = append([]Option{
		WithRescaleFactor(cfg.RescaleFactor),
		WithUpShift(cfg.UpShift),
		WithVerbose(cfg.Verbose),
	}, opts...)

	if cfg.Variant == VariantPCA {
		return NewPCA(cfg.NFeatures, cfg.NComponents, factory, opts...)
	}
	return NewVICL(cfg.NFeatures, cfg.NComponents, factory, opts...)
}

func newForecaster(name string, reducer model.Transformer, nFeatures, nComponents int, factory icl.Factory, opts ...Option) (*Forecaster, error) {
	if nFeatures < 1 {
		return nil, errors.NewConfigError("n_features", fmt.Sprintf("must be at least 1, got %d", nFeatures))
	}
	if nComponents < 1 || nComponents > nFeatures {
		return nil, errors.NewConfigError("n_components",
			fmt.Sprintf("must be in [1, %d], got %d", nFeatures, nComponents))
	}
	if factory == nil {
		return nil, errors.NewConfigError("trainer", "factory is nil")
	}

	f := &Forecaster{
		name:        name,
		nFeatures:   nFeatures,
		nComponents: nComponents,
		rescaler:    preprocessing.DefaultRescaler(),
		logger:      log.GetLoggerWithName(name),
	}
	for _, opt := range opts {
		opt(f)
	}
	if err := f.rescaler.Validate(); err != nil {
		return nil, errors.NewConfigError("rescale_factor", err.Error())
	}
	if f.disentangler == nil {
		if reducer == nil {
			return nil, errors.NewConfigError("reducer", "reducer is nil")
		}
		f.disentangler = pipeline.Make(
			preprocessing.NewMinMaxScalerDefault(),
			preprocessing.NewStandardScalerDefault(),
			reducer,
		)
	}

	trainer, err := factory(icl.Settings{
		NComponents:   nComponents,
		RescaleFactor: f.rescaler.Factor,
		UpShift:       f.rescaler.UpShift,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create trainer")
	}
	f.trainer = trainer
	f.logger = f.logger.With(
		log.ModelNameKey, name,
		log.FeaturesKey, nFeatures,
		log.ComponentsKey, nComponents,
	)

	if p, ok := f.disentangler.(*pipeline.Pipeline); ok && f.verbose {
		p.SetVerbose(true)
	}
	if setter, ok := f.disentangler.(interface{ SetLogger(interface{}) }); ok {
		setter.SetLogger(f.logger)
	}
	return f, nil
}

// Name returns the variant name (vICL, DICL-PCA or DICL).
func (f *Forecaster) Name() string { return f.name }

// NFeatures returns the configured number of raw features.
func (f *Forecaster) NFeatures() int { return f.nFeatures }

// NComponents returns the configured number of components.
func (f *Forecaster) NComponents() int { return f.nComponents }

// Rescaler returns the band used to talk to the trainer.
func (f *Forecaster) Rescaler() preprocessing.Rescaler { return f.rescaler }

// Disentangler returns the disentangling transform.
func (f *Forecaster) Disentangler() model.Transformer { return f.disentangler }

// FitDisentangler fits the disentangling transform on X.
func (f *Forecaster) FitDisentangler(X mat.Matrix) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkFeatures("FitDisentangler", X); err != nil {
		return err
	}
	if err := f.disentangler.Fit(X); err != nil {
		return errors.Wrap(err, "failed to fit disentangler")
	}

	r, _ := X.Dims()
	f.logger.Debug("Disentangler fitted",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, r,
	)
	return nil
}

// Transform maps raw rows (n × n_features) to components (n × n_components).
func (f *Forecaster) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := f.checkFeatures("Transform", X); err != nil {
		return nil, err
	}
	return f.transform(X)
}

// InverseTransform maps components (n × n_components) back to raw features.
func (f *Forecaster) InverseTransform(Z mat.Matrix) (mat.Matrix, error) {
	if isNil(Z) {
		return nil, errors.NewModelError("InverseTransform", "nil components", errors.ErrEmptyData)
	}
	if _, c := Z.Dims(); c != f.nComponents {
		return nil, errors.NewDimensionError("InverseTransform", f.nComponents, c, 1)
	}
	X, err := f.disentangler.InverseTransform(Z)
	if err != nil {
		return nil, errors.Wrap(err, "inverse transform")
	}
	return X, nil
}

func (f *Forecaster) transform(X mat.Matrix) (mat.Matrix, error) {
	Z, err := f.disentangler.Transform(X)
	if err != nil {
		return nil, errors.Wrap(err, "transform")
	}
	if _, c := Z.Dims(); c != f.nComponents {
		return nil, errors.NewDimensionError("Transform", f.nComponents, c, 1)
	}
	return Z, nil
}

func (f *Forecaster) checkFeatures(op string, X mat.Matrix) error {
	if isNil(X) {
		return errors.NewModelError(op, "nil window", errors.ErrEmptyData)
	}
	if _, c := X.Dims(); c != f.nFeatures {
		return errors.NewDimensionError(op, f.nFeatures, c, 1)
	}
	return nil
}

// isNil catches typed nil gonum matrices, whose Dims would dereference nil.
func isNil(X mat.Matrix) bool {
	switch m := X.(type) {
	case nil:
		return true
	case *mat.Dense:
		return m == nil
	case *mat.VecDense:
		return m == nil
	case *mat.SymDense:
		return m == nil
	case *mat.TriDense:
		return m == nil
	default:
		return false
	}
}
