package dicl

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ezoic/dicl/core/tensor"
	"github.com/ezoic/dicl/metrics"
	"github.com/ezoic/dicl/pkg/errors"
	"github.com/ezoic/dicl/pkg/log"
)

// Metrics are the error and calibration measures of one Result.
//
// Averages are taken over steps [Burnin, T-1). The "aggregate squared error" of a step
// is the Euclidean norm of its error vector.
type Metrics struct {
	Burnin int `json:"burnin"`

	AverageAggSquaredError float64   `json:"average_agg_squared_error"`
	AggSquaredError        []float64 `json:"agg_squared_error"`

	AveragePerDimSquaredError []float64  `json:"average_perdim_squared_error"`
	PerDimSquaredError        *mat.Dense `json:"-"`

	PerDimKS []float64 `json:"perdim_ks"`
	AggKS    float64   `json:"agg_ks"`

	// PerDim holds MSE, RMSE and MAE per feature over the same steps
	PerDim []metrics.ErrorSummary `json:"perdim_errors"`
}

// Calibration is the probability integral transform of the ground truth under the
// predicted distributions.
type Calibration struct {
	KS []float64
	// Quantiles is (T-1-burnin) × n_features
	Quantiles *mat.Dense
}

// ComputeMetrics evaluates res against its own window shifted by one row.
//
// Errors:
//   - NotReadyError: if res is nil or holds no forecast
//   - ValueError: if burnin is outside [0, T-1)
//   - DimensionError: if res does not match the forecaster
func (f *Forecaster) ComputeMetrics(res *Result, burnin int) (*Metrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	start := time.Now()
	truth, err := f.checkResult("ComputeMetrics", res, burnin)
	if err != nil {
		return nil, err
	}

	steps, nf := truth.Dims()
	m := &Metrics{
		Burnin:             burnin,
		AggSquaredError:    make([]float64, steps),
		PerDimSquaredError: mat.NewDense(steps, nf, nil),
	}

	diff := make([]float64, nf)
	for t := 0; t < steps; t++ {
		floats.SubTo(diff, tensor.Row(truth, t), tensor.Row(res.Bundle.Mean, t))
		m.AggSquaredError[t] = floats.Norm(diff, 2)
		for j, d := range diff {
			m.PerDimSquaredError.Set(t, j, d*d)
		}
	}

	m.AverageAggSquaredError = stat.Mean(m.AggSquaredError[burnin:], nil)
	m.AveragePerDimSquaredError = make([]float64, nf)
	for j := range m.AveragePerDimSquaredError {
		m.AveragePerDimSquaredError[j] = stat.Mean(tensor.Column(m.PerDimSquaredError, j)[burnin:], nil)
	}

	if m.PerDim, err = metrics.ColumnErrors(truth, res.Bundle.Mean, burnin); err != nil {
		return nil, err
	}

	calibration, err := f.calibration(res, truth, burnin)
	if err != nil {
		return nil, err
	}
	m.PerDimKS = calibration.KS
	m.AggKS = stat.Mean(calibration.KS, nil)

	f.logger.Info("Metrics computed",
		log.OperationKey, log.OperationMetrics,
		log.PhaseKey, log.PhaseEvaluate,
		"burnin", burnin,
		"agg_ks", m.AggKS,
		"average_agg_squared_error", m.AverageAggSquaredError,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return m, nil
}

// Calibration returns the per-feature KS statistic and the PIT quantiles of res.
func (f *Forecaster) Calibration(res *Result, burnin int) (*Calibration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	truth, err := f.checkResult("Calibration", res, burnin)
	if err != nil {
		return nil, err
	}
	return f.calibration(res, truth, burnin)
}

func (f *Forecaster) calibration(res *Result, truth *mat.Dense, burnin int) (*Calibration, error) {
	ks, quantiles, err := metrics.ComputeKSMetric(truth, res.Statistics, f.nComponents, f.nFeatures,
		f.InverseTransform, burnin, metrics.WithRescaler(f.rescaler))
	if err != nil {
		return nil, errors.Wrap(err, "calibration")
	}
	return &Calibration{KS: ks, Quantiles: quantiles}, nil
}

func (f *Forecaster) checkResult(op string, res *Result, burnin int) (*mat.Dense, error) {
	if res == nil || res.Bundle.Mean == nil || res.Window == nil || len(res.Statistics) == 0 {
		return nil, errors.NewNotReadyError(op)
	}
	if _, c := res.Window.Dims(); c != f.nFeatures {
		return nil, errors.NewDimensionError(op, f.nFeatures, c, 1)
	}

	truth, err := res.GroundTruth()
	if err != nil {
		return nil, err
	}
	steps, _ := truth.Dims()
	if r, _ := res.Bundle.Mean.Dims(); r != steps {
		return nil, errors.NewDimensionError(op, steps, r, 0)
	}
	if burnin < 0 || burnin >= steps {
		return nil, errors.NewValueError(op, fmt.Sprintf("burnin must be in [0, %d), got %d", steps, burnin))
	}
	return truth, nil
}
