package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ezoic/dicl/core/tensor"
	"github.com/ezoic/dicl/icl"
	scigoErrors "github.com/ezoic/dicl/pkg/errors"
	"github.com/ezoic/dicl/preprocessing"
)

// InverseFunc maps component-space rows back to feature space.
type InverseFunc func(mat.Matrix) (mat.Matrix, error)

type ksConfig struct {
	rescaler preprocessing.Rescaler
}

// KSOption configures ComputeKSMetric.
type KSOption func(*ksConfig)

// WithRescaler sets the band used to undo the trainer's rescaling (default 7.0 / 1.5).
func WithRescaler(r preprocessing.Rescaler) KSOption {
	return func(c *ksConfig) {
		c.rescaler = r
	}
}

// ComputeKSMetric measures how well the predicted distributions are calibrated.
//
// The component statistics are inverse-rescaled, then mean, mean-sigma and mean+sigma are
// mapped to feature space with inverse. Each feature is modelled as N(μ, σ) with
// σ = |upper - lower| / 2, and the ground truth is pushed through that CDF. For a
// calibrated forecaster the resulting quantiles are uniform on [0, 1]; the statistic is
// the Kolmogorov-Smirnov distance sup_u |ECDF(u) - u| over rows [burnin, end).
// A zero σ uses the step CDF of a point mass.
//
// Parameters:
//   - groundtruth: T × nFeatures observed values aligned with the statistics
//   - stats: nComponents entries of length T, in rescaled units
//   - inverse: component space to feature space
//   - burnin: number of leading rows to ignore
//
// Returns the KS distance per feature and the (T - burnin) × nFeatures quantile matrix.
func ComputeKSMetric(groundtruth mat.Matrix, stats []icl.ComponentStatistics, nComponents, nFeatures int,
	inverse InverseFunc, burnin int, opts ...KSOption) ([]float64, *mat.Dense, error) {
	cfg := ksConfig{rescaler: preprocessing.DefaultRescaler()}
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(stats) != nComponents {
		return nil, nil, scigoErrors.NewDimensionError("ComputeKSMetric", nComponents, len(stats), 1)
	}
	rows, cols := groundtruth.Dims()
	if cols != nFeatures {
		return nil, nil, scigoErrors.NewDimensionError("ComputeKSMetric", nFeatures, cols, 1)
	}
	if burnin < 0 || burnin >= rows {
		return nil, nil, scigoErrors.NewValueError("ComputeKSMetric",
			fmt.Sprintf("burnin must be in [0, %d), got %d", rows, burnin))
	}

	means := make([][]float64, nComponents)
	lower := make([][]float64, nComponents)
	upper := make([][]float64, nComponents)
	for k, s := range stats {
		if err := s.Validate(k); err != nil {
			return nil, nil, err
		}
		if s.Len() != rows {
			return nil, nil, scigoErrors.NewDimensionError("ComputeKSMetric", rows, s.Len(), 0)
		}
		frame := preprocessing.RescaleFrame{Min: s.RescalingMin, Max: s.RescalingMax}
		if err := preprocessing.CheckFrame("ComputeKSMetric", k, frame); err != nil {
			return nil, nil, err
		}

		means[k] = cfg.rescaler.Inverse(frame, s.Mean)
		sigma := cfg.rescaler.InverseSigma(frame, s.Sigma)
		lower[k] = make([]float64, rows)
		upper[k] = make([]float64, rows)
		for t := range sigma {
			lower[k][t] = means[k][t] - sigma[t]
			upper[k][t] = means[k][t] + sigma[t]
		}
	}

	mu, err := toFeatures(means, inverse)
	if err != nil {
		return nil, nil, err
	}
	lb, err := toFeatures(lower, inverse)
	if err != nil {
		return nil, nil, err
	}
	ub, err := toFeatures(upper, inverse)
	if err != nil {
		return nil, nil, err
	}
	if r, c := mu.Dims(); r != rows || c != nFeatures {
		return nil, nil, scigoErrors.NewDimensionError("ComputeKSMetric inverse", nFeatures, c, 1)
	}

	n := rows - burnin
	quantiles := mat.NewDense(n, nFeatures, nil)
	for t := burnin; t < rows; t++ {
		for f := 0; f < nFeatures; f++ {
			sigma := math.Abs(ub.At(t, f)-lb.At(t, f)) / 2
			quantiles.Set(t-burnin, f, pit(groundtruth.At(t, f), mu.At(t, f), sigma))
		}
	}

	ks := make([]float64, nFeatures)
	for f := range ks {
		ks[f] = KSUniform(tensor.Column(quantiles, f))
	}
	return ks, quantiles, nil
}

func toFeatures(cols [][]float64, inverse InverseFunc) (mat.Matrix, error) {
	z, err := tensor.HStack(cols)
	if err != nil {
		return nil, err
	}
	x, err := inverse(z)
	if err != nil {
		return nil, scigoErrors.Wrap(err, "ComputeKSMetric: inverse transform")
	}
	return x, nil
}

// pit is the probability integral transform of y under N(mu, sigma).
func pit(y, mu, sigma float64) float64 {
	if sigma == 0 {
		if y >= mu {
			return 1
		}
		return 0
	}
	return distuv.UnitNormal.CDF((y - mu) / sigma)
}

// KSUniform returns the Kolmogorov-Smirnov distance between the empirical distribution of
// q and the uniform distribution on [0, 1].
func KSUniform(q []float64) float64 {
	if len(q) == 0 {
		return 0
	}
	x, y := ECDF(q)

	n := float64(len(x))
	var d float64
	for i, v := range x {
		// y[i] is the CDF at v, i/n bounds its left limit from above
		d = math.Max(d, math.Max(y[i]-v, v-float64(i)/n))
	}
	return d
}

// ECDF returns the sorted values of q and the empirical CDF at each of them, the points
// of a calibration curve. Tied values share the same proportion.
func ECDF(q []float64) (x, y []float64) {
	x = append([]float64(nil), q...)
	stat.SortWeighted(x, nil)
	y = make([]float64, len(x))
	for i, v := range x {
		y[i] = stat.CDF(v, stat.Empirical, x, nil)
	}
	return x, y
}
