// Package metrics provides the error and calibration measures used to evaluate forecasts.
//
// Point error metrics:
//   - MSE, RMSE, MAE on vectors
//   - ColumnErrors: per-feature MSE/RMSE/MAE between two aligned matrices
//
// Calibration:
//   - ComputeKSMetric: Kolmogorov-Smirnov distance between the probability integral
//     transform of the ground truth and the uniform distribution, per feature
//
// Example usage:
//
//	mse, err := metrics.MSE(yTrue, yPred)
//	summaries, err := metrics.ColumnErrors(groundTruth, forecast, burnin)
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	scigoErrors "github.com/ezoic/dicl/pkg/errors"
)

// MSE calculates the Mean Squared Error between true and predicted values.
//
// Parameters:
//   - yTrue: True values as a vector
//   - yPred: Predicted values as a vector
//
// Errors:
//   - ValueError: if the vectors are empty
//   - ErrDimensionMismatch: if yTrue and yPred have different lengths
//
// Example:
//
//	mse, err := metrics.MSE(yTrue, yPred)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("MSE: %.4f\n", mse)
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	if err := checkVectors("MSE", yTrue, yPred); err != nil {
		return 0, err
	}

	var diff mat.VecDense
	diff.SubVec(yTrue, yPred)
	return mat.Dot(&diff, &diff) / float64(yTrue.Len()), nil
}

// RMSE calculates the Root Mean Squared Error, in the units of the data.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE calculates the Mean Absolute Error between true and predicted values.
//
// Errors:
//   - ValueError: if the vectors are empty
//   - ErrDimensionMismatch: if yTrue and yPred have different lengths
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	if err := checkVectors("MAE", yTrue, yPred); err != nil {
		return 0, err
	}

	var diff mat.VecDense
	diff.SubVec(yTrue, yPred)
	return mat.Norm(&diff, 1) / float64(yTrue.Len()), nil
}

func checkVectors(op string, yTrue, yPred *mat.VecDense) error {
	if yTrue.IsEmpty() || yTrue.Len() == 0 {
		return scigoErrors.NewValueError(op, "empty vector")
	}
	if yPred.IsEmpty() || yPred.Len() != yTrue.Len() {
		got := 0
		if !yPred.IsEmpty() {
			got = yPred.Len()
		}
		return scigoErrors.NewDimensionError(op, yTrue.Len(), got, 0)
	}
	return nil
}

// ErrorSummary holds the point error metrics of one feature.
type ErrorSummary struct {
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
}

// ColumnErrors computes MSE, RMSE and MAE for every column of two aligned matrices,
// over rows [start, end).
//
// Errors:
//   - ErrDimensionMismatch: if the matrices have different shapes
//   - ValueError: if start is outside [0, rows)
func ColumnErrors(yTrue, yPred mat.Matrix, start int) ([]ErrorSummary, error) {
	r, c := yTrue.Dims()
	pr, pc := yPred.Dims()
	if r != pr {
		return nil, scigoErrors.NewDimensionError("ColumnErrors", r, pr, 0)
	}
	if c != pc {
		return nil, scigoErrors.NewDimensionError("ColumnErrors", c, pc, 1)
	}
	if start < 0 || start >= r {
		return nil, scigoErrors.NewValueError("ColumnErrors", "start must be in [0, rows)")
	}

	out := make([]ErrorSummary, c)
	n := r - start
	for j := 0; j < c; j++ {
		truth := mat.NewVecDense(n, nil)
		pred := mat.NewVecDense(n, nil)
		for i := start; i < r; i++ {
			truth.SetVec(i-start, yTrue.At(i, j))
			pred.SetVec(i-start, yPred.At(i, j))
		}

		mse, err := MSE(truth, pred)
		if err != nil {
			return nil, err
		}
		mae, err := MAE(truth, pred)
		if err != nil {
			return nil, err
		}
		out[j] = ErrorSummary{MSE: mse, RMSE: math.Sqrt(mse), MAE: mae}
	}
	return out, nil
}
