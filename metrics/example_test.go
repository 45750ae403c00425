package metrics_test

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/dicl/metrics"
)

// ExampleMSE demonstrates Mean Squared Error calculation
func ExampleMSE() {
	yTrue := mat.NewVecDense(4, []float64{1.0, 2.0, 3.0, 4.0})
	yPred := mat.NewVecDense(4, []float64{1.1, 1.9, 3.2, 3.8})

	mse, err := metrics.MSE(yTrue, yPred)
	if err != nil {
		slog.Error("Test failed", "error", err)
		return
	}

	fmt.Printf("MSE: %.3f\n", mse)

	// Output: MSE: 0.025
}

// ExampleRMSE demonstrates Root Mean Squared Error calculation
func ExampleRMSE() {
	yTrue := mat.NewVecDense(3, []float64{10.0, 20.0, 30.0})
	yPred := mat.NewVecDense(3, []float64{12.0, 18.0, 32.0})

	rmse, err := metrics.RMSE(yTrue, yPred)
	if err != nil {
		slog.Error("Test failed", "error", err)
		return
	}

	fmt.Printf("RMSE: %.2f\n", rmse)

	// Output: RMSE: 2.00
}

// ExampleMAE demonstrates Mean Absolute Error calculation
func ExampleMAE() {
	yTrue := mat.NewVecDense(4, []float64{1.0, 2.0, 3.0, 4.0})
	yPred := mat.NewVecDense(4, []float64{0.8, 2.2, 2.9, 4.3})

	mae, err := metrics.MAE(yTrue, yPred)
	if err != nil {
		slog.Error("Test failed", "error", err)
		return
	}

	fmt.Printf("MAE: %.2f\n", mae)

	// Output: MAE: 0.20
}

// ExampleColumnErrors summarizes the error of every feature of a forecast
func ExampleColumnErrors() {
	yTrue := mat.NewDense(3, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
	})
	yPred := mat.NewDense(3, 2, []float64{
		1, 12,
		2, 18,
		4, 30,
	})

	summaries, err := metrics.ColumnErrors(yTrue, yPred, 0)
	if err != nil {
		slog.Error("Test failed", "error", err)
		return
	}

	for f, s := range summaries {
		fmt.Printf("f%d: MSE=%.3f RMSE=%.3f MAE=%.3f\n", f, s.MSE, s.RMSE, s.MAE)
	}

	// Output:
	// f0: MSE=0.333 RMSE=0.577 MAE=0.333
	// f1: MSE=2.667 RMSE=1.633 MAE=1.333
}

// ExampleKSUniform shows the distance of evenly spread quantiles from the uniform distribution
func ExampleKSUniform() {
	quantiles := []float64{0.1, 0.3, 0.5, 0.7, 0.9}

	fmt.Printf("KS: %.2f\n", metrics.KSUniform(quantiles))

	// Output: KS: 0.10
}
