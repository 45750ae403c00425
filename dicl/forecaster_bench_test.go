package dicl_test

import (
	"context"
	"math"
	"testing"

	"github.com/pkg/profile"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/dicl/dicl"
	"github.com/ezoic/dicl/icl"
)

var benchRes *dicl.Result

func benchWindow(T, F int) *mat.Dense {
	X := mat.NewDense(T, F, nil)
	for t := 0; t < T; t++ {
		for j := 0; j < F; j++ {
			X.Set(t, j, math.Sin(0.05*float64(t*(j+1)))+0.1*float64(j))
		}
	}
	return X
}

func benchForecaster(b *testing.B, X *mat.Dense, nComponents int) *dicl.Forecaster {
	_, F := X.Dims()
	f, err := dicl.NewPCA(F, nComponents, icl.NewMovingWindowFactory(icl.DefaultWindow, 3), quietLogger())
	if err != nil {
		b.Fatal(err)
	}
	if err := f.FitDisentangler(X); err != nil {
		b.Fatal(err)
	}
	return f
}

func BenchmarkPredictSingleStep(b *testing.B) {
	X := benchWindow(1000, 16)
	f := benchForecaster(b, X, 4)

	var err error
	b.ResetTimer()
	for b.Loop() {
		benchRes, err = f.PredictSingleStep(context.Background(), X)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPredictMultiStep(b *testing.B) {
	X := benchWindow(1000, 16)
	f := benchForecaster(b, X, 4)

	var err error
	b.ResetTimer()
	defer profile.Start(profile.CPUProfile, profile.ProfilePath(b.TempDir()), profile.Quiet).Stop()
	for b.Loop() {
		benchRes, err = f.PredictMultiStep(context.Background(), X, 200, icl.StochasticMode)
		if err != nil {
			b.Fatal(err)
		}
	}
}
