// Command dicl forecasts a multivariate time series stored as CSV.
//
// The window is read from -input, one row per time step and one numeric column per
// feature. The forecaster is built from -config (YAML) or from the defaults with one
// component per column. Results are written as JSON, and optionally as PNG figures and
// an HTML page.
//
//	dicl -input window.csv -mode multi -horizon 20 -plot forecast.png -json out.json
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/goccy/go-json"
	"github.com/pkg/profile"

	"github.com/ezoic/dicl/core/model"
	"github.com/ezoic/dicl/dicl"
	"github.com/ezoic/dicl/icl"
	"github.com/ezoic/dicl/pkg/errors"
	"github.com/ezoic/dicl/pkg/log"
	"github.com/ezoic/dicl/report"
	"github.com/ezoic/dicl/sklearn/pipeline"
)

type options struct {
	config     string
	input      string
	fit        string
	sklearn    string
	mode       string
	generation string
	horizon    int
	burnin     int
	plot       string
	calPlot    string
	html       string
	output     string
	profile    string
	verbose    bool
}

// output is the JSON document written by the command.
type output struct {
	Forecaster  string        `json:"forecaster"`
	Components  int           `json:"n_components"`
	Forecast    dicl.Forecast `json:"forecast"`
	Metrics     *dicl.Metrics `json:"metrics"`
	Calibration []float64     `json:"ks_calibration,omitempty"`
	Features    []string      `json:"features"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.LogError(err, "dicl failed")
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("dicl", flag.ContinueOnError)
	fs.StringVar(&o.config, "config", "", "YAML configuration file")
	fs.StringVar(&o.input, "input", "", "CSV file holding the window (required)")
	fs.StringVar(&o.fit, "fit", "", "CSV file used to fit the disentangler (defaults to -input)")
	fs.StringVar(&o.sklearn, "sklearn", "", "fitted scikit-learn pipeline exported as JSON, replaces -fit")
	fs.StringVar(&o.mode, "mode", "single", "prediction mode: single or multi")
	fs.StringVar(&o.generation, "generation", "",
		"generation mode for -mode multi: deterministic, stochastic_mean or stochastic_mode (defaults to the config, deterministic)")
	fs.BoolVar(&o.verbose, "verbose", false, "log the fitting time of every disentangler stage")
	fs.IntVar(&o.horizon, "horizon", 1, "autoregressive steps for -mode multi")
	fs.IntVar(&o.burnin, "burnin", 0, "leading forecast rows excluded from the metrics")
	fs.StringVar(&o.plot, "plot", "", "forecast figure (.png, .jpg or .tiff)")
	fs.StringVar(&o.calPlot, "calibration", "", "calibration figure (.png, .jpg or .tiff)")
	fs.StringVar(&o.html, "html", "", "interactive HTML report")
	fs.StringVar(&o.output, "json", "", "JSON output file (defaults to stdout)")
	fs.StringVar(&o.profile, "profile", "", "write a CPU profile to this directory")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.input == "" {
		return o, errors.NewValueError("dicl", "-input is required")
	}
	if o.mode != "single" && o.mode != "multi" {
		return o, errors.NewValueError("dicl", fmt.Sprintf("unknown mode %q", o.mode))
	}
	return o, nil
}

func run(args []string, stdout io.Writer) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}
	if o.profile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(o.profile), profile.Quiet).Stop()
	}

	names, X, err := readCSVFile(o.input)
	if err != nil {
		return err
	}
	_, nf := X.Dims()

	cfg := dicl.DefaultConfig()
	cfg.NFeatures, cfg.NComponents = nf, nf
	if o.config != "" {
		if cfg, err = dicl.LoadConfigFile(o.config); err != nil {
			return err
		}
	}
	if o.verbose {
		cfg.Verbose = true
	}
	log.SetupLogger(cfg.LogLevel)
	logger := log.GetLoggerWithName("dicl")

	if o.generation != "" {
		if cfg.Mode, err = icl.ParseGenerationMode(o.generation); err != nil {
			return err
		}
	}

	var opts []dicl.Option
	if o.sklearn != "" {
		sk, err := model.LoadSKLearnModelFromFile(o.sklearn)
		if err != nil {
			return err
		}
		p, err := pipeline.FromSKLearn(sk)
		if err != nil {
			return err
		}
		opts = append(opts, dicl.WithDisentangler(p))
	}

	f, err := dicl.NewFromConfig(cfg, nil, opts...)
	if err != nil {
		return err
	}

	if o.sklearn == "" {
		fitX := X
		if o.fit != "" {
			if _, fitX, err = readCSVFile(o.fit); err != nil {
				return err
			}
		}
		if err := f.FitDisentangler(fitX); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var res *dicl.Result
	if o.mode == "multi" {
		res, err = f.PredictMultiStep(ctx, X, o.horizon, cfg.Mode)
	} else {
		res, err = f.PredictSingleStep(ctx, X)
	}
	if err != nil {
		return err
	}

	metrics, err := f.ComputeMetrics(res, o.burnin)
	if err != nil {
		return err
	}
	cal, err := f.Calibration(res, o.burnin)
	if err != nil {
		return err
	}
	logger.Info("Forecast evaluated",
		"forecaster", f.Name(),
		"mode", o.mode,
		"avg_agg_error", metrics.AverageAggSquaredError,
		"agg_ks", metrics.AggKS,
	)

	if err := writeReports(o, res, cal, names); err != nil {
		return err
	}

	forecast, err := res.Forecast()
	if err != nil {
		return err
	}
	doc := output{
		Forecaster:  f.Name(),
		Components:  f.NComponents(),
		Forecast:    forecast,
		Metrics:     metrics,
		Calibration: cal.KS,
		Features:    names,
	}
	return writeJSON(o.output, stdout, doc)
}

func writeReports(o options, res *dicl.Result, cal *dicl.Calibration, names []string) error {
	if o.plot != "" {
		plot := report.PlotSingleStep
		if o.mode == "multi" {
			plot = report.PlotMultiStep
		}
		if err := plot(res, names, o.plot); err != nil {
			return err
		}
	}
	if o.calPlot != "" {
		if err := report.PlotCalibration(cal, names, o.calPlot); err != nil {
			return err
		}
	}
	if o.html != "" {
		file, err := os.Create(o.html)
		if err != nil {
			return errors.Wrapf(err, "failed to create %s", o.html)
		}
		defer func() { _ = file.Close() }()
		if err := report.WriteHTML(file, res, names); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, stdout io.Writer, doc output) error {
	w := stdout
	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			return errors.Wrapf(err, "failed to create %s", path)
		}
		defer func() { _ = file.Close() }()
		w = file
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return errors.Wrap(err, "failed to encode output")
	}
	return nil
}
