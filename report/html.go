package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ezoic/dicl/dicl"
	"github.com/ezoic/dicl/pkg/errors"
)

// WriteHTML renders one interactive line chart per feature with the ground truth,
// the predicted mean and mode, and the lower and upper band.
func WriteHTML(w io.Writer, res *dicl.Result, names []string) error {
	if err := checkResult("WriteHTML", res); err != nil {
		return err
	}
	_, nf := res.Window.Dims()
	names, err := FeatureNames(names, nf)
	if err != nil {
		return err
	}

	x := make([]int, res.Steps())
	for i := range x {
		x[i] = i
	}

	page := components.NewPage()
	page.PageTitle = "Forecast"
	for f := 0; f < nf; f++ {
		s, err := featureSeries(res, f)
		if err != nil {
			return err
		}
		page.AddCharts(lineChart(names[f], res, x, s))
	}
	if err := page.Render(w); err != nil {
		return errors.Wrap(err, "failed to render forecast page")
	}
	return nil
}

func lineChart(title string, res *dicl.Result, x []int, s series) *charts.Line {
	subtitle := fmt.Sprintf("%s, context %d", res.Mode, res.ContextLength)
	if res.PredictionHorizon > 0 {
		subtitle += fmt.Sprintf(", horizon %d", res.PredictionHorizon)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Top: "bottom"}),
	)
	line.SetXAxis(x).
		AddSeries("Actual", lineData(s.truth)).
		AddSeries("Mean", lineData(s.mean)).
		AddSeries("Mode", lineData(s.mode)).
		AddSeries("Lower", lineData(s.lower)).
		AddSeries("Upper", lineData(s.upper))
	return line
}

func lineData(values []float64) []opts.LineData {
	data := make([]opts.LineData, len(values))
	for i, v := range values {
		data[i] = opts.LineData{Value: v}
	}
	return data
}
