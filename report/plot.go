package report

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/ezoic/dicl/core/tensor"
	"github.com/ezoic/dicl/dicl"
	"github.com/ezoic/dicl/metrics"
	"github.com/ezoic/dicl/pkg/errors"
)

var (
	truthColor     = color.NRGBA{R: 214, G: 39, B: 40, A: 255}
	modeColor      = color.NRGBA{A: 128}
	oneStepColor   = plotutil.Color(0)
	multiStepColor = plotutil.Color(1)

	dashes = []vg.Length{vg.Points(4), vg.Points(2)}
)

type layerKind int

const (
	solidLine layerKind = iota
	dashedLine
	band
)

// layer is one element of a feature panel drawn over steps [from, to).
type layer struct {
	label    string
	kind     layerKind
	color    color.Color
	from, to int
	// values for lines, lower and upper for bands
	values       []float64
	lower, upper []float64
}

// forecastLayers lays out one feature panel. The ground truth and the mode span every
// step. The one-step mean and its band stop at horizonStart; when horizonStart is before
// the last step the autoregressive tail gets its own mean and band, starting one step
// earlier so that both parts connect.
func forecastLayers(s series, horizonStart int) []layer {
	steps := len(s.truth)
	layers := []layer{
		{label: "groundtruth", kind: dashedLine, color: truthColor, from: 0, to: steps, values: s.truth},
		{label: "mode", kind: dashedLine, color: modeColor, from: 0, to: steps, values: s.mode},
	}
	if horizonStart > 0 {
		layers = append(layers,
			layer{label: "mean ± std", kind: band, color: fade(oneStepColor), from: 0, to: horizonStart, lower: s.lower, upper: s.upper},
			layer{label: "mean", kind: solidLine, color: oneStepColor, from: 0, to: horizonStart, values: s.mean},
		)
	}
	if horizonStart < steps {
		from := horizonStart - 1
		if from < 0 {
			from = 0
		}
		layers = append(layers,
			layer{label: "multi-step ± std", kind: band, color: fade(multiStepColor), from: from, to: steps, lower: s.lower, upper: s.upper},
			layer{label: "multi-step", kind: solidLine, color: multiStepColor, from: from, to: steps, values: s.mean},
		)
	}
	return layers
}

// fade returns c with the transparency used for bands.
func fade(c color.Color) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 77}
}

// PlotSingleStep draws, for every feature, the ground truth, the mode, and the predicted
// mean with its mean ± sigma band. The format follows the extension of path (.png, .jpg, .tiff).
func PlotSingleStep(res *dicl.Result, names []string, path string) error {
	if err := checkResult("PlotSingleStep", res); err != nil {
		return err
	}
	return save(path, res, names, res.Steps())
}

// PlotMultiStep is PlotSingleStep with the autoregressive tail and its band drawn in
// their own colour.
func PlotMultiStep(res *dicl.Result, names []string, path string) error {
	if err := checkResult("PlotMultiStep", res); err != nil {
		return err
	}
	return save(path, res, names, res.HorizonStart())
}

// PlotCalibration draws the empirical CDF of the PIT quantiles of every feature against
// the uniform CDF.
func PlotCalibration(cal *dicl.Calibration, names []string, path string) error {
	if cal == nil || cal.Quantiles == nil {
		return errors.NewNotReadyError("PlotCalibration")
	}
	_, nf := cal.Quantiles.Dims()
	names, err := FeatureNames(names, nf)
	if err != nil {
		return err
	}
	if len(cal.KS) != nf {
		return errors.NewDimensionError("PlotCalibration", nf, len(cal.KS), 1)
	}

	plots := make([]*plot.Plot, nf)
	for f := 0; f < nf; f++ {
		x, y := metrics.ECDF(tensor.Column(cal.Quantiles, f))
		pts := make(plotter.XYs, 0, len(x)+1)
		pts = append(pts, plotter.XY{X: 0, Y: 0})
		for i := range x {
			pts = append(pts, plotter.XY{X: x[i], Y: y[i]})
		}

		p := plot.New()
		p.Title.Text = names[f]
		p.X.Label.Text = "quantile"
		p.Y.Label.Text = "proportion"
		p.X.Min, p.X.Max, p.Y.Min, p.Y.Max = 0, 1, 0, 1

		ecdf, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		ecdf.Color = oneStepColor
		ecdf.StepStyle = plotter.PostStep

		uniform, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
		if err != nil {
			return err
		}
		uniform.Dashes = dashes

		p.Add(uniform, ecdf)
		p.Legend.Add("uniform", uniform)
		p.Legend.Add(ksLabel(cal.KS[f]), ecdf)
		p.Legend.Top = false
		p.Legend.Left = false
		plots[f] = p
	}
	return writeGrid(path, plots)
}

func ksLabel(ks float64) string {
	return fmt.Sprintf("ks=%.3f", ks)
}

func save(path string, res *dicl.Result, names []string, horizonStart int) error {
	_, nf := res.Window.Dims()
	names, err := FeatureNames(names, nf)
	if err != nil {
		return err
	}

	plots := make([]*plot.Plot, nf)
	for f := 0; f < nf; f++ {
		s, err := featureSeries(res, f)
		if err != nil {
			return err
		}
		p := plot.New()
		p.Title.Text = names[f]
		p.X.Label.Text = "step"
		if err := addLayers(p, forecastLayers(s, horizonStart)); err != nil {
			return errors.Wrapf(err, "feature %s", names[f])
		}
		plots[f] = p
	}
	return writeGrid(path, plots)
}

// addLayers adds bands first so that lines stay visible on top of them.
func addLayers(p *plot.Plot, layers []layer) error {
	for _, kind := range []layerKind{band, dashedLine, solidLine} {
		for _, l := range layers {
			if l.kind != kind {
				continue
			}
			if l.kind == band {
				pts := make(plotter.XYs, 0, 2*(l.to-l.from))
				pts = append(pts, xys(l.upper, l.from, l.to)...)
				for i := l.to - 1; i >= l.from; i-- {
					pts = append(pts, plotter.XY{X: float64(i), Y: l.lower[i]})
				}
				poly, err := plotter.NewPolygon(pts)
				if err != nil {
					return err
				}
				poly.Color = l.color
				poly.LineStyle.Width = 0
				p.Add(poly)
				p.Legend.Add(l.label, poly)
				continue
			}

			line, err := plotter.NewLine(xys(l.values, l.from, l.to))
			if err != nil {
				return err
			}
			line.Color = l.color
			line.Width = vg.Points(1.5)
			if l.kind == dashedLine {
				line.Dashes = dashes
				line.Width = vg.Points(1)
			}
			p.Add(line)
			p.Legend.Add(l.label, line)
		}
	}
	return nil
}

func xys(values []float64, start, end int) plotter.XYs {
	pts := make(plotter.XYs, 0, end-start)
	for i := start; i < end; i++ {
		pts = append(pts, plotter.XY{X: float64(i), Y: values[i]})
	}
	return pts
}

// writeGrid lays the panels out panelsPerRow per row and writes the image to path.
func writeGrid(path string, panels []*plot.Plot) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff":
	default:
		return errors.NewValueError("report", "unsupported image format "+ext)
	}

	cols := panelsPerRow
	if len(panels) < cols {
		cols = len(panels)
	}
	rows := (len(panels) + cols - 1) / cols
	grid := make([][]*plot.Plot, rows)
	for i := range grid {
		grid[i] = make([]*plot.Plot, cols)
		for j := range grid[i] {
			if k := i*cols + j; k < len(panels) {
				grid[i][j] = panels[k]
			}
		}
	}

	img := vgimg.New(vg.Length(cols)*4*vg.Inch, vg.Length(rows)*3*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: rows, Cols: cols,
		PadX: vg.Millimeter, PadY: vg.Millimeter,
		PadTop: vg.Points(4), PadBottom: vg.Points(4),
		PadLeft: vg.Points(4), PadRight: vg.Points(4),
	}
	canvases := plot.Align(grid, tiles, dc)
	for i := range grid {
		for j, p := range grid[i] {
			if p != nil {
				p.Draw(canvases[i][j])
			}
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer func() { _ = file.Close() }()

	var w io.WriterTo
	switch ext {
	case ".png":
		w = vgimg.PngCanvas{Canvas: img}
	case ".jpg", ".jpeg":
		w = vgimg.JpegCanvas{Canvas: img}
	default:
		w = vgimg.TiffCanvas{Canvas: img}
	}
	if _, err := w.WriteTo(file); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
