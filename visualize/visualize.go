// Package visualize renders the standard diagnostic plots of the analyses as
// PNG files: embedding scatters, ROC curves, importance bars, histograms,
// and predicted-versus-actual panels.
package visualize

import (
	"image/color"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/EmmanuelUgo/ML-models/metrics"
	"github.com/EmmanuelUgo/ML-models/pkg/errors"
)

var palette = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
	{R: 0xe3, G: 0x77, B: 0xc2, A: 0xff},
	{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff},
}

const plotSize = 6 * vg.Inch

// Scatter draws a 2D embedding colored by group and writes it to path. The
// first two columns of points are used.
func Scatter(points mat.Matrix, groups []string, title, path string) error {
	r, c := points.Dims()
	if c < 2 {
		return errors.NewDimensionError("visualize.Scatter", 2, c, 1)
	}
	if len(groups) != r {
		return errors.NewDimensionError("visualize.Scatter", r, len(groups), 0)
	}

	byGroup := make(map[string]plotter.XYs)
	var order []string
	for i := 0; i < r; i++ {
		g := groups[i]
		if _, ok := byGroup[g]; !ok {
			order = append(order, g)
		}
		byGroup[g] = append(byGroup[g], plotter.XY{X: points.At(i, 0), Y: points.At(i, 1)})
	}
	sort.Strings(order)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "dim 1"
	p.Y.Label.Text = "dim 2"
	p.Add(plotter.NewGrid())

	for gi, g := range order {
		sc, err := plotter.NewScatter(byGroup[g])
		if err != nil {
			return errors.Wrap(err, "visualize: scatter")
		}
		sc.GlyphStyle.Color = palette[gi%len(palette)]
		sc.GlyphStyle.Radius = vg.Points(2)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
		p.Legend.Add(g, sc)
	}
	p.Legend.Top = true

	return save(p, path)
}

// ROC draws a receiver-operating curve with the chance diagonal.
func ROC(points []metrics.ROCPoint, title, path string) error {
	if len(points) == 0 {
		return errors.NewValueError("visualize.ROC", "empty curve")
	}

	curve := make(plotter.XYs, len(points))
	for i, pt := range points {
		curve[i] = plotter.XY{X: pt.FPR, Y: pt.TPR}
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "false positive rate"
	p.Y.Label.Text = "true positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(curve)
	if err != nil {
		return errors.Wrap(err, "visualize: roc")
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = palette[0]
	p.Add(line)

	diag, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return errors.Wrap(err, "visualize: roc")
	}
	diag.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	diag.LineStyle.Color = color.Gray{Y: 0x99}
	p.Add(diag)

	return save(p, path)
}

// Importances draws a horizontal bar chart of feature importances, largest
// at the top.
func Importances(names []string, values []float64, title, path string) error {
	if len(names) != len(values) {
		return errors.NewDimensionError("visualize.Importances", len(names), len(values), 0)
	}
	if len(names) == 0 {
		return errors.NewValueError("visualize.Importances", "no features")
	}

	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	sorted := make(plotter.Values, len(idx))
	labels := make([]string, len(idx))
	for i, j := range idx {
		sorted[i] = values[j]
		labels[i] = names[j]
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "importance"

	bars, err := plotter.NewBarChart(sorted, vg.Points(10))
	if err != nil {
		return errors.Wrap(err, "visualize: importances")
	}
	bars.Horizontal = true
	bars.Color = palette[0]
	p.Add(bars)
	p.NominalY(labels...)

	return save(p, path)
}

// Histogram draws a distribution of values with the given bin count.
func Histogram(values []float64, bins int, title, path string) error {
	if len(values) == 0 {
		return errors.NewValueError("visualize.Histogram", "no values")
	}
	if bins < 1 {
		bins = 16
	}

	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return errors.Wrap(err, "visualize: histogram")
	}
	h.FillColor = palette[0]

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "count"
	p.Add(h)

	return save(p, path)
}

// PredictedVsActual draws assessment predictions against observed values
// with the identity line.
func PredictedVsActual(actual, predicted []float64, title, path string) error {
	if len(actual) != len(predicted) {
		return errors.NewDimensionError("visualize.PredictedVsActual", len(actual), len(predicted), 0)
	}
	if len(actual) == 0 {
		return errors.NewValueError("visualize.PredictedVsActual", "no values")
	}

	pts := make(plotter.XYs, len(actual))
	lo, hi := actual[0], actual[0]
	for i := range actual {
		pts[i] = plotter.XY{X: actual[i], Y: predicted[i]}
		for _, v := range []float64{actual[i], predicted[i]} {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "actual"
	p.Y.Label.Text = "predicted"
	p.Add(plotter.NewGrid())

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "visualize: predicted vs actual")
	}
	sc.GlyphStyle.Color = palette[0]
	sc.GlyphStyle.Radius = vg.Points(2)
	p.Add(sc)

	ident, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return errors.Wrap(err, "visualize: predicted vs actual")
	}
	ident.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	ident.LineStyle.Color = color.Gray{Y: 0x99}
	p.Add(ident)

	return save(p, path)
}

func save(p *plot.Plot, path string) error {
	if err := p.Save(plotSize, plotSize, path); err != nil {
		return errors.Wrap(err, "visualize: saving plot")
	}
	return nil
}
