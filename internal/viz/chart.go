package viz

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Chart draws data as an asciigraph line chart. Non-finite samples are
// dropped since asciigraph cannot place them.
func Chart(data []float64, caption string, width, height int) string {
	finite := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return caption + ": no data"
	}
	return asciigraph.Plot(finite,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// Series is one named signal sampled at shared times.
type Series struct {
	Label  string
	Values []float64
}

// SavePlot writes the series against times to path. The format follows the
// extension: .png, .svg, .pdf, .eps, .jpg or .tif.
func SavePlot(path, title string, times []float64, series []Series) error {
	if len(series) == 0 {
		return fmt.Errorf("viz: nothing to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "t"
	p.Add(plotter.NewGrid())

	for i, s := range series {
		if len(s.Values) != len(times) {
			return fmt.Errorf("viz: series %q has %d samples for %d times", s.Label, len(s.Values), len(times))
		}
		pts := make(plotter.XYs, len(times))
		for k := range times {
			pts[k].X = times[k]
			pts[k].Y = s.Values[k]
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("viz: series %q: %w", s.Label, err)
		}
		line.Color = plotutil.Color(i)
		line.Dashes = plotutil.Dashes(i)
		p.Add(line)
		p.Legend.Add(s.Label, line)
	}

	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
