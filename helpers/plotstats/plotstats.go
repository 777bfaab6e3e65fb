// Package plotstats plots the vertex displacement of a smoothing run.
package plotstats

import (
	"errors"

	"github.com/YRZrandir/SegSmooth"
	"github.com/YRZrandir/SegSmooth/meshio"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Plot returns a line plot of the maximum and mean displacement per
// iteration for both relaxation passes.
func Plot(stats []segsmooth.IterationStats) (*plot.Plot, error) {
	if len(stats) == 0 {
		return nil, errors.New("no iterations to plot")
	}
	p := plot.New()
	p.Title.Text = "Boundary smoothing"
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "displacement"

	series := []struct {
		name string
		val  func(segsmooth.IterationStats) float64
	}{
		{"control max", func(s segsmooth.IterationStats) float64 { return s.ControlMax }},
		{"control mean", func(s segsmooth.IterationStats) float64 { return s.ControlMean }},
		{"region max", func(s segsmooth.IterationStats) float64 { return s.ROIMax }},
		{"region mean", func(s segsmooth.IterationStats) float64 { return s.ROIMean }},
	}
	for i, s := range series {
		xys := make(plotter.XYs, len(stats))
		for j, st := range stats {
			xys[j].X = float64(st.Iteration)
			xys[j].Y = s.val(st)
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, err
		}
		line.Color = meshio.LabelColor(i + 1)
		if i%2 == 1 {
			line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		}
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	return p, nil
}

// SavePNG writes the plot of stats to path. The image format follows the
// file extension.
func SavePNG(path string, stats []segsmooth.IterationStats) error {
	p, err := Plot(stats)
	if err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
