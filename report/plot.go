// Package report renders harness results as charts.
package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// DefaultBins is the number of histogram bins used when none is given.
const DefaultBins = 32

// CostHistogram draws the distribution of per-trial search costs and saves
// it to filename. The image format follows the file extension.
func CostHistogram(title string, costs []float64, bins int, filename string) error {
	if len(costs) == 0 {
		return fmt.Errorf("no costs to plot")
	}
	if bins <= 0 {
		bins = DefaultBins
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Binary search probes"
	p.Y.Label.Text = "Trials"

	h, err := plotter.NewHist(plotter.Values(costs), bins)
	if err != nil {
		return fmt.Errorf("unable to bin costs: %w", err)
	}
	h.FillColor = plotutil.Color(0)
	p.Add(h)

	return p.Save(6*vg.Inch, 4*vg.Inch, filename)
}

// SuccessCurve plots empirical against theoretical success rate over a
// sequence of experiments, e.g. a sweep of table shapes.
func SuccessCurve(title string, labels []string, empirical, theoretical []float64, filename string) error {
	if len(empirical) != len(theoretical) || len(empirical) != len(labels) {
		return fmt.Errorf("mismatched series lengths")
	}
	if len(empirical) == 0 {
		return fmt.Errorf("no experiments to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Experiment"
	p.Y.Label.Text = "Success rate"
	p.NominalX(labels...)

	emp := make(plotter.XYs, len(empirical))
	theo := make(plotter.XYs, len(theoretical))
	for i := range empirical {
		emp[i].X, emp[i].Y = float64(i), empirical[i]
		theo[i].X, theo[i].Y = float64(i), theoretical[i]
	}
	if err := plotutil.AddLinePoints(p, "Empirical", emp, "Theoretical", theo); err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, filename)
}
