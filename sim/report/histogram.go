package report

import (
	"fmt"

	"github.com/biofilm-sim/biofilm-sim/sim/batch"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotEdgeHistogram saves a histogram of the final biofilm edge across
// replicates. The image format follows the file extension (.png, .svg, .pdf).
// One bin per distinct depth, capped at 50.
func PlotEdgeHistogram(results []batch.Result, title, path string) error {
	if len(results) == 0 {
		return fmt.Errorf("plotting %s: no results", path)
	}
	values := make(plotter.Values, len(results))
	lo, hi := results[0].Edge, results[0].Edge
	for i, r := range results {
		values[i] = float64(r.Edge)
		lo, hi = min(lo, r.Edge), max(hi, r.Edge)
	}
	bins := min(max(hi-lo+1, 1), 50)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "biofilm edge (compartment index)"
	p.Y.Label.Text = "replicates"

	h, err := plotter.NewHist(values, bins)
	if err != nil {
		return fmt.Errorf("building histogram: %w", err)
	}
	p.Add(h)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving histogram %s: %w", path, err)
	}
	return nil
}
