package report

import (
	"fmt"
	"io"

	"github.com/biofilm-sim/biofilm-sim/sim/batch"
	"github.com/biofilm-sim/biofilm-sim/sim/trace"
	"gonum.org/v1/gonum/stat"
)

// ColumnStats is the mean and sample standard deviation of one counter column.
type ColumnStats struct {
	Name   string
	Mean   float64
	StdDev float64
}

// TracedStats averages the per-replicate trace summaries of a batch run
// with snapshots enabled.
type TracedStats struct {
	Replicates          int // replicates that recorded at least one snapshot
	MeanSnapshots       float64
	MeanPeakPopulation  float64
	MeanFinalPopulation float64
	MeanFinalThickness  float64
}

// Summary aggregates a finished batch.
type Summary struct {
	Replicates   int
	LimitReached int
	Columns      []ColumnStats // one per CounterHeaders entry
	Traced       TracedStats
}

// Summarize computes per-column statistics over the results. The standard
// deviation is the unbiased sample estimate; it is NaN for fewer than two
// replicates.
func Summarize(results []batch.Result) Summary {
	s := Summary{Replicates: len(results)}
	cols := make([][]float64, len(CounterHeaders))
	for _, r := range results {
		if r.ReachedLimit {
			s.LimitReached++
		}
		for i, v := range CounterRow(r) {
			cols[i] = append(cols[i], float64(v))
		}
		s.Traced.add(trace.Summarize(r.Trace))
	}
	s.Traced.finish()
	for i, name := range CounterHeaders {
		cs := ColumnStats{Name: name}
		if len(cols[i]) > 0 {
			cs.Mean, cs.StdDev = stat.MeanStdDev(cols[i], nil)
		}
		s.Columns = append(s.Columns, cs)
	}
	return s
}

func (ts *TracedStats) add(sum *trace.TraceSummary) {
	if sum.Snapshots == 0 {
		return
	}
	ts.Replicates++
	ts.MeanSnapshots += float64(sum.Snapshots)
	ts.MeanPeakPopulation += float64(sum.PeakPopulation)
	ts.MeanFinalPopulation += float64(sum.FinalPopulation)
	ts.MeanFinalThickness += float64(sum.FinalThickness)
}

func (ts *TracedStats) finish() {
	if ts.Replicates == 0 {
		return
	}
	n := float64(ts.Replicates)
	ts.MeanSnapshots /= n
	ts.MeanPeakPopulation /= n
	ts.MeanFinalPopulation /= n
	ts.MeanFinalThickness /= n
}

// Print writes the summary as an aligned console block.
func (s Summary) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Biofilm Batch Summary ===")
	fmt.Fprintf(w, "Replicates           : %d\n", s.Replicates)
	fmt.Fprintf(w, "Thickness limit hit  : %d\n", s.LimitReached)
	if s.Replicates == 0 {
		return
	}
	for _, c := range s.Columns {
		fmt.Fprintf(w, "%-21s: %.2f ± %.2f\n", c.Name, c.Mean, c.StdDev)
	}
	if s.Traced.Replicates == 0 {
		return
	}
	fmt.Fprintf(w, "Traced replicates    : %d\n", s.Traced.Replicates)
	fmt.Fprintf(w, "Snapshots (mean)     : %.2f\n", s.Traced.MeanSnapshots)
	fmt.Fprintf(w, "Peak population      : %.2f\n", s.Traced.MeanPeakPopulation)
	fmt.Fprintf(w, "Final population     : %.2f\n", s.Traced.MeanFinalPopulation)
	fmt.Fprintf(w, "Final thickness      : %.2f\n", s.Traced.MeanFinalThickness)
}
