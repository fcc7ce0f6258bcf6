package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/biofilm-sim/biofilm-sim/sim/trace"
)

// TimeSeriesHeaders names the columns written by WriteTimeSeries.
var TimeSeriesHeaders = []string{"t", "mean pop", "mean thickness", "replicates"}

// WriteTimeSeries writes the cross-replicate averaged snapshots as a padded,
// comma-separated table in the same layout as the counters file.
func WriteTimeSeries(w io.Writer, series []trace.AveragedSnapshot) error {
	width := ColumnWidth(TimeSeriesHeaders)
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%-*s", width, "#"+TimeSeriesHeaders[0]+",")
	for _, h := range TimeSeriesHeaders[1:] {
		fmt.Fprintf(bw, "%-*s", width, h+",")
	}
	fmt.Fprintln(bw)

	for _, s := range series {
		fmt.Fprintf(bw, "%-*s", width, fmt.Sprintf("%.3f,", s.Time))
		fmt.Fprintf(bw, "%-*s", width, fmt.Sprintf("%.3f,", s.MeanPopulation))
		fmt.Fprintf(bw, "%-*s", width, fmt.Sprintf("%.3f,", s.MeanThickness))
		fmt.Fprintf(bw, "%-*d\n", width, s.Replicates)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing time series: %w", err)
	}
	return nil
}

// WriteTimeSeriesFile writes the averaged snapshots to dir/name.
func WriteTimeSeriesFile(dir, name string, series []trace.AveragedSnapshot) (string, error) {
	return writeFile(dir, name, func(w io.Writer) error {
		return WriteTimeSeries(w, series)
	})
}
