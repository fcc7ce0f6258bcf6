// Package report turns batch results into the files and console output of a run.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/biofilm-sim/biofilm-sim/sim/batch"
)

// CounterHeaders names the columns of the event-counter table, in row order.
var CounterHeaders = []string{"bf edge", "n_deaths", "n_detachments", "n_immigrations", "n_replications", "exit time"}

// CounterRow flattens a result into the columns of CounterHeaders. The exit
// time is truncated to whole hours.
func CounterRow(r batch.Result) []int {
	return []int{
		r.Edge,
		r.Counters.Deaths,
		r.Counters.Detachments,
		r.Counters.Immigrations,
		r.Counters.Replications,
		int(r.ExitTime),
	}
}

// ColumnWidth is the padded cell width for the given headers: three more
// than the longest header, and never below 12.
func ColumnWidth(headers []string) int {
	longest := 0
	for _, h := range headers {
		longest = max(longest, len(h))
	}
	return max(12, longest+3)
}

// WriteCounters writes a comma-separated table with a commented header line.
// Every cell is left-aligned and padded to ColumnWidth(headers); every cell
// except the last in a row carries a trailing comma inside its padding.
func WriteCounters(w io.Writer, headers []string, rows [][]int) error {
	width := ColumnWidth(headers)
	bw := bufio.NewWriter(w)

	var line strings.Builder
	for i, h := range headers {
		cell := h + ","
		if i == 0 {
			cell = "#" + cell
		}
		fmt.Fprintf(&line, "%-*s", width, cell)
	}
	if _, err := fmt.Fprintln(bw, line.String()); err != nil {
		return fmt.Errorf("writing counters header: %w", err)
	}

	for r, row := range rows {
		if len(row) != len(headers) {
			return fmt.Errorf("counters row %d has %d columns, want %d", r, len(row), len(headers))
		}
		line.Reset()
		for i, v := range row {
			cell := strconv.Itoa(v)
			if i < len(row)-1 {
				cell += ","
			}
			fmt.Fprintf(&line, "%-*s", width, cell)
		}
		if _, err := fmt.Fprintln(bw, line.String()); err != nil {
			return fmt.Errorf("writing counters row %d: %w", r, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing counters: %w", err)
	}
	return nil
}

// CountersFilename names the counters file of a run from its duration and
// the MIC distribution's shape, e.g.
// "pyrithione-t=4200.0-parallel-event_counters_sigma=0.56003.txt".
func CountersFilename(duration, sigma float64) string {
	d := strconv.FormatFloat(duration, 'f', -1, 64)
	if !strings.ContainsAny(d, ".eE") {
		d += ".0"
	}
	return fmt.Sprintf("pyrithione-t=%s-parallel-event_counters_sigma=%.5f.txt", d, sigma)
}

// WriteCountersFile writes one row per result to dir/name, creating dir if
// needed, and returns the path written.
func WriteCountersFile(dir, name string, results []batch.Result) (string, error) {
	rows := make([][]int, len(results))
	for i, r := range results {
		rows[i] = CounterRow(r)
	}
	return writeFile(dir, name, func(w io.Writer) error {
		return WriteCounters(w, CounterHeaders, rows)
	})
}

func writeFile(dir, name string, write func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}
