package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	Snapshots       int
	PeakPopulation  int
	FinalPopulation int
	FinalThickness  int
	MeanPopulation  float64
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{}
	if st == nil || len(st.Snapshots) == 0 {
		return summary
	}

	summary.Snapshots = len(st.Snapshots)
	total := 0
	for _, s := range st.Snapshots {
		total += s.Population
		if s.Population > summary.PeakPopulation {
			summary.PeakPopulation = s.Population
		}
	}
	last := st.Snapshots[len(st.Snapshots)-1]
	summary.FinalPopulation = last.Population
	summary.FinalThickness = last.Thickness
	summary.MeanPopulation = float64(total) / float64(len(st.Snapshots))
	return summary
}

// AveragedSnapshot is the cross-replicate mean of the k-th snapshot.
type AveragedSnapshot struct {
	Index          int
	Time           float64
	MeanPopulation float64
	MeanThickness  float64
	Replicates     int // replicates that contributed a non-empty snapshot
}

// Average combines the k-th snapshots of several traces. Snapshots with an
// empty population are left out of the mean, so extinct or already exited
// replicates do not drag it towards zero. Nil traces are skipped.
func Average(traces []*SimulationTrace) []AveragedSnapshot {
	longest := 0
	for _, st := range traces {
		if st != nil && len(st.Snapshots) > longest {
			longest = len(st.Snapshots)
		}
	}

	out := make([]AveragedSnapshot, longest)
	for k := range out {
		avg := AveragedSnapshot{Index: k}
		var popSum, thickSum, timeSum float64
		for _, st := range traces {
			if st == nil || k >= len(st.Snapshots) {
				continue
			}
			s := st.Snapshots[k]
			if s.Population == 0 {
				continue
			}
			popSum += float64(s.Population)
			thickSum += float64(s.Thickness)
			timeSum += s.Time
			avg.Replicates++
		}
		if avg.Replicates > 0 {
			n := float64(avg.Replicates)
			avg.MeanPopulation = popSum / n
			avg.MeanThickness = thickSum / n
			avg.Time = timeSum / n
		}
		out[k] = avg
	}
	return out
}
