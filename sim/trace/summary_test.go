package trace

import (
	"testing"
)

func TestSummarize_EmptyTrace_ReturnsZeroSummary(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelSnapshots, Interval: 1})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.Snapshots != 0 {
		t.Errorf("expected 0 snapshots, got %d", summary.Snapshots)
	}
	if summary.MeanPopulation != 0 {
		t.Errorf("expected mean 0, got %v", summary.MeanPopulation)
	}
}

func TestSummarize_NilTrace_ReturnsZeroSummary(t *testing.T) {
	summary := Summarize(nil)
	if summary == nil {
		t.Fatal("expected non-nil summary for nil trace")
	}
	if summary.PeakPopulation != 0 {
		t.Errorf("expected peak 0, got %d", summary.PeakPopulation)
	}
}

func TestSummarize_PopulatedTrace_CorrectStats(t *testing.T) {
	// GIVEN a trace with a growing then shrinking population
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelSnapshots, Interval: 1})
	st.RecordSnapshot(Snapshot{Time: 0, Population: 5, Thickness: 1})
	st.RecordSnapshot(Snapshot{Time: 1, Population: 40, Thickness: 2})
	st.RecordSnapshot(Snapshot{Time: 2, Population: 15, Thickness: 3})

	// WHEN summarized
	summary := Summarize(st)

	// THEN peak, final and mean values reflect the snapshots
	if summary.Snapshots != 3 {
		t.Errorf("expected 3 snapshots, got %d", summary.Snapshots)
	}
	if summary.PeakPopulation != 40 {
		t.Errorf("expected peak 40, got %d", summary.PeakPopulation)
	}
	if summary.FinalPopulation != 15 || summary.FinalThickness != 3 {
		t.Errorf("expected final 15/3, got %d/%d", summary.FinalPopulation, summary.FinalThickness)
	}
	if summary.MeanPopulation != 20 {
		t.Errorf("expected mean 20, got %v", summary.MeanPopulation)
	}
}

func TestAverage_IgnoresEmptyPopulations(t *testing.T) {
	// GIVEN two replicates, one of which goes extinct at the second snapshot
	a := NewSimulationTrace(TraceConfig{Level: TraceLevelSnapshots, Interval: 1})
	a.RecordSnapshot(Snapshot{Time: 0, Population: 10, Thickness: 1})
	a.RecordSnapshot(Snapshot{Time: 1, Population: 30, Thickness: 2})
	b := NewSimulationTrace(TraceConfig{Level: TraceLevelSnapshots, Interval: 1})
	b.RecordSnapshot(Snapshot{Time: 0, Population: 20, Thickness: 1})
	b.RecordSnapshot(Snapshot{Time: 1, Population: 0, Thickness: 2})

	// WHEN averaged, with a nil trace mixed in
	avg := Average([]*SimulationTrace{a, nil, b})

	// THEN the extinct snapshot does not pull the mean down
	if len(avg) != 2 {
		t.Fatalf("expected 2 averaged snapshots, got %d", len(avg))
	}
	if avg[0].MeanPopulation != 15 || avg[0].Replicates != 2 {
		t.Errorf("snapshot 0: expected mean 15 over 2, got %v over %d", avg[0].MeanPopulation, avg[0].Replicates)
	}
	if avg[1].MeanPopulation != 30 || avg[1].Replicates != 1 {
		t.Errorf("snapshot 1: expected mean 30 over 1, got %v over %d", avg[1].MeanPopulation, avg[1].Replicates)
	}
	if avg[1].MeanThickness != 2 || avg[1].Time != 1 {
		t.Errorf("snapshot 1: expected thickness 2 at t=1, got %v at %v", avg[1].MeanThickness, avg[1].Time)
	}
}

func TestAverage_UnevenLengths(t *testing.T) {
	short := NewSimulationTrace(TraceConfig{Level: TraceLevelSnapshots, Interval: 1})
	short.RecordSnapshot(Snapshot{Time: 0, Population: 4})
	long := NewSimulationTrace(TraceConfig{Level: TraceLevelSnapshots, Interval: 1})
	long.RecordSnapshot(Snapshot{Time: 0, Population: 8})
	long.RecordSnapshot(Snapshot{Time: 1, Population: 12})

	avg := Average([]*SimulationTrace{short, long})

	if len(avg) != 2 {
		t.Fatalf("expected 2 averaged snapshots, got %d", len(avg))
	}
	if avg[0].MeanPopulation != 6 {
		t.Errorf("expected mean 6, got %v", avg[0].MeanPopulation)
	}
	if avg[1].MeanPopulation != 12 || avg[1].Index != 1 {
		t.Errorf("expected mean 12 at index 1, got %v at %d", avg[1].MeanPopulation, avg[1].Index)
	}
}

func TestAverage_NoTraces(t *testing.T) {
	if got := Average(nil); len(got) != 0 {
		t.Errorf("expected no averaged snapshots, got %d", len(got))
	}
}
