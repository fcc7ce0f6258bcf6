package batch

import (
	"context"
	"fmt"

	"github.com/biofilm-sim/biofilm-sim/sim"
	"github.com/biofilm-sim/biofilm-sim/sim/trace"
	"github.com/sirupsen/logrus"
)

// Result is the outcome of one replicate.
type Result struct {
	Replicate    int
	Edge         int // deepest biofilm-region index at exit
	Counters     sim.EventCounters
	ExitTime     float64
	Thickness    int
	Population   int
	ReachedLimit bool
	Steps        int
	LeapRetries  int
	Trace        *trace.SimulationTrace // nil unless snapshots were requested
}

// RunReplicate drives one engine from t=0 until its elapsed time passes the
// configured duration, either naturally or through the thickness-limit
// sentinel. The replicate's random stream depends only on the master seed and
// its index.
func RunReplicate(ctx context.Context, cfg RunConfig, index int) (Result, error) {
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed)).ForSubsystem(sim.SubsystemReplicate(index))
	eng, err := sim.NewEngine(cfg.Model, rng)
	if err != nil {
		return Result{}, fmt.Errorf("replicate %d: %w", index, err)
	}

	// Progress lines follow the snapshot grid whether or not snapshots are kept.
	progress := trace.NewSimulationTrace(trace.NewTraceConfig(trace.TraceLevelSnapshots, cfg.Duration, cfg.Snapshots))

	for eng.Elapsed() <= cfg.Duration {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("replicate %d at t=%.3f: %w", index, eng.Elapsed(), err)
		}
		if progress.Due(eng.Elapsed()) {
			snap := trace.Snapshot{
				Time:          eng.Elapsed(),
				Population:    eng.TotalPopulation(),
				MaxPopulation: eng.MaxPopulation(),
				Thickness:     eng.Thickness(),
				BiofilmEdge:   eng.BiofilmEdge(),
			}
			progress.RecordSnapshot(snap)
			logrus.Debugf("rep: %d\tt: %.3f\tpop size: %d/%d\tbf_edge: %d",
				index, snap.Time, snap.Population, snap.MaxPopulation, snap.BiofilmEdge)
		}
		eng.Step()
	}
	eng.FinalizeExit(cfg.Duration)

	res := Result{
		Replicate:    index,
		Edge:         eng.BiofilmEdge(),
		Counters:     eng.Counters(),
		ExitTime:     eng.ExitTime(),
		Thickness:    eng.Thickness(),
		Population:   eng.TotalPopulation(),
		ReachedLimit: eng.ReachedLimit(),
		Steps:        eng.Steps(),
		LeapRetries:  eng.LeapRetries(),
	}
	if cfg.Trace == trace.TraceLevelSnapshots {
		res.Trace = progress
	}
	return res, nil
}
