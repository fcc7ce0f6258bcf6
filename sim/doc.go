// Package sim provides the spatial tau-leaping engine for biofilm growth
// under an antimicrobial gradient.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - compartment.go: one depth slot, its MIC population and its local rates
//   - leap.go: per-individual Poisson sampling, the leap-validity retry and event application
//   - engine.go: the compartment chain, domain growth and the thickness-limit exit
//
// # Architecture
//
// The sim package owns a single replicate. Everything around it lives in sub-packages:
//   - sim/batch/: parallel replicate orchestration and batch metrics
//   - sim/trace/: periodic snapshots of a running replicate
//   - sim/report/: counters tables, summary statistics, histograms
//   - sim/store/: SQLite persistence of replicate results
//
// A replicate is driven externally:
//
//	for eng.Elapsed() <= duration {
//		eng.Step()
//	}
//	eng.FinalizeExit(duration)
//
// Reaching the thickness limit forces Elapsed to TimeSentinel, which ends
// such a loop on its next check.
package sim
