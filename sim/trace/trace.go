package trace

import "math"

// TraceLevel controls the verbosity of replicate tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelSnapshots captures evenly spaced snapshots of each replicate.
	TraceLevelSnapshots TraceLevel = "snapshots"
)

// DefaultSnapshots is the number of snapshots taken over a run's duration.
const DefaultSnapshots = 20

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelSnapshots: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level    TraceLevel
	Interval float64 // simulated time between snapshots (must be > 0 when tracing)
}

// NewTraceConfig spreads n snapshots evenly over duration.
func NewTraceConfig(level TraceLevel, duration float64, n int) TraceConfig {
	if n <= 0 {
		n = DefaultSnapshots
	}
	return TraceConfig{Level: level, Interval: duration / float64(n)}
}

// Enabled reports whether snapshots are collected.
func (c TraceConfig) Enabled() bool {
	return c.Level == TraceLevelSnapshots && c.Interval > 0
}

// SimulationTrace collects snapshots during one replicate.
type SimulationTrace struct {
	Config    TraceConfig
	Snapshots []Snapshot
	next      float64
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
// The first snapshot is due at time 0.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:    config,
		Snapshots: make([]Snapshot, 0),
	}
}

// Due reports whether a snapshot should be recorded at simulated time t.
// Always false when tracing is disabled.
func (st *SimulationTrace) Due(t float64) bool {
	return st.Config.Enabled() && t >= st.next
}

// RecordSnapshot appends a snapshot and schedules the next one on the
// interval grid strictly after the snapshot's time.
func (st *SimulationTrace) RecordSnapshot(s Snapshot) {
	st.Snapshots = append(st.Snapshots, s)
	if st.Config.Interval > 0 {
		st.next = (math.Floor(s.Time/st.Config.Interval) + 1) * st.Config.Interval
	}
}
