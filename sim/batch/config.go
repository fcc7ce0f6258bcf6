package batch

import (
	"fmt"

	"github.com/biofilm-sim/biofilm-sim/sim"
	"github.com/biofilm-sim/biofilm-sim/sim/trace"
)

// RunConfig describes a batch of independent replicates of one model.
type RunConfig struct {
	Model      sim.Config
	Duration   float64          // simulated hours per replicate
	Replicates int              // number of replicates
	Sections   int              // replicates are run section by section
	Workers    int              // concurrent replicates within a section; 0 means GOMAXPROCS
	Seed       int64            // master seed; each replicate derives its own stream
	Trace      trace.TraceLevel // snapshot recording for returned results
	Snapshots  int              // snapshots (and progress lines) per replicate
}

// DefaultRunConfig returns the batch settings of the published experiments:
// 180 replicates of 25 weeks each, run in 9 sections.
func DefaultRunConfig(model sim.Config) RunConfig {
	return RunConfig{
		Model:      model,
		Duration:   25 * 7 * 24,
		Replicates: 180,
		Sections:   9,
		Seed:       42,
		Trace:      trace.TraceLevelNone,
		Snapshots:  trace.DefaultSnapshots,
	}
}

// Validate checks the batch settings and the model they carry.
func (c RunConfig) Validate() error {
	if err := c.Model.Validate(); err != nil {
		return err
	}
	switch {
	case c.Duration <= 0:
		return fmt.Errorf("%w: duration must be > 0, got %v", sim.ErrInvalidConfig, c.Duration)
	case c.Replicates < 1:
		return fmt.Errorf("%w: replicates must be >= 1, got %d", sim.ErrInvalidConfig, c.Replicates)
	case c.Sections < 1:
		return fmt.Errorf("%w: sections must be >= 1, got %d", sim.ErrInvalidConfig, c.Sections)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must be >= 0, got %d", sim.ErrInvalidConfig, c.Workers)
	case c.Snapshots < 1:
		return fmt.Errorf("%w: snapshots must be >= 1, got %d", sim.ErrInvalidConfig, c.Snapshots)
	case !trace.IsValidTraceLevel(string(c.Trace)):
		return fmt.Errorf("%w: unknown trace level %q", sim.ErrInvalidConfig, c.Trace)
	}
	return nil
}
