package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/biofilm-sim/biofilm-sim/sim"
	"github.com/biofilm-sim/biofilm-sim/sim/trace"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallRun is a short batch in which an antimicrobial-free biofilm grows
// quickly, so some replicates hit the thickness limit.
func smallRun() RunConfig {
	model := sim.DefaultConfig(0.01, 0, 2.71760274, 0.56002833)
	model.Kinetics.CarryingCapacity = 10
	model.ImmigrationRate = 5
	model.Tau = 0.05
	model.ThicknessLimit = 4

	cfg := DefaultRunConfig(model)
	cfg.Duration = 30
	cfg.Replicates = 7
	cfg.Sections = 3
	cfg.Workers = 2
	return cfg
}

func TestSections_SpreadsRemainder(t *testing.T) {
	tests := []struct {
		name  string
		n, k  int
		sizes []int
	}{
		{"even split", 180, 9, []int{20, 20, 20, 20, 20, 20, 20, 20, 20}},
		{"remainder on leading sections", 10, 3, []int{4, 3, 3}},
		{"more sections than replicates", 2, 9, []int{1, 1}},
		{"single section", 5, 1, []int{5}},
		{"no replicates", 0, 9, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secs := Sections(tt.n, tt.k)
			var sizes []int
			next := 0
			for _, s := range secs {
				assert.Equal(t, next, s.Start, "sections must be contiguous")
				sizes = append(sizes, s.Len())
				next = s.End
			}
			assert.Equal(t, tt.sizes, sizes)
			assert.Equal(t, tt.n, next, "every replicate is covered")
		})
	}
}

func TestRunConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RunConfig)
	}{
		{"zero duration", func(c *RunConfig) { c.Duration = 0 }},
		{"no replicates", func(c *RunConfig) { c.Replicates = 0 }},
		{"no sections", func(c *RunConfig) { c.Sections = 0 }},
		{"negative workers", func(c *RunConfig) { c.Workers = -1 }},
		{"unknown trace level", func(c *RunConfig) { c.Trace = "decisions" }},
		{"zero snapshots", func(c *RunConfig) { c.Snapshots = 0 }},
		{"negative snapshots", func(c *RunConfig) { c.Snapshots = -3 }},
		{"invalid model", func(c *RunConfig) { c.Model.Tau = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := smallRun()
			tt.mutate(&cfg)
			err := cfg.Validate()
			assert.True(t, errors.Is(err, sim.ErrInvalidConfig), "got %v", err)
		})
	}
	assert.NoError(t, smallRun().Validate())
}

func TestRun_ResultsIndependentOfWorkersAndSections(t *testing.T) {
	// GIVEN the same seed run serially in one section
	serial := smallRun()
	serial.Workers = 1
	serial.Sections = 1

	// AND run concurrently in several sections
	parallel := smallRun()
	parallel.Workers = 4
	parallel.Sections = 5

	a, err := Run(context.Background(), serial, nil)
	require.NoError(t, err)
	b, err := Run(context.Background(), parallel, nil)
	require.NoError(t, err)

	// THEN every replicate produced the same outcome
	require.Len(t, a, 7)
	assert.Equal(t, a, b)
	for i, r := range a {
		assert.Equal(t, i, r.Replicate)
	}
}

func TestRun_DifferentSeedsDiffer(t *testing.T) {
	cfg := smallRun()
	a, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	cfg.Seed++
	b, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestRunReplicate_ExitTimeAndSentinel(t *testing.T) {
	cfg := smallRun()
	cfg.Duration = 1e5

	res, err := RunReplicate(context.Background(), cfg, 0)
	require.NoError(t, err)

	// A 4-compartment limit is reached long before 1e5 hours without antimicrobial.
	assert.True(t, res.ReachedLimit)
	assert.Equal(t, 4, res.Thickness)
	assert.Equal(t, 2, res.Edge)
	assert.Greater(t, res.ExitTime, 0.0)
	assert.Less(t, res.ExitTime, cfg.Duration)
	assert.Greater(t, res.Steps, 0)
	assert.Nil(t, res.Trace)
}

func TestRunReplicate_ExitTimeIsDurationWithoutLimit(t *testing.T) {
	// GIVEN the published scenario, which cannot thicken to 50 in 2 hours
	cfg := DefaultRunConfig(sim.DefaultConfig(0.01, 10, 2.71760274, 0.56002833))
	cfg.Duration = 2

	res, err := RunReplicate(context.Background(), cfg, 3)
	require.NoError(t, err)

	assert.False(t, res.ReachedLimit)
	assert.Equal(t, 2.0, res.ExitTime)
	assert.Equal(t, 3, res.Replicate)
}

func TestRunReplicate_SnapshotsWhenTraced(t *testing.T) {
	cfg := smallRun()
	cfg.Trace = trace.TraceLevelSnapshots
	cfg.Snapshots = 10
	cfg.Model.ThicknessLimit = 1000

	res, err := RunReplicate(context.Background(), cfg, 1)
	require.NoError(t, err)
	require.NotNil(t, res.Trace)

	// One snapshot per interval of 3 hours, starting at t=0. An eleventh is
	// only taken if the clock lands exactly on t=30.
	snaps := res.Trace.Snapshots
	require.InDelta(t, 10, len(snaps), 1)
	assert.Equal(t, 0.0, snaps[0].Time)
	assert.Equal(t, 5, snaps[0].Population)
	for i := 1; i < len(snaps); i++ {
		assert.GreaterOrEqual(t, snaps[i].Time, 3*float64(i))
		assert.GreaterOrEqual(t, snaps[i].Thickness, snaps[i-1].Thickness)
		assert.Equal(t, snaps[i].Thickness*10, snaps[i].MaxPopulation)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := Run(ctx, smallRun(), nil)

	assert.Nil(t, results)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := smallRun()
	cfg.Replicates = 0
	_, err := Run(context.Background(), cfg, nil)
	assert.True(t, errors.Is(err, sim.ErrInvalidConfig))
}

func TestMetrics_ObserveAndWrite(t *testing.T) {
	// GIVEN a batch run with metrics collection
	cfg := smallRun()
	cfg.Duration = 1e5
	m := NewMetrics(cfg.Duration)

	results, err := Run(context.Background(), cfg, m)
	require.NoError(t, err)

	// THEN the counters match the results
	steps, retries, limits := 0, 0, 0
	for _, r := range results {
		steps += r.Steps
		retries += r.LeapRetries
		if r.ReachedLimit {
			limits++
		}
	}
	assert.Equal(t, 7.0, testutil.ToFloat64(m.replicates))
	assert.Equal(t, float64(steps), testutil.ToFloat64(m.steps))
	assert.Equal(t, float64(retries), testutil.ToFloat64(m.leapRetries))
	assert.Equal(t, float64(limits), testutil.ToFloat64(m.limitReached))

	// AND the textfile holds every metric family
	path := filepath.Join(t.TempDir(), "biofilm.prom")
	require.NoError(t, m.WriteTextfile(path))
	n, err := testutil.GatherAndCount(m.Registry)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "biofilm_replicates_total 7"))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.Observe(Result{Steps: 3}) })

	path := filepath.Join(t.TempDir(), "metrics.prom")
	assert.NotPanics(t, func() { assert.NoError(t, m.WriteTextfile(path)) })
	assert.NoFileExists(t, path)
}
