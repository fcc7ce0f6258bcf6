package batch

import (
	"context"
	"flag"
	"fmt"
	"testing"

	"github.com/biofilm-sim/biofilm-sim/sim"
	"github.com/biofilm-sim/biofilm-sim/sim/internal/testutil"
	"github.com/stretchr/testify/require"
)

var updateGolden = flag.Bool("update-golden", false, "record testdata/goldendataset.json from the current engine")

// goldenCases are the seeded batches pinned by the golden dataset: the three
// published MIC presets over a short run, and a crowded chain with heavy
// immigration that grows, migrates and stops at the thickness limit.
var goldenCases = []testutil.GoldenTestCase{
	{Name: "susceptible-99", Seed: 42, Alpha: 0.01, CMax: 10, Scale: 2.71760274, Sigma: 0.56002833, Duration: 48, Replicates: 4},
	{Name: "susceptible-95", Seed: 42, Alpha: 0.01, CMax: 10, Scale: 1.9246899, Sigma: 1.00179994, Duration: 48, Replicates: 4},
	{Name: "susceptible-90", Seed: 42, Alpha: 0.01, CMax: 10, Scale: 1.01115312, Sigma: 1.51378016, Duration: 48, Replicates: 4},
	{Name: "fast-growth", Seed: 42, Alpha: 0.01, CMax: 1, Scale: 2.71760274, Sigma: 0.56002833, Duration: 96, Replicates: 4,
		CarryingCapacity: 12, ImmigrationRate: 5},
}

func runGoldenCase(t *testing.T, tc testutil.GoldenTestCase) []Result {
	t.Helper()
	model := sim.DefaultConfig(tc.Alpha, tc.CMax, tc.Scale, tc.Sigma)
	if tc.CarryingCapacity > 0 {
		model.Kinetics.CarryingCapacity = tc.CarryingCapacity
	}
	if tc.ImmigrationRate > 0 {
		model.ImmigrationRate = tc.ImmigrationRate
	}
	cfg := DefaultRunConfig(model)
	cfg.Seed = tc.Seed
	cfg.Duration = tc.Duration
	cfg.Replicates = tc.Replicates
	cfg.Sections = 2
	results, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	return results
}

// TestGoldenDataset pins replicate outcomes for fixed seeds so that
// refactors of the engine cannot silently change trajectories.
func TestGoldenDataset(t *testing.T) {
	if *updateGolden {
		dataset := &testutil.GoldenDataset{}
		for _, tc := range goldenCases {
			for _, r := range runGoldenCase(t, tc) {
				c := r.Counters
				tc.Results = append(tc.Results, testutil.GoldenResult{
					Edge: r.Edge, Deaths: c.Deaths, Detachments: c.Detachments,
					Immigrations: c.Immigrations, Replications: c.Replications, ExitTime: r.ExitTime,
				})
			}
			dataset.Tests = append(dataset.Tests, tc)
		}
		testutil.WriteGoldenDataset(t, dataset)
		return
	}

	dataset := testutil.LoadGoldenDataset(t)
	names := make([]string, 0, len(dataset.Tests))
	for _, tc := range dataset.Tests {
		names = append(names, tc.Name)
	}
	for _, tc := range goldenCases {
		require.Contains(t, names, tc.Name, "golden dataset is stale; re-record it with -update-golden")
	}

	for _, tc := range dataset.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			results := runGoldenCase(t, tc)
			require.Len(t, results, len(tc.Results))
			for i, want := range tc.Results {
				got := results[i]
				name := fmt.Sprintf("replicate %d", i)
				require.Equal(t, want.Edge, got.Edge, name)
				require.Equal(t, want.Deaths, got.Counters.Deaths, name)
				require.Equal(t, want.Detachments, got.Counters.Detachments, name)
				require.Equal(t, want.Immigrations, got.Counters.Immigrations, name)
				require.Equal(t, want.Replications, got.Counters.Replications, name)
				testutil.AssertFloat64Equal(t, name+" exit time", want.ExitTime, got.ExitTime, 1e-9)
				require.Equal(t, want.ExitTime < tc.Duration, got.ReachedLimit, name)
			}
		})
	}
}
