// Package testutil provides shared test infrastructure for the biofilm simulator.
// It holds the golden dataset types and assertion helpers used by the
// sim/ sub-package tests.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one seeded batch and the per-replicate outcomes it produced.
type GoldenTestCase struct {
	Name       string  `json:"name"`
	Seed       int64   `json:"seed"`
	Alpha      float64 `json:"alpha"`
	CMax       float64 `json:"c_max"`
	Scale      float64 `json:"scale"`
	Sigma      float64 `json:"sigma"`
	Duration   float64 `json:"duration"`
	Replicates int     `json:"replicates"`

	// Kinetics overrides; zero keeps the published value.
	CarryingCapacity int     `json:"carrying_capacity,omitempty"`
	ImmigrationRate  float64 `json:"immigration_rate,omitempty"`

	Results []GoldenResult `json:"results"`
}

// GoldenResult is the counters row of one replicate.
type GoldenResult struct {
	Edge         int     `json:"bf_edge"`
	Deaths       int     `json:"n_deaths"`
	Detachments  int     `json:"n_detachments"`
	Immigrations int     `json:"n_immigrations"`
	Replications int     `json:"n_replications"`
	ExitTime     float64 `json:"exit_time"`
}

// goldenPath resolves testdata/goldendataset.json relative to this source
// file: sim/internal/testutil/ → repo root testdata/.
func goldenPath(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldendataset.json")
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// A missing dataset fails the test; record one with -update-golden.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	data, err := os.ReadFile(goldenPath(t))
	if os.IsNotExist(err) {
		t.Fatalf("golden dataset %s is missing; record it with -update-golden", goldenPath(t))
	}
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// WriteGoldenDataset records the dataset, replacing any previous one.
func WriteGoldenDataset(t *testing.T, dataset *GoldenDataset) {
	t.Helper()

	path := goldenPath(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create testdata directory: %v", err)
	}
	data, err := json.MarshalIndent(dataset, "", "  ")
	if err != nil {
		t.Fatalf("Failed to encode golden dataset: %v", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		t.Fatalf("Failed to write golden dataset: %v", err)
	}
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
