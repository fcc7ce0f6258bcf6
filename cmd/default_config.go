package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/biofilm-sim/biofilm-sim/sim"
	"github.com/biofilm-sim/biofilm-sim/sim/batch"
	"gopkg.in/yaml.v3"
)

// Preset is a published MIC distribution in defaults.yaml.
type Preset struct {
	Scale       float64 `yaml:"scale"`
	Sigma       float64 `yaml:"sigma"`
	Description string  `yaml:"description"`
}

// RunDefaults holds the batch settings in defaults.yaml.
type RunDefaults struct {
	Preset     string  `yaml:"preset"`
	Replicates int     `yaml:"replicates"`
	Duration   float64 `yaml:"duration"`
	Sections   int     `yaml:"sections"`
	Workers    int     `yaml:"workers"`
	Seed       int64   `yaml:"seed"`
	Snapshots  int     `yaml:"snapshots"`
}

// Config represents the full defaults.yaml structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Version string            `yaml:"version"`
	Run     RunDefaults       `yaml:"run"`
	Presets map[string]Preset `yaml:"presets"`
	Model   sim.Config        `yaml:"model"`
}

// builtinPresets are the MIC distributions for 99%, 95% and 90% susceptible
// populations. The MIC scale and shape fields of a model are always taken
// from a preset or from flags.
var builtinPresets = map[string]Preset{
	"susceptible-99": {Scale: 2.71760274, Sigma: 0.56002833, Description: "99% of the population susceptible"},
	"susceptible-95": {Scale: 1.9246899, Sigma: 1.00179994, Description: "95% of the population susceptible"},
	"susceptible-90": {Scale: 1.01115312, Sigma: 1.51378016, Description: "90% of the population susceptible"},
}

// builtinDefaults is used when no defaults file is present. Files are decoded
// on top of it, so they only need the fields they change.
func builtinDefaults() Config {
	p := builtinPresets["susceptible-99"]
	run := batch.DefaultRunConfig(sim.DefaultConfig(0.01, 10, p.Scale, p.Sigma))
	presets := make(map[string]Preset, len(builtinPresets))
	for name, preset := range builtinPresets {
		presets[name] = preset
	}
	return Config{
		Version: "1",
		Run: RunDefaults{
			Preset:     "susceptible-99",
			Replicates: run.Replicates,
			Duration:   run.Duration,
			Sections:   run.Sections,
			Workers:    run.Workers,
			Seed:       run.Seed,
			Snapshots:  run.Snapshots,
		},
		Presets: presets,
		Model:   run.Model,
	}
}

// loadDefaultsConfig parses a defaults file over the built-in defaults.
// Uses strict field checking: unknown keys are errors. A missing file is
// reported with an error wrapping os.ErrNotExist.
func loadDefaultsConfig(path string) (Config, error) {
	cfg := builtinDefaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading defaults file %s: %w", path, err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parsing defaults file %s: %w", path, err)
	}
	return cfg, nil
}

// presetNames returns the preset names in sorted order.
func (c Config) presetNames() []string {
	names := make([]string, 0, len(c.Presets))
	for name := range c.Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// lookupPreset finds a preset by name.
func (c Config) lookupPreset(name string) (Preset, error) {
	p, ok := c.Presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(c.presetNames(), ", "))
	}
	return p, nil
}
