package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig_PublishedConstants(t *testing.T) {
	got := DefaultConfig(0.01, 10, 2.71760274, 0.56002833)
	want := Config{
		Alpha:    0.01,
		CMax:     10,
		MICScale: 2.71760274,
		MICShape: 0.56002833,
		Kinetics: Kinetics{
			CarryingCapacity: 120,
			MigrationRate:    0.2,
			IntrinsicRate:    0.083,
			GrowthThreshold:  0.8,
		},
		DeteriorationRate:    0.0516,
		ImmigrationRate:      0.8,
		Tau:                  0.01,
		DeltaX:               5,
		ThicknessLimit:       50,
		InitialPopulation:    5,
		LeapCheckReplication: true,
	}
	assert.Equal(t, want, got)
	assert.NoError(t, got.Validate())
}

func TestConfig_Validate_WrapsSentinel(t *testing.T) {
	cfg := DefaultConfig(0.01, 10, 2.7, 0.5)
	cfg.Kinetics.CarryingCapacity = 0

	err := cfg.Validate()

	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Contains(t, err.Error(), "carrying_capacity")
}

func TestConfig_Validate_ZeroRatesAllowed(t *testing.T) {
	// A run without antimicrobial, migration, detachment or immigration is degenerate but valid.
	cfg := DefaultConfig(0, 0, 2.7, 0.5)
	cfg.Kinetics.MigrationRate = 0
	cfg.DeteriorationRate = 0
	cfg.ImmigrationRate = 0
	cfg.InitialPopulation = 0
	assert.NoError(t, cfg.Validate())
}

func TestConfig_YAMLOverridesOnlyGivenFields(t *testing.T) {
	// GIVEN defaults overlaid with a partial YAML document
	cfg := DefaultConfig(0.01, 10, 2.7, 0.5)
	doc := `
alpha: 0.02
kinetics:
  carrying_capacity: 60
leap_check_replication: false
`
	err := yaml.Unmarshal([]byte(doc), &cfg)

	// THEN only the named fields change
	assert.NoError(t, err)
	assert.Equal(t, 0.02, cfg.Alpha)
	assert.Equal(t, 60, cfg.Kinetics.CarryingCapacity)
	assert.False(t, cfg.LeapCheckReplication)
	assert.Equal(t, 0.2, cfg.Kinetics.MigrationRate)
	assert.Equal(t, 0.01, cfg.Tau)
	assert.Equal(t, 10.0, cfg.CMax)
}
