package sim

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every error returned from Config.Validate.
var ErrInvalidConfig = errors.New("invalid simulation config")

// TimeSentinel is the elapsed time forced onto an engine once the thickness
// limit is reached. Any realistic run duration is far below it.
const TimeSentinel = 9e9

// Kinetics groups the per-compartment rate constants shared by every compartment.
type Kinetics struct {
	CarryingCapacity int     `yaml:"carrying_capacity"` // K, individuals per compartment (must be > 0)
	MigrationRate    float64 `yaml:"migration_rate"`    // b, per unit time; halved at the boundaries
	IntrinsicRate    float64 `yaml:"intrinsic_rate"`    // scales the dose-response curve phi
	GrowthThreshold  float64 `yaml:"growth_threshold"`  // density fraction that triggers domain growth
}

// Config holds everything an Engine needs besides its random source.
// Use DefaultConfig and override fields; zero values are not meaningful.
type Config struct {
	Alpha    float64 `yaml:"alpha"`     // steepness of the concentration gradient
	CMax     float64 `yaml:"c_max"`     // bulk antimicrobial concentration at depth 0
	MICScale float64 `yaml:"mic_scale"` // median of the log-normal MIC distribution
	MICShape float64 `yaml:"mic_shape"` // sigma of the log-normal MIC distribution

	Kinetics Kinetics `yaml:"kinetics"`

	DeteriorationRate float64 `yaml:"deterioration_rate"` // per-individual detachment rate in the immigration zone
	ImmigrationRate   float64 `yaml:"immigration_rate"`   // arrivals per unit time into the immigration zone
	Tau               float64 `yaml:"tau"`                // nominal leap size
	DeltaX            float64 `yaml:"delta_x"`            // physical spacing between compartments
	ThicknessLimit    int     `yaml:"thickness_limit"`    // chain length at which a run exits early
	InitialPopulation int     `yaml:"initial_population"` // immigrants seeded into compartment 0

	// LeapCheckReplication applies the at-most-one-event rule to replication
	// counts too. Disable to reproduce output sampled without that check.
	LeapCheckReplication bool `yaml:"leap_check_replication"`
}

// DefaultKinetics returns the rate constants used by the published runs.
func DefaultKinetics() Kinetics {
	return Kinetics{
		CarryingCapacity: 120,
		MigrationRate:    0.2,
		IntrinsicRate:    0.083,
		GrowthThreshold:  0.8,
	}
}

// DefaultConfig returns a Config for the given gradient and MIC distribution
// with every other constant at its published value.
func DefaultConfig(alpha, cMax, micScale, micShape float64) Config {
	return Config{
		Alpha:                alpha,
		CMax:                 cMax,
		MICScale:             micScale,
		MICShape:             micShape,
		Kinetics:             DefaultKinetics(),
		DeteriorationRate:    0.0516,
		ImmigrationRate:      0.8,
		Tau:                  0.01,
		DeltaX:               5.0,
		ThicknessLimit:       50,
		InitialPopulation:    5,
		LeapCheckReplication: true,
	}
}

// Validate checks parameter ranges. Every returned error wraps ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.Kinetics.CarryingCapacity <= 0:
		return invalid("carrying_capacity must be positive, got %d", c.Kinetics.CarryingCapacity)
	case c.MICShape <= 0:
		return invalid("mic_shape must be positive, got %g", c.MICShape)
	case c.MICScale <= 0:
		return invalid("mic_scale must be positive, got %g", c.MICScale)
	case c.Tau <= 0:
		return invalid("tau must be positive, got %g", c.Tau)
	case c.DeltaX <= 0:
		return invalid("delta_x must be positive, got %g", c.DeltaX)
	case c.CMax < 0:
		return invalid("c_max must be non-negative, got %g", c.CMax)
	case c.Alpha < 0:
		return invalid("alpha must be non-negative, got %g", c.Alpha)
	case c.Kinetics.MigrationRate < 0:
		return invalid("migration_rate must be non-negative, got %g", c.Kinetics.MigrationRate)
	case c.Kinetics.IntrinsicRate < 0:
		return invalid("intrinsic_rate must be non-negative, got %g", c.Kinetics.IntrinsicRate)
	case c.Kinetics.GrowthThreshold <= 0 || c.Kinetics.GrowthThreshold > 1:
		return invalid("growth_threshold must be in (0, 1], got %g", c.Kinetics.GrowthThreshold)
	case c.DeteriorationRate < 0:
		return invalid("deterioration_rate must be non-negative, got %g", c.DeteriorationRate)
	case c.ImmigrationRate < 0:
		return invalid("immigration_rate must be non-negative, got %g", c.ImmigrationRate)
	case c.ThicknessLimit < 2:
		return invalid("thickness_limit must be at least 2, got %d", c.ThicknessLimit)
	case c.InitialPopulation < 0:
		return invalid("initial_population must be non-negative, got %d", c.InitialPopulation)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
