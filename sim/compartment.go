package sim

import "fmt"

// Role is the lifecycle stage of a compartment. Stages only move forward:
// RoleUnassigned → RoleImmigrationZone → RoleBiofilm.
type Role uint8

const (
	// RoleUnassigned is the stage of a compartment that has not joined the chain yet.
	RoleUnassigned Role = iota
	// RoleImmigrationZone accepts immigrants and loses individuals to detachment.
	RoleImmigrationZone
	// RoleBiofilm is permanent: the compartment filled past the growth threshold.
	RoleBiofilm
)

func (r Role) String() string {
	switch r {
	case RoleUnassigned:
		return "unassigned"
	case RoleImmigrationZone:
		return "immigration-zone"
	case RoleBiofilm:
		return "biofilm"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

// roleTransitions lists the only legal stage changes.
var roleTransitions = map[Role]Role{
	RoleUnassigned:      RoleImmigrationZone,
	RoleImmigrationZone: RoleBiofilm,
}

// MICSampler draws a fresh MIC value. distuv.LogNormal satisfies it.
type MICSampler interface {
	Rand() float64
}

// Compartment is one spatial slot of the chain ("microhabitat").
// Its population is a multiset of MIC values; order carries no meaning.
type Compartment struct {
	depth      int
	c          float64 // local antimicrobial concentration, fixed at creation
	kin        Kinetics
	surface    bool
	role       Role
	population []float64
	mic        MICSampler
}

// NewCompartment creates an unassigned compartment at the given depth.
// Depth 0 is the surface compartment; no other depth can be.
func NewCompartment(depth int, c float64, kin Kinetics, mic MICSampler) *Compartment {
	return &Compartment{
		depth:      depth,
		c:          c,
		kin:        kin,
		surface:    depth == 0,
		population: make([]float64, 0, kin.CarryingCapacity),
		mic:        mic,
	}
}

func (m *Compartment) Depth() int              { return m.depth }
func (m *Compartment) Concentration() float64  { return m.c }
func (m *Compartment) Role() Role              { return m.role }
func (m *Compartment) IsSurface() bool         { return m.surface }
func (m *Compartment) IsBiofilmRegion() bool   { return m.role == RoleBiofilm }
func (m *Compartment) IsImmigrationZone() bool { return m.role == RoleImmigrationZone }
func (m *Compartment) Size() int               { return len(m.population) }

// MIC returns the resistance value of individual i.
func (m *Compartment) MIC(i int) float64 { return m.population[i] }

// DensityFraction is size over carrying capacity.
func (m *Compartment) DensityFraction() float64 {
	return float64(len(m.population)) / float64(m.kin.CarryingCapacity)
}

// AtThreshold reports whether the compartment is full enough to trigger domain growth.
func (m *Compartment) AtThreshold() bool {
	return m.DensityFraction() >= m.kin.GrowthThreshold
}

// MigrationRate is the per-individual hop rate. Migration out of a boundary
// compartment can only go one way, so the rate is halved there.
func (m *Compartment) MigrationRate() float64 {
	if m.surface || m.role == RoleImmigrationZone {
		return 0.5 * m.kin.MigrationRate
	}
	return m.kin.MigrationRate
}

// NetGrowthRate is the pharmacodynamic rate of individual i: positive values
// are replication rates (throttled logistically by crowding), negative values
// are death rates (not density limited).
func (m *Compartment) NetGrowthRate(i int) float64 {
	cB := m.c / m.population[i]
	phi := 1. - (6.*cB*cB)/(5.+cB*cB)
	scaled := m.kin.IntrinsicRate * phi
	if phi > 0 {
		return scaled * (1. - m.DensityFraction())
	}
	return scaled
}

// AddRandom appends n immigrants with freshly sampled MIC values.
func (m *Compartment) AddRandom(n int) {
	for range n {
		m.population = append(m.population, m.mic.Rand())
	}
}

// Add appends one individual carrying the given MIC.
func (m *Compartment) Add(mic float64) {
	m.population = append(m.population, mic)
}

// Replicate appends n clones of individual i.
func (m *Compartment) Replicate(i, n int) {
	mic := m.population[i]
	for range n {
		m.population = append(m.population, mic)
	}
}

// RemoveAt removes individual i by moving the last individual into its slot.
// Only indices below i keep their identity, so callers removing several
// individuals must go from the highest index to the lowest.
func (m *Compartment) RemoveAt(i int) float64 {
	mic := m.population[i]
	last := len(m.population) - 1
	m.population[i] = m.population[last]
	m.population = m.population[:last]
	return mic
}

// SetImmigrationZone makes an unassigned compartment the immigration zone.
func (m *Compartment) SetImmigrationZone() { m.transition(RoleImmigrationZone) }

// SetBiofilmRegion retires the immigration zone into the permanent biofilm region.
func (m *Compartment) SetBiofilmRegion() { m.transition(RoleBiofilm) }

func (m *Compartment) transition(next Role) {
	if m.role == next {
		return
	}
	if roleTransitions[m.role] != next || m.role == RoleBiofilm {
		panic(fmt.Sprintf("compartment %d: illegal role transition %s -> %s", m.depth, m.role, next))
	}
	m.role = next
}
