// sim/engine.go
package sim

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat/distuv"
)

// EventCounters tallies events. The first four are the reported counters;
// Migrations is bookkeeping for conservation checks.
type EventCounters struct {
	Deaths       int
	Replications int
	Detachments  int
	Immigrations int
	Migrations   int
}

func (c *EventCounters) add(o EventCounters) {
	c.Deaths += o.Deaths
	c.Replications += o.Replications
	c.Detachments += o.Detachments
	c.Immigrations += o.Immigrations
	c.Migrations += o.Migrations
}

// StepResult describes one accepted leap.
type StepResult struct {
	Events       EventCounters
	Tau          float64 // leap size actually used
	Retries      int     // number of times the leap was halved before acceptance
	Grew         bool    // a compartment was appended
	ReachedLimit bool    // this step hit the thickness limit
}

// Engine is the spatial tau-leaping simulation of one biofilm.
// It is single-threaded; run independent replicates on separate Engines.
type Engine struct {
	cfg          Config
	rng          *rand.Rand
	pois         distuv.Poisson
	mic          distuv.LogNormal
	compartments []*Compartment
	zone         int // index of the immigration zone, always the last compartment

	elapsed      float64
	exitTime     float64
	reachedLimit bool

	counters    EventCounters
	steps       int
	leapRetries int

	plan leapPlan
}

// ConcentrationAt is the antimicrobial concentration at the given depth index.
func (c Config) ConcentrationAt(depth int) float64 {
	return c.CMax * math.Exp(-c.Alpha*float64(depth)*c.DeltaX)
}

// NewEngine validates cfg and builds the initial single-compartment chain:
// the surface compartment, which is also the immigration zone, seeded with
// cfg.InitialPopulation immigrants.
func NewEngine(cfg Config, rng *rand.Rand) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errors.New("engine requires a random source")
	}
	e := &Engine{
		cfg:  cfg,
		rng:  rng,
		pois: distuv.Poisson{Src: rng},
		mic:  distuv.LogNormal{Mu: math.Log(cfg.MICScale), Sigma: cfg.MICShape, Src: rng},
	}
	surface := e.appendCompartment()
	surface.AddRandom(cfg.InitialPopulation)
	return e, nil
}

func (e *Engine) appendCompartment() *Compartment {
	depth := len(e.compartments)
	m := NewCompartment(depth, e.cfg.ConcentrationAt(depth), e.cfg.Kinetics, e.mic)
	m.SetImmigrationZone()
	e.compartments = append(e.compartments, m)
	e.zone = depth
	return m
}

// Step advances the engine by one accepted leap.
func (e *Engine) Step() StepResult {
	var res StepResult
	tau := e.cfg.Tau
	for !e.sampleLeap(tau) {
		tau /= 2.
		res.Retries++
	}
	res.Tau = tau

	e.applyLeap(&res)

	e.compartments[e.zone].AddRandom(e.plan.immigrants)
	res.Events.Immigrations = e.plan.immigrants

	res.Grew, res.ReachedLimit = e.updateBiofilmSize()
	e.elapsed += tau

	e.counters.add(res.Events)
	e.steps++
	e.leapRetries += res.Retries
	return res
}

// migrate moves individual i of compartment ci to a neighbour. Boundary
// compartments only have one neighbour to move to.
func (e *Engine) migrate(ci, i int) {
	src := e.compartments[ci]
	mic := src.RemoveAt(i)

	var dst int
	switch {
	case src.IsSurface():
		dst = ci + 1
	case src.IsImmigrationZone():
		dst = ci - 1
	case e.rng.IntN(2) == 0:
		dst = ci + 1
	default:
		dst = ci - 1
	}
	e.compartments[dst].Add(mic)
}

// updateBiofilmSize appends a compartment once the immigration zone is full
// enough, and signals the end of the run when the chain reaches the thickness limit.
func (e *Engine) updateBiofilmSize() (grew, reachedLimit bool) {
	zone := e.compartments[e.zone]
	if zone.AtThreshold() {
		zone.SetBiofilmRegion()
		e.appendCompartment()
		grew = true
		logrus.Debugf("[t=%.2f] biofilm grew to %d compartments", e.elapsed, len(e.compartments))
	}

	if !e.reachedLimit && len(e.compartments) >= e.cfg.ThicknessLimit {
		e.reachedLimit = true
		e.exitTime = e.elapsed
		e.elapsed = TimeSentinel
		reachedLimit = true
		logrus.Debugf("[t=%.2f] thickness limit %d reached", e.exitTime, e.cfg.ThicknessLimit)
	}
	return grew, reachedLimit
}

// FinalizeExit records duration as the exit time of a run that never
// reached the thickness limit. Call it once the driving loop has stopped.
func (e *Engine) FinalizeExit(duration float64) {
	if !e.reachedLimit {
		e.exitTime = duration
	}
}

func (e *Engine) Config() Config          { return e.cfg }
func (e *Engine) Elapsed() float64        { return e.elapsed }
func (e *Engine) ExitTime() float64       { return e.exitTime }
func (e *Engine) ReachedLimit() bool      { return e.reachedLimit }
func (e *Engine) Thickness() int          { return len(e.compartments) }
func (e *Engine) ImmigrationZone() int    { return e.zone }
func (e *Engine) Counters() EventCounters { return e.counters }
func (e *Engine) Steps() int              { return e.steps }
func (e *Engine) LeapRetries() int        { return e.leapRetries }

// Compartment returns the compartment at depth i. Callers must not mutate it.
func (e *Engine) Compartment(i int) *Compartment { return e.compartments[i] }

// TotalPopulation is the number of individuals across all compartments.
func (e *Engine) TotalPopulation() int {
	total := 0
	for _, m := range e.compartments {
		total += m.Size()
	}
	return total
}

// MaxPopulation is the carrying capacity of the whole chain.
func (e *Engine) MaxPopulation() int {
	return len(e.compartments) * e.cfg.Kinetics.CarryingCapacity
}

// BiofilmEdge returns the index of the deepest compartment in the biofilm
// region, or 0 when none has filled yet.
func (e *Engine) BiofilmEdge() int {
	edge := 0
	for i, m := range e.compartments {
		if m.IsBiofilmRegion() {
			edge = i
		}
	}
	return edge
}

func (e *Engine) String() string {
	return fmt.Sprintf("Engine{t=%.3f thickness=%d N=%d edge=%d}",
		e.elapsed, e.Thickness(), e.TotalPopulation(), e.BiofilmEdge())
}
