package sim

// fate is the outcome sampled for one individual in one leap. die excludes
// detach and migrate; detach excludes migrate; replicate combines with migrate.
type fate struct {
	replicate int
	die       bool
	detach    bool
	migrate   bool
}

// leapPlan holds the sampled outcomes of a leap, indexed by compartment and
// by the individual's index at the start of the step. Buffers are reused
// across steps.
type leapPlan struct {
	fates      [][]fate
	immigrants int
}

func (p *leapPlan) reset(compartments int) {
	for len(p.fates) < compartments {
		p.fates = append(p.fates, nil)
	}
	p.fates = p.fates[:compartments]
	p.immigrants = 0
}

func (p *leapPlan) fatesFor(ci, n int) []fate {
	f := p.fates[ci]
	if cap(f) < n {
		f = make([]fate, n)
	}
	f = f[:n]
	p.fates[ci] = f
	return f
}

// poisson draws an event count with mean lambda. Zero rates draw nothing.
func (e *Engine) poisson(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	e.pois.Lambda = lambda
	return int(e.pois.Rand())
}

// sampleLeap samples every individual's fate for a leap of size tau into
// e.plan. It returns false as soon as any individual draws more than one
// event of a kind, in which case the whole plan must be resampled with a
// smaller tau.
func (e *Engine) sampleLeap(tau float64) bool {
	e.plan.reset(len(e.compartments))

	for ci, m := range e.compartments {
		n := m.Size()
		fates := e.plan.fatesFor(ci, n)
		zone := ci == e.zone
		migrationMean := m.MigrationRate() * tau
		detachMean := e.cfg.DeteriorationRate * tau

		for i := range n {
			var f fate

			switch e.poisson(migrationMean) {
			case 0:
			case 1:
				f.migrate = true
			default:
				return false
			}

			if zone {
				switch e.poisson(detachMean) {
				case 0:
				case 1:
					f.detach = true
					f.migrate = false
				default:
					return false
				}
			}

			switch rate := m.NetGrowthRate(i); {
			case rate > 0:
				k := e.poisson(rate * tau)
				if k > 1 && e.cfg.LeapCheckReplication {
					return false
				}
				f.replicate = k
			case rate < 0:
				switch e.poisson(-rate * tau) {
				case 0:
				case 1:
					f.die = true
					f.migrate = false
					f.detach = false
				default:
					return false
				}
			}

			fates[i] = f
		}
	}

	e.plan.immigrants = e.poisson(e.cfg.ImmigrationRate * tau)
	return true
}

// applyLeap carries out e.plan. Individuals are visited from the highest
// pre-step index down so that removals never disturb an index still to be
// visited; anything appended during the step lands past the visited range.
func (e *Engine) applyLeap(res *StepResult) {
	canMigrate := len(e.compartments) > 1

	for ci, fates := range e.plan.fates {
		m := e.compartments[ci]
		for i := len(fates) - 1; i >= 0; i-- {
			f := fates[i]
			if f.die {
				m.RemoveAt(i)
				res.Events.Deaths++
				continue
			}

			if f.replicate > 0 {
				m.Replicate(i, f.replicate)
				res.Events.Replications += f.replicate
			}
			if f.migrate && canMigrate {
				e.migrate(ci, i)
				res.Events.Migrations++
			}
			if f.detach {
				m.RemoveAt(i)
				res.Events.Detachments++
			}
		}
	}
}
