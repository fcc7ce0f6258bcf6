package batch

import (
	"context"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Section is a contiguous half-open range [Start, End) of replicate indices.
type Section struct {
	Start, End int
}

// Len returns the number of replicates in the section.
func (s Section) Len() int { return s.End - s.Start }

// Sections partitions n replicates into k contiguous sections. The remainder
// is spread over the leading sections so every replicate is run; k is capped
// at n so no section is empty.
func Sections(n, k int) []Section {
	if n <= 0 || k <= 0 {
		return nil
	}
	k = min(k, n)
	base, rem := n/k, n%k
	out := make([]Section, 0, k)
	start := 0
	for i := 0; i < k; i++ {
		size := base
		if i < rem {
			size++
		}
		out = append(out, Section{Start: start, End: start + size})
		start += size
	}
	return out
}

// Run executes every replicate of cfg and returns the results indexed by
// replicate. Sections run one after another; replicates inside a section run
// concurrently, bounded by cfg.Workers. The first replicate error (including
// context cancellation) aborts the batch. metrics may be nil.
func Run(ctx context.Context, cfg RunConfig, metrics *Metrics) ([]Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, cfg.Replicates)
	for s, sec := range Sections(cfg.Replicates, cfg.Sections) {
		logrus.Infof("section: %d (replicates %d-%d)", s, sec.Start, sec.End-1)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i := sec.Start; i < sec.End; i++ {
			g.Go(func() error {
				res, err := RunReplicate(gctx, cfg, i)
				if err != nil {
					return err
				}
				results[i] = res
				metrics.Observe(res)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	return results, nil
}
