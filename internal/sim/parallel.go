package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/san-kum/tetrasim/internal/dynamo"
	"github.com/san-kum/tetrasim/internal/metrics"
)

// Ensemble runs independent, seeded copies of the same simulation in
// parallel. Runs share nothing.
type Ensemble struct {
	cfg       Config
	particles []ParticleSpec
	numRuns   int
	seedStart int64
	metrics   func() []metrics.Metric
}

// ParticleSpec describes one particle to create at the start of a run.
// A nil Override draws random parameters from the run's seeded source.
type ParticleSpec struct {
	ID       string                 `yaml:"id" json:"id"`
	Override *dynamo.ParamsOverride `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

func NewEnsemble(cfg Config, particles []ParticleSpec, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{
		cfg:       cfg,
		particles: particles,
		numRuns:   numRuns,
		seedStart: seedStart,
		metrics:   metrics.Defaults,
	}
}

// Populate creates the given particles on c in order.
func Populate(c *Controller, particles []ParticleSpec) error {
	for _, p := range particles {
		if _, err := c.CreateOscillator(p.ID, p.Override); err != nil {
			return err
		}
	}
	return nil
}

// CheckSeeds rejects the range [start, start+n) when it contains 0.
func CheckSeeds(start int64, n int) error {
	if n > 0 && start <= 0 && start+int64(n) > 0 {
		return fmt.Errorf("seeds %d..%d: %w", start, start+int64(n)-1, dynamo.ErrZeroSeed)
	}
	return nil
}

// Run executes every member with seed seedStart+i. A seed range containing
// 0 is rejected.
func (e *Ensemble) Run(ctx context.Context, ticks int) ([]*Result, error) {
	if err := CheckSeeds(e.seedStart, e.numRuns); err != nil {
		return nil, err
	}
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfgCopy := e.cfg
			cfgCopy.Seed = e.seedStart + int64(idx)

			c := New(cfgCopy, WithMetrics(e.metrics()...))
			if err := Populate(c, e.particles); err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = c.RunFor(ctx, ticks, true)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
