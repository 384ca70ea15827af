package optim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/tetrasim/internal/dynamo"
	"github.com/san-kum/tetrasim/internal/metrics"
	"github.com/san-kum/tetrasim/internal/oscillator"
	"github.com/san-kum/tetrasim/internal/sim"
)

// GridSearch evaluates every combination of parameter values with a fresh
// headless run and keeps the best value of one run metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Builder returns a populated controller for one parameter combination.
type Builder func(params map[string]float64) (*sim.Controller, error)

type Best struct {
	Params    map[string]float64
	Value     float64
	Evaluated int
}

func (g *GridSearch) Search(ctx context.Context, build Builder, ticks int, metricName string, maximize bool) (Best, error) {
	if len(g.paramNames) != len(g.ranges) {
		return Best{}, fmt.Errorf("%d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}

	best := Best{Value: math.Inf(1)}
	if maximize {
		best.Value = math.Inf(-1)
	}

	err := g.searchRecursive(ctx, 0, make(map[string]float64), func(current map[string]float64) error {
		c, err := build(current)
		if err != nil {
			return err
		}
		result, err := c.RunFor(ctx, ticks, true)
		if err != nil {
			return err
		}
		best.Evaluated++

		val, ok := result.Metrics[metricName]
		if !ok {
			return fmt.Errorf("unknown metric %q (have %v)", metricName, metricNames(result.Metrics))
		}
		if (maximize && val > best.Value) || (!maximize && val < best.Value) {
			best.Value = val
			best.Params = make(map[string]float64, len(current))
			for k, v := range current {
				best.Params[k] = v
			}
		}
		return nil
	})
	return best, err
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]float64, eval func(map[string]float64) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		return eval(current)
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, next, eval); err != nil {
			return err
		}
	}
	return nil
}

func metricNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ParticleBuilder returns a Builder that applies grid values to a fresh
// controller. global_coupling, environmental_noise and update_rate set the
// simulation; any other name is an oscillator parameter applied to every
// particle. Particles without an override start from the default parameters
// so each combination differs only by the grid values. cfg.Seed must be
// non-zero so every combination sees the same noise.
func ParticleBuilder(cfg sim.Config, particles []sim.ParticleSpec) Builder {
	return func(values map[string]float64) (*sim.Controller, error) {
		if err := sim.CheckSeeds(cfg.Seed, 1); err != nil {
			return nil, err
		}
		runCfg := cfg
		perParticle := make(map[string]float64, len(values))
		for name, v := range values {
			switch name {
			case "global_coupling":
				runCfg.GlobalCoupling = v
			case "environmental_noise":
				runCfg.EnvironmentalNoise = v
			case "update_rate":
				runCfg.UpdateRate = int(v)
			default:
				perParticle[name] = v
			}
		}

		c := sim.New(runCfg, sim.WithMetrics(metrics.Defaults()...))
		for i, spec := range particles {
			params := dynamo.DefaultParams()
			if spec.Override != nil {
				var err error
				if params, err = spec.Override.Merge(params); err != nil {
					return nil, err
				}
			}
			for name, v := range perParticle {
				var err error
				if params, err = params.Set(name, v); err != nil {
					return nil, err
				}
			}

			id := spec.ID
			if id == "" {
				id = fmt.Sprintf("particle_%d", i)
			}
			if err := c.Add(oscillator.New(id, params)); err != nil {
				return nil, err
			}
		}
		return c, nil
	}
}
