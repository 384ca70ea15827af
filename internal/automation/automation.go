package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/tetrasim/internal/dynamo"
	"github.com/san-kum/tetrasim/internal/metrics"
	"github.com/san-kum/tetrasim/internal/oscillator"
	"github.com/san-kum/tetrasim/internal/sim"
)

// Scenario is a scripted sequence of controller operations.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Seed        int64          `yaml:"seed"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// Action names accepted in a scenario step.
const (
	ActionCreate    = "create"
	ActionRemove    = "remove"
	ActionConfigure = "configure"
	ActionStart     = "start"
	ActionStop      = "stop"
	ActionReset     = "reset"
	ActionRun       = "run"
)

// ScenarioStep is a single step in a scenario. Which fields matter depends
// on Action.
type ScenarioStep struct {
	Action     string                 `yaml:"action"`
	ID         string                 `yaml:"id"`
	Parameters *dynamo.ParamsOverride `yaml:"parameters"`

	GlobalCoupling     *float64 `yaml:"global_coupling"`
	EnvironmentalNoise *float64 `yaml:"environmental_noise"`
	UpdateRate         *int     `yaml:"update_rate"`

	Ticks int `yaml:"ticks"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	for i, step := range scenario.Steps {
		if err := step.validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &scenario, nil
}

func (s ScenarioStep) validate() error {
	switch s.Action {
	case ActionCreate, ActionConfigure, ActionStart, ActionStop, ActionReset:
		return nil
	case ActionRemove:
		if s.ID == "" {
			return fmt.Errorf("remove needs an id")
		}
		return nil
	case ActionRun:
		if s.Ticks <= 0 {
			return fmt.Errorf("run needs positive ticks, got %d", s.Ticks)
		}
		return nil
	default:
		return fmt.Errorf("unknown action %q", s.Action)
	}
}

// RunScenario applies every step to c in order and returns one result per
// run step.
func RunScenario(ctx context.Context, scenario *Scenario, c *sim.Controller) ([]*sim.Result, error) {
	var results []*sim.Result

	for i, step := range scenario.Steps {
		slog.Debug("scenario step", "scenario", scenario.Name, "step", i+1, "action", step.Action)

		switch step.Action {
		case ActionCreate:
			if _, err := c.CreateOscillator(step.ID, step.Parameters); err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
		case ActionRemove:
			if !c.RemoveOscillator(step.ID) {
				return results, fmt.Errorf("step %d: remove %q: %w", i+1, step.ID, dynamo.ErrNotFound)
			}
		case ActionConfigure:
			c.Configure(sim.ConfigUpdate{
				GlobalCoupling:     step.GlobalCoupling,
				EnvironmentalNoise: step.EnvironmentalNoise,
				UpdateRate:         step.UpdateRate,
			})
		case ActionStart:
			c.Start()
		case ActionStop:
			c.Stop()
		case ActionReset:
			c.Reset()
		case ActionRun:
			result, err := c.RunFor(ctx, step.Ticks, true)
			if err != nil {
				return results, fmt.Errorf("step %d run: %w", i+1, err)
			}
			results = append(results, result)
		default:
			return results, fmt.Errorf("step %d: unknown action %q", i+1, step.Action)
		}
	}

	return results, nil
}

// MonteCarloConfig perturbs every particle's base frequency and amplitudes by
// a relative factor drawn uniformly from [-Perturbation, Perturbation].
type MonteCarloConfig struct {
	Simulation   sim.Config
	Particles    []sim.ParticleSpec
	Perturbation float64
	NumTrials    int
	Ticks        int
	Seed         int64
}

type MonteCarloResult struct {
	TrialID        int
	FinalMagnitude float64
	PeakMagnitude  float64
	MeanStability  float64
	Stable         bool // every state finite and bounded on every tick
}

const divergenceBound = 1e6

func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig) ([]MonteCarloResult, error) {
	if cfg.NumTrials <= 0 {
		return nil, fmt.Errorf("trials must be positive, got %d", cfg.NumTrials)
	}

	// cfg.Seed drives the perturbations; trial i runs with cfg.Seed+i+1.
	if err := sim.CheckSeeds(cfg.Seed, cfg.NumTrials+1); err != nil {
		return nil, err
	}

	amount := dynamo.Clamp(cfg.Perturbation, 0, 1)
	rng := dynamo.NewSource(cfg.Seed)
	results := make([]MonteCarloResult, 0, cfg.NumTrials)

	for trial := 0; trial < cfg.NumTrials; trial++ {
		simCfg := cfg.Simulation
		simCfg.Seed = cfg.Seed + int64(trial) + 1
		peak := metrics.NewPeakMagnitude()
		c := sim.New(simCfg, sim.WithMetrics(append(metrics.Defaults(), peak)...))

		for i, p := range cfg.Particles {
			id := p.ID
			if id == "" {
				id = fmt.Sprintf("trial_particle_%d", i)
			}
			base := dynamo.DefaultParams()
			if p.Override != nil {
				merged, err := p.Override.Merge(base)
				if err != nil {
					return nil, fmt.Errorf("particle %q: %w", id, err)
				}
				base = merged
			}
			if err := c.Add(oscillator.New(id, perturb(base, amount, rng))); err != nil {
				return nil, err
			}
		}

		result, err := c.RunFor(ctx, cfg.Ticks, false)
		if err != nil {
			return nil, err
		}

		res := MonteCarloResult{
			TrialID:       trial,
			PeakMagnitude: peak.Value(),
			Stable:        peak.Value() <= divergenceBound,
		}
		for _, v := range result.Final.Oscillators {
			res.FinalMagnitude = math.Max(res.FinalMagnitude, v.DerivedProperties.StateMagnitude)
		}
		res.MeanStability = result.Final.GlobalMetrics.AverageStability
		results = append(results, res)

		if (trial+1)%10 == 0 {
			slog.Info("monte carlo progress", "done", trial+1, "trials", cfg.NumTrials)
		}
	}

	return results, nil
}

func perturb(p dynamo.Params, amount float64, rng dynamo.Source) dynamo.Params {
	scale := func(v float64) float64 {
		return v * (1 + rng.Uniform(-amount, amount))
	}
	p.BaseFrequency = scale(p.BaseFrequency)
	p.AmplitudeW1 = scale(p.AmplitudeW1)
	p.AmplitudeW2 = scale(p.AmplitudeW2)
	p.AmplitudeW3 = scale(p.AmplitudeW3)
	p.AmplitudeW4 = scale(p.AmplitudeW4)
	return p
}

// MonteCarloStats counts stable and unstable trials.
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
