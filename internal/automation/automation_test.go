package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/tetrasim/internal/dynamo"
	"github.com/san-kum/tetrasim/internal/sim"
)

const sampleScenario = `
name: coupled-pair
description: two particles, stronger coupling halfway through
seed: 7
steps:
  - action: configure
    global_coupling: 0.2
    environmental_noise: 0
  - action: create
    id: a
  - action: create
    id: b
    parameters:
      base_frequency: 2.5
  - action: run
    ticks: 30
  - action: configure
    global_coupling: 0.8
  - action: remove
    id: a
  - action: run
    ticks: 20
`

func TestParseScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(sampleScenario))
	if err != nil {
		t.Fatal(err)
	}
	if sc.Name != "coupled-pair" || sc.Seed != 7 {
		t.Errorf("unexpected header %+v", sc)
	}
	if len(sc.Steps) != 7 {
		t.Fatalf("expected 7 steps, got %d", len(sc.Steps))
	}
	if got := sc.Steps[2].Parameters; got == nil || *got.BaseFrequency != 2.5 {
		t.Errorf("parameters not decoded: %+v", got)
	}
	if sc.Steps[0].GlobalCoupling == nil || *sc.Steps[0].GlobalCoupling != 0.2 {
		t.Error("global_coupling not decoded")
	}
}

func TestParseScenarioRejectsBadSteps(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown action", "steps:\n  - action: explode\n"},
		{"run without ticks", "steps:\n  - action: run\n"},
		{"remove without id", "steps:\n  - action: remove\n"},
		{"not yaml", "steps: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseScenario([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(sampleScenario), 0644); err != nil {
		t.Fatal(err)
	}
	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatal(err)
	}
	if sc.Description == "" {
		t.Error("description missing")
	}

	if _, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(sampleScenario))
	if err != nil {
		t.Fatal(err)
	}
	c := sim.New(sim.Config{Seed: sc.Seed})

	results, err := RunScenario(context.Background(), sc, c)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 run results, got %d", len(results))
	}
	if results[0].StepsTaken != 30 || results[1].StepsTaken != 20 {
		t.Errorf("unexpected steps %d, %d", results[0].StepsTaken, results[1].StepsTaken)
	}
	if results[0].Final.OscillatorCount != 2 || results[1].Final.OscillatorCount != 1 {
		t.Errorf("unexpected counts %d, %d", results[0].Final.OscillatorCount, results[1].Final.OscillatorCount)
	}
	if g := c.Settings().GlobalCoupling; g != 0.8 {
		t.Errorf("expected coupling 0.8, got %v", g)
	}
	if _, ok := c.Lookup("a"); ok {
		t.Error("a should have been removed")
	}
}

func TestRunScenarioErrors(t *testing.T) {
	tests := []struct {
		name  string
		steps []ScenarioStep
		want  error
	}{
		{"remove unknown", []ScenarioStep{{Action: ActionRemove, ID: "ghost"}}, dynamo.ErrNotFound},
		{"duplicate create", []ScenarioStep{{Action: ActionCreate, ID: "x"}, {Action: ActionCreate, ID: "x"}}, dynamo.ErrDuplicateID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RunScenario(context.Background(), &Scenario{Steps: tt.steps}, sim.New(sim.Config{Seed: 1}))
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRunMonteCarlo(t *testing.T) {
	cfg := &MonteCarloConfig{
		Simulation:   sim.DefaultConfig(),
		Particles:    []sim.ParticleSpec{{ID: "a"}, {}},
		Perturbation: 0.2,
		NumTrials:    12,
		Ticks:        50,
		Seed:         3,
	}

	results, err := RunMonteCarlo(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 12 {
		t.Fatalf("expected 12 results, got %d", len(results))
	}

	stable, unstable := MonteCarloStats(results)
	if stable+unstable != 12 {
		t.Errorf("stats do not add up: %d + %d", stable, unstable)
	}
	if stable != 12 {
		t.Errorf("damped oscillators should stay bounded, got %d unstable", unstable)
	}
	for _, r := range results {
		if r.FinalMagnitude <= 0 {
			t.Errorf("trial %d: expected positive magnitude", r.TrialID)
		}
	}

	again, _ := RunMonteCarlo(context.Background(), cfg)
	for i := range results {
		if results[i] != again[i] {
			t.Fatalf("trial %d not reproducible", i)
		}
	}

	if _, err := RunMonteCarlo(context.Background(), &MonteCarloConfig{}); err == nil {
		t.Error("expected error for zero trials")
	}
}

func TestPerturbBounds(t *testing.T) {
	base := dynamo.DefaultParams()
	rng := dynamo.NewSource(9)
	for i := 0; i < 100; i++ {
		p := perturb(base, 0.1, rng)
		if p.BaseFrequency < base.BaseFrequency*0.9 || p.BaseFrequency > base.BaseFrequency*1.1 {
			t.Fatalf("frequency %v outside 10%% band", p.BaseFrequency)
		}
		if p.DampingFactor != base.DampingFactor {
			t.Fatal("damping should not be perturbed")
		}
	}
}

func TestRunMonteCarloCatchesTransientDivergence(t *testing.T) {
	// w1 peaks near 1e7 at t=0.25 and is back near zero at t=0.5.
	amp, zero := 1e7, 0.0
	cfg := &MonteCarloConfig{
		Simulation: sim.Config{UpdateRate: 60},
		Particles: []sim.ParticleSpec{{ID: "spike", Override: &dynamo.ParamsOverride{
			AmplitudeW1:      &amp,
			CouplingStrength: &zero,
		}}},
		NumTrials: 1,
		Ticks:     30,
		Seed:      5,
	}

	results, err := RunMonteCarlo(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	r := results[0]
	if r.FinalMagnitude > divergenceBound {
		t.Fatalf("final state should be back in bounds, got %v", r.FinalMagnitude)
	}
	if r.PeakMagnitude <= divergenceBound {
		t.Fatalf("expected a mid-run peak above the bound, got %v", r.PeakMagnitude)
	}
	if r.Stable {
		t.Error("a trial that left the bound mid-run must be unstable")
	}
}

func TestRunMonteCarloRejectsZeroSeed(t *testing.T) {
	for _, seed := range []int64{0, -2} {
		_, err := RunMonteCarlo(context.Background(), &MonteCarloConfig{
			Simulation: sim.DefaultConfig(),
			Particles:  []sim.ParticleSpec{{ID: "a"}},
			NumTrials:  3,
			Ticks:      5,
			Seed:       seed,
		})
		if !errors.Is(err, dynamo.ErrZeroSeed) {
			t.Errorf("seed %d: expected ErrZeroSeed, got %v", seed, err)
		}
	}
}
