package config

import (
	"sort"

	"github.com/san-kum/tetrasim/internal/dynamo"
	"github.com/san-kum/tetrasim/internal/sim"
)

func f(v float64) *float64 { return &v }

// Presets are named starting points for headless runs and the server.
var Presets = map[string]*Config{
	"calm": {
		Simulation: sim.Config{UpdateRate: 60, GlobalCoupling: 0.02, EnvironmentalNoise: 0},
		Particles: ParticlesConfig{Initial: []sim.ParticleSpec{
			{ID: "calm_0", Override: &dynamo.ParamsOverride{}},
			{ID: "calm_1", Override: &dynamo.ParamsOverride{BaseFrequency: f(0.8), DampingFactor: f(0.95)}},
		}},
	},
	"resonant": {
		Simulation: sim.Config{UpdateRate: 120, GlobalCoupling: 0.3, EnvironmentalNoise: 0.005},
		Particles: ParticlesConfig{Initial: []sim.ParticleSpec{
			{ID: "resonant_0", Override: &dynamo.ParamsOverride{BaseFrequency: f(1.0), CouplingStrength: f(0.15)}},
			{ID: "resonant_1", Override: &dynamo.ParamsOverride{BaseFrequency: f(1.0), CouplingStrength: f(0.15), PhaseW2: f(0)}},
			{ID: "resonant_2", Override: &dynamo.ParamsOverride{BaseFrequency: f(2.0), CouplingStrength: f(0.15)}},
		}},
	},
	"turbulent": {
		Simulation: sim.Config{UpdateRate: 60, GlobalCoupling: 0.8, EnvironmentalNoise: 0.1},
		Particles:  ParticlesConfig{Count: 8},
	},
}

// GetPreset returns a full configuration built from defaults plus the
// preset's simulation and particle sections, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Simulation = p.Simulation
	cfg.Particles = p.Particles
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
