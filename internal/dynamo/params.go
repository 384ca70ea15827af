package dynamo

import (
	"fmt"
	"math"
)

// Engine constants shared by the controller and the external surfaces.
const (
	DefaultDamping  = 0.98
	DefaultCoupling = 0.1

	MinUpdateRate         = 10
	MaxUpdateRate         = 120
	DefaultUpdateRate     = 60
	DefaultGlobalCoupling = 0.05
	DefaultNoise          = 0.01
	MaxEnvironmentalNoise = 0.1
)

// Params controls one particle's oscillation. Immutable once an oscillator holds it.
type Params struct {
	BaseFrequency    float64 `json:"base_frequency" yaml:"base_frequency"`
	AmplitudeW1      float64 `json:"amplitude_w1" yaml:"amplitude_w1"`
	AmplitudeW2      float64 `json:"amplitude_w2" yaml:"amplitude_w2"`
	AmplitudeW3      float64 `json:"amplitude_w3" yaml:"amplitude_w3"`
	AmplitudeW4      float64 `json:"amplitude_w4" yaml:"amplitude_w4"`
	PhaseW1          float64 `json:"phase_w1" yaml:"phase_w1"`
	PhaseW2          float64 `json:"phase_w2" yaml:"phase_w2"`
	PhaseW3          float64 `json:"phase_w3" yaml:"phase_w3"`
	PhaseW4          float64 `json:"phase_w4" yaml:"phase_w4"`
	DampingFactor    float64 `json:"damping_factor" yaml:"damping_factor"`
	CouplingStrength float64 `json:"coupling_strength" yaml:"coupling_strength"`
}

// DefaultParams returns the documented default parameter set.
func DefaultParams() Params {
	return Params{
		BaseFrequency:    1.0,
		AmplitudeW1:      1.0,
		AmplitudeW2:      1.5,
		AmplitudeW3:      0.8,
		AmplitudeW4:      1.2,
		PhaseW1:          0,
		PhaseW2:          math.Pi / 4,
		PhaseW3:          math.Pi / 2,
		PhaseW4:          3 * math.Pi / 4,
		DampingFactor:    DefaultDamping,
		CouplingStrength: DefaultCoupling,
	}
}

// RandomParams draws every field from its fixed uniform range.
// Damping keeps its default.
func RandomParams(src Source) Params {
	return Params{
		BaseFrequency:    src.Uniform(0.5, 2.0),
		AmplitudeW1:      src.Uniform(0.8, 1.2),
		AmplitudeW2:      src.Uniform(1.0, 1.8),
		AmplitudeW3:      src.Uniform(0.6, 1.0),
		AmplitudeW4:      src.Uniform(1.0, 1.4),
		PhaseW1:          src.Uniform(0, 2*math.Pi),
		PhaseW2:          src.Uniform(0, 2*math.Pi),
		PhaseW3:          src.Uniform(0, 2*math.Pi),
		PhaseW4:          src.Uniform(0, 2*math.Pi),
		DampingFactor:    DefaultDamping,
		CouplingStrength: src.Uniform(0.05, 0.15),
	}
}

// Amplitudes returns the per-dimension amplitudes indexed w1..w4.
func (p Params) Amplitudes() [4]float64 {
	return [4]float64{p.AmplitudeW1, p.AmplitudeW2, p.AmplitudeW3, p.AmplitudeW4}
}

// Phases returns the per-dimension phase offsets indexed w1..w4.
func (p Params) Phases() [4]float64 {
	return [4]float64{p.PhaseW1, p.PhaseW2, p.PhaseW3, p.PhaseW4}
}

// Validate rejects parameter sets that would poison the numeric path.
func (p Params) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"base_frequency", p.BaseFrequency},
		{"amplitude_w1", p.AmplitudeW1},
		{"amplitude_w2", p.AmplitudeW2},
		{"amplitude_w3", p.AmplitudeW3},
		{"amplitude_w4", p.AmplitudeW4},
		{"phase_w1", p.PhaseW1},
		{"phase_w2", p.PhaseW2},
		{"phase_w3", p.PhaseW3},
		{"phase_w4", p.PhaseW4},
		{"damping_factor", p.DampingFactor},
		{"coupling_strength", p.CouplingStrength},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &ParamError{Field: f.name, Value: f.value}
		}
	}
	if p.BaseFrequency < 0 {
		return &ParamError{Field: "base_frequency", Value: p.BaseFrequency}
	}
	if p.DampingFactor < 0 || p.DampingFactor > 1 {
		return &ParamError{Field: "damping_factor", Value: p.DampingFactor}
	}
	return nil
}

// ParamNames lists the settable parameter names in declaration order.
var ParamNames = []string{
	"base_frequency",
	"amplitude_w1", "amplitude_w2", "amplitude_w3", "amplitude_w4",
	"phase_w1", "phase_w2", "phase_w3", "phase_w4",
	"damping_factor", "coupling_strength",
}

// Set returns a copy of p with the named field replaced.
func (p Params) Set(name string, v float64) (Params, error) {
	var o ParamsOverride
	switch name {
	case "base_frequency":
		o.BaseFrequency = &v
	case "amplitude_w1":
		o.AmplitudeW1 = &v
	case "amplitude_w2":
		o.AmplitudeW2 = &v
	case "amplitude_w3":
		o.AmplitudeW3 = &v
	case "amplitude_w4":
		o.AmplitudeW4 = &v
	case "phase_w1":
		o.PhaseW1 = &v
	case "phase_w2":
		o.PhaseW2 = &v
	case "phase_w3":
		o.PhaseW3 = &v
	case "phase_w4":
		o.PhaseW4 = &v
	case "damping_factor":
		o.DampingFactor = &v
	case "coupling_strength":
		o.CouplingStrength = &v
	default:
		return p, fmt.Errorf("unknown parameter %q", name)
	}
	return o.Merge(p)
}

// ParamsOverride carries a partial parameter set; nil fields keep the base value.
type ParamsOverride struct {
	BaseFrequency    *float64 `json:"base_frequency,omitempty" yaml:"base_frequency,omitempty"`
	AmplitudeW1      *float64 `json:"amplitude_w1,omitempty" yaml:"amplitude_w1,omitempty"`
	AmplitudeW2      *float64 `json:"amplitude_w2,omitempty" yaml:"amplitude_w2,omitempty"`
	AmplitudeW3      *float64 `json:"amplitude_w3,omitempty" yaml:"amplitude_w3,omitempty"`
	AmplitudeW4      *float64 `json:"amplitude_w4,omitempty" yaml:"amplitude_w4,omitempty"`
	PhaseW1          *float64 `json:"phase_w1,omitempty" yaml:"phase_w1,omitempty"`
	PhaseW2          *float64 `json:"phase_w2,omitempty" yaml:"phase_w2,omitempty"`
	PhaseW3          *float64 `json:"phase_w3,omitempty" yaml:"phase_w3,omitempty"`
	PhaseW4          *float64 `json:"phase_w4,omitempty" yaml:"phase_w4,omitempty"`
	DampingFactor    *float64 `json:"damping_factor,omitempty" yaml:"damping_factor,omitempty"`
	CouplingStrength *float64 `json:"coupling_strength,omitempty" yaml:"coupling_strength,omitempty"`
}

// Merge applies the override onto base and validates the result.
func (o ParamsOverride) Merge(base Params) (Params, error) {
	p := base
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.BaseFrequency, o.BaseFrequency)
	set(&p.AmplitudeW1, o.AmplitudeW1)
	set(&p.AmplitudeW2, o.AmplitudeW2)
	set(&p.AmplitudeW3, o.AmplitudeW3)
	set(&p.AmplitudeW4, o.AmplitudeW4)
	set(&p.PhaseW1, o.PhaseW1)
	set(&p.PhaseW2, o.PhaseW2)
	set(&p.PhaseW3, o.PhaseW3)
	set(&p.PhaseW4, o.PhaseW4)
	set(&p.DampingFactor, o.DampingFactor)
	set(&p.CouplingStrength, o.CouplingStrength)

	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
