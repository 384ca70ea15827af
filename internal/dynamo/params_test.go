package dynamo

import (
	"errors"
	"math"
	"testing"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()

	if p.BaseFrequency != 1.0 || p.AmplitudeW2 != 1.5 || p.AmplitudeW3 != 0.8 || p.AmplitudeW4 != 1.2 {
		t.Errorf("unexpected defaults: %+v", p)
	}
	if p.PhaseW4 != 3*math.Pi/4 {
		t.Errorf("expected phase_w4 3pi/4, got %f", p.PhaseW4)
	}
	if p.DampingFactor != 0.98 || p.CouplingStrength != 0.1 {
		t.Errorf("unexpected damping/coupling: %+v", p)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestRandomParams_Ranges(t *testing.T) {
	src := NewSource(7)
	inRange := func(name string, v, lo, hi float64) {
		if v < lo || v > hi {
			t.Errorf("%s = %f outside [%f, %f]", name, v, lo, hi)
		}
	}

	for i := 0; i < 200; i++ {
		p := RandomParams(src)
		inRange("base_frequency", p.BaseFrequency, 0.5, 2.0)
		inRange("amplitude_w1", p.AmplitudeW1, 0.8, 1.2)
		inRange("amplitude_w2", p.AmplitudeW2, 1.0, 1.8)
		inRange("amplitude_w3", p.AmplitudeW3, 0.6, 1.0)
		inRange("amplitude_w4", p.AmplitudeW4, 1.0, 1.4)
		for _, ph := range p.Phases() {
			inRange("phase", ph, 0, 2*math.Pi)
		}
		inRange("coupling_strength", p.CouplingStrength, 0.05, 0.15)
		if p.DampingFactor != DefaultDamping {
			t.Errorf("damping should stay default, got %f", p.DampingFactor)
		}
	}
}

func TestRandomParams_Deterministic(t *testing.T) {
	a := RandomParams(NewSource(42))
	b := RandomParams(NewSource(42))
	if a != b {
		t.Errorf("same seed produced different params: %+v vs %+v", a, b)
	}
}

func TestParamsOverride_Merge(t *testing.T) {
	freq := 2.5
	damping := 0.9

	p, err := ParamsOverride{BaseFrequency: &freq, DampingFactor: &damping}.Merge(DefaultParams())
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if p.BaseFrequency != 2.5 || p.DampingFactor != 0.9 {
		t.Errorf("override not applied: %+v", p)
	}
	if p.AmplitudeW2 != 1.5 {
		t.Errorf("untouched field changed: %f", p.AmplitudeW2)
	}
}

func TestParamsValidate(t *testing.T) {
	nan := math.NaN()
	inf := math.Inf(1)
	neg := -1.0
	big := 1.5

	tests := []struct {
		name     string
		override ParamsOverride
		field    string
	}{
		{"nan amplitude", ParamsOverride{AmplitudeW1: &nan}, "amplitude_w1"},
		{"inf phase", ParamsOverride{PhaseW3: &inf}, "phase_w3"},
		{"negative frequency", ParamsOverride{BaseFrequency: &neg}, "base_frequency"},
		{"damping above one", ParamsOverride{DampingFactor: &big}, "damping_factor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.override.Merge(DefaultParams())
			if !errors.Is(err, ErrParameterBounds) {
				t.Fatalf("expected ErrParameterBounds, got %v", err)
			}
			var pe *ParamError
			if !errors.As(err, &pe) || pe.Field != tt.field {
				t.Errorf("expected field %s, got %v", tt.field, err)
			}
		})
	}
}

func TestSourceSuffix(t *testing.T) {
	src := NewSource(1)
	s := src.Suffix()
	if len(s) != 6 {
		t.Errorf("expected 6-char suffix, got %q", s)
	}
	if v := src.Uniform(-1, 1); v < -1 || v >= 1 {
		t.Errorf("uniform out of range: %f", v)
	}
}

func TestClamp(t *testing.T) {
	if Clamp(2, 0, 1) != 1 || Clamp(-1, 0, 1) != 0 || Clamp(0.5, 0, 1) != 0.5 {
		t.Error("clamp failed")
	}
}

func TestParamsSet(t *testing.T) {
	p := DefaultParams()
	for _, name := range ParamNames {
		if _, err := p.Set(name, 0.5); err != nil {
			t.Errorf("Set(%q) failed: %v", name, err)
		}
	}

	q, err := p.Set("coupling_strength", 0.3)
	if err != nil {
		t.Fatal(err)
	}
	if q.CouplingStrength != 0.3 || p.CouplingStrength != DefaultCoupling {
		t.Errorf("Set should copy, got q=%f p=%f", q.CouplingStrength, p.CouplingStrength)
	}

	if _, err := p.Set("nope", 1); err == nil {
		t.Error("expected error for unknown parameter")
	}
	if _, err := p.Set("damping_factor", 1.5); !errors.Is(err, ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
}
