package dynamo

import (
	"math"
	"testing"
)

func TestStateVector_Magnitude(t *testing.T) {
	tests := []struct {
		state    StateVector
		expected float64
	}{
		{StateVector{3, 4, 0, 0}, 5.0},
		{StateVector{1, 0, 0, 0}, 1.0},
		{StateVector{0, 0, 0, 0}, 0.0},
		{StateVector{1, 1, 1, 1}, 2.0},
		{StateVector{-1, -1, -1, -1}, 2.0},
		{InitialState(), math.Sqrt2},
	}

	for _, tt := range tests {
		if got := tt.state.Magnitude(); math.Abs(got-tt.expected) > 1e-10 {
			t.Errorf("Magnitude(%v) = %v, want %v", tt.state, got, tt.expected)
		}
	}
}

func TestStateVector_MagnitudeZeroOnlyAtOrigin(t *testing.T) {
	tiny := math.SmallestNonzeroFloat64
	states := []StateVector{
		{tiny, 0, 0, 0},
		{0, -tiny, 0, 0},
		{0, 0, 1e-300, 0},
		{0, 0, 0, 1e-200},
	}
	for _, s := range states {
		if s.Magnitude() < 0 {
			t.Errorf("negative magnitude for %v", s)
		}
	}
	if (StateVector{}).Magnitude() != 0 {
		t.Error("origin must have zero magnitude")
	}
	if (StateVector{0, 0, 1e-150, 0}).Magnitude() == 0 {
		t.Error("non-zero component must give non-zero magnitude")
	}
}

func TestStateVector_IsFinite(t *testing.T) {
	tests := []struct {
		name  string
		state StateVector
		valid bool
	}{
		{"zeros", StateVector{}, true},
		{"normal", StateVector{1, 2, 3, 4}, true},
		{"with NaN", StateVector{1, math.NaN(), 0, 0}, false},
		{"with +Inf", StateVector{0, 0, math.Inf(1), 0}, false},
		{"with -Inf", StateVector{0, 0, 0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsFinite(); got != tt.valid {
				t.Errorf("IsFinite() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestStateVector_Arithmetic(t *testing.T) {
	a := StateVector{1, 2, 3, 4}
	b := StateVector{4, 5, 6, 7}

	diff := b.Sub(a)
	if diff != (StateVector{3, 3, 3, 3}) {
		t.Errorf("Sub failed: got %v", diff)
	}

	scaled := a.Scale(2)
	if scaled != (StateVector{2, 4, 6, 8}) {
		t.Errorf("Scale failed: got %v", scaled)
	}

	if got := (StateVector{-1, 2, -3, 4}).L1(); got != 10 {
		t.Errorf("L1 = %v, want 10", got)
	}

	for i, want := range a.Components() {
		if a.Component(i) != want {
			t.Errorf("Component(%d) = %v, want %v", i, a.Component(i), want)
		}
	}
	if a.Component(4) != 0 {
		t.Error("out of range component should be 0")
	}
}
