package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/san-kum/tetrasim/internal/dynamo"
	"github.com/san-kum/tetrasim/internal/sim"
)

func snapshotOf(states []dynamo.StateVector, stabilities []float64) sim.Snapshot {
	snap := sim.Snapshot{Oscillators: make(map[string]sim.OscillatorView)}
	for i, s := range states {
		id := string(rune('a' + i))
		snap.Oscillators[id] = sim.OscillatorView{
			ParticleID:        id,
			State:             s,
			DerivedProperties: sim.DerivedProperties{StabilityFactor: stabilities[i]},
		}
		snap.IDs = append(snap.IDs, id)
	}
	snap.OscillatorCount = len(states)
	return snap
}

func TestSystemEmpty(t *testing.T) {
	if _, ok := System(sim.Snapshot{}); ok {
		t.Error("expected no analytics for an empty snapshot")
	}
}

func TestSystemStats(t *testing.T) {
	snap := snapshotOf(
		[]dynamo.StateVector{{W1: 1, W2: 2, W3: 3, W4: 4}, {W1: -1, W2: 0, W3: 3, W4: 8}},
		[]float64{0.9, 0.8},
	)

	a, ok := System(snap)
	if !ok {
		t.Fatal("expected analytics")
	}

	cases := []struct {
		dim  string
		want DimensionStats
	}{
		{"w1_projection", DimensionStats{Mean: 0, Min: -1, Max: 1, Range: 2}},
		{"w2_energy", DimensionStats{Mean: 1, Min: 0, Max: 2, Range: 2}},
		{"w3_spin", DimensionStats{Mean: 3, Min: 3, Max: 3, Range: 0}},
		{"w4_mass", DimensionStats{Mean: 6, Min: 4, Max: 8, Range: 4}},
	}
	for _, tc := range cases {
		if got := a.DimensionalStatistics[tc.dim]; got != tc.want {
			t.Errorf("%s = %+v, want %+v", tc.dim, got, tc.want)
		}
	}
}

func TestStabilityBuckets(t *testing.T) {
	stab := []float64{0.81, 0.8, 0.5, 0.49, 0}
	states := make([]dynamo.StateVector, len(stab))
	a, _ := System(snapshotOf(states, stab))

	want := StabilityDistribution{High: 1, Medium: 2, Low: 2}
	if a.StabilityDistribution != want {
		t.Errorf("distribution = %+v, want %+v", a.StabilityDistribution, want)
	}
}

func TestDominantFrequency(t *testing.T) {
	dt := 1.0 / 60
	n := 600
	data := make([]float64, n)
	for i := range data {
		data[i] = math.Sin(2 * math.Pi * 3 * float64(i) * dt)
	}

	f := DominantFrequency(data, dt)
	if math.Abs(f-3) > 0.2 {
		t.Errorf("expected ~3 Hz, got %f", f)
	}
}

func TestPowerSpectrumShort(t *testing.T) {
	if PowerSpectrum([]float64{1}) != nil {
		t.Error("expected nil spectrum for a single sample")
	}
	if DominantFrequency(nil, 0.1) != 0 {
		t.Error("expected zero frequency for empty data")
	}
}

func TestSpectralBands(t *testing.T) {
	b := SpectralBands([]float64{1, 1, 1, 1, 1, 1})
	if math.Abs(b.Low+b.Mid+b.High-1) > 1e-12 {
		t.Errorf("bands should sum to 1, got %+v", b)
	}
	if (SpectralBands(nil) != Bands{}) {
		t.Error("expected zero bands for empty spectrum")
	}
}

func TestSweep(t *testing.T) {
	cfg := SweepConfig{
		Param: "coupling_strength", Min: 0, Max: 0.2, Steps: 5,
		Dimension: 1, Dt: 1.0 / 60, Transient: 60, Record: 120,
	}
	points, err := Sweep(dynamo.DefaultParams(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 5 {
		t.Fatalf("expected 5 points, got %d", len(points))
	}
	if points[0].Param != 0 || math.Abs(points[4].Param-0.2) > 1e-12 {
		t.Errorf("unexpected param range %f..%f", points[0].Param, points[4].Param)
	}
	for _, p := range points {
		if len(p.Values) == 0 {
			t.Errorf("no values recorded at %f", p.Param)
		}
	}

	if out := SweepToASCII(points, 40, 10); strings.Count(out, "\n") != 10 {
		t.Errorf("expected 10 rows, got %d", strings.Count(out, "\n"))
	}
}

func TestSweepErrors(t *testing.T) {
	if _, err := Sweep(dynamo.DefaultParams(), SweepConfig{Param: "bogus", Dimension: 0}); err == nil {
		t.Error("expected error for unknown parameter")
	}
	if _, err := Sweep(dynamo.DefaultParams(), SweepConfig{Param: "base_frequency", Dimension: 4}); err == nil {
		t.Error("expected error for dimension out of range")
	}
}

func TestDivergenceDamped(t *testing.T) {
	p := dynamo.DefaultParams()
	p.DampingFactor = 0.5
	lambda := Divergence(p, 1.0/60, 300, 1e-6)
	if lambda >= 0 {
		t.Errorf("heavy damping should shrink perturbations, got %f", lambda)
	}
	if Divergence(p, 1.0/60, 0, 1e-6) != 0 {
		t.Error("expected zero for no ticks")
	}
}

func history(n int) []sim.HistoryPoint {
	h := make([]sim.HistoryPoint, n)
	for i := range h {
		tm := float64(i) * 0.05
		s := dynamo.StateVector{W1: math.Sin(tm), W2: math.Cos(tm), W3: 0, W4: 1}
		h[i] = sim.HistoryPoint{Time: tm, State: s, Magnitude: s.Magnitude()}
	}
	return h
}

func TestPhasePortrait(t *testing.T) {
	p, err := NewPhasePortrait(history(200), 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Points) != 200 {
		t.Errorf("expected 200 points, got %d", len(p.Points))
	}
	out := p.ToASCII(40, 20)
	if !strings.Contains(out, "•") {
		t.Error("expected plotted points")
	}
	if _, err := NewPhasePortrait(nil, 0, 5); err == nil {
		t.Error("expected error for bad dimension")
	}
}

func TestCrossings(t *testing.T) {
	pts := Crossings(history(400), 0, 0, 1, 3)
	if len(pts) == 0 {
		t.Fatal("expected sine to cross zero")
	}
	for _, p := range pts {
		if p.Y != 1 {
			t.Errorf("w4 should be 1, got %f", p.Y)
		}
	}
	if CrossingsToASCII(nil, 10, 10) != "No crossings detected" {
		t.Error("unexpected empty rendering")
	}
}
