package dynamo

import "math"

// StateVector is the four-component state of one particle.
type StateVector struct {
	W1 float64 `json:"w1_projection"`
	W2 float64 `json:"w2_energy"`
	W3 float64 `json:"w3_spin"`
	W4 float64 `json:"w4_mass"`
}

// InitialState is the state every new oscillator starts from.
func InitialState() StateVector {
	return StateVector{W1: 0, W2: 1, W3: 0, W4: 1}
}

// Magnitude returns the Euclidean norm of the four components.
func (s StateVector) Magnitude() float64 {
	return math.Sqrt(s.W1*s.W1 + s.W2*s.W2 + s.W3*s.W3 + s.W4*s.W4)
}

// IsFinite reports whether no component is NaN or Inf.
func (s StateVector) IsFinite() bool {
	for _, v := range s.Components() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Components returns the state as an array indexed w1..w4.
func (s StateVector) Components() [4]float64 {
	return [4]float64{s.W1, s.W2, s.W3, s.W4}
}

// Component returns the i-th component (0-based). Out of range yields 0.
func (s StateVector) Component(i int) float64 {
	switch i {
	case 0:
		return s.W1
	case 1:
		return s.W2
	case 2:
		return s.W3
	case 3:
		return s.W4
	}
	return 0
}

// Scale multiplies every component by factor.
func (s StateVector) Scale(factor float64) StateVector {
	return StateVector{W1: s.W1 * factor, W2: s.W2 * factor, W3: s.W3 * factor, W4: s.W4 * factor}
}

// Sub returns s - other component-wise.
func (s StateVector) Sub(other StateVector) StateVector {
	return StateVector{W1: s.W1 - other.W1, W2: s.W2 - other.W2, W3: s.W3 - other.W3, W4: s.W4 - other.W4}
}

// L1 returns the sum of absolute component values.
func (s StateVector) L1() float64 {
	return math.Abs(s.W1) + math.Abs(s.W2) + math.Abs(s.W3) + math.Abs(s.W4)
}

// DimensionNames are the wire names of the four components, in order.
var DimensionNames = [4]string{"w1_projection", "w2_energy", "w3_spin", "w4_mass"}
