package metrics

import (
	"math"

	"github.com/san-kum/tetrasim/internal/dynamo"
)

// CoherenceWindow is the number of recent states phase coherence looks at.
const CoherenceWindow = 10

// Stability measures how evenly the magnitude is shared across the four
// dimensions. A zero state has stability 0.
func Stability(s dynamo.StateVector) float64 {
	m := s.Magnitude()
	if m == 0 {
		return 0
	}
	balance := 1.0
	for _, w := range s.Components() {
		balance -= math.Abs(0.25 - math.Abs(w)/m)
	}
	return dynamo.Clamp(balance, 0, 1)
}

// Energy is the kinetic term 0.5·Σw² plus a coupling potential over the
// cyclic adjacent pairs (w1w2, w2w3, w3w4, w4w1).
func Energy(s dynamo.StateVector, coupling float64) float64 {
	kinetic := 0.5 * (s.W1*s.W1 + s.W2*s.W2 + s.W3*s.W3 + s.W4*s.W4)
	potential := 0.25 * coupling * (s.W1*s.W2 + s.W2*s.W3 + s.W3*s.W4 + s.W4*s.W1)
	return kinetic + potential
}

// Coherence is 1 minus the mean L1 step between consecutive states, scaled
// by 1/4 and clamped. Fewer than CoherenceWindow states yields 1.
// Only the last CoherenceWindow states are considered.
func Coherence(recent []dynamo.StateVector) float64 {
	if len(recent) < CoherenceWindow {
		return 1.0
	}
	window := recent[len(recent)-CoherenceWindow:]

	sum := 0.0
	for i := 1; i < len(window); i++ {
		sum += window[i].Sub(window[i-1]).L1()
	}
	avg := sum / float64(len(window)-1)
	return dynamo.Clamp(1-avg/4, 0, 1)
}
