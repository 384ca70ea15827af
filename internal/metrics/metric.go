// Package metrics computes per-particle derived quantities and run-level
// accumulators observed once per simulation tick.
package metrics

// Sample is the system-wide aggregate handed to each Metric after a tick.
type Sample struct {
	Time             float64
	Oscillators      int
	TotalEnergy      float64
	AverageStability float64
	// MaxMagnitude is the largest state magnitude of the tick, +Inf when any
	// state is non-finite.
	MaxMagnitude float64
}

// Metric accumulates a scalar over a run.
type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// Defaults returns the metrics attached to headless runs.
func Defaults() []Metric {
	return []Metric{
		NewMeanEnergy(),
		NewEnergyDrift(),
		NewStableFraction(0.5),
	}
}
