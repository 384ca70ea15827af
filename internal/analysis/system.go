package analysis

import (
	"math"

	"github.com/san-kum/tetrasim/internal/dynamo"
	"github.com/san-kum/tetrasim/internal/sim"
)

// Stability buckets: above High is high, below Low is low, the rest medium.
const (
	HighStability = 0.8
	LowStability  = 0.5
)

type DimensionStats struct {
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Range float64 `json:"range"`
}

type StabilityDistribution struct {
	High   int `json:"high_stability"`
	Medium int `json:"medium_stability"`
	Low    int `json:"low_stability"`
}

type SystemAnalytics struct {
	SystemMetrics         sim.GlobalMetrics         `json:"system_metrics"`
	DimensionalStatistics map[string]DimensionStats `json:"dimensional_statistics"`
	StabilityDistribution StabilityDistribution     `json:"stability_distribution"`
}

// System summarises the current state of every oscillator in snap. It reports
// false when the snapshot holds no oscillators.
func System(snap sim.Snapshot) (SystemAnalytics, bool) {
	if len(snap.Oscillators) == 0 {
		return SystemAnalytics{}, false
	}

	out := SystemAnalytics{
		SystemMetrics:         snap.GlobalMetrics,
		DimensionalStatistics: make(map[string]DimensionStats, 4),
	}

	var stats [4]DimensionStats
	for k := range stats {
		stats[k].Min = math.Inf(1)
		stats[k].Max = math.Inf(-1)
	}

	for _, v := range snap.Oscillators {
		comps := v.State.Components()
		for k, w := range comps {
			stats[k].Mean += w
			stats[k].Min = math.Min(stats[k].Min, w)
			stats[k].Max = math.Max(stats[k].Max, w)
		}

		switch s := v.DerivedProperties.StabilityFactor; {
		case s > HighStability:
			out.StabilityDistribution.High++
		case s < LowStability:
			out.StabilityDistribution.Low++
		default:
			out.StabilityDistribution.Medium++
		}
	}

	n := float64(len(snap.Oscillators))
	for k, name := range dynamo.DimensionNames {
		stats[k].Mean /= n
		stats[k].Range = stats[k].Max - stats[k].Min
		out.DimensionalStatistics[name] = stats[k]
	}
	return out, true
}
