package sim

import (
	"math"

	"github.com/san-kum/tetrasim/internal/dynamo"
	"github.com/san-kum/tetrasim/internal/oscillator"
)

// Snapshot is a read-only copy of the whole simulation.
type Snapshot struct {
	SimulationTime  float64                   `json:"simulation_time"`
	IsRunning       bool                      `json:"is_running"`
	OscillatorCount int                       `json:"oscillator_count"`
	Oscillators     map[string]OscillatorView `json:"oscillators"`
	GlobalMetrics   GlobalMetrics             `json:"global_metrics"`

	// IDs lists the oscillators in insertion order.
	IDs []string `json:"-"`
}

type OscillatorView struct {
	ParticleID        string             `json:"particle_id"`
	Timestamp         float64            `json:"timestamp"`
	State             dynamo.StateVector `json:"state"`
	DerivedProperties DerivedProperties  `json:"derived_properties"`
	Parameters        dynamo.Params      `json:"parameters"`
}

type DerivedProperties struct {
	StabilityFactor float64 `json:"stability_factor"`
	EnergyTotal     float64 `json:"energy_total"`
	PhaseCoherence  float64 `json:"phase_coherence"`
	StateMagnitude  float64 `json:"state_magnitude"`
}

type GlobalMetrics struct {
	TotalEnergy        float64 `json:"total_energy"`
	AverageStability   float64 `json:"average_stability"`
	CurrentFPS         float64 `json:"current_fps"`
	GlobalCoupling     float64 `json:"global_coupling"`
	EnvironmentalNoise float64 `json:"environmental_noise"`
}

// HistoryPoint is one recorded state of an oscillator.
type HistoryPoint struct {
	Time      float64            `json:"time"`
	State     dynamo.StateVector `json:"state"`
	Magnitude float64            `json:"magnitude"`
}

// Visualization is the compact per-tick view pushed to render clients.
type Visualization struct {
	Timestamp float64         `json:"timestamp"`
	Particles []ParticleFrame `json:"particles"`
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type ParticleFrame struct {
	ID             string   `json:"id"`
	Position       Position `json:"position"`
	Mass           float64  `json:"mass"`
	Stability      float64  `json:"stability"`
	Energy         float64  `json:"energy"`
	Coherence      float64  `json:"coherence"`
	Magnitude      float64  `json:"magnitude"`
	ColorIntensity float64  `json:"color_intensity"`
}

func viewOf(o *oscillator.Oscillator) OscillatorView {
	s := o.State()
	return OscillatorView{
		ParticleID: o.ID,
		Timestamp:  o.Time(),
		State:      s,
		DerivedProperties: DerivedProperties{
			StabilityFactor: o.Stability(),
			EnergyTotal:     o.Energy(),
			PhaseCoherence:  o.Coherence(),
			StateMagnitude:  s.Magnitude(),
		},
		Parameters: o.Params,
	}
}

// Snapshot does not mutate the controller; two calls without a Step in
// between return identical values.
func (c *Controller) Snapshot() Snapshot {
	snap := Snapshot{
		SimulationTime:  c.simTime,
		IsRunning:       c.running,
		OscillatorCount: len(c.order),
		Oscillators:     make(map[string]OscillatorView, len(c.order)),
		IDs:             c.IDs(),
		GlobalMetrics: GlobalMetrics{
			CurrentFPS:         c.currentFPS,
			GlobalCoupling:     c.globalCoupling,
			EnvironmentalNoise: c.noise,
		},
	}

	for _, id := range c.order {
		v := viewOf(c.oscillators[id])
		snap.Oscillators[id] = v
		snap.GlobalMetrics.TotalEnergy += v.DerivedProperties.EnergyTotal
		snap.GlobalMetrics.AverageStability += v.DerivedProperties.StabilityFactor
	}
	if n := len(c.order); n > 0 {
		snap.GlobalMetrics.AverageStability /= float64(n)
	}
	return snap
}

// Oscillator returns the view of a single particle.
func (c *Controller) Oscillator(id string) (OscillatorView, bool) {
	o, ok := c.oscillators[id]
	if !ok {
		return OscillatorView{}, false
	}
	return viewOf(o), true
}

// History returns the most recent lastN recorded states of id, oldest first.
// lastN <= 0 returns the full history.
func (c *Controller) History(id string, lastN int) ([]HistoryPoint, bool) {
	o, ok := c.oscillators[id]
	if !ok {
		return nil, false
	}
	entries := o.History().Last(lastN)
	points := make([]HistoryPoint, len(entries))
	for i, e := range entries {
		points[i] = HistoryPoint{Time: e.Time, State: e.State, Magnitude: e.State.Magnitude()}
	}
	return points, true
}

func (c *Controller) Visualization() Visualization {
	v := Visualization{
		Timestamp: c.simTime,
		Particles: make([]ParticleFrame, 0, len(c.order)),
	}
	for _, id := range c.order {
		o := c.oscillators[id]
		s := o.State()
		v.Particles = append(v.Particles, ParticleFrame{
			ID:             id,
			Position:       Position{X: s.W1, Y: s.W2, Z: s.W3},
			Mass:           s.W4,
			Stability:      o.Stability(),
			Energy:         o.Energy(),
			Coherence:      o.Coherence(),
			Magnitude:      s.Magnitude(),
			ColorIntensity: math.Min(1, math.Abs(s.W2)/2),
		})
	}
	return v
}
