// Package oscillator implements a single four-dimensional particle: its
// per-tick state update, derived metrics and bounded state history.
package oscillator

import (
	"math"
	"time"

	"github.com/san-kum/tetrasim/internal/dynamo"
	"github.com/san-kum/tetrasim/internal/metrics"
)

// Frequency multipliers applied to the base frequency per dimension.
var freqMultipliers = [4]float64{1.0, 1.2, 0.8, 1.1}

// Oscillator is one particle. It is not safe for concurrent use.
type Oscillator struct {
	ID        string
	Params    dynamo.Params
	CreatedAt time.Time

	currentTime float64
	state       dynamo.StateVector
	history     *History

	stability float64
	energy    float64
	coherence float64
}

// New returns an oscillator at the initial state with zero simulated time.
func New(id string, params dynamo.Params) *Oscillator {
	return &Oscillator{
		ID:        id,
		Params:    params,
		CreatedAt: time.Now(),
		state:     dynamo.InitialState(),
		history:   NewHistory(HistoryCapacity),
		stability: 1.0,
		coherence: 1.0,
	}
}

// Restore rebuilds an oscillator from persisted values. History starts empty.
func Restore(id string, params dynamo.Params, createdAt time.Time, t float64, s dynamo.StateVector) *Oscillator {
	o := New(id, params)
	o.CreatedAt = createdAt
	o.currentTime = t
	o.state = s
	o.recompute()
	return o
}

func (o *Oscillator) Time() float64             { return o.currentTime }
func (o *Oscillator) State() dynamo.StateVector { return o.state }
func (o *Oscillator) Stability() float64        { return o.stability }
func (o *Oscillator) Energy() float64           { return o.energy }
func (o *Oscillator) Coherence() float64        { return o.coherence }
func (o *Oscillator) History() *History         { return o.history }

// Update advances the oscillator by dt seconds.
func (o *Oscillator) Update(dt float64) {
	o.currentTime += dt
	t := o.currentTime
	p := o.Params
	prev := o.state

	amps := p.Amplitudes()
	phases := p.Phases()
	var base [4]float64
	for k := range base {
		base[k] = amps[k] * math.Sin(2*math.Pi*p.BaseFrequency*freqMultipliers[k]*t+phases[k])
	}

	c := p.CouplingStrength
	coupled := dynamo.StateVector{
		W1: base[0] + c*(0.3*prev.W2+0.2*prev.W4),
		W2: base[1] + c*(0.4*prev.W3+0.1*prev.W1),
		W3: base[2] + c*(0.5*prev.W2) + 0.3*math.Sin(6*math.Pi*p.BaseFrequency*t),
		W4: base[3] + c*(0.15*prev.W1),
	}

	o.state = coupled.Scale(p.DampingFactor)
	o.recompute()
	o.history.Push(Entry{Time: o.currentTime, State: o.state})
}

// recompute refreshes the derived metrics. Coherence reads history before the
// current state is appended.
func (o *Oscillator) recompute() {
	o.stability = metrics.Stability(o.state)
	o.energy = metrics.Energy(o.state, o.Params.CouplingStrength)
	o.coherence = metrics.Coherence(o.history.LastStates(metrics.CoherenceWindow))
}

// Nudge adds deltas to w2 and w3. Used by the controller's global coupling pass.
func (o *Oscillator) Nudge(dw2, dw3 float64) {
	o.state.W2 += dw2
	o.state.W3 += dw3
}
