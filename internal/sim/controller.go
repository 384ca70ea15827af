// Package sim owns a set of oscillators and advances them together:
// global pairwise coupling, environmental noise on the timestep, FPS
// bookkeeping and read-only snapshots for callers.
//
// A Controller is NOT safe for concurrent use. Wrap it in a [Runner] when
// several goroutines need it.
package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/tetrasim/internal/dynamo"
	"github.com/san-kum/tetrasim/internal/metrics"
	"github.com/san-kum/tetrasim/internal/oscillator"
)

// Controller is one logical simulation.
type Controller struct {
	oscillators map[string]*oscillator.Oscillator
	order       []string

	simTime        float64
	running        bool
	updateRate     int
	dt             float64
	globalCoupling float64
	noise          float64
	seed           int64

	updateCount int
	lastFPSTime time.Time
	currentFPS  float64

	src     dynamo.Source
	now     func() time.Time
	metrics []metrics.Metric
}

// New creates a stopped, empty simulation. Config values are clamped.
func New(cfg Config, opts ...Option) *Controller {
	c := &Controller{
		oscillators: make(map[string]*oscillator.Oscillator),
		order:       make([]string, 0),
		seed:        cfg.Seed,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.src == nil {
		c.src = dynamo.NewSource(cfg.Seed)
	}
	c.lastFPSTime = c.now()

	rate := cfg.UpdateRate
	if rate == 0 {
		rate = dynamo.DefaultUpdateRate
	}
	c.Configure(ConfigUpdate{
		GlobalCoupling:     &cfg.GlobalCoupling,
		EnvironmentalNoise: &cfg.EnvironmentalNoise,
		UpdateRate:         &rate,
	})
	return c
}

// CreateOscillator adds a particle. An empty id is generated; a nil override
// draws random parameters, otherwise the override is merged onto the defaults.
func (c *Controller) CreateOscillator(id string, override *dynamo.ParamsOverride) (string, error) {
	if id == "" {
		id = c.generateID()
	}
	if _, exists := c.oscillators[id]; exists {
		return "", fmt.Errorf("create %q: %w", id, dynamo.ErrDuplicateID)
	}

	var params dynamo.Params
	if override == nil {
		params = dynamo.RandomParams(c.src)
	} else {
		p, err := override.Merge(dynamo.DefaultParams())
		if err != nil {
			return "", fmt.Errorf("create %q: %w", id, err)
		}
		params = p
	}

	c.insert(oscillator.New(id, params))
	return id, nil
}

// Add inserts a pre-built oscillator, e.g. one restored from storage.
func (c *Controller) Add(o *oscillator.Oscillator) error {
	if _, exists := c.oscillators[o.ID]; exists {
		return fmt.Errorf("add %q: %w", o.ID, dynamo.ErrDuplicateID)
	}
	if err := o.Params.Validate(); err != nil {
		return fmt.Errorf("add %q: %w", o.ID, err)
	}
	c.insert(o)
	return nil
}

func (c *Controller) insert(o *oscillator.Oscillator) {
	c.oscillators[o.ID] = o
	c.order = append(c.order, o.ID)
}

func (c *Controller) generateID() string {
	for {
		id := fmt.Sprintf("particle_%d_%s", c.now().UnixMilli(), c.src.Suffix())
		if _, exists := c.oscillators[id]; !exists {
			return id
		}
	}
}

// RemoveOscillator reports whether id was present.
func (c *Controller) RemoveOscillator(id string) bool {
	if _, ok := c.oscillators[id]; !ok {
		return false
	}
	delete(c.oscillators, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

func (c *Controller) Start() { c.running = true }
func (c *Controller) Stop()  { c.running = false }

// Reset stops the run, zeroes simulated time and drops every oscillator.
func (c *Controller) Reset() {
	c.simTime = 0
	c.running = false
	c.oscillators = make(map[string]*oscillator.Oscillator)
	c.order = c.order[:0]
}

func (c *Controller) Running() bool         { return c.running }
func (c *Controller) Time() float64         { return c.simTime }
func (c *Controller) Dt() float64           { return c.dt }
func (c *Controller) Len() int              { return len(c.order) }
func (c *Controller) FPS() float64          { return c.currentFPS }
func (c *Controller) Seed() int64           { return c.seed }
func (c *Controller) IDs() []string         { return append([]string(nil), c.order...) }
func (c *Controller) SetTime(t float64)     { c.simTime = t }
func (c *Controller) Source() dynamo.Source { return c.src }

// Lookup returns the oscillator for id.
func (c *Controller) Lookup(id string) (*oscillator.Oscillator, bool) {
	o, ok := c.oscillators[id]
	return o, ok
}

// Configure applies the given changes with silent clamping and returns the
// effective settings.
func (c *Controller) Configure(u ConfigUpdate) Settings {
	if u.GlobalCoupling != nil {
		c.globalCoupling = dynamo.Clamp(*u.GlobalCoupling, 0, 1)
	}
	if u.EnvironmentalNoise != nil {
		c.noise = dynamo.Clamp(*u.EnvironmentalNoise, 0, dynamo.MaxEnvironmentalNoise)
	}
	if u.UpdateRate != nil {
		rate := *u.UpdateRate
		if rate < dynamo.MinUpdateRate {
			rate = dynamo.MinUpdateRate
		}
		if rate > dynamo.MaxUpdateRate {
			rate = dynamo.MaxUpdateRate
		}
		c.updateRate = rate
		c.dt = 1.0 / float64(rate)
	}
	return c.Settings()
}

func (c *Controller) Settings() Settings {
	return Settings{
		GlobalCoupling:     c.globalCoupling,
		EnvironmentalNoise: c.noise,
		UpdateRate:         c.updateRate,
		Dt:                 c.dt,
	}
}

// Step advances the simulation by one tick. It is a no-op returning false
// while stopped.
func (c *Controller) Step() bool {
	if !c.running {
		return false
	}

	c.simTime += c.dt
	c.applyGlobalCoupling()

	for _, id := range c.order {
		factor := 1.0 + c.src.Uniform(-1, 1)*c.noise
		c.oscillators[id].Update(c.dt * factor)
	}

	c.updatePerformance()

	if len(c.metrics) > 0 {
		s := c.sample()
		for _, m := range c.metrics {
			m.Observe(s)
		}
	}
	return true
}

// applyGlobalCoupling visits every unordered pair once in insertion order.
// Both deltas are computed before either oscillator is touched.
func (c *Controller) applyGlobalCoupling() {
	if len(c.order) < 2 {
		return
	}
	for i := 0; i < len(c.order); i++ {
		a := c.oscillators[c.order[i]]
		for j := i + 1; j < len(c.order); j++ {
			b := c.oscillators[c.order[j]]
			sa, sb := a.State(), b.State()
			dw2 := c.globalCoupling * (sb.W2 - sa.W2) * 0.1
			dw3 := c.globalCoupling * (sb.W3 - sa.W3) * 0.05
			a.Nudge(dw2, dw3)
			b.Nudge(-dw2, -dw3)
		}
	}
}

func (c *Controller) updatePerformance() {
	c.updateCount++
	now := c.now()
	elapsed := now.Sub(c.lastFPSTime).Seconds()
	if elapsed >= 1.0 {
		c.currentFPS = float64(c.updateCount) / elapsed
		c.updateCount = 0
		c.lastFPSTime = now
	}
}

func (c *Controller) sample() metrics.Sample {
	s := metrics.Sample{Time: c.simTime, Oscillators: len(c.order)}
	for _, id := range c.order {
		o := c.oscillators[id]
		s.TotalEnergy += o.Energy()
		s.AverageStability += o.Stability()

		m := math.Inf(1)
		if st := o.State(); st.IsFinite() {
			m = st.Magnitude()
		}
		if m > s.MaxMagnitude {
			s.MaxMagnitude = m
		}
	}
	if s.Oscillators > 0 {
		s.AverageStability /= float64(s.Oscillators)
	}
	return s
}

// RunFor starts the simulation and steps it ticks times without pacing.
// With validate set, the first non-finite state aborts the run.
func (c *Controller) RunFor(ctx context.Context, ticks int, validate bool) (*Result, error) {
	if ticks <= 0 {
		return nil, fmt.Errorf("ticks must be positive, got %d", ticks)
	}

	result := &Result{
		Seed:    c.seed,
		Samples: make([]metrics.Sample, 0, ticks),
		Metrics: make(map[string]float64),
	}
	for _, m := range c.metrics {
		m.Reset()
	}

	c.Start()
	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		c.Step()
		result.StepsTaken++
		result.Samples = append(result.Samples, c.sample())

		if validate {
			for _, id := range c.order {
				if !c.oscillators[id].State().IsFinite() {
					return result, SimError{Time: c.simTime, Step: i, ParticleID: id}
				}
			}
		}
	}

	for _, m := range c.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Final = c.Snapshot()
	return result, nil
}
