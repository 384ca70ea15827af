package sim

import (
	"fmt"
	"time"

	"github.com/san-kum/tetrasim/internal/dynamo"
	"github.com/san-kum/tetrasim/internal/metrics"
)

// Config holds the global simulation settings.
type Config struct {
	UpdateRate         int     `yaml:"update_rate" json:"update_rate"`
	GlobalCoupling     float64 `yaml:"global_coupling" json:"global_coupling"`
	EnvironmentalNoise float64 `yaml:"environmental_noise" json:"environmental_noise"`
	Seed               int64   `yaml:"seed" json:"seed"`
}

func DefaultConfig() Config {
	return Config{
		UpdateRate:         dynamo.DefaultUpdateRate,
		GlobalCoupling:     dynamo.DefaultGlobalCoupling,
		EnvironmentalNoise: dynamo.DefaultNoise,
	}
}

// ConfigUpdate carries optional changes; nil fields are left alone.
type ConfigUpdate struct {
	GlobalCoupling     *float64 `json:"global_coupling,omitempty"`
	EnvironmentalNoise *float64 `json:"environmental_noise,omitempty"`
	UpdateRate         *int     `json:"update_rate,omitempty"`
}

// Settings is the effective configuration after clamping.
type Settings struct {
	GlobalCoupling     float64 `json:"global_coupling"`
	EnvironmentalNoise float64 `json:"environmental_noise"`
	UpdateRate         int     `json:"update_rate"`
	Dt                 float64 `json:"dt"`
}

// Option customises a Controller at construction.
type Option func(*Controller)

// WithSource injects the random source used for ids, parameters and noise.
func WithSource(src dynamo.Source) Option {
	return func(c *Controller) { c.src = src }
}

// WithClock injects the wall clock used for FPS bookkeeping and generated ids.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithMetrics attaches run-level metrics observed after every tick.
func WithMetrics(ms ...metrics.Metric) Option {
	return func(c *Controller) { c.metrics = append(c.metrics, ms...) }
}

// Result summarises a headless run.
type Result struct {
	Seed       int64              `json:"seed"`
	StepsTaken int                `json:"steps_taken"`
	Samples    []metrics.Sample   `json:"-"`
	Metrics    map[string]float64 `json:"metrics"`
	Final      Snapshot           `json:"final"`
}

// SimError reports a tick that produced a non-finite state.
type SimError struct {
	Time       float64
	Step       int
	ParticleID string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): particle %s: %s", e.Step, e.Time, e.ParticleID, dynamo.ErrInvalidState)
}

func (e SimError) Unwrap() error { return dynamo.ErrInvalidState }
