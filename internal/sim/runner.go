package sim

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Runner serialises access to a Controller and drives it in real time.
// Every read and write from other goroutines goes through Do.
type Runner struct {
	mu   sync.Mutex
	ctrl *Controller

	// OnTick is called after each tick that advanced the simulation, outside
	// the lock, with the visualization frame of that tick.
	OnTick func(Visualization)
}

func NewRunner(c *Controller) *Runner {
	return &Runner{ctrl: c}
}

// Do runs fn with exclusive access to the controller.
func (r *Runner) Do(fn func(c *Controller)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.ctrl)
}

// Run ticks the controller every dt until ctx is cancelled. Ticks while the
// controller is stopped are skipped. The interval follows update_rate changes.
func (r *Runner) Run(ctx context.Context) {
	slog.Info("simulation loop started")
	defer slog.Info("simulation loop stopped")

	for {
		start := time.Now()

		var (
			advanced bool
			frame    Visualization
			interval time.Duration
		)
		r.Do(func(c *Controller) {
			advanced = c.Step()
			if advanced && r.OnTick != nil {
				frame = c.Visualization()
			}
			interval = time.Duration(c.Dt() * float64(time.Second))
		})
		if advanced && r.OnTick != nil {
			r.OnTick(frame)
		}

		wait := interval - time.Since(start)
		if wait <= 0 {
			wait = time.Millisecond
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}
