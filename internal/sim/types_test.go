package sim

import (
	"errors"
	"testing"

	"github.com/san-kum/tetrasim/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.UpdateRate != 60 {
		t.Errorf("expected update rate 60, got %d", cfg.UpdateRate)
	}
	if cfg.GlobalCoupling != 0.05 {
		t.Errorf("expected global coupling 0.05, got %f", cfg.GlobalCoupling)
	}
	if cfg.EnvironmentalNoise != 0.01 {
		t.Errorf("expected noise 0.01, got %f", cfg.EnvironmentalNoise)
	}
}

func TestSimError(t *testing.T) {
	err := SimError{Time: 1.5, Step: 150, ParticleID: "p1"}
	expected := "step 150 (t=1.5000): particle p1: dynamo: invalid state (NaN or Inf detected)"
	if err.Error() != expected {
		t.Errorf("SimError.Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, dynamo.ErrInvalidState) {
		t.Error("SimError should unwrap to ErrInvalidState")
	}
}
