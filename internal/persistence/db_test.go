package persistence

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/san-kum/tetrasim/internal/dynamo"
	"github.com/san-kum/tetrasim/internal/sim"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "tetrasim.db"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadEmpty(t *testing.T) {
	db := openTemp(t)
	c := sim.New(sim.DefaultConfig())

	n, err := db.LoadSimulation(c)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if n != 0 || c.Len() != 0 {
		t.Errorf("expected nothing restored, got %d", n)
	}
	if _, err := db.GetMeta("simulation_time"); !errors.Is(err, dynamo.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveRestore(t *testing.T) {
	db := openTemp(t)

	cfg := sim.DefaultConfig()
	cfg.GlobalCoupling = 0.3
	cfg.UpdateRate = 90
	cfg.Seed = 3
	src := sim.New(cfg)
	if err := sim.Populate(src, []sim.ParticleSpec{{ID: "z"}, {ID: "a", Override: &dynamo.ParamsOverride{}}}); err != nil {
		t.Fatal(err)
	}
	src.Start()
	for i := 0; i < 30; i++ {
		src.Step()
	}

	if err := db.SaveSimulation(src); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	dst := sim.New(sim.DefaultConfig())
	n, err := db.LoadSimulation(dst)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 oscillators, got %d", n)
	}

	if ids := dst.IDs(); ids[0] != "z" || ids[1] != "a" {
		t.Errorf("order not preserved: %v", ids)
	}
	if dst.Running() {
		t.Error("restored simulation should be stopped")
	}
	if math.Abs(dst.Time()-src.Time()) > 1e-12 {
		t.Errorf("time = %f, want %f", dst.Time(), src.Time())
	}
	if s := dst.Settings(); s.GlobalCoupling != 0.3 || s.UpdateRate != 90 {
		t.Errorf("settings not restored: %+v", s)
	}

	for _, id := range src.IDs() {
		want, _ := src.Oscillator(id)
		got, _ := dst.Oscillator(id)
		if got.State != want.State {
			t.Errorf("%s state = %+v, want %+v", id, got.State, want.State)
		}
		if got.Parameters != want.Parameters {
			t.Errorf("%s parameters differ", id)
		}
		if got.Timestamp != want.Timestamp {
			t.Errorf("%s time = %f, want %f", id, got.Timestamp, want.Timestamp)
		}
	}
}

func TestSaveReplaces(t *testing.T) {
	db := openTemp(t)
	c := sim.New(sim.DefaultConfig())
	c.CreateOscillator("a", nil)
	c.CreateOscillator("b", nil)
	if err := db.SaveSimulation(c); err != nil {
		t.Fatal(err)
	}

	c.RemoveOscillator("a")
	if err := db.SaveSimulation(c); err != nil {
		t.Fatal(err)
	}

	dst := sim.New(sim.DefaultConfig())
	n, err := db.LoadSimulation(dst)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 oscillator after replace, got %d", n)
	}
	if _, ok := dst.Lookup("b"); !ok {
		t.Error("expected b to survive")
	}
}

func TestLoadIntoPopulatedFails(t *testing.T) {
	db := openTemp(t)
	c := sim.New(sim.DefaultConfig())
	c.CreateOscillator("a", nil)
	db.SaveSimulation(c)

	if _, err := db.LoadSimulation(c); !errors.Is(err, dynamo.ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}
