package oscillator

import (
	"testing"

	"github.com/san-kum/tetrasim/internal/dynamo"
)

func push(h *History, n int) {
	for i := 0; i < n; i++ {
		h.Push(Entry{Time: float64(i), State: dynamo.StateVector{W1: float64(i)}})
	}
}

func TestHistory_Last(t *testing.T) {
	h := NewHistory(5)
	push(h, 3)

	tests := []struct {
		name  string
		n     int
		first float64
		count int
	}{
		{"all with zero", 0, 0, 3},
		{"all with negative", -1, 0, 3},
		{"more than held", 10, 0, 3},
		{"most recent two", 2, 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := h.Last(tt.n)
			if len(got) != tt.count {
				t.Fatalf("expected %d entries, got %d", tt.count, len(got))
			}
			if got[0].Time != tt.first {
				t.Errorf("expected first time %f, got %f", tt.first, got[0].Time)
			}
		})
	}
}

func TestHistory_Eviction(t *testing.T) {
	h := NewHistory(4)
	push(h, 10)

	if h.Len() != 4 {
		t.Fatalf("expected 4 entries, got %d", h.Len())
	}

	got := h.Last(0)
	for i, e := range got {
		want := float64(6 + i)
		if e.Time != want || e.State.W1 != want {
			t.Errorf("entry %d: expected %f, got %+v", i, want, e)
		}
	}

	h.Clear()
	if h.Len() != 0 || len(h.Last(0)) != 0 {
		t.Error("clear did not empty history")
	}
}

func TestHistory_LastStates(t *testing.T) {
	h := NewHistory(HistoryCapacity)
	push(h, 12)

	states := h.LastStates(10)
	if len(states) != 10 {
		t.Fatalf("expected 10 states, got %d", len(states))
	}
	if states[0].W1 != 2 || states[9].W1 != 11 {
		t.Errorf("unexpected window: %v .. %v", states[0], states[9])
	}
}
