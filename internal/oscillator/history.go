package oscillator

import "github.com/san-kum/tetrasim/internal/dynamo"

// HistoryCapacity bounds the number of recorded states per oscillator.
const HistoryCapacity = 1000

// Entry is one recorded state.
type Entry struct {
	Time  float64
	State dynamo.StateVector
}

// History is a fixed-capacity ring buffer; the oldest entry is overwritten
// once full.
type History struct {
	buf   []Entry
	start int
	size  int
}

func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{buf: make([]Entry, capacity)}
}

func (h *History) Len() int { return h.size }

func (h *History) Cap() int { return len(h.buf) }

func (h *History) Push(e Entry) {
	if h.size < len(h.buf) {
		h.buf[(h.start+h.size)%len(h.buf)] = e
		h.size++
		return
	}
	h.buf[h.start] = e
	h.start = (h.start + 1) % len(h.buf)
}

// At returns the i-th oldest retained entry.
func (h *History) At(i int) Entry {
	return h.buf[(h.start+i)%len(h.buf)]
}

// Last returns up to n most recent entries, oldest first. n <= 0 returns all.
func (h *History) Last(n int) []Entry {
	if n <= 0 || n > h.size {
		n = h.size
	}
	out := make([]Entry, n)
	offset := h.size - n
	for i := range out {
		out[i] = h.At(offset + i)
	}
	return out
}

// LastStates is Last without the timestamps.
func (h *History) LastStates(n int) []dynamo.StateVector {
	entries := h.Last(n)
	out := make([]dynamo.StateVector, len(entries))
	for i, e := range entries {
		out[i] = e.State
	}
	return out
}

func (h *History) Clear() {
	h.start = 0
	h.size = 0
}
