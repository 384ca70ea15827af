package dynamo

import (
	"math/rand"
	"time"
)

// Source supplies the randomness behind generated ids, random parameters and
// environmental noise. Tests pass a seeded source for reproducible runs.
type Source interface {
	// Uniform returns a value in [lo, hi).
	Uniform(lo, hi float64) float64
	// Suffix returns a short random token for generated ids.
	Suffix() string
}

type randSource struct {
	r *rand.Rand
}

// NewSource returns a Source seeded with seed. A zero seed uses the wall clock.
func NewSource(seed int64) Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &randSource{r: rand.New(rand.NewSource(seed))}
}

func (s *randSource) Uniform(lo, hi float64) float64 {
	return lo + s.r.Float64()*(hi-lo)
}

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func (s *randSource) Suffix() string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = suffixAlphabet[s.r.Intn(len(suffixAlphabet))]
	}
	return string(b)
}
