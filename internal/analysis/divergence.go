package analysis

import (
	"math"

	"github.com/san-kum/tetrasim/internal/dynamo"
	"github.com/san-kum/tetrasim/internal/oscillator"
)

// Divergence estimates the average exponential growth rate of a small
// perturbation to w2, using two oscillators with identical parameters.
// Negative values mean perturbations die out.
//
// λ ≈ mean(ln(|δ(t)| / δ0)) / dt, with the perturbed copy renormalised back
// to δ0 whenever the separation exceeds 1.
func Divergence(params dynamo.Params, dt float64, ticks int, perturbation float64) float64 {
	if ticks <= 0 || dt <= 0 || perturbation <= 0 {
		return 0
	}

	ref := oscillator.New("ref", params)
	pert := oscillator.New("pert", params)
	pert.Nudge(perturbation, 0)
	d0 := perturbation

	sumLog := 0.0
	count := 0
	for i := 0; i < ticks; i++ {
		ref.Update(dt)
		pert.Update(dt)

		diff := pert.State().Sub(ref.State())
		sep := diff.Magnitude()
		if sep > 0 {
			sumLog += math.Log(sep / d0)
			count++
		}

		if sep > 1.0 {
			s := ref.State()
			scaled := diff.Scale(d0 / sep)
			next := dynamo.StateVector{
				W1: s.W1 + scaled.W1,
				W2: s.W2 + scaled.W2,
				W3: s.W3 + scaled.W3,
				W4: s.W4 + scaled.W4,
			}
			pert = oscillator.Restore(pert.ID, params, pert.CreatedAt, pert.Time(), next)
		}
	}

	if count == 0 {
		return 0
	}
	return sumLog / (float64(count) * dt)
}
