package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/tetrasim/internal/sim"
)

// Component extracts dimension k (0..3) of every point.
func Component(points []sim.HistoryPoint, k int) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.State.Component(k)
	}
	return out
}

// PowerSpectrum returns the magnitude of the first n/2 bins of the
// Hann-windowed, mean-removed series.
func PowerSpectrum(data []float64) []float64 {
	n := len(data)
	if n < 2 {
		return nil
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(n)

	buf := make([]complex128, n)
	for i, v := range data {
		window := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		buf[i] = complex((v-mean)*window, 0)
	}
	spectrum := fft.FFT(buf)

	ps := make([]float64, n/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantFrequency returns the frequency in Hz of the strongest non-DC bin
// for a series sampled every dt seconds. Zero when the series is too short.
func DominantFrequency(data []float64, dt float64) float64 {
	ps := PowerSpectrum(data)
	if len(ps) < 2 || dt <= 0 {
		return 0
	}

	best := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[best] {
			best = i
		}
	}
	return float64(best) / (float64(len(data)) * dt)
}

// Bands holds each third of the spectrum's share of total magnitude.
type Bands struct {
	Low  float64 `json:"low"`
	Mid  float64 `json:"mid"`
	High float64 `json:"high"`
}

// SpectralBands splits ps into thirds by bin index.
func SpectralBands(ps []float64) Bands {
	if len(ps) == 0 {
		return Bands{}
	}
	var b Bands
	total := 0.0
	for i, mag := range ps {
		total += mag
		switch {
		case i < len(ps)/3:
			b.Low += mag
		case i < 2*len(ps)/3:
			b.Mid += mag
		default:
			b.High += mag
		}
	}
	if total == 0 {
		return Bands{}
	}
	b.Low /= total
	b.Mid /= total
	b.High /= total
	return b
}
