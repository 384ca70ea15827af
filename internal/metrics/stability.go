package metrics

import "math"

// StableFraction is the share of ticks whose average stability stayed at or
// above threshold.
type StableFraction struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStableFraction(threshold float64) *StableFraction {
	return &StableFraction{
		name:      "stable_fraction",
		threshold: threshold,
	}
}

func (s *StableFraction) Name() string {
	return s.name
}

func (s *StableFraction) Observe(sample Sample) {
	if sample.Oscillators == 0 {
		return
	}
	s.samples++
	if sample.AverageStability < s.threshold {
		s.violations++
	}
}

func (s *StableFraction) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *StableFraction) Reset() {
	s.violations = 0
	s.samples = 0
}

// PeakMagnitude is the largest state magnitude seen in any tick of the run.
// A non-finite state makes it +Inf for the rest of the run.
type PeakMagnitude struct {
	peak float64
}

func NewPeakMagnitude() *PeakMagnitude {
	return &PeakMagnitude{}
}

func (p *PeakMagnitude) Name() string { return "peak_magnitude" }

func (p *PeakMagnitude) Observe(sample Sample) {
	if math.IsNaN(sample.MaxMagnitude) {
		p.peak = math.Inf(1)
		return
	}
	if sample.MaxMagnitude > p.peak {
		p.peak = sample.MaxMagnitude
	}
}

func (p *PeakMagnitude) Value() float64 { return p.peak }

func (p *PeakMagnitude) Reset() { p.peak = 0 }
