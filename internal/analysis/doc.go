// Package analysis turns simulation output into summaries.
//
//   - [System]: dimensional statistics and stability distribution of a snapshot
//   - [PowerSpectrum], [DominantFrequency]: spectra of a recorded component
//   - [Sweep]: parameter sweep recording the distinct values a component visits
//   - [Divergence]: growth rate of a small state perturbation
//   - [NewPhasePortrait]: two components of a history plotted against each other
//
// Typical use from a stored run:
//
//	series := analysis.Component(points, 1)
//	f := analysis.DominantFrequency(series, dt)
package analysis
