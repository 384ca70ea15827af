// Package viz is a terminal client for a running tetrasim server.
//
// [Watch] polls the HTTP API and draws the particles on a braille [Canvas]
// in (w1, w2, w3) space, with an energy chart and per-particle stability.
//
// # Key Bindings
//
//	Space  - Start/stop the simulation
//	R      - Reset
//	N / D  - Add a random particle / remove the newest
//	Arrows - Orbit the camera
//	+ -    - Zoom
//	T      - Cycle themes
//	?      - Help
package viz
