package analysis

import (
	"fmt"

	"github.com/san-kum/tetrasim/internal/sim"
)

type Point struct{ X, Y float64 }

// PhasePortrait holds two components of a recorded history.
type PhasePortrait struct {
	XIndex, YIndex int
	Points         []Point
}

// NewPhasePortrait pairs component xIdx against yIdx for every history point.
func NewPhasePortrait(history []sim.HistoryPoint, xIdx, yIdx int) (*PhasePortrait, error) {
	if xIdx < 0 || xIdx > 3 || yIdx < 0 || yIdx > 3 {
		return nil, fmt.Errorf("dimension out of range: %d, %d", xIdx, yIdx)
	}
	p := &PhasePortrait{
		XIndex: xIdx,
		YIndex: yIdx,
		Points: make([]Point, len(history)),
	}
	for i, h := range history {
		p.Points[i] = Point{X: h.State.Component(xIdx), Y: h.State.Component(yIdx)}
	}
	return p, nil
}

// Crossings returns the (x, y) pairs recorded each time component crossIdx
// rises through threshold.
func Crossings(history []sim.HistoryPoint, crossIdx int, threshold float64, xIdx, yIdx int) []Point {
	var out []Point
	for i := 1; i < len(history); i++ {
		prev := history[i-1].State.Component(crossIdx)
		curr := history[i].State.Component(crossIdx)
		if prev < threshold && curr >= threshold {
			s := history[i].State
			out = append(out, Point{X: s.Component(xIdx), Y: s.Component(yIdx)})
		}
	}
	return out
}

// ToASCII draws the points scaled to width x height with 10% padding and
// axes where they cross the visible area.
func (p *PhasePortrait) ToASCII(width, height int) string {
	return plotPoints(p.Points, width, height)
}

func plotPoints(points []Point, width, height int) string {
	if len(points) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := newCanvas(width, height)
	for _, p := range points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if col >= 0 && col < width && canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if row >= 0 && row < height && canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}
	return renderCanvas(canvas)
}

// CrossingsToASCII plots a crossing section like a phase portrait.
func CrossingsToASCII(points []Point, width, height int) string {
	if len(points) == 0 {
		return "No crossings detected"
	}
	return plotPoints(points, width, height)
}
