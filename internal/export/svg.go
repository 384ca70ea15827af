// Package export renders stored runs as standalone SVG images.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/tetrasim/internal/analysis"
)

type bounds struct {
	minX, maxX, minY, maxY float64
}

// padded returns the bounds of points grown by 10% on each side.
func padded(points []analysis.Point) bounds {
	b := bounds{points[0].X, points[0].X, points[0].Y, points[0].Y}
	for _, p := range points {
		b.minX, b.maxX = min(b.minX, p.X), max(b.maxX, p.X)
		b.minY, b.maxY = min(b.minY, p.Y), max(b.maxY, p.Y)
	}

	rangeX, rangeY := b.maxX-b.minX, b.maxY-b.minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	b.minX -= rangeX * 0.1
	b.maxX += rangeX * 0.1
	b.minY -= rangeY * 0.1
	b.maxY += rangeY * 0.1
	return b
}

func (b bounds) project(p analysis.Point, width, height int) (float64, float64) {
	x := (p.X - b.minX) / (b.maxX - b.minX) * float64(width)
	y := float64(height) - (p.Y-b.minY)/(b.maxY-b.minY)*float64(height)
	return x, y
}

// TrajectorySVG draws points as a single polyline, e.g. a phase portrait.
// Fewer than two points produce an error.
func TrajectorySVG(w io.Writer, points []analysis.Point, width, height int, stroke, title string) error {
	if len(points) < 2 {
		return fmt.Errorf("need at least 2 points, got %d", len(points))
	}
	b := padded(points)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<title>%s</title>
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height, escape(title))

	if b.minX <= 0 && b.maxX >= 0 {
		x, _ := b.project(analysis.Point{}, width, height)
		fmt.Fprintf(&sb, `<line x1="%.1f" y1="0" x2="%.1f" y2="%d" stroke="#333344"/>
`, x, x, height)
	}
	if b.minY <= 0 && b.maxY >= 0 {
		_, y := b.project(analysis.Point{}, width, height)
		fmt.Fprintf(&sb, `<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="#333344"/>
`, y, width, y)
	}

	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke)
	for i, p := range points {
		x, y := b.project(p, width, height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// SeriesSVG draws values against their index, e.g. energy over ticks.
func SeriesSVG(w io.Writer, values []float64, width, height int, stroke, title string) error {
	points := make([]analysis.Point, len(values))
	for i, v := range values {
		points[i] = analysis.Point{X: float64(i), Y: v}
	}
	return TrajectorySVG(w, points, width, height, stroke, title)
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
