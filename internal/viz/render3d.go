package viz

import (
	"math"
	"sort"

	"github.com/san-kum/tetrasim/internal/sim"
)

type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Camera orbits the origin and projects the (w1, w2, w3) space onto the canvas.
type Camera struct {
	Distance   float64
	RotX, RotY float64
	Zoom       float64
}

func NewCamera() *Camera {
	return &Camera{Distance: 6, RotX: -0.4, RotY: 0.6, Zoom: 1}
}

func (c *Camera) Orbit(dx, dy float64) {
	c.RotX += dx
	c.RotY += dy
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

func (c *Camera) rotate(p Vec3) Vec3 {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	return p
}

// Project maps p to dot coordinates on a w x h dot surface. ok is false when
// the point is behind the camera or off screen.
func (c *Camera) Project(p Vec3, w, h int) (x, y int, depth float64, ok bool) {
	r := c.rotate(p).Scale(c.Zoom)
	if r.Z >= c.Distance-0.1 {
		return 0, 0, 0, false
	}
	persp := c.Distance / (c.Distance - r.Z)
	unit := float64(min(w, h)) / 3
	x = int(r.X*persp*unit) + w/2
	y = int(-r.Y*persp*unit) + h/2
	return x, y, r.Z, x >= 0 && x < w && y >= 0 && y < h
}

// Scene draws particles and their trails in normalised (w1, w2, w3) space.
type Scene struct {
	Canvas   *Canvas
	Camera   *Camera
	TrailLen int

	trails map[string][]Vec3
	extent float64
}

func NewScene(w, h int) *Scene {
	return &Scene{
		Canvas:   NewCanvas(w, h),
		Camera:   NewCamera(),
		TrailLen: 40,
		trails:   make(map[string][]Vec3),
		extent:   1,
	}
}

// Push records the particle positions of frame. Trails of particles missing
// from the frame are dropped.
func (s *Scene) Push(frame sim.Visualization) {
	seen := make(map[string]bool, len(frame.Particles))
	for _, p := range frame.Particles {
		seen[p.ID] = true
		pos := Vec3{p.Position.X, p.Position.Y, p.Position.Z}
		t := append(s.trails[p.ID], pos)
		if len(t) > s.TrailLen {
			t = t[len(t)-s.TrailLen:]
		}
		s.trails[p.ID] = t

		for _, v := range []float64{pos.X, pos.Y, pos.Z} {
			if a := math.Abs(v); a > s.extent && !math.IsInf(a, 0) {
				s.extent = a
			}
		}
	}
	for id := range s.trails {
		if !seen[id] {
			delete(s.trails, id)
		}
	}
}

func (s *Scene) Reset() {
	s.trails = make(map[string][]Vec3)
	s.extent = 1
}

type projected struct {
	x, y  int
	depth float64
	head  bool
	size  int
}

// Render redraws the canvas, far points first. frame supplies the mass used
// to size each particle head.
func (s *Scene) Render(frame sim.Visualization) string {
	s.Canvas.Clear()
	w, h := s.Canvas.Dots()
	norm := 1 / s.extent

	s.axes(w, h)

	mass := make(map[string]float64, len(frame.Particles))
	for _, p := range frame.Particles {
		mass[p.ID] = p.Mass
	}

	var pts []projected
	for id, trail := range s.trails {
		for i, p := range trail {
			x, y, d, ok := s.Camera.Project(p.Scale(norm), w, h)
			if !ok {
				continue
			}
			head := i == len(trail)-1
			size := 0
			if head {
				size = 1
				if math.Abs(mass[id]) > 1.5 {
					size = 2
				}
			}
			pts = append(pts, projected{x, y, d, head, size})
		}
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].depth < pts[j].depth })
	for _, p := range pts {
		if p.head {
			s.Canvas.Blob(p.x, p.y, p.size)
		} else {
			s.Canvas.Set(p.x, p.y)
		}
	}
	return s.Canvas.String()
}

func (s *Scene) axes(w, h int) {
	ox, oy, _, ok := s.Camera.Project(Vec3{}, w, h)
	if !ok {
		return
	}
	for _, axis := range []Vec3{{0.3, 0, 0}, {0, 0.3, 0}, {0, 0, 0.3}} {
		if x, y, _, ok := s.Camera.Project(axis, w, h); ok {
			s.Canvas.Line(ox, oy, x, y)
		}
	}
}
