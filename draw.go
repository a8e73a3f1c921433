package facefilter

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/esimov/facefilter/utils"
	"golang.org/x/image/math/f64"
)

// strokePath strokes the polyline going through the points with round joins.
// All the sub-paths are wound in the same direction, so the overlapping parts
// of the stroke are accumulated and not cancelled by the rasterizer.
func (s *Surface) strokePath(pts []f64.Vec2, closed bool, width float64, c color.NRGBA) {
	hw := math.Max(width, 1) / 2
	s.begin()

	n := len(pts)
	for i := 0; i < n; i++ {
		if i == n-1 && !closed {
			break
		}
		s.drawLine(pts[i], pts[(i+1)%n], hw)
	}
	for _, p := range pts {
		s.drawCircle(p, hw)
	}
	s.paint(c)
}

// fillCircles paints a filled circle around each point.
func (s *Surface) fillCircles(pts []f64.Vec2, radius float64, c color.NRGBA) {
	if !(radius > 0) {
		return
	}
	s.begin()
	for _, p := range pts {
		s.drawCircle(p, radius)
	}
	s.paint(c)
}

// drawLine adds the outline of a segment with the half thickness hw to the current path.
func (s *Surface) drawLine(a, b f64.Vec2, hw float64) {
	dx, dy := b[0]-a[0], b[1]-a[1]
	length := math.Hypot(dx, dy)
	if length == 0 || math.IsNaN(length) {
		return
	}
	nx, ny := -dy/length*hw, dx/length*hw

	z := s.raster
	z.MoveTo(float32(a[0]+nx), float32(a[1]+ny))
	z.LineTo(float32(b[0]+nx), float32(b[1]+ny))
	z.LineTo(float32(b[0]-nx), float32(b[1]-ny))
	z.LineTo(float32(a[0]-nx), float32(a[1]-ny))
	z.ClosePath()
}

// drawCircle adds a circle approximated by a polygon to the current path.
func (s *Surface) drawCircle(p f64.Vec2, radius float64) {
	if math.IsNaN(p[0]) || math.IsNaN(p[1]) {
		return
	}
	segments := utils.Clamp(int(radius*4), 8, 32)

	z := s.raster
	z.MoveTo(float32(p[0]+radius), float32(p[1]))
	for i := 1; i < segments; i++ {
		// Clockwise, matching the winding of the line segments.
		sin, cos := math.Sincos(-2 * math.Pi * float64(i) / float64(segments))
		z.LineTo(float32(p[0]+radius*cos), float32(p[1]+radius*sin))
	}
	z.ClosePath()
}

func (s *Surface) begin() {
	b := s.img.Bounds()
	s.raster.Reset(b.Dx(), b.Dy())
	s.raster.DrawOp = draw.Over
}

func (s *Surface) paint(c color.NRGBA) {
	s.raster.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{})
}
