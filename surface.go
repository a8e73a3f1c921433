package facefilter

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/esimov/facefilter/imop"
	"github.com/esimov/facefilter/utils"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/vector"
)

// Style describes how connectors and points are painted.
type Style struct {
	Color  color.NRGBA
	Width  float64 // connector line thickness
	Radius float64 // point radius
}

var (
	// DefaultPointStyle paints every landmark as a small red dot.
	DefaultPointStyle = Style{Color: color.NRGBA{R: 255, A: 255}, Radius: 2}
	// DefaultConnectorStyle is the connector style used when a region has no color.
	DefaultConnectorStyle = Style{Color: color.NRGBA{R: 224, G: 224, B: 224, A: 255}, Width: 1}
)

var identity = f64.Aff3{1, 0, 0, 0, 1, 0}

// Surface is the back buffer the frames are rendered to.
// It is sized lazily on first use, using the first frame dimensions, and it is never resized afterwards.
// A Surface is safe for one drawing goroutine and any number of concurrent Snapshot readers.
type Surface struct {
	mu     sync.RWMutex
	img    *image.NRGBA
	sized  bool
	ctm    f64.Aff3
	stack  []f64.Aff3
	raster *vector.Rasterizer
	comp   *imop.Composite
}

// NewSurface returns an uninitialized surface.
func NewSurface() *Surface {
	return &Surface{
		ctm:  identity,
		comp: imop.InitOp(),
	}
}

// Size allocates the back buffer on the first call. Further calls do not resize
// the surface, they only report whether the requested size matches the allocated one.
func (s *Surface) Size(w, h int) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.sized {
		s.img = image.NewNRGBA(image.Rect(0, 0, utils.Max(w, 0), utils.Max(h, 0)))
		s.raster = vector.NewRasterizer(s.img.Bounds().Dx(), s.img.Bounds().Dy())
		s.sized = true
		return true
	}
	return s.img.Bounds().Dx() == w && s.img.Bounds().Dy() == h
}

// Sized reports whether the back buffer has been allocated.
func (s *Surface) Sized() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sized
}

// Bounds returns the surface bounds. It is empty while the surface is uninitialized.
func (s *Surface) Bounds() image.Rectangle {
	if s == nil {
		return image.Rectangle{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.sized {
		return image.Rectangle{}
	}
	return s.img.Bounds()
}

// acquire locks the surface for drawing. The returned bool is false for a zero area surface,
// in which case the drawing operation is a no-op. The caller must unlock s.mu if err is nil.
func (s *Surface) acquire(op string) (bool, error) {
	if s == nil {
		return false, &NoSurfaceError{Op: op}
	}
	s.mu.Lock()
	if !s.sized {
		s.mu.Unlock()
		return false, &NoSurfaceError{Op: op}
	}
	return !s.img.Bounds().Empty(), nil
}

// Clear erases the content of the surface. It is idempotent.
func (s *Surface) Clear() error {
	ok, err := s.acquire("clear")
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	if ok {
		clear(s.img.Pix)
	}
	return nil
}

// DrawFrame copies the source frame onto the surface, anchored at the top-left corner.
func (s *Surface) DrawFrame(frame image.Image) error {
	ok, err := s.acquire("draw frame")
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	if !ok || frame == nil {
		return nil
	}
	draw.Draw(s.img, s.img.Bounds(), frame, frame.Bounds().Min, draw.Src)
	return nil
}

// DrawConnectors strokes the contour going through the region landmarks.
// The landmarks are scaled to the surface dimensions.
func (s *Surface) DrawConnectors(lm Landmarks, region Region, style Style) error {
	if len(region.Indices) == 0 {
		return &EmptyRegionError{Region: region.Name, Index: -1, Len: len(lm)}
	}
	for _, idx := range region.Indices {
		if idx < 0 || idx >= len(lm) {
			return &EmptyRegionError{Region: region.Name, Index: idx, Len: len(lm)}
		}
	}

	ok, err := s.acquire("draw connectors")
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	if !ok {
		return nil
	}

	pts := make([]f64.Vec2, 0, len(region.Indices))
	for _, idx := range region.Indices {
		pts = append(pts, s.project(lm[idx]))
	}
	if len(pts) == 1 {
		s.fillCircles(pts, math.Max(style.Width, 1), style.Color)
		return nil
	}
	s.strokePath(pts, region.Closed, style.Width, style.Color)
	return nil
}

// DrawPoints paints every landmark as a filled circle.
func (s *Surface) DrawPoints(lm Landmarks, style Style) error {
	ok, err := s.acquire("draw points")
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	if !ok || len(lm) == 0 {
		return nil
	}

	pts := make([]f64.Vec2, 0, len(lm))
	for _, p := range lm {
		pts = append(pts, s.project(p))
	}
	s.fillCircles(pts, style.Radius, style.Color)
	return nil
}

// DrawTransformedImage draws the accessory image using the placement:
// the coordinate system is translated to the placement origin, rotated around it
// and the image is drawn at the placement offset, scaled to the placement size.
// The coordinate system is restored on every exit path.
// A nil image (e.g. an asset which is still loading) is not an error, nothing is drawn.
func (s *Surface) DrawTransformedImage(img image.Image, p Placement) error {
	ok, err := s.acquire("draw transformed image")
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	if !ok || img == nil {
		return nil
	}
	sr := img.Bounds()
	if sr.Empty() || !(p.Width > 0) || !(p.Height > 0) ||
		math.IsInf(p.Width, 0) || math.IsInf(p.Height, 0) {
		return nil
	}

	s.save()
	defer s.restore()

	s.translate(p.Origin.X, p.Origin.Y)
	s.rotate(p.Rotation)
	s.translate(p.Offset.X, p.Offset.Y)
	s.scale(p.Width/float64(sr.Dx()), p.Height/float64(sr.Dy()))
	s.translate(-float64(sr.Min.X), -float64(sr.Min.Y))

	xdraw.BiLinear.Transform(s.img, s.ctm, img, sr, xdraw.Over, nil)
	return nil
}

// Tint lays the color over the whole surface, mixed with the content underneath
// using the blend mode. A nil blend paints the color with plain alpha composition.
// op is the Porter-Duff composite operation, empty meaning source over.
func (s *Surface) Tint(c color.NRGBA, blend *imop.Blend, op string) error {
	ok, err := s.acquire("tint")
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	if op == "" {
		op = imop.SrcOver
	}
	if err := s.comp.Set(op); err != nil {
		return err
	}
	if !ok || (c.A == 0 && op == imop.SrcOver) {
		return nil
	}
	s.comp.Fill(s.img, c, blend)
	return nil
}

// Snapshot returns a copy of the surface content. It is nil while the surface is uninitialized.
func (s *Surface) Snapshot() *image.NRGBA {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.sized {
		return nil
	}
	return imaging.Clone(s.img)
}

// Save pushes the current transformation on the state stack.
func (s *Surface) Save() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.save()
}

// Restore pops the last saved transformation. Restoring an empty stack resets to identity.
func (s *Surface) Restore() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.restore()
}

// Transform returns the current transformation matrix, the identity for a nil surface.
func (s *Surface) Transform() f64.Aff3 {
	if s == nil {
		return identity
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ctm
}

func (s *Surface) save() {
	s.stack = append(s.stack, s.ctm)
}

func (s *Surface) restore() {
	if len(s.stack) == 0 {
		s.ctm = identity
		return
	}
	s.ctm = s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
}

func (s *Surface) translate(tx, ty float64) {
	s.ctm = mul(s.ctm, f64.Aff3{1, 0, tx, 0, 1, ty})
}

func (s *Surface) rotate(rad float64) {
	sin, cos := math.Sincos(rad)
	s.ctm = mul(s.ctm, f64.Aff3{cos, -sin, 0, sin, cos, 0})
}

func (s *Surface) scale(sx, sy float64) {
	s.ctm = mul(s.ctm, f64.Aff3{sx, 0, 0, 0, sy, 0})
}

// project maps a normalized landmark to surface pixels, through the current transformation.
func (s *Surface) project(p Point) f64.Vec2 {
	b := s.img.Bounds()
	x, y := p.X*float64(b.Dx()), p.Y*float64(b.Dy())

	return f64.Vec2{
		s.ctm[0]*x + s.ctm[1]*y + s.ctm[2],
		s.ctm[3]*x + s.ctm[4]*y + s.ctm[5],
	}
}

// mul returns the affine matrix a*b: b is applied first.
func mul(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3],
		a[0]*b[1] + a[1]*b[4],
		a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3],
		a[3]*b[1] + a[4]*b[4],
		a[3]*b[2] + a[4]*b[5] + a[5],
	}
}
