package facefilter

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"sync"

	"github.com/esimov/facefilter/imop"
	"github.com/esimov/facefilter/utils"
	"github.com/sirupsen/logrus"
)

// DrawMode selects what is drawn over each detected face.
type DrawMode string

const (
	ModeMesh      DrawMode = "mesh"
	ModeLandmarks DrawMode = "landmarks"
	ModeFunFilter DrawMode = "fun-filter"
	ModeNone      DrawMode = "none"
)

// DrawModes lists the supported draw modes.
var DrawModes = []DrawMode{ModeMesh, ModeLandmarks, ModeFunFilter, ModeNone}

// ParseDrawMode converts s to a draw mode. Unknown values map to ModeNone.
func ParseDrawMode(s string) DrawMode {
	mode := DrawMode(strings.ToLower(strings.TrimSpace(s)))
	if utils.Contains(DrawModes, mode) {
		return mode
	}
	return ModeNone
}

// Overlay provides the accessory image drawn in fun-filter mode.
// Image returns nil while the image is not available.
type Overlay interface {
	Image() image.Image
}

// TintStyle is the color laid over the frame in fun-filter mode.
type TintStyle struct {
	Color color.NRGBA
	// Blend is one of the imop blend modes. Empty means plain alpha composition.
	Blend string
	// Composite is the imop composite operation. Empty means source over.
	Composite string
}

// Renderer dispatches the per-frame drawing on the selected draw mode.
type Renderer struct {
	Surface   *Surface
	Topology  *Topology
	Accessory Overlay
	Placement PlacementParams

	// Points is the style of the landmarks mode.
	Points Style
	// LineWidth is the connector thickness of the mesh mode.
	LineWidth float64
	// Debug marks the pupil centers in fun-filter mode.
	Debug bool

	tint  TintStyle
	blend *imop.Blend

	log       *logrus.Entry
	noSurface sync.Once
}

// NewRenderer creates a renderer drawing the faces of the topology onto the surface.
func NewRenderer(surface *Surface, topology *Topology, log *logrus.Entry) *Renderer {
	if topology == nil {
		topology = MeshTopology()
	}
	if log == nil {
		log = utils.Discard()
	}
	return &Renderer{
		Surface:   surface,
		Topology:  topology,
		Placement: DefaultPlacement(),
		Points:    DefaultPointStyle,
		LineWidth: DefaultConnectorStyle.Width,
		log:       log.WithField("component", "renderer"),
	}
}

// SetTint changes the fun-filter tint. It fails on an unsupported blend mode
// or composite operation.
func (r *Renderer) SetTint(t TintStyle) error {
	if t.Composite != "" {
		if err := imop.InitOp().Set(t.Composite); err != nil {
			return err
		}
	}
	if t.Blend == "" || t.Blend == imop.Normal {
		r.tint, r.blend = t, nil
		return nil
	}
	blend := imop.NewBlend()
	if err := blend.Set(t.Blend); err != nil {
		return err
	}
	r.tint, r.blend = t, blend
	return nil
}

// Tint returns the current fun-filter tint.
func (r *Renderer) Tint() TintStyle {
	return r.tint
}

// Render draws one detection result. The surface is sized on the first frame and
// cleared on every frame, so nothing of the previous frame persists.
// Per-face failures are logged and the face skipped. The returned error is
// a *NoSurfaceError when the frame could not be drawn at all.
func (r *Renderer) Render(res DetectionResult, mode DrawMode, showBackground bool) error {
	if res.Frame != nil {
		b := res.Frame.Bounds()
		r.Surface.Size(b.Dx(), b.Dy())
	}

	if err := r.Surface.Clear(); err != nil {
		return r.surfaceErr(err)
	}
	if showBackground && res.Frame != nil {
		if err := r.Surface.DrawFrame(res.Frame); err != nil {
			return r.surfaceErr(err)
		}
	}

	bounds := r.Surface.Bounds()
	scale := ScaleOf(bounds.Dx(), bounds.Dy())

	switch mode {
	case ModeMesh:
		for i, lm := range res.Faces {
			if err := r.drawMesh(lm); err != nil {
				if err = r.faceErr(err, i); err != nil {
					return err
				}
			}
		}
	case ModeLandmarks:
		for i, lm := range res.Faces {
			if err := r.Surface.DrawPoints(lm, r.Points); err != nil {
				if err = r.faceErr(err, i); err != nil {
					return err
				}
			}
		}
	case ModeFunFilter:
		if err := r.Surface.Tint(r.tint.Color, r.blend, r.tint.Composite); err != nil {
			return r.surfaceErr(err)
		}
		for i, lm := range res.Faces {
			if err := r.drawAccessory(lm, scale); err != nil {
				if err = r.faceErr(err, i); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (r *Renderer) drawMesh(lm Landmarks) error {
	for _, region := range r.Topology.Regions() {
		style := Style{Color: region.Color, Width: r.LineWidth}
		if style.Color.A == 0 {
			style.Color = DefaultConnectorStyle.Color
		}
		if err := r.Surface.DrawConnectors(lm, region, style); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) drawAccessory(lm Landmarks, scale Scale) error {
	p, err := PlaceOn(r.Topology, lm, scale, r.Placement)
	if err != nil {
		return err
	}
	if r.Accessory != nil {
		if err := r.Surface.DrawTransformedImage(r.Accessory.Image(), p); err != nil {
			return err
		}
	}
	if r.Debug && scale.Width > 0 && scale.Height > 0 {
		pupils := make(Landmarks, 0, len(p.Pupils))
		for _, c := range p.Pupils {
			pupils = append(pupils, Point{X: c.X / scale.Width, Y: c.Y / scale.Height})
		}
		return r.Surface.DrawPoints(pupils, r.Points)
	}
	return nil
}

// faceErr logs a per-face error. It returns the error only if the whole frame has to be skipped.
func (r *Renderer) faceErr(err error, face int) error {
	var regionErr *EmptyRegionError
	if errors.As(err, &regionErr) {
		r.log.WithFields(logrus.Fields{
			"face":   face,
			"region": regionErr.Region,
		}).Warnf("skipping face: %v", err)
		return nil
	}
	return r.surfaceErr(err)
}

func (r *Renderer) surfaceErr(err error) error {
	var surfaceErr *NoSurfaceError
	if errors.As(err, &surfaceErr) {
		r.noSurface.Do(func() {
			r.log.Errorf("skipping frames: %v", err)
		})
		return err
	}
	r.log.Warnf("draw failed: %v", err)
	return nil
}
