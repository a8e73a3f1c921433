package facefilter

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/esimov/facefilter/imop"
	pigo "github.com/esimov/pigo/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pigoFace returns the estimated landmarks of a face centered in a 200x200 frame.
func pigoFace() Landmarks {
	det := pigo.Detection{Row: 100, Col: 100, Scale: 100, Q: 10}
	return pigoLandmarks(det, nil, 200, 200)
}

func TestRender_ParseDrawMode(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(ModeMesh, ParseDrawMode("mesh"))
	assert.Equal(ModeLandmarks, ParseDrawMode(" Landmarks "))
	assert.Equal(ModeFunFilter, ParseDrawMode("FUN-FILTER"))
	assert.Equal(ModeNone, ParseDrawMode("none"))
	assert.Equal(ModeNone, ParseDrawMode("sparkles"))
	assert.Equal(ModeNone, ParseDrawMode(""))
}

func TestRender_UnknownModeIsNoop(t *testing.T) {
	frame := uniformImage(20, 10, white)
	res := DetectionResult{Frame: frame, Faces: []Landmarks{pigoFace()}}

	r := NewRenderer(NewSurface(), PigoTopology(), nil)
	require.NoError(t, r.Render(res, ParseDrawMode("sparkles"), false))
	assert.Equal(t, image.Rect(0, 0, 20, 10), r.Surface.Bounds())
	assert.True(t, isBlank(r.Surface.Snapshot()))

	require.NoError(t, r.Render(res, ModeNone, true))
	assert.Equal(t, frame.Pix, r.Surface.Snapshot().Pix)
}

func TestRender_NothingPersists(t *testing.T) {
	r := NewRenderer(NewSurface(), PigoTopology(), nil)

	require.NoError(t, r.Render(DetectionResult{Frame: uniformImage(20, 20, white)}, ModeNone, true))
	assert.False(t, isBlank(r.Surface.Snapshot()))

	require.NoError(t, r.Render(DetectionResult{Frame: uniformImage(20, 20, white)}, ModeNone, false))
	assert.True(t, isBlank(r.Surface.Snapshot()))
}

func TestRender_Landmarks(t *testing.T) {
	r := NewRenderer(NewSurface(), PigoTopology(), nil)
	r.Points = Style{Color: red, Radius: 3}

	res := DetectionResult{
		Frame: uniformImage(20, 20, white),
		Faces: []Landmarks{{{X: 0.5, Y: 0.5}}},
	}
	require.NoError(t, r.Render(res, ModeLandmarks, false))

	snap := r.Surface.Snapshot()
	assert.Equal(t, red, snap.NRGBAAt(10, 10))
	assert.Equal(t, color.NRGBA{}, snap.NRGBAAt(0, 0))
}

func TestRender_Mesh(t *testing.T) {
	r := NewRenderer(NewSurface(), PigoTopology(), nil)
	r.LineWidth = 2

	res := DetectionResult{
		Frame: uniformImage(200, 200, white),
		Faces: []Landmarks{pigoFace()},
	}
	require.NoError(t, r.Render(res, ModeMesh, false))

	snap := r.Surface.Snapshot()
	assert.False(t, isBlank(snap))
	// The face outline goes along the top edge of the detection square.
	assert.Equal(t, ovalColor, snap.NRGBAAt(100, 50))
	assert.Equal(t, color.NRGBA{}, snap.NRGBAAt(10, 10))
}

func TestRender_FunFilter(t *testing.T) {
	r := NewRenderer(NewSurface(), PigoTopology(), nil)
	r.Accessory = NewAsset(uniformImage(8, 4, green))

	res := DetectionResult{
		Frame: uniformImage(200, 200, white),
		Faces: []Landmarks{pigoFace()},
	}
	require.NoError(t, r.Render(res, ModeFunFilter, false))

	snap := r.Surface.Snapshot()
	assert.Equal(t, green, snap.NRGBAAt(100, 90))
	assert.Equal(t, color.NRGBA{}, snap.NRGBAAt(100, 150))
	assert.Equal(t, color.NRGBA{}, snap.NRGBAAt(20, 90))
}

func TestRender_FunFilterTint(t *testing.T) {
	r := NewRenderer(NewSurface(), PigoTopology(), nil)
	require.NoError(t, r.SetTint(TintStyle{Color: color.NRGBA{R: 255, A: 255}, Blend: "multiply"}))
	assert.Equal(t, "multiply", r.Tint().Blend)

	res := DetectionResult{Frame: uniformImage(10, 10, white)}
	require.NoError(t, r.Render(res, ModeFunFilter, true))
	assert.Equal(t, red, r.Surface.Snapshot().NRGBAAt(5, 5))

	// The tint is only laid in fun-filter mode.
	require.NoError(t, r.Render(res, ModeNone, true))
	assert.Equal(t, white, r.Surface.Snapshot().NRGBAAt(5, 5))
}

func TestRender_FunFilterTintComposite(t *testing.T) {
	r := NewRenderer(NewSurface(), PigoTopology(), nil)
	require.NoError(t, r.SetTint(TintStyle{Color: red, Composite: imop.SrcAtop}))
	assert.Equal(t, imop.SrcAtop, r.Tint().Composite)

	// Without a background there is nothing to tint.
	res := DetectionResult{Frame: uniformImage(10, 10, white)}
	require.NoError(t, r.Render(res, ModeFunFilter, false))
	assert.True(t, isBlank(r.Surface.Snapshot()))

	require.NoError(t, r.Render(res, ModeFunFilter, true))
	assert.Equal(t, red, r.Surface.Snapshot().NRGBAAt(5, 5))
}

func TestRender_DefaultConfigTint(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, string(ModeFunFilter), cfg.Mode)

	tint, err := cfg.Tint()
	require.NoError(t, err)
	assert.NotZero(t, tint.Color.A)

	r := NewRenderer(NewSurface(), PigoTopology(), nil)
	require.NoError(t, r.SetTint(tint))

	res := DetectionResult{Frame: uniformImage(10, 10, white)}
	require.NoError(t, r.Render(res, ParseDrawMode(cfg.Mode), cfg.Background))

	px := r.Surface.Snapshot().NRGBAAt(5, 5)
	assert.NotEqual(t, white, px)
	assert.EqualValues(t, 255, px.A)
}

func TestRender_SetTintErrors(t *testing.T) {
	r := NewRenderer(NewSurface(), nil, nil)
	assert.Equal(t, MeshTopology(), r.Topology)

	require.Error(t, r.SetTint(TintStyle{Color: red, Blend: "glitter"}))
	require.Error(t, r.SetTint(TintStyle{Color: red, Composite: "glitter"}))
	require.NoError(t, r.SetTint(TintStyle{Color: red}))
	require.NoError(t, r.SetTint(TintStyle{Color: red, Blend: "normal"}))
	assert.Equal(t, red, r.Tint().Color)
}

func TestRender_SkipsMalformedFace(t *testing.T) {
	r := NewRenderer(NewSurface(), PigoTopology(), nil)
	r.Accessory = NewAsset(uniformImage(8, 4, green))

	res := DetectionResult{
		Frame: uniformImage(200, 200, white),
		Faces: []Landmarks{{{X: 0.1, Y: 0.1}, {X: 0.2, Y: 0.2}}, pigoFace()},
	}
	require.NoError(t, r.Render(res, ModeFunFilter, false))
	assert.Equal(t, green, r.Surface.Snapshot().NRGBAAt(100, 90))

	require.NoError(t, r.Render(res, ModeMesh, false))
}

func TestRender_AccessoryNotReady(t *testing.T) {
	r := NewRenderer(NewSurface(), PigoTopology(), nil)
	r.Accessory = NewAsset(nil)

	res := DetectionResult{
		Frame: uniformImage(200, 200, white),
		Faces: []Landmarks{pigoFace()},
	}
	require.NoError(t, r.Render(res, ModeFunFilter, false))
	assert.True(t, isBlank(r.Surface.Snapshot()))
}

func TestRender_NoSurface(t *testing.T) {
	r := NewRenderer(nil, PigoTopology(), nil)

	res := DetectionResult{Frame: uniformImage(10, 10, white)}
	var noSurface *NoSurfaceError
	for i := 0; i < 2; i++ {
		err := r.Render(res, ModeLandmarks, true)
		require.True(t, errors.As(err, &noSurface))
	}
}
