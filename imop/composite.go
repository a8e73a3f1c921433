package imop

import (
	"fmt"
	"image"
	"image/color"

	"github.com/esimov/facefilter/utils"
)

const (
	Clear   = "clear"
	Copy    = "copy"
	Dst     = "dst"
	SrcOver = "src_over"
	DstOver = "dst_over"
	SrcIn   = "src_in"
	DstIn   = "dst_in"
	SrcOut  = "src_out"
	DstOut  = "dst_out"
	SrcAtop = "src_atop"
	DstAtop = "dst_atop"
	Xor     = "xor"
)

// Composite holds the currently active composite operation.
type Composite struct {
	current string
	ops     []string
}

// InitOp initializes a new Composite using source over destination.
func InitOp() *Composite {
	return &Composite{
		current: SrcOver,
		ops: []string{
			Clear,
			Copy,
			Dst,
			SrcOver,
			DstOver,
			SrcIn,
			DstIn,
			SrcOut,
			DstOut,
			SrcAtop,
			DstAtop,
			Xor,
		},
	}
}

// Set changes the active composite operation.
func (op *Composite) Set(cop string) error {
	if !utils.Contains(op.ops, cop) {
		return fmt.Errorf("unsupported composite operation: %q", cop)
	}
	op.current = cop
	return nil
}

// Get returns the active composite operation.
func (op *Composite) Get() string {
	return op.current
}

// Fill composites the uniform color c over dst in place.
func (op *Composite) Fill(dst *image.NRGBA, c color.NRGBA, blend *Blend) {
	s := toFloat([]uint8{c.R, c.G, c.B, c.A})
	b := dst.Bounds()

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			di := dst.PixOffset(x, y)
			px := dst.Pix[di : di+4]
			fromFloat(px, op.compose(s, toFloat(px), blend))
		}
	}
}

// compose applies the blend mode to the source color, then the
// composite operation on the (non premultiplied) channel values.
func (op *Composite) compose(s, b [4]float64, blend *Blend) [4]float64 {
	as, ab := s[3], b[3]

	// The blended color replaces the source color where the backdrop is opaque.
	if blend != nil {
		for i := 0; i < 3; i++ {
			s[i] = (1-ab)*s[i] + ab*blend.mix(s[i], b[i])
		}
	}

	// Coverage factors of the source and the backdrop.
	var fs, fb float64
	switch op.current {
	case Clear:
		fs, fb = 0, 0
	case Copy:
		fs, fb = 1, 0
	case Dst:
		fs, fb = 0, 1
	case SrcOver:
		fs, fb = 1, 1-as
	case DstOver:
		fs, fb = 1-ab, 1
	case SrcIn:
		fs, fb = ab, 0
	case DstIn:
		fs, fb = 0, as
	case SrcOut:
		fs, fb = 1-ab, 0
	case DstOut:
		fs, fb = 0, 1-as
	case SrcAtop:
		fs, fb = ab, 1-as
	case DstAtop:
		fs, fb = 1-ab, as
	case Xor:
		fs, fb = 1-ab, 1-as
	}

	var out [4]float64
	ao := as*fs + ab*fb
	out[3] = ao
	if ao == 0 {
		return out
	}
	for i := 0; i < 3; i++ {
		out[i] = (as*fs*s[i] + ab*fb*b[i]) / ao
	}
	return out
}

func toFloat(px []uint8) [4]float64 {
	return [4]float64{
		float64(px[0]) / 255,
		float64(px[1]) / 255,
		float64(px[2]) / 255,
		float64(px[3]) / 255,
	}
}

func fromFloat(px []uint8, c [4]float64) {
	for i := 0; i < 4; i++ {
		px[i] = uint8(utils.Clamp(c[i], 0, 1)*255 + 0.5)
	}
}
