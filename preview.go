package facefilter

import (
	"errors"
	"image"
	"image/color"
	"math"
	"sync"

	"gioui.org/app"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
)

const (
	MaxScreenX = 1366
	MaxScreenY = 768
)

// ErrPreviewClosed is returned by Preview.Present once the window has been closed.
var ErrPreviewClosed = errors.New("preview window closed")

var previewBkgColor = color.NRGBA{R: 0x12, G: 0x12, B: 0x12, A: 0xff}

// Preview is a sink showing the rendered frames in a Gio window.
// Frames are never queued: the latest presented frame wins.
type Preview struct {
	Title  string
	Width  int
	Height int

	frames chan *image.NRGBA
	closed chan struct{}
	once   sync.Once
}

// NewPreview creates the preview sink. The window is opened by Run.
func NewPreview(title string, width, height int) *Preview {
	return &Preview{
		Title:  title,
		Width:  width,
		Height: height,
		frames: make(chan *image.NRGBA, 1),
		closed: make(chan struct{}),
	}
}

// Present hands over the frame to the window, replacing the pending one.
func (p *Preview) Present(frame *image.NRGBA) error {
	select {
	case <-p.closed:
		return ErrPreviewClosed
	default:
	}
	for {
		select {
		case p.frames <- frame:
			return nil
		default:
		}
		// Drop the frame not displayed yet.
		select {
		case <-p.frames:
		default:
		}
	}
}

// Closed returns a channel which is closed when the window is closed.
func (p *Preview) Closed() <-chan struct{} {
	return p.closed
}

// Run opens the window and updates its content with the presented frames
// until the window is closed. The Gio event loop requires app.Main
// to be called from the main goroutine, so Run has to run on a separate goroutine.
func (p *Preview) Run() error {
	defer p.once.Do(func() { close(p.closed) })

	width, height := previewSize(p.Width, p.Height)
	w := app.NewWindow(
		app.Title(p.Title),
		app.Size(unit.Dp(width), unit.Dp(height)),
	)

	var (
		ops op.Ops
		img image.Image
	)
	for {
		select {
		case e := <-w.Events():
			switch e := e.(type) {
			case system.FrameEvent:
				gtx := layout.NewContext(&ops, e)
				paint.Fill(gtx.Ops, previewBkgColor)

				if img != nil {
					src := paint.NewImageOp(img)
					src.Add(gtx.Ops)

					widget.Image{
						Src:   src,
						Scale: 1 / gtx.Metric.PxPerDp,
						Fit:   widget.Contain,
					}.Layout(gtx)
				}
				e.Frame(gtx.Ops)
			case system.DestroyEvent:
				return e.Err
			}
		case frame := <-p.frames:
			img = frame
			w.Invalidate()
		}
	}
}

// previewSize returns the window size. The frame aspect ratio is retained
// in case the frame is larger than the predefined screen size.
func previewSize(width, height int) (float32, float32) {
	if width <= 0 || height <= 0 {
		return 640, 480
	}
	newWidth, newHeight := float64(width), float64(height)

	if width > MaxScreenX || height > MaxScreenY {
		widthRatio := float64(MaxScreenX) / float64(width)
		heightRatio := float64(MaxScreenY) / float64(height)
		ratio := math.Min(widthRatio, heightRatio)

		newWidth = float64(width) * ratio
		newHeight = float64(height) * ratio
	}
	return float32(newWidth), float32(newHeight)
}
