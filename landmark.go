package facefilter

import (
	"math"
)

// Point is a 2D coordinate. Landmarks produced by a detector carry
// coordinates normalized to the [0, 1] range relative to the frame size,
// while the geometry helpers return points in pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	// Z is the optional depth reported by some detectors. It is ignored.
	Z float64 `json:"z,omitempty"`
}

// Landmarks is the ordered landmark set of a single face.
// Index stability across frames is guaranteed by the detector.
type Landmarks []Point

// Scale holds the pixel dimensions of the source frame.
type Scale struct {
	Width  float64
	Height float64
}

// ScaleOf returns the scale factor of an image of w x h pixels.
func ScaleOf(w, h int) Scale {
	return Scale{Width: float64(w), Height: float64(h)}
}

// BoundingBox is an axis aligned box in pixel space.
type BoundingBox struct {
	Top    float64
	Left   float64
	Bottom float64
	Right  float64
}

// Width returns box width
func (b BoundingBox) Width() float64 {
	return b.Right - b.Left
}

// Height returns box height
func (b BoundingBox) Height() float64 {
	return b.Bottom - b.Top
}

// BoundingBoxOf maps every landmark referenced by indices into pixel space
// and returns the extremal box enclosing them.
// It fails with an *EmptyRegionError if indices is empty or references
// a landmark missing from lm.
func BoundingBoxOf(lm Landmarks, indices []int, scale Scale) (BoundingBox, error) {
	if len(indices) == 0 {
		return BoundingBox{}, &EmptyRegionError{Index: -1, Len: len(lm)}
	}

	box := BoundingBox{
		Top:    math.Inf(1),
		Left:   math.Inf(1),
		Bottom: math.Inf(-1),
		Right:  math.Inf(-1),
	}
	for _, idx := range indices {
		if idx < 0 || idx >= len(lm) {
			return BoundingBox{}, &EmptyRegionError{Index: idx, Len: len(lm)}
		}
		x := lm[idx].X * scale.Width
		y := lm[idx].Y * scale.Height

		box.Left = math.Min(box.Left, x)
		box.Right = math.Max(box.Right, x)
		box.Top = math.Min(box.Top, y)
		box.Bottom = math.Max(box.Bottom, y)
	}
	return box, nil
}

// Center returns the center point of the box.
func Center(box BoundingBox) Point {
	return Point{
		X: box.Left + (box.Right-box.Left)/2,
		Y: box.Top + (box.Bottom-box.Top)/2,
	}
}

// RotationAngle returns the signed angle in radians of the line going from a to b,
// relative to the horizontal axis. Used with the two pupil centers it estimates the head roll.
// Identical points yield atan2(0, 0) = 0.
func RotationAngle(a, b Point) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X)
}
