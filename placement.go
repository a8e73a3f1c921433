package facefilter

import (
	"math"
)

// Accessory sizing factors. These are empirically chosen design parameters,
// not derived values.
const (
	DefaultWidthFactor   = 1.75
	DefaultHeightDivisor = 3.0
)

// PlacementParams holds the tunable accessory sizing factors.
type PlacementParams struct {
	// WidthFactor multiplies the distance between the outer eye corners.
	WidthFactor float64
	// HeightDivisor divides the face outline height.
	HeightDivisor float64
}

// DefaultPlacement returns the default accessory sizing factors.
func DefaultPlacement() PlacementParams {
	return PlacementParams{
		WidthFactor:   DefaultWidthFactor,
		HeightDivisor: DefaultHeightDivisor,
	}
}

// orDefault replaces the non-positive or non-finite factors with the defaults.
func (p PlacementParams) orDefault() PlacementParams {
	valid := func(f float64) bool {
		return f > 0 && !math.IsInf(f, 1)
	}
	if !valid(p.WidthFactor) {
		p.WidthFactor = DefaultWidthFactor
	}
	if !valid(p.HeightDivisor) {
		p.HeightDivisor = DefaultHeightDivisor
	}
	return p
}

// Placement contains the affine parameters for drawing an accessory aligned to a face.
// The renderer translates to Origin, rotates by Rotation, then draws the
// image at Offset with the size Width x Height.
type Placement struct {
	Origin   Point
	Rotation float64
	Width    float64
	Height   float64
	Offset   Point

	// Pupils holds the left and right pupil centers the rotation was computed from.
	Pupils [2]Point
}

// ComputePlacement computes the accessory placement of one face.
// The anchor is the top-left corner of the left eye box; rotating around it
// keeps the accessory aligned to the head roll without a 3D pose estimation.
// Sizing factors that are not positive and finite are replaced by the defaults.
func ComputePlacement(lm Landmarks, scale Scale, left, right, outline Region, params PlacementParams) (Placement, error) {
	leftBox, err := BoundingBoxOf(lm, left.Indices, scale)
	if err != nil {
		return Placement{}, withRegion(err, left.Name)
	}
	rightBox, err := BoundingBoxOf(lm, right.Indices, scale)
	if err != nil {
		return Placement{}, withRegion(err, right.Name)
	}
	faceBox, err := BoundingBoxOf(lm, outline.Indices, scale)
	if err != nil {
		return Placement{}, withRegion(err, outline.Name)
	}

	params = params.orDefault()

	eyeWidth := math.Abs(rightBox.Right - leftBox.Left)
	eyeHeight := math.Abs(leftBox.Bottom - leftBox.Top)

	leftPupil := Center(leftBox)
	rightPupil := Center(rightBox)

	width := eyeWidth * params.WidthFactor
	height := (faceBox.Bottom - faceBox.Top) / params.HeightDivisor

	widthExcess := width - eyeWidth
	heightExcess := height - eyeHeight

	return Placement{
		Origin:   Point{X: leftBox.Left, Y: leftBox.Top},
		Rotation: RotationAngle(leftPupil, rightPupil),
		Width:    width,
		Height:   height,
		Offset:   Point{X: -widthExcess / 2, Y: -heightExcess / 2},
		Pupils:   [2]Point{leftPupil, rightPupil},
	}, nil
}

// PlaceOn computes the accessory placement of a face using the placement regions of the topology.
func PlaceOn(t *Topology, lm Landmarks, scale Scale, params PlacementParams) (Placement, error) {
	left, _ := t.Region(t.LeftEye)
	right, _ := t.Region(t.RightEye)
	outline, _ := t.Region(t.Outline)

	return ComputePlacement(lm, scale, left, right, outline, params)
}
