package facefilter

import (
	"context"
	"image"
)

// DetectionResult holds the faces found on a frame. Faces is empty when no face was found.
type DetectionResult struct {
	Frame image.Image
	Faces []Landmarks
}

// Detector finds the facial landmarks of every face on a frame.
// Detect may take arbitrarily long. Implementations should return when ctx is done.
type Detector interface {
	Detect(ctx context.Context, frame image.Image) (DetectionResult, error)
}

// DetectorFunc adapts an ordinary function to the Detector interface.
type DetectorFunc func(ctx context.Context, frame image.Image) (DetectionResult, error)

// Detect calls f(ctx, frame).
func (f DetectorFunc) Detect(ctx context.Context, frame image.Image) (DetectionResult, error) {
	return f(ctx, frame)
}

// TopologyOf returns the landmark layout emitted by the detector.
// Detectors not reporting their layout are assumed to emit the face mesh layout.
func TopologyOf(d Detector) *Topology {
	if t, ok := d.(interface{ Topology() *Topology }); ok {
		return t.Topology()
	}
	return MeshTopology()
}
