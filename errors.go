package facefilter

import (
	"errors"
	"fmt"
)

var (
	// ErrPermissionDenied is reported by a Capturer when access to the video device is refused.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNoDevice is reported by a Capturer when no video device or frame source exists.
	ErrNoDevice = errors.New("no device")
)

// PermissionError is returned by Session.Start when the capture stream
// could not be acquired. The detection loop is never started in this case.
type PermissionError struct {
	Cause error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("could not acquire the video stream: %v", e.Cause)
}

func (e *PermissionError) Unwrap() error {
	return e.Cause
}

// EmptyRegionError signals a malformed region: the region has no indices
// or it references a landmark the face does not have.
type EmptyRegionError struct {
	Region RegionName
	Index  int
	Len    int
}

func (e *EmptyRegionError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("region %q has no landmark indices", e.Region)
	}
	return fmt.Sprintf("region %q references landmark %d, face has %d landmarks", e.Region, e.Index, e.Len)
}

// NoSurfaceError is returned by the drawing primitives when the drawing target
// has not been acquired yet. Drawing is skipped for the frame.
type NoSurfaceError struct {
	Op string
}

func (e *NoSurfaceError) Error() string {
	return fmt.Sprintf("%s: no drawing surface available", e.Op)
}

// DetectorFailure wraps any error reported by the detector. The frame is dropped.
type DetectorFailure struct {
	Cause error
}

func (e *DetectorFailure) Error() string {
	return fmt.Sprintf("detector failure: %v", e.Cause)
}

func (e *DetectorFailure) Unwrap() error {
	return e.Cause
}

// withRegion attaches the region name to an EmptyRegionError.
func withRegion(err error, name RegionName) error {
	var re *EmptyRegionError
	if errors.As(err, &re) {
		re.Region = name
	}
	return err
}
