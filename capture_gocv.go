//go:build gocv

package facefilter

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

// Open opens the webcam. The requested resolution and frame rate are hints,
// the camera may not support them.
func (c *Camera) Open(ctx context.Context) (Stream, error) {
	webcam, err := gocv.OpenVideoCapture(c.Device)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open camera %d: %v", ErrNoDevice, c.Device, err)
	}
	if !webcam.IsOpened() {
		webcam.Close()
		return nil, fmt.Errorf("%w: camera %d is not accessible", ErrPermissionDenied, c.Device)
	}

	if c.Width > 0 && c.Height > 0 {
		webcam.Set(gocv.VideoCaptureFrameWidth, float64(c.Width))
		webcam.Set(gocv.VideoCaptureFrameHeight, float64(c.Height))
	}
	if c.FPS > 0 {
		webcam.Set(gocv.VideoCaptureFPS, float64(c.FPS))
	}

	return &cameraStream{
		webcam: webcam,
		frame:  gocv.NewMat(),
		mirror: c.Mirror,
	}, nil
}

type cameraStream struct {
	mu     sync.Mutex
	webcam *gocv.VideoCapture
	frame  gocv.Mat
	mirror bool
}

func (s *cameraStream) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.webcam == nil {
		return nil, ErrNoDevice
	}
	if !s.webcam.Read(&s.frame) || s.frame.Empty() {
		return nil, fmt.Errorf("could not read a frame from the camera")
	}

	img, err := s.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("could not convert the camera frame: %w", err)
	}
	if s.mirror {
		return imaging.FlipH(img), nil
	}
	return imaging.Clone(img), nil
}

func (s *cameraStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.webcam == nil {
		return nil
	}
	err := s.webcam.Close()
	s.frame.Close()
	s.webcam = nil

	return err
}
