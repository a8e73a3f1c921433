//go:build !gocv

package facefilter

import (
	"context"
	"fmt"
)

// Open reports ErrNoDevice: webcam support requires the gocv build tag.
func (c *Camera) Open(ctx context.Context) (Stream, error) {
	return nil, fmt.Errorf("%w: camera %d, rebuild with -tags gocv for webcam support", ErrNoDevice, c.Device)
}
