package facefilter

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/esimov/facefilter/utils"
)

// Asset is an accessory image loaded in the background.
// It is read-only once loaded and it is safe for concurrent use.
type Asset struct {
	Src string

	mu    sync.RWMutex
	img   *image.NRGBA
	err   error
	ready chan struct{}
}

// LoadAsset starts loading the image from a local path or a URL and returns immediately.
// Image returns nil until the image is decoded.
func LoadAsset(ctx context.Context, src string) *Asset {
	a := &Asset{
		Src:   src,
		ready: make(chan struct{}),
	}
	go func() {
		defer close(a.ready)

		img, err := loadImage(ctx, src)

		a.mu.Lock()
		a.img, a.err = img, err
		a.mu.Unlock()
	}()
	return a
}

// NewAsset wraps an already decoded image.
func NewAsset(img image.Image) *Asset {
	a := &Asset{ready: make(chan struct{})}
	if img != nil {
		a.img = imaging.Clone(img)
	}
	close(a.ready)
	return a
}

// Image returns the decoded image or nil if it is not available (yet).
func (a *Asset) Image() image.Image {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.img == nil {
		return nil
	}
	return a.img
}

// Wait blocks until the asset is loaded and returns the loading error, if any.
func (a *Asset) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-a.ready:
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.err
}

// Ready returns a channel closed once loading finished, successfully or not.
func (a *Asset) Ready() <-chan struct{} {
	return a.ready
}

func loadImage(ctx context.Context, src string) (*image.NRGBA, error) {
	path := src
	if utils.IsValidUrl(src) {
		f, err := utils.DownloadImage(ctx, src)
		if f != nil {
			defer os.Remove(f.Name())
			f.Close()
		}
		if err != nil {
			return nil, fmt.Errorf("could not download the accessory image: %w", err)
		}
		path = f.Name()
	} else {
		ctype, err := utils.DetectContentType(path)
		if err != nil {
			return nil, fmt.Errorf("could not open the accessory image: %w", err)
		}
		if !strings.Contains(ctype, "image") {
			return nil, fmt.Errorf("the accessory should be an image file, got %s", ctype)
		}
	}

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not decode the accessory image: %w", err)
	}
	return imaging.Clone(img), nil
}
