package facefilter

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/esimov/facefilter/utils"
)

// Capturer acquires a video stream.
// Open fails with an error wrapping ErrPermissionDenied or ErrNoDevice
// when the stream cannot be acquired.
type Capturer interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream delivers the frames of an acquired video stream.
// Next returns io.EOF once the stream has no more frames.
type Stream interface {
	Next(ctx context.Context) (image.Image, error)
	Close() error
}

// ValidExtensions lists the supported frame file types.
var ValidExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}

// Camera is a webcam video source. It is available only when
// the binary is built with the gocv build tag.
type Camera struct {
	Device int
	Width  int
	Height int
	FPS    int
	// Mirror flips the frames horizontally, as a selfie view.
	Mirror bool
}

// ImageSource streams the frames read from an image file, an image URL
// or a directory of image files, in lexical order.
type ImageSource struct {
	Path string
	// Loop restarts the stream from the first frame instead of ending it.
	Loop   bool
	Mirror bool
}

// Open lists the frames of the source. A URL is downloaded first.
func (s *ImageSource) Open(ctx context.Context) (Stream, error) {
	var tmp string

	path := s.Path
	if utils.IsValidUrl(path) {
		f, err := utils.DownloadImage(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
		}
		f.Close()
		path, tmp = f.Name(), f.Name()
	}

	paths, err := listFrames(path)
	if err != nil {
		if tmp != "" {
			os.Remove(tmp)
		}
		return nil, captureErr(err)
	}

	return &imageStream{
		paths:  paths,
		loop:   s.Loop,
		mirror: s.Mirror,
		tmp:    tmp,
	}, nil
}

// listFrames returns the supported image files of src. src is either a file or a directory.
func listFrames(src string) ([]string, error) {
	fi, err := os.Stat(src)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return []string{src}, nil
	}

	var paths []string
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if utils.Contains(ValidExtensions, strings.ToLower(filepath.Ext(d.Name()))) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no image found in %s", ErrNoDevice, src)
	}
	sort.Strings(paths)

	return paths, nil
}

// captureErr maps the file system errors to the capture errors.
func captureErr(err error) error {
	switch {
	case errors.Is(err, ErrNoDevice), errors.Is(err, ErrPermissionDenied):
		return err
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	return err
}

type imageStream struct {
	mu     sync.Mutex
	paths  []string
	idx    int
	loop   bool
	mirror bool
	tmp    string
	// still holds the decoded frame of a single image source.
	still image.Image
}

func (s *imageStream) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paths == nil {
		return nil, io.EOF
	}
	if s.idx >= len(s.paths) {
		if !s.loop {
			return nil, io.EOF
		}
		s.idx = 0
	}
	if s.still != nil {
		s.idx++
		return s.still, nil
	}

	path := s.paths[s.idx]
	s.idx++

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("could not decode the frame %s: %w", path, err)
	}
	var frame image.Image = img
	if s.mirror {
		frame = imaging.FlipH(img)
	}
	if len(s.paths) == 1 {
		s.still = frame
	}
	return frame, nil
}

func (s *imageStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.paths, s.still = nil, nil
	if s.tmp != "" {
		err := os.Remove(s.tmp)
		s.tmp = ""
		return err
	}
	return nil
}
