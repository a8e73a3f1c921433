package facefilter

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/esimov/facefilter/utils"
)

// Sink receives the rendered frames. The frame is a snapshot owned by the sink.
type Sink interface {
	Present(frame *image.NRGBA) error
}

// SinkFunc adapts an ordinary function to the Sink interface.
type SinkFunc func(frame *image.NRGBA) error

// Present calls f(frame).
func (f SinkFunc) Present(frame *image.NRGBA) error {
	return f(frame)
}

// DefaultQuality is the JPEG encoding quality of the sinks.
const DefaultQuality = 90

// FileSink writes every frame to a numbered image file.
// The output format is given by the destination file extension.
type FileSink struct {
	Quality int

	mu     sync.Mutex
	dir    string
	prefix string
	ext    string
	n      int
}

// NewFileSink creates a sink writing the frames next to dst: out/frame.png
// produces out/frame_00000.png, out/frame_00001.png and so on.
func NewFileSink(dst string) (*FileSink, error) {
	ext := strings.ToLower(filepath.Ext(dst))
	if ext == "" {
		ext = ".jpg"
	}
	if !utils.Contains(ValidExtensions, ext) {
		return nil, fmt.Errorf("unsupported image format: %q", ext)
	}

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("unable to create the destination directory: %w", err)
	}

	return &FileSink{
		Quality: DefaultQuality,
		dir:     dir,
		prefix:  strings.TrimSuffix(filepath.Base(dst), filepath.Ext(dst)),
		ext:     ext,
	}, nil
}

// Present encodes the frame into the next numbered file.
func (s *FileSink) Present(frame *image.NRGBA) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := filepath.Join(s.dir, fmt.Sprintf("%s_%05d%s", s.prefix, s.n, s.ext))
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("unable to create the output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := encodeImage(f, frame, s.ext, s.Quality); err != nil {
		return fmt.Errorf("unable to encode %s: %w", name, err)
	}
	s.n++

	return nil
}

// Count returns the number of frames written.
func (s *FileSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.n
}

// StreamSink writes the frames as concatenated JPEG images (MJPEG),
// e.g. to the standard output piped into a video player.
type StreamSink struct {
	Quality int

	mu sync.Mutex
	w  io.Writer
}

// NewStreamSink creates a MJPEG sink writing to w.
func NewStreamSink(w io.Writer) *StreamSink {
	return &StreamSink{
		Quality: DefaultQuality,
		w:       w,
	}
}

// Present encodes the frame to the stream.
func (s *StreamSink) Present(frame *image.NRGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return encodeImage(s.w, frame, ".jpg", s.Quality)
}

// MultiSink presents every frame to each of its sinks.
type MultiSink []Sink

// Present forwards the frame to all the sinks, even if some of them fail.
func (m MultiSink) Present(frame *image.NRGBA) error {
	var errs []error
	for _, s := range m {
		if err := s.Present(frame); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
