package facefilter

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSink_FileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sink, err := NewFileSink(filepath.Join(dir, "frame.png"))
	require.NoError(t, err)

	require.NoError(t, sink.Present(uniformImage(4, 3, red)))
	require.NoError(t, sink.Present(uniformImage(4, 3, green)))
	assert.Equal(t, 2, sink.Count())

	img, err := imaging.Open(filepath.Join(dir, "frame_00001.png"))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
	assert.Equal(t, green, imaging.Clone(img).NRGBAAt(2, 2))

	_, err = os.Stat(filepath.Join(dir, "frame_00000.png"))
	assert.NoError(t, err)
}

func TestSink_FileSinkDefaultsToJpeg(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(filepath.Join(dir, "frame"))
	require.NoError(t, err)
	require.NoError(t, sink.Present(uniformImage(4, 4, red)))

	f, err := os.Open(filepath.Join(dir, "frame_00000.jpg"))
	require.NoError(t, err)
	defer f.Close()

	_, err = jpeg.Decode(f)
	assert.NoError(t, err)
}

func TestSink_FileSinkUnsupportedFormat(t *testing.T) {
	_, err := NewFileSink(filepath.Join(t.TempDir(), "frame.gif"))
	assert.Error(t, err)
}

func TestSink_StreamSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewStreamSink(&buf)

	require.NoError(t, sink.Present(uniformImage(8, 8, red)))
	first := buf.Len()
	require.NoError(t, sink.Present(uniformImage(8, 8, green)))
	require.Greater(t, buf.Len(), first)

	img, err := jpeg.Decode(bytes.NewReader(buf.Bytes()[:first]))
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())

	_, err = jpeg.Decode(bytes.NewReader(buf.Bytes()[first:]))
	assert.NoError(t, err)
}

func TestSink_MultiSink(t *testing.T) {
	var calls int
	ok := SinkFunc(func(frame *image.NRGBA) error {
		calls++
		return nil
	})
	errFull := errors.New("disk full")
	failing := SinkFunc(func(frame *image.NRGBA) error {
		calls++
		return errFull
	})

	assert.NoError(t, MultiSink{ok, ok}.Present(uniformImage(2, 2, red)))
	assert.Equal(t, 2, calls)

	err := MultiSink{failing, ok, failing}.Present(uniformImage(2, 2, red))
	assert.ErrorIs(t, err, errFull)
	assert.Equal(t, 5, calls)

	assert.NoError(t, MultiSink{}.Present(uniformImage(2, 2, red)))
}
