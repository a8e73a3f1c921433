package facefilter

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLandmark_BoundingBoxOrdering(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))

	lm := make(Landmarks, 100)
	for i := range lm {
		lm[i] = Point{X: rnd.Float64(), Y: rnd.Float64()}
	}

	for i := 0; i < 50; i++ {
		indices := make([]int, 1+rnd.Intn(10))
		for j := range indices {
			indices[j] = rnd.Intn(len(lm))
		}
		box, err := BoundingBoxOf(lm, indices, ScaleOf(640, 480))
		require.NoError(t, err)

		assert.LessOrEqual(t, box.Top, box.Bottom)
		assert.LessOrEqual(t, box.Left, box.Right)
		assert.GreaterOrEqual(t, box.Width(), 0.0)
		assert.GreaterOrEqual(t, box.Height(), 0.0)
	}
}

func TestLandmark_BoundingBoxScale(t *testing.T) {
	lm := Landmarks{{X: 0.5, Y: 0.25}, {X: 0.25, Y: 0.75}, {X: 0.75, Y: 0.5}}

	box, err := BoundingBoxOf(lm, []int{0, 1, 2}, ScaleOf(200, 100))
	require.NoError(t, err)
	assert.Equal(t, BoundingBox{Top: 25, Left: 50, Bottom: 75, Right: 150}, box)
	assert.Equal(t, Point{X: 100, Y: 50}, Center(box))

	// A single point yields a degenerate box.
	box, err = BoundingBoxOf(lm, []int{1}, ScaleOf(200, 100))
	require.NoError(t, err)
	assert.Equal(t, BoundingBox{Top: 75, Left: 50, Bottom: 75, Right: 50}, box)
	assert.Equal(t, Point{X: 50, Y: 75}, Center(box))
}

func TestLandmark_BoundingBoxErrors(t *testing.T) {
	lm := Landmarks{{X: 0.1, Y: 0.1}, {X: 0.2, Y: 0.2}}

	_, err := BoundingBoxOf(lm, nil, ScaleOf(10, 10))
	var regionErr *EmptyRegionError
	require.True(t, errors.As(err, &regionErr))
	assert.Equal(t, -1, regionErr.Index)

	_, err = BoundingBoxOf(lm, []int{0, 2}, ScaleOf(10, 10))
	require.True(t, errors.As(err, &regionErr))
	assert.Equal(t, 2, regionErr.Index)
	assert.Equal(t, 2, regionErr.Len)

	_, err = BoundingBoxOf(lm, []int{-1}, ScaleOf(10, 10))
	require.True(t, errors.As(err, &regionErr))
	assert.Equal(t, -1, regionErr.Index)
}

func TestLandmark_ZeroFrame(t *testing.T) {
	lm := Landmarks{{X: 0.3, Y: 0.6}, {X: 0.9, Y: 0.1}}

	box, err := BoundingBoxOf(lm, []int{0, 1}, ScaleOf(0, 0))
	require.NoError(t, err)
	assert.Equal(t, BoundingBox{}, box)
}

func TestLandmark_RotationAngle(t *testing.T) {
	assert := assert.New(t)

	a := Point{X: 12, Y: 7}
	assert.Equal(0.0, RotationAngle(a, a))
	assert.Equal(0.0, RotationAngle(Point{}, Point{}))

	assert.InDelta(0, RotationAngle(Point{X: 0, Y: 0}, Point{X: 10, Y: 0}), 1e-12)
	assert.InDelta(math.Pi/4, RotationAngle(Point{X: 0, Y: 0}, Point{X: 10, Y: 10}), 1e-12)
	assert.InDelta(-math.Pi/2, RotationAngle(Point{X: 5, Y: 5}, Point{X: 5, Y: 1}), 1e-12)
}

func TestLandmark_RotationAngleSymmetry(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))

	for i := 0; i < 100; i++ {
		a := Point{X: rnd.Float64() * 640, Y: rnd.Float64() * 480}
		b := Point{X: rnd.Float64() * 640, Y: rnd.Float64() * 480}
		if a.Y == b.Y {
			continue
		}

		// Swapping the points reverses the direction of the line.
		diff := RotationAngle(b, a) - RotationAngle(a, b)
		assert.InDelta(t, math.Pi, math.Abs(diff), 1e-9)

		// Mirroring the points over the horizontal axis negates the angle.
		ra := Point{X: a.X, Y: -a.Y}
		rb := Point{X: b.X, Y: -b.Y}
		assert.InDelta(t, -RotationAngle(a, b), RotationAngle(ra, rb), 1e-9)
	}
}
