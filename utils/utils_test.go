package utils

import (
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMath_MinMax(t *testing.T) {
	assert.Equal(t, 2, Min(2, 5))
	assert.Equal(t, 2, Min(5, 2))
	assert.Equal(t, 5, Max(2, 5))
	assert.Equal(t, 1.5, Abs(-1.5))
	assert.Equal(t, 1.0, Clamp(3.0, 0, 1))
	assert.Equal(t, 0.0, Clamp(-3.0, 0, 1))
	assert.Equal(t, 0.5, Clamp(0.5, 0, 1))
}

func TestMath_Contains(t *testing.T) {
	assert.True(t, Contains([]string{"mesh", "none"}, "none"))
	assert.False(t, Contains([]string{"mesh", "none"}, "fun-filter"))
}

func TestColor_HexToRGBA(t *testing.T) {
	c, err := HexToRGBA("#ff8000")
	assert.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0x80, B: 0x00, A: 0xff}, c)

	c, err = HexToRGBA("fff")
	assert.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, c)

	c, err = HexToRGBA("#f008")
	assert.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0x00, B: 0x00, A: 0x88}, c)

	c, err = HexToRGBA("#10203040")
	assert.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0x40}, c)

	_, err = HexToRGBA("#12345")
	assert.Error(t, err)

	_, err = HexToRGBA("#zzzzzz")
	assert.Error(t, err)
}

func TestFormat_Time(t *testing.T) {
	assert.Equal(t, "12.5ms", FormatTime(12500*time.Microsecond))
	assert.Equal(t, "1.50s", FormatTime(1500*time.Millisecond))
	assert.Equal(t, "2m 3.00s", FormatTime(2*time.Minute+3*time.Second))
	assert.Equal(t, "40.0 FPS", FormatFPS(25*time.Millisecond))
	assert.Equal(t, "- FPS", FormatFPS(0))
}

func TestFormat_DecorateText(t *testing.T) {
	assert.Equal(t, ErrorColor+"failed"+DefaultColor, DecorateText("failed", ErrorMessage))
	assert.Equal(t, "plain", DecorateText("plain", MessageType(42)))
}
