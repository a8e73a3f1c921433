package facefilter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/esimov/facefilter/utils"
	"github.com/go-playground/validator/v10"
)

// Config holds the application settings.
type Config struct {
	// Source is an image file, an image URL or a directory of frames. It takes precedence over Camera.
	Source string
	// Camera is the webcam device id. A negative value disables the webcam.
	Camera int `validate:"gte=-1"`
	Width  int `validate:"gte=0"`
	Height int `validate:"gte=0"`
	Mirror bool
	Loop   bool

	Detector  string `validate:"oneof=pigo remote"`
	Cascades  string `validate:"required_if=Detector pigo"`
	RemoteURL string `validate:"required_if=Detector remote,omitempty,url"`

	Accessory  string
	Mode       string `validate:"oneof=mesh landmarks fun-filter none"`
	Background bool
	FPS        float64 `validate:"gte=0,lte=240"`
	Debug      bool

	WidthFactor   float64 `validate:"gt=0"`
	HeightDivisor float64 `validate:"gt=0"`

	// TintColor is the fun-filter tint. An empty value disables the tint.
	TintColor     string `validate:"omitempty,hexcolor"`
	TintBlend     string `validate:"omitempty,oneof=normal darken lighten multiply screen overlay"`
	TintComposite string `validate:"omitempty,oneof=clear copy dst src_over dst_over src_in dst_in src_out dst_out src_atop dst_atop xor"`

	Out     string
	Stream  bool
	Preview bool

	LogLevel string `validate:"oneof=debug info warn warning error"`
	LogFile  string
}

// DefaultTintColor is a translucent pink multiplied over the frame in fun-filter mode.
const DefaultTintColor = "#ff80c060"

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		Camera:        0,
		Width:         640,
		Height:        480,
		Mirror:        true,
		Detector:      "pigo",
		Cascades:      "cascade",
		Mode:          string(ModeFunFilter),
		Background:    true,
		FPS:           DefaultFPS,
		WidthFactor:   DefaultWidthFactor,
		HeightDivisor: DefaultHeightDivisor,
		TintColor:     DefaultTintColor,
		TintBlend:     "multiply",
		TintComposite: "src_over",
		Preview:       true,
		LogLevel:      "info",
	}
}

var validate = validator.New()

// Validate checks the settings.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed on '%s' (value %v)", e.Field(), e.Tag(), e.Value()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	if c.Source == "" && c.Camera < 0 {
		return errors.New("invalid configuration: a frame source or a camera is required")
	}
	if c.Out == "" && !c.Stream && !c.Preview {
		return errors.New("invalid configuration: at least one output is required")
	}
	return nil
}

// Capturer returns the video source selected by the settings.
func (c *Config) Capturer() Capturer {
	if c.Source != "" {
		return &ImageSource{
			Path:   c.Source,
			Loop:   c.Loop,
			Mirror: c.Mirror,
		}
	}
	return &Camera{
		Device: c.Camera,
		Width:  c.Width,
		Height: c.Height,
		FPS:    int(c.FPS),
		Mirror: c.Mirror,
	}
}

// Placement returns the accessory sizing factors of the settings.
func (c *Config) Placement() PlacementParams {
	return PlacementParams{
		WidthFactor:   c.WidthFactor,
		HeightDivisor: c.HeightDivisor,
	}
}

// Tint returns the fun-filter tint of the settings.
func (c *Config) Tint() (TintStyle, error) {
	if c.TintColor == "" {
		return TintStyle{}, nil
	}
	col, err := utils.HexToRGBA(c.TintColor)
	if err != nil {
		return TintStyle{}, err
	}
	return TintStyle{
		Color:     col,
		Blend:     c.TintBlend,
		Composite: c.TintComposite,
	}, nil
}
