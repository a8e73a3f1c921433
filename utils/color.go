package utils

import (
	"fmt"
	"image/color"
	"strings"
)

// HexToRGBA converts a color expressed in hexadecimal format (#rgb, #rgba, #rrggbb or #rrggbbaa) to color.NRGBA.
func HexToRGBA(hex string) (color.NRGBA, error) {
	var (
		c   = color.NRGBA{A: 0xff}
		err error
	)
	hex = strings.TrimPrefix(hex, "#")

	switch len(hex) {
	case 3:
		_, err = fmt.Sscanf(hex, "%1x%1x%1x", &c.R, &c.G, &c.B)
		c.R *= 17
		c.G *= 17
		c.B *= 17
	case 4:
		_, err = fmt.Sscanf(hex, "%1x%1x%1x%1x", &c.R, &c.G, &c.B, &c.A)
		c.R *= 17
		c.G *= 17
		c.B *= 17
		c.A *= 17
	case 6:
		_, err = fmt.Sscanf(hex, "%02x%02x%02x", &c.R, &c.G, &c.B)
	case 8:
		_, err = fmt.Sscanf(hex, "%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A)
	default:
		err = fmt.Errorf("invalid hex color length: %d", len(hex))
	}
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("cannot parse color %q: %w", hex, err)
	}
	return c, nil
}
