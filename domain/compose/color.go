package compose

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
)

// RGB is an opaque 8-bit colour.
type RGB struct{ R, G, B uint8 }

// NRGBA returns the colour as a fully opaque color.NRGBA.
func (c RGB) NRGBA() color.NRGBA { return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff} }

// Hex formats the colour as #RRGGBB.
func (c RGB) Hex() string { return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B) }

func (c RGB) String() string { return c.Hex() }

// ParseHex accepts #RGB or #RRGGBB (the leading '#' is optional).
func ParseHex(s string) (RGB, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RGB{}, fmt.Errorf("empty colour")
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("parse colour %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}

// MustParseHex is ParseHex for compile-time constants.
func MustParseHex(s string) RGB {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// SuggestBackground picks the dominant colour of a bitmap, used to offer a
// matching background for pasted images.
func SuggestBackground(img image.Image) (RGB, bool) {
	if img == nil || img.Bounds().Empty() {
		return RGB{}, false
	}
	c := dominantcolor.Find(img)
	return RGB{R: c.R, G: c.G, B: c.B}, true
}
