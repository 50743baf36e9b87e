// Package mask turns the implicit solid backdrop of a generated bitmap into
// transparency. The background colour is inferred from the four corners and
// every pixel close enough to it, channel by channel, loses its alpha.
//
// The heuristic assumes a uniform backdrop that covers at least two corners.
// Pixels inside the subject that happen to match the backdrop are cleared as
// well; there is no flood fill or connectivity analysis.
package mask

import (
	"errors"
	"image"
	"io"

	"github.com/disintegration/imaging"

	"github.com/soocke/emojipic/domain/compose"
)

// DefaultTolerance is the per-channel distance below which a pixel counts as background.
const DefaultTolerance = 30

// ErrEmptyImage reports a 0x0 input; callers must not mask empty buffers.
var ErrEmptyImage = errors.New("mask: empty image")

// Options tunes background removal. The zero value uses DefaultTolerance.
type Options struct {
	Tolerance int
}

func (o Options) tolerance() int {
	if o.Tolerance <= 0 {
		return DefaultTolerance
	}
	return o.Tolerance
}

// BackgroundSample is the plurality corner colour and how many corners carried it.
type BackgroundSample struct {
	Color compose.RGB
	Count int
}

// Corners returns the corner coordinates in enumeration order: top-left,
// top-right, bottom-left, bottom-right.
func Corners(b image.Rectangle) [4]image.Point {
	return [4]image.Point{
		{b.Min.X, b.Min.Y},
		{b.Max.X - 1, b.Min.Y},
		{b.Min.X, b.Max.Y - 1},
		{b.Max.X - 1, b.Max.Y - 1},
	}
}

// SampleBackground infers the background from the corner pixels. The most
// frequent RGB wins; ties go to the colour enumerated first.
func SampleBackground(img *image.NRGBA) (BackgroundSample, error) {
	if img == nil || img.Bounds().Empty() {
		return BackgroundSample{}, ErrEmptyImage
	}
	var (
		colors [4]compose.RGB
		counts [4]int
		n      int
	)
	for _, p := range Corners(img.Bounds()) {
		c := img.NRGBAAt(p.X, p.Y)
		rgb := compose.RGB{R: c.R, G: c.G, B: c.B}
		i := 0
		for i < n && colors[i] != rgb {
			i++
		}
		if i == n {
			colors[n] = rgb
			n++
		}
		counts[i]++
	}
	best := 0
	for i := 1; i < n; i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	return BackgroundSample{Color: colors[best], Count: counts[best]}, nil
}

// Remove returns a copy of src with every background-coloured pixel made
// fully transparent. src is never modified.
func Remove(src image.Image, opts Options) (*image.NRGBA, error) {
	if src == nil || src.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	out := imaging.Clone(src)
	bg, err := SampleBackground(out)
	if err != nil {
		return nil, err
	}
	tol := opts.tolerance()
	w, h := out.Rect.Dx(), out.Rect.Dy()
	for y := 0; y < h; y++ {
		row := out.Pix[y*out.Stride : y*out.Stride+w*4]
		for i := 0; i < len(row); i += 4 {
			if near(row[i], bg.Color.R, tol) && near(row[i+1], bg.Color.G, tol) && near(row[i+2], bg.Color.B, tol) {
				row[i+3] = 0
			}
		}
	}
	return out, nil
}

// RemoveEncoded decodes an encoded image and masks it. Masking starts only
// after decoding has completed.
func RemoveEncoded(r io.Reader, opts Options) (*image.NRGBA, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, err
	}
	return Remove(img, opts)
}

func near(a, b uint8, tol int) bool {
	d := int(a) - int(b)
	if d < 0 {
		d = -d
	}
	return d < tol
}
