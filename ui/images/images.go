package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/disintegration/imaging"
)

// ErrNoImage is returned for empty input.
var ErrNoImage = errors.New("images: no image data")

// Decode reads PNG, JPEG, GIF, BMP or TIFF bytes into a fresh NRGBA buffer
// with its origin at (0,0).
func Decode(data []byte) (*image.NRGBA, error) {
	if len(data) == 0 {
		return nil, ErrNoImage
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("images: decode: %w", err)
	}
	return imaging.Clone(img), nil
}

// maxRead bounds how much a paste source may supply.
const maxRead = 32 << 20

// ReadSource reads and decodes an image from path, or from stdin when path
// is "-". Clipboard tools can pipe image bytes in this way.
func ReadSource(path string, stdin io.Reader) (*image.NRGBA, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(io.LimitReader(stdin, maxRead))
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("images: read %s: %w", path, err)
	}
	return Decode(data)
}

// EncodePNG encodes an image to PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, ErrNoImage
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ScaleToFit scales src so it fits within maxW x maxH preserving aspect
// ratio. If the source already fits, the original is returned.
func ScaleToFit(src image.Image, maxW, maxH int) image.Image {
	if src == nil {
		return nil
	}
	if maxW < 1 {
		maxW = 1
	}
	if maxH < 1 {
		maxH = 1
	}
	b := src.Bounds()
	if b.Dx() <= maxW && b.Dy() <= maxH {
		return src
	}
	return imaging.Fit(src, maxW, maxH, imaging.Box)
}
