package view

import (
	"image"

	"github.com/soocke/emojipic/ui/images"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Preview shows the composition inside the capture region. It owns one
// LabelWidget and replaces its photo on every update.
type Preview interface {
	Update(img image.Image)
}

type preview struct {
	label     *LabelWidget
	prevPhoto *Img // last Tk photo image instance
	maxSide   int
}

// NewPreview creates the preview label and grids it at row, spanning cols.
func NewPreview(row, cols, maxSide int) Preview {
	placeholder := image.NewNRGBA(image.Rect(0, 0, 200, 200))
	pngBytes, _ := images.EncodePNG(placeholder)
	photo := NewPhoto(Data(pngBytes))
	lbl := Label(Image(photo), Borderwidth(0))
	Grid(lbl, Row(row), Column(0), Columnspan(cols), Pady("1m"))
	return &preview{label: lbl, prevPhoto: photo, maxSide: maxSide}
}

func (v *preview) Update(img image.Image) {
	if v == nil || v.label == nil || img == nil {
		return
	}
	scaled := images.ScaleToFit(img, v.maxSide, v.maxSide)
	pngBytes, err := images.EncodePNG(scaled)
	if err != nil {
		return
	}
	// Replace previous photo to avoid retaining obsolete pixel buffers.
	if v.prevPhoto != nil {
		v.prevPhoto.Delete()
	}
	v.prevPhoto = NewPhoto(Data(pngBytes))
	v.label.Configure(Image(v.prevPhoto))
}
