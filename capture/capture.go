package capture

import (
	"context"
	"errors"
	"image"

	"github.com/vova616/screenshot"

	dcapture "github.com/soocke/emojipic/domain/capture"
)

// GrabSelection captures one rectangle of the screen.
func GrabSelection(area image.Rectangle) (*image.RGBA, error) {
	if area.Empty() {
		return nil, errors.New("capture: empty selection")
	}
	return grabRect(area)
}

var grabRect = screenshot.CaptureRect

// ScreenRasterizer captures the tracked region straight from the display.
// The editor window must be showing the composition; the state carried by
// the target is not drawn here.
type ScreenRasterizer struct {
	// Origin is the screen position of page coordinate (0,0), normally the
	// top-left of the editor's preview frame.
	Origin func() image.Point
}

// Rasterize implements the domain Rasterizer.
func (s ScreenRasterizer) Rasterize(ctx context.Context, t dcapture.Target) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := t.Region.Rect()
	if s.Origin != nil {
		r = r.Add(s.Origin())
	}
	return GrabSelection(r)
}
