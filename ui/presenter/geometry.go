package presenter

import (
	"fmt"
	"image"
	"sync"

	"github.com/soocke/emojipic/domain/capture"
)

// PreviewPad is the gap between the window's top edge and the preview.
const PreviewPad = 4

// Geometry is a parsed Tk window geometry "WxH+X+Y".
type Geometry struct {
	W, H int
	X, Y int
}

// ParseGeometry parses Tk's wm geometry string. Negative offsets
// ("WxH-X-Y") are accepted as given.
func ParseGeometry(s string) (Geometry, bool) {
	var g Geometry
	var sx, sy rune
	n, err := fmt.Sscanf(s, "%dx%d%c%d%c%d", &g.W, &g.H, &sx, &g.X, &sy, &g.Y)
	if err != nil || n != 6 {
		return Geometry{}, false
	}
	if sx == '-' {
		g.X = -g.X
	}
	if sy == '-' {
		g.Y = -g.Y
	}
	if g.W <= 1 || g.H <= 1 {
		return Geometry{}, false
	}
	return g, true
}

// WindowLayout derives the tracker inputs from the editor window. The
// preview sits PreviewPad below the top edge, horizontally centred, and the
// window does not scroll.
//
// Geometry is a Tk call and is only invoked from Viewport, which runs on the
// UI thread. BoundingBox and Origin read the last sampled geometry and are
// safe from any goroutine.
type WindowLayout struct {
	geometry func() string
	layout   capture.Layout

	mu     sync.Mutex
	last   Geometry
	mapped bool
}

// NewWindowLayout returns a layout reading the window geometry through geometry.
func NewWindowLayout(geometry func() string, layout capture.Layout) *WindowLayout {
	return &WindowLayout{geometry: geometry, layout: layout}
}

// Viewport samples the window and reports its width as the viewport width.
func (w *WindowLayout) Viewport() (capture.ViewportFrame, bool) {
	var g Geometry
	ok := false
	if w.geometry != nil {
		g, ok = ParseGeometry(w.geometry())
	}
	w.mu.Lock()
	w.last, w.mapped = g, ok
	w.mu.Unlock()
	if !ok {
		return capture.ViewportFrame{}, false
	}
	return capture.ViewportFrame{Width: float64(g.W)}, true
}

// BoundingBox implements capture.LayoutProbe. It reports false until the
// window has been mapped.
func (w *WindowLayout) BoundingBox() (capture.Box, bool) {
	g, ok := w.sampled()
	if !ok {
		return capture.Box{}, false
	}
	side := w.layout.Side(float64(g.W))
	return capture.Box{
		Top:    PreviewPad,
		Left:   float64(max(0, (g.W-side)/2)),
		Width:  float64(side),
		Height: float64(side),
	}, true
}

// Origin is the screen position of the window's top-left corner.
func (w *WindowLayout) Origin() image.Point {
	g, ok := w.sampled()
	if !ok {
		return image.Point{}
	}
	return image.Pt(g.X, g.Y)
}

func (w *WindowLayout) sampled() (Geometry, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last, w.mapped
}
