package capture

import (
	"context"
	"image"
	"strings"
	"time"

	"github.com/soocke/emojipic/domain/compose"
)

// ViewportFrame is one raw sample of the host's scroll position and width.
type ViewportFrame struct {
	ScrollY float64
	Width   float64
}

// Box is the target's bounding box relative to the viewport.
type Box struct {
	Top, Left     float64
	Width, Height float64
}

// LayoutProbe reads the target's current bounding box. ok is false until the
// target has been laid out.
type LayoutProbe interface {
	BoundingBox() (b Box, ok bool)
}

// Region is the page rectangle to rasterize. Top and Left are page
// coordinates; Side is the square edge length in pixels.
type Region struct {
	Top  float64
	Left float64
	Side int
}

// Rect returns the region as an integer rectangle.
func (r Region) Rect() image.Rectangle {
	x, y := int(r.Left+0.5), int(r.Top+0.5)
	return image.Rect(x, y, x+r.Side, y+r.Side)
}

// Target is what the rasterizer is asked to capture: the region plus the
// composition currently displayed in it.
type Target struct {
	Region Region
	State  compose.State
}

// Rasterizer captures the visual state of the target region.
type Rasterizer interface {
	Rasterize(ctx context.Context, t Target) (image.Image, error)
}

// PaintWaiter is implemented by rasterizers that can signal when a freshly
// replaced image has been painted. When available it replaces the fixed
// settling delay.
type PaintWaiter interface {
	WaitPaint(ctx context.Context) error
}

// Layout selects the capture region size.
type Layout int

const (
	LayoutAuto Layout = iota
	LayoutCompact
	LayoutExpanded
)

const (
	CompactSide      = 200
	ExpandedSide     = 600
	ExpandedMinWidth = 768
)

// ParseLayout maps a config value to a Layout; unknown values mean auto.
func ParseLayout(s string) Layout {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "compact":
		return LayoutCompact
	case "expanded":
		return LayoutExpanded
	default:
		return LayoutAuto
	}
}

func (l Layout) String() string {
	switch l {
	case LayoutCompact:
		return "compact"
	case LayoutExpanded:
		return "expanded"
	default:
		return "auto"
	}
}

// Side returns the region edge for a viewport width.
func (l Layout) Side(viewportWidth float64) int {
	switch l {
	case LayoutCompact:
		return CompactSide
	case LayoutExpanded:
		return ExpandedSide
	}
	return RegionSide(viewportWidth)
}

// RegionSide is the responsive rule: compact below ExpandedMinWidth.
func RegionSide(viewportWidth float64) int {
	if viewportWidth > 0 && viewportWidth < ExpandedMinWidth {
		return CompactSide
	}
	return ExpandedSide
}

// TrackerStats summarises tracker activity for instrumentation.
type TrackerStats struct {
	Observed      uint64
	Recomputes    uint64
	LastRecompute time.Time
}
