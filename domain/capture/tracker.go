package capture

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultInterval is the sampling period for raw viewport events.
const DefaultInterval = 300 * time.Millisecond

// Tracker knows where the capture target sits on the page. Raw scroll and
// resize frames are recorded by Observe; the layout read in
// UpdateDistanceToTop runs at most once per interval, and only when the
// frame sampled at the end of the interval differs from the last one acted on.
type Tracker struct {
	probe    LayoutProbe
	layout   Layout
	interval time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	latest   ViewportFrame
	acted    ViewportFrame
	hasActed bool
	timer    *time.Timer
	closed   bool
	top      float64
	left     float64

	observed      atomic.Uint64
	recomputes    atomic.Uint64
	lastRecompute atomic.Int64
}

// TrackerOptions configures NewTracker. Zero values pick defaults.
type TrackerOptions struct {
	Interval time.Duration
	Layout   Layout
	Logger   *slog.Logger
}

// NewTracker constructs a tracker reading layout through probe.
func NewTracker(probe LayoutProbe, opts TrackerOptions) *Tracker {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Tracker{probe: probe, layout: opts.Layout, interval: opts.Interval, logger: opts.Logger}
}

// Mount records the initial frame and computes the offset immediately.
func (t *Tracker) Mount(f ViewportFrame) {
	t.mu.Lock()
	t.latest = f
	t.acted = f
	t.hasActed = true
	t.mu.Unlock()
	t.UpdateDistanceToTop()
}

// Observe records a raw viewport frame. It never reads layout itself.
func (t *Tracker) Observe(f ViewportFrame) {
	t.observed.Add(1)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest = f
	if t.closed || t.timer != nil {
		return
	}
	t.timer = time.AfterFunc(t.interval, t.sample)
}

func (t *Tracker) sample() {
	t.mu.Lock()
	t.timer = nil
	if t.closed {
		t.mu.Unlock()
		return
	}
	f := t.latest
	if t.hasActed && f == t.acted {
		t.mu.Unlock()
		return
	}
	t.acted = f
	t.hasActed = true
	t.mu.Unlock()
	t.UpdateDistanceToTop()
}

// UpdateDistanceToTop reads the target's bounding box and stores its top
// offset. Without layout the offset degrades to zero until the next recompute.
func (t *Tracker) UpdateDistanceToTop() {
	var (
		box Box
		ok  bool
	)
	if t.probe != nil {
		box, ok = t.probe.BoundingBox()
	}
	t.mu.Lock()
	if ok {
		t.top, t.left = box.Top, box.Left
	} else {
		t.top, t.left = 0, 0
	}
	scrollY := t.latest.ScrollY
	t.mu.Unlock()

	t.recomputes.Add(1)
	t.lastRecompute.Store(time.Now().UnixNano())
	if t.logger != nil {
		if !ok {
			t.logger.Debug("capture.recompute", "layout", false, "offset", 0)
		} else {
			t.logger.Debug("capture.recompute", "top", box.Top, "scroll_y", scrollY)
		}
	}
}

// CaptureOffset converts the recorded viewport-relative top into page
// coordinates for the given scroll position.
func (t *Tracker) CaptureOffset(scrollY float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.offsetLocked(scrollY)
}

func (t *Tracker) offsetLocked(scrollY float64) float64 {
	return t.top + scrollY
}

// Region returns the rectangle to rasterize for the latest observed frame.
func (t *Tracker) Region() Region {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Region{
		Top:  t.offsetLocked(t.latest.ScrollY),
		Left: t.left,
		Side: t.layout.Side(t.latest.Width),
	}
}

// Stats returns counters for instrumentation and tests.
func (t *Tracker) Stats() TrackerStats {
	st := TrackerStats{Observed: t.observed.Load(), Recomputes: t.recomputes.Load()}
	if ns := t.lastRecompute.Load(); ns != 0 {
		st.LastRecompute = time.Unix(0, ns)
	}
	return st
}

// Close cancels a pending sample. Further observations are recorded but
// never trigger a recompute.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
