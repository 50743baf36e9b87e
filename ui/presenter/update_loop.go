package presenter

import (
	"time"

	"github.com/soocke/emojipic/domain/capture"
)

// ViewportObserver receives raw viewport frames.
type ViewportObserver interface {
	Observe(f capture.ViewportFrame)
}

// Loop drives periodic updates on the UI thread.
//
// Each tick samples the host viewport into the tracker, refreshes the
// preview (forcing a redraw when the width changed) and invokes a scheduler
// callback. The zero value is usable
// (methods are nil-safe).
type Loop struct {
	Preview  *PreviewPresenter
	Tracker  ViewportObserver
	Viewport func() (capture.ViewportFrame, bool)
	Schedule func()

	lastWidth float64
}

func NewLoop(preview *PreviewPresenter, tracker ViewportObserver, viewport func() (capture.ViewportFrame, bool), schedule func()) *Loop {
	return &Loop{Preview: preview, Tracker: tracker, Viewport: viewport, Schedule: schedule}
}

func (l *Loop) Tick() {
	if l == nil {
		return
	}
	now := time.Now()
	if l.Tracker != nil && l.Viewport != nil {
		if f, ok := l.Viewport(); ok {
			l.Tracker.Observe(f)
			// A resize may cross the compact breakpoint; redraw at the new side.
			if f.Width != l.lastWidth {
				l.lastWidth = f.Width
				l.Preview.Invalidate()
			}
		}
	}
	if l.Preview != nil {
		l.Preview.Tick(now)
	}
	if l.Schedule != nil {
		l.Schedule()
	}
}
