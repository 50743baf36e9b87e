package model

// PreviewModel remembers which composition revision the preview shows.
// No synchronization needed: it is only touched on the UI thread tick.
type PreviewModel struct {
	shown uint64
	valid bool
}

func NewPreviewModel() *PreviewModel { return &PreviewModel{} }

// Stale reports whether revision differs from what is on screen.
func (m *PreviewModel) Stale(revision uint64) bool {
	if m == nil {
		return true
	}
	return !m.valid || m.shown != revision
}

// Shown records that revision is now displayed.
func (m *PreviewModel) Shown(revision uint64) {
	if m == nil {
		return
	}
	m.shown = revision
	m.valid = true
}

// Invalidate forces the next Stale check to report true.
func (m *PreviewModel) Invalidate() {
	if m == nil {
		return
	}
	m.valid = false
}
