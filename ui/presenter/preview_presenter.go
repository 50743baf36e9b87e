package presenter

import (
	"image"
	"log/slog"
	"time"

	"github.com/soocke/emojipic/domain/compose"
	"github.com/soocke/emojipic/ui/model"
)

// PreviewRenderer draws a composition at a given side length.
type PreviewRenderer interface {
	Render(state compose.State, side int) (*image.NRGBA, error)
}

// EditorView is what the preview presenter updates on each tick.
type EditorView interface {
	SetPreview(img image.Image)
	SetGenerating(bool)
	SetModeControls(compose.Mode)
	ShowNotice(string)
	SetStatus(string)
}

// PreviewPresenter keeps the view in step with the session. It renders only
// when the session revision moved and marks a fresh bitmap settled on the
// tick after it was shown.
type PreviewPresenter struct {
	session  Composition
	renderer PreviewRenderer
	view     EditorView
	notices  *model.NoticeModel
	exports  *model.ExportModel
	preview  *model.PreviewModel
	side     func() int
	logger   *slog.Logger

	generating    bool
	mode          compose.Mode
	modeShown     bool
	pendingSettle bool
	status        string
}

func NewPreviewPresenter(session Composition, renderer PreviewRenderer, view EditorView, notices *model.NoticeModel, exports *model.ExportModel, side func() int, logger *slog.Logger) *PreviewPresenter {
	if side == nil {
		side = func() int { return 200 }
	}
	return &PreviewPresenter{
		session:  session,
		renderer: renderer,
		view:     view,
		notices:  notices,
		exports:  exports,
		preview:  model.NewPreviewModel(),
		side:     side,
		logger:   logger,
	}
}

// Invalidate forces a re-render on the next tick, e.g. after a resize.
func (p *PreviewPresenter) Invalidate() {
	if p == nil {
		return
	}
	p.preview.Invalidate()
}

func (p *PreviewPresenter) Tick(now time.Time) {
	if p == nil || p.session == nil || p.view == nil {
		return
	}
	if p.pendingSettle {
		p.session.MarkSettled()
		p.pendingSettle = false
	}
	if rev := p.session.Revision(); p.preview.Stale(rev) {
		state := p.session.Snapshot()
		if p.renderer != nil {
			img, err := p.renderer.Render(state, p.side())
			if err != nil {
				if p.logger != nil {
					p.logger.Error("preview render failed", "error", err)
				}
				p.view.ShowNotice("Preview failed: " + err.Error())
			} else {
				p.view.SetPreview(img)
			}
		}
		p.preview.Shown(rev)
		if state.Fresh {
			p.pendingSettle = true
		}
	}
	if m := p.session.Mode(); !p.modeShown || m != p.mode {
		p.mode, p.modeShown = m, true
		p.view.SetModeControls(m)
	}
	if g := p.session.Generating(); g != p.generating {
		p.generating = g
		p.view.SetGenerating(g)
	}
	for _, msg := range p.notices.Drain() {
		p.view.ShowNotice(msg)
	}
	if st := p.statusText(); st != p.status {
		p.status = st
		p.view.SetStatus(st)
	}
}

func (p *PreviewPresenter) statusText() string {
	if p.exports.Busy() {
		return "Exporting..."
	}
	if n, path, _ := p.exports.Last(); n > 0 {
		return "Last export: " + path
	}
	return ""
}
