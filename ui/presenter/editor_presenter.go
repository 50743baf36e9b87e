package presenter

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"time"

	"github.com/soocke/emojipic/domain/capture"
	"github.com/soocke/emojipic/domain/compose"
	"github.com/soocke/emojipic/domain/export"
	"github.com/soocke/emojipic/ui/images"
	"github.com/soocke/emojipic/ui/model"
)

// Composition narrows what the presenter needs from the compose session.
type Composition interface {
	Snapshot() compose.State
	Revision() uint64
	Mode() compose.Mode
	Generating() bool
	SetMode(compose.Mode)
	SetGlyph(string)
	SetBackground(compose.RGB)
	SetScale(int)
	SetPasted(*image.NRGBA) error
	MarkSettled()
}

// Generator requests a generated bitmap for the session.
type Generator interface {
	Generate(ctx context.Context, prompt string) error
}

// Exporter rasterizes a region for a composition.
type Exporter interface {
	Export(ctx context.Context, region capture.Region, state compose.State) (export.Artifact, error)
}

// RegionSource reports the current capture region.
type RegionSource interface {
	Region() capture.Region
}

// EditorDeps bundles the collaborators of EditorPresenter. Generator may be
// nil when no API key is configured.
type EditorDeps struct {
	Session  Composition
	Gen      Generator
	Exporter Exporter
	Saver    export.Saver
	Region   RegionSource
	Notices  *model.NoticeModel
	Exports  *model.ExportModel
	Logger   *slog.Logger
}

// EditorPresenter turns user input into session edits and runs the two
// background jobs, generation and download. Results and failures reach the
// user through the notice queue, drained on the UI tick.
type EditorPresenter struct {
	EditorDeps
	ctx   context.Context
	async func(func())
}

func NewEditorPresenter(ctx context.Context, deps EditorDeps) *EditorPresenter {
	if deps.Notices == nil {
		deps.Notices = model.NewNoticeModel()
	}
	if deps.Exports == nil {
		deps.Exports = &model.ExportModel{}
	}
	return &EditorPresenter{EditorDeps: deps, ctx: ctx, async: func(f func()) { go f() }}
}

func (p *EditorPresenter) SetGlyph(s string) {
	if p == nil || p.Session == nil {
		return
	}
	p.Session.SetGlyph(s)
}

// SetBackground applies a #RRGGBB colour. Invalid input leaves the colour
// unchanged and raises a notice.
func (p *EditorPresenter) SetBackground(hex string) {
	if p == nil || p.Session == nil {
		return
	}
	c, err := compose.ParseHex(hex)
	if err != nil {
		p.Notices.Push("Invalid colour: " + hex)
		return
	}
	p.Session.SetBackground(c)
}

func (p *EditorPresenter) RandomizeGlyph() {
	if p == nil || p.Session == nil {
		return
	}
	p.Session.SetGlyph(string(compose.RandomGlyph()))
}

func (p *EditorPresenter) RandomizeColor() {
	if p == nil || p.Session == nil {
		return
	}
	p.Session.SetBackground(compose.RandomColor())
}

// SuggestBackground picks the dominant colour of the current bitmap.
func (p *EditorPresenter) SuggestBackground() {
	if p == nil || p.Session == nil {
		return
	}
	bmp, ok := p.Session.Snapshot().Bitmap()
	if !ok {
		p.Notices.Push("No image to sample")
		return
	}
	if c, ok := compose.SuggestBackground(bmp); ok {
		p.Session.SetBackground(c)
	}
}

func (p *EditorPresenter) SetMode(m compose.Mode) {
	if p == nil || p.Session == nil {
		return
	}
	p.Session.SetMode(m)
}

func (p *EditorPresenter) SetScale(pct int) {
	if p == nil || p.Session == nil {
		return
	}
	p.Session.SetScale(pct)
}

// Generate starts one generation in the background. A failure is reported
// once through the notice queue.
func (p *EditorPresenter) Generate(prompt string) {
	if p == nil || p.Session == nil {
		return
	}
	if p.Gen == nil {
		p.Notices.Push("Image generation is not configured")
		return
	}
	if p.Session.Generating() {
		return
	}
	p.async(func() {
		err := p.Gen.Generate(p.ctx, prompt)
		switch {
		case err == nil, errors.Is(err, compose.ErrGenerationInFlight):
		case errors.Is(err, compose.ErrModeMismatch):
			p.Notices.Push("Switch to generated mode first")
		default:
			p.Notices.Push("Generation failed: " + err.Error())
		}
	})
}

// Paste decodes image bytes and shows them in pasted mode. Undecodable data
// leaves the content layer empty.
func (p *EditorPresenter) Paste(data []byte) {
	if p == nil || p.Session == nil {
		return
	}
	img, err := images.Decode(data)
	if err != nil {
		p.log().Warn("paste decode failed", "error", err)
		p.Notices.Push("Could not read the pasted image")
		return
	}
	if err := p.Session.SetPasted(img); err != nil {
		p.Notices.Push("Switch to pasted mode first")
	}
}

// PasteFile reads an image file and pastes its contents.
func (p *EditorPresenter) PasteFile(path string) {
	if p == nil || p.Session == nil {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		p.log().Warn("paste read failed", "path", path, "error", err)
		p.Notices.Push("Could not open " + path)
		return
	}
	p.Paste(data)
}

// Download exports the tracked region and saves it. Concurrent requests
// while one is running are ignored.
func (p *EditorPresenter) Download() {
	if p == nil || p.Session == nil || p.Exporter == nil || p.Saver == nil {
		return
	}
	if !p.Exports.TryBegin() {
		return
	}
	state := p.Session.Snapshot()
	var region capture.Region
	if p.Region != nil {
		region = p.Region.Region()
	}
	p.async(func() {
		path, err := p.download(region, state)
		p.Exports.Done(path, time.Now())
		if err != nil {
			p.log().Error("download failed", "error", err)
			p.Notices.Push("Download failed: " + err.Error())
			return
		}
		p.Notices.Push("Saved " + path)
	})
}

func (p *EditorPresenter) download(region capture.Region, state compose.State) (string, error) {
	a, err := p.Exporter.Export(p.ctx, region, state)
	if err != nil {
		return "", err
	}
	path, err := p.Saver.Save(p.ctx, a)
	if err != nil {
		return "", fmt.Errorf("save %s: %w", a.Name, err)
	}
	return path, nil
}

func (p *EditorPresenter) log() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}
