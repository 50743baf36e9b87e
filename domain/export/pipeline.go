package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"

	"github.com/soocke/emojipic/domain/capture"
	"github.com/soocke/emojipic/domain/compose"
)

// DefaultName is the filename of every exported artifact.
const DefaultName = "emojipic.png"

// DefaultSettleDelay lets a freshly replaced bitmap finish painting before capture.
const DefaultSettleDelay = 250 * time.Millisecond

// Artifact is one exported, PNG-encoded composition.
type Artifact struct {
	Name   string
	Data   []byte
	Width  int
	Height int
}

// Options configures NewPipeline. Zero values pick defaults; a negative
// SettleDelay disables the wait.
type Options struct {
	SettleDelay time.Duration
	Name        string
	Logger      *slog.Logger
}

// Pipeline rasterizes the tracked region and encodes it as PNG.
type Pipeline struct {
	raster capture.Rasterizer
	settle time.Duration
	name   string
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewPipeline constructs an export pipeline over raster.
func NewPipeline(raster capture.Rasterizer, opts Options) *Pipeline {
	settle := opts.SettleDelay
	switch {
	case settle == 0:
		settle = DefaultSettleDelay
	case settle < 0:
		settle = 0
	}
	name := opts.Name
	if name == "" {
		name = DefaultName
	}
	return &Pipeline{raster: raster, settle: settle, name: name, logger: opts.Logger, sleep: sleepCtx}
}

// Export captures region as currently displayed for state. Bitmap sources are
// never masked here; generated bitmaps were masked when produced. A bitmap
// mode with nothing captured yields a background-only artifact.
func (p *Pipeline) Export(ctx context.Context, region capture.Region, state compose.State) (Artifact, error) {
	if p.raster == nil {
		return Artifact{}, errors.New("export: no rasterizer")
	}
	if region.Side <= 0 {
		region.Side = capture.ExpandedSide
	}
	if _, ok := state.Bitmap(); ok && state.Fresh {
		if err := p.awaitPaint(ctx); err != nil {
			return Artifact{}, fmt.Errorf("export: settle: %w", err)
		}
	}
	start := time.Now()
	img, err := p.raster.Rasterize(ctx, capture.Target{Region: region, State: state})
	if err != nil {
		return Artifact{}, fmt.Errorf("export: rasterize: %w", err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return Artifact{}, fmt.Errorf("export: encode: %w", err)
	}
	b := img.Bounds()
	a := Artifact{Name: p.name, Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}
	if p.logger != nil {
		p.logger.Info("export done",
			"name", a.Name,
			"width", a.Width,
			"height", a.Height,
			"bytes", len(a.Data),
			"mode", modeOf(state),
			"top", region.Top,
			"elapsed", time.Since(start),
		)
	}
	return a, nil
}

// awaitPaint prefers the rasterizer's own paint signal over the fixed delay.
func (p *Pipeline) awaitPaint(ctx context.Context) error {
	if pw, ok := p.raster.(capture.PaintWaiter); ok {
		return pw.WaitPaint(ctx)
	}
	if p.settle <= 0 {
		return nil
	}
	return p.sleep(ctx, p.settle)
}

func modeOf(s compose.State) string {
	if s.Source == nil {
		return compose.ModeStandard.String()
	}
	return s.Source.Mode().String()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
