package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	dcapture "github.com/soocke/emojipic/domain/capture"
	"github.com/soocke/emojipic/domain/compose"
)

const (
	navTimeout   = 30 * time.Second
	probeTimeout = 2 * time.Second
)

// stickerPage is served when no page URL is configured. The sticker element
// follows the same responsive rule as the tracker's auto layout.
const stickerPage = `<!doctype html>
<html><head><meta charset="utf-8"><style>
html,body{margin:0;padding:0;font-family:sans-serif}
header{height:96px}
#sticker{width:600px;height:600px;margin:0 auto;display:flex;align-items:center;justify-content:center;overflow:hidden;font-size:300px;line-height:1}
#sticker img{display:block}
@media (max-width:767px){#sticker{width:200px;height:200px;font-size:100px}}
</style></head>
<body><header></header><div id="sticker"></div></body></html>`

const showScript = `(sel, bg, glyph, src, pct) => {
	const el = document.querySelector(sel);
	if (!el) return false;
	el.style.backgroundColor = bg;
	el.textContent = '';
	if (src) {
		const img = document.createElement('img');
		img.src = src;
		img.style.maxWidth = pct + '%';
		img.style.maxHeight = pct + '%';
		el.appendChild(img);
	} else if (glyph) {
		el.textContent = glyph;
	}
	return true;
}`

const boxScript = `(sel) => {
	const el = document.querySelector(sel);
	if (!el) return null;
	const r = el.getBoundingClientRect();
	return {top: r.top, left: r.left, width: r.width, height: r.height};
}`

const viewportScript = `() => ({scrollY: window.scrollY, width: window.innerWidth})`

// PageOptions configures OpenPage.
type PageOptions struct {
	// URL of a page hosting the sticker element. Empty loads the built-in page.
	URL string
	// Selector of the sticker element. Default "#sticker".
	Selector string
	// Width and Height of the emulated viewport. Default 1280x900.
	Width, Height int
	Logger        *slog.Logger
}

// PageRasterizer drives a headless browser page that displays the sticker.
// It is the layout probe, the viewport source and the rasterizer for the
// tracked region in one.
type PageRasterizer struct {
	browser  *rod.Browser
	page     *rod.Page
	selector string
	logger   *slog.Logger
}

// OpenPage launches a local headless Chrome and loads the sticker page.
func OpenPage(ctx context.Context, opts PageOptions) (*PageRasterizer, error) {
	if opts.Selector == "" {
		opts.Selector = "#sticker"
	}
	if opts.Width <= 0 {
		opts.Width = 1280
	}
	if opts.Height <= 0 {
		opts.Height = 900
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	u, err := launcher.New().Headless(true).Launch()
	if err != nil {
		return nil, fmt.Errorf("page: launch: %w", err)
	}
	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("page: connect: %w", err)
	}
	page, err := b.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("page: create tab: %w", err)
	}
	p := &PageRasterizer{browser: b, page: page, selector: opts.Selector, logger: opts.Logger}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width: opts.Width, Height: opts.Height, DeviceScaleFactor: 1,
	}); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("page: viewport: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, navTimeout)
	defer cancel()
	if opts.URL == "" {
		err = page.Context(navCtx).SetDocumentContent(stickerPage)
	} else {
		err = page.Context(navCtx).Navigate(opts.URL)
	}
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("page: load: %w", err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		p.logger.Warn("page: wait load timeout", "url", opts.URL, "error", err)
	}
	p.logger.Info("page: ready", "url", opts.URL, "selector", opts.Selector)
	return p, nil
}

// BoundingBox implements the domain LayoutProbe. It reports false until the
// sticker element exists.
func (p *PageRasterizer) BoundingBox() (dcapture.Box, bool) {
	res, err := p.page.Timeout(probeTimeout).Eval(boxScript, p.selector)
	if err != nil || res.Value.Nil() {
		return dcapture.Box{}, false
	}
	v := res.Value
	return dcapture.Box{
		Top:    v.Get("top").Num(),
		Left:   v.Get("left").Num(),
		Width:  v.Get("width").Num(),
		Height: v.Get("height").Num(),
	}, true
}

// Viewport samples the page's scroll position and width.
func (p *PageRasterizer) Viewport() (dcapture.ViewportFrame, bool) {
	res, err := p.page.Timeout(probeTimeout).Eval(viewportScript)
	if err != nil {
		return dcapture.ViewportFrame{}, false
	}
	return dcapture.ViewportFrame{
		ScrollY: res.Value.Get("scrollY").Num(),
		Width:   res.Value.Get("width").Num(),
	}, true
}

// Observer receives raw viewport frames.
type Observer interface {
	Observe(f dcapture.ViewportFrame)
}

// Watch polls the page viewport every interval and forwards each sample to
// obs until ctx is done. Throttling is the observer's concern.
func (p *PageRasterizer) Watch(ctx context.Context, obs Observer, every time.Duration) {
	if every <= 0 {
		every = 50 * time.Millisecond
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if f, ok := p.Viewport(); ok {
				obs.Observe(f)
			}
		}
	}
}

// Show renders state into the sticker element.
func (p *PageRasterizer) Show(ctx context.Context, state compose.State) error {
	var glyph, src string
	switch s := state.Source.(type) {
	case compose.Glyph:
		glyph = string(s)
	case compose.Generated, compose.Pasted:
		if bmp, ok := state.Bitmap(); ok {
			var buf bytes.Buffer
			if err := imaging.Encode(&buf, bmp, imaging.PNG); err != nil {
				return fmt.Errorf("page: encode bitmap: %w", err)
			}
			src = "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
		}
	}
	res, err := p.page.Context(ctx).Eval(showScript, p.selector, state.Background.Hex(), glyph, src, compose.ClampScale(state.ScalePercent))
	if err != nil {
		return fmt.Errorf("page: show: %w", err)
	}
	if !res.Value.Bool() {
		return fmt.Errorf("page: element %q not found", p.selector)
	}
	return nil
}

// WaitPaint implements the domain PaintWaiter.
func (p *PageRasterizer) WaitPaint(ctx context.Context) error {
	return p.page.Context(ctx).WaitRepaint()
}

// Rasterize shows the target's state, waits for the paint and captures the
// region. Region.Top is a page coordinate.
func (p *PageRasterizer) Rasterize(ctx context.Context, t dcapture.Target) (image.Image, error) {
	if err := p.Show(ctx, t.State); err != nil {
		return nil, err
	}
	if err := p.WaitPaint(ctx); err != nil {
		return nil, fmt.Errorf("page: repaint: %w", err)
	}
	side := float64(t.Region.Side)
	data, err := p.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      t.Region.Left,
			Y:      t.Region.Top,
			Width:  side,
			Height: side,
			Scale:  1,
		},
		CaptureBeyondViewport: true,
	})
	if err != nil {
		return nil, fmt.Errorf("page: screenshot: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("page: decode screenshot: %w", err)
	}
	return img, nil
}

// Close closes the tab and the browser.
func (p *PageRasterizer) Close() error {
	if p.page != nil {
		_ = p.page.Close()
	}
	if p.browser != nil {
		return p.browser.Close()
	}
	return nil
}
