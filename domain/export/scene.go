package export

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/soocke/emojipic/domain/capture"
	"github.com/soocke/emojipic/domain/compose"
)

// glyphRatio is the glyph em size relative to the region side.
const glyphRatio = 0.5

// SceneRasterizer renders a composition in memory: background fill, then
// either a centred glyph or a centred, scaled bitmap. It stands in for the
// on-screen element when no display is involved and backs the live preview.
type SceneRasterizer struct {
	fonts []loadedFont

	mu    sync.Mutex
	buf   sfnt.Buffer
	faces map[faceKey]font.Face
}

type faceKey struct{ font, size int }

// NewSceneRasterizer loads the font chain described by opts. Each glyph is
// drawn with the first font that has outlines for all of its runes.
func NewSceneRasterizer(opts SceneOptions) (*SceneRasterizer, error) {
	fonts, err := loadFonts(opts)
	if err != nil {
		return nil, err
	}
	return &SceneRasterizer{fonts: fonts, faces: make(map[faceKey]font.Face)}, nil
}

// Fonts lists the loaded fonts in lookup order.
func (s *SceneRasterizer) Fonts() []string {
	names := make([]string, len(s.fonts))
	for i, f := range s.fonts {
		names[i] = f.name
	}
	return names
}

// Rasterize implements capture.Rasterizer.
func (s *SceneRasterizer) Rasterize(ctx context.Context, t capture.Target) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Render(t.State, t.Region.Side)
}

// Render draws state into a side x side opaque canvas.
func (s *SceneRasterizer) Render(state compose.State, side int) (*image.NRGBA, error) {
	if side <= 0 {
		return nil, fmt.Errorf("invalid region side %d", side)
	}
	canvas := imaging.New(side, side, state.Background.NRGBA())
	switch src := state.Source.(type) {
	case compose.Glyph:
		if src == "" {
			return canvas, nil
		}
		text := drawable(string(src))
		// Faces are not safe for concurrent use; preview and export share them.
		s.mu.Lock()
		defer s.mu.Unlock()
		fi := s.pickLocked(text)
		if fi < 0 {
			return nil, fmt.Errorf("%w: %q", ErrGlyphUnsupported, string(src))
		}
		face, err := s.faceLocked(fi, int(float64(side)*glyphRatio))
		if err != nil {
			return nil, err
		}
		drawGlyph(canvas, face, text)
		return canvas, nil
	case compose.Generated, compose.Pasted:
		bmp, ok := state.Bitmap()
		if !ok {
			return canvas, nil
		}
		content := fitSquare(bmp, side*compose.ClampScale(state.ScalePercent)/100)
		return imaging.OverlayCenter(canvas, content, 1.0), nil
	}
	return canvas, nil
}

// pickLocked returns the index of the first font covering text, or -1.
func (s *SceneRasterizer) pickLocked(text string) int {
	for i, f := range s.fonts {
		if covers(f.font, &s.buf, text) {
			return i
		}
	}
	return -1
}

func (s *SceneRasterizer) faceLocked(fontIdx, size int) (font.Face, error) {
	if size < 1 {
		size = 1
	}
	key := faceKey{font: fontIdx, size: size}
	if f, ok := s.faces[key]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(s.fonts[fontIdx].font, &opentype.FaceOptions{Size: float64(size), DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}
	s.faces[key] = f
	return f, nil
}

// drawGlyph centres the ink bounds of text on the canvas.
func drawGlyph(dst *image.NRGBA, face font.Face, text string) {
	b := dst.Bounds()
	bounds, _ := font.BoundString(face, text)
	inkW := (bounds.Max.X - bounds.Min.X).Round()
	inkH := (bounds.Max.Y - bounds.Min.Y).Round()
	x := (b.Dx()-inkW)/2 - bounds.Min.X.Round()
	y := (b.Dy()-inkH)/2 - bounds.Min.Y.Round()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.Black,
		Face: face,
		Dot:  fixed.P(b.Min.X+x, b.Min.Y+y),
	}
	d.DrawString(text)
}

// fitSquare scales img so its longer edge equals edge, keeping aspect ratio.
func fitSquare(img image.Image, edge int) *image.NRGBA {
	if edge < 1 {
		edge = 1
	}
	b := img.Bounds()
	if b.Dx() >= b.Dy() {
		return imaging.Resize(img, edge, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, edge, imaging.Lanczos)
}
