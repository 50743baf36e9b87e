package export

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode"

	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// ErrGlyphUnsupported is returned when no loaded font has outlines for every
// rune of a glyph. Rendering it would produce the .notdef box.
var ErrGlyphUnsupported = errors.New("no loaded font has outlines for glyph")

// systemEmojiFonts are monochrome outline emoji fonts shipped by common
// platforms. Colour-only fonts (CBDT, sbix) carry no outlines and are not listed.
var systemEmojiFonts = []string{
	"/usr/share/fonts/truetype/noto/NotoEmoji-Regular.ttf",
	"/usr/share/fonts/noto/NotoEmoji-Regular.ttf",
	"/usr/share/fonts/google-noto-emoji/NotoEmoji-Regular.ttf",
	"/usr/share/fonts/truetype/ancient-scripts/Symbola_hint.ttf",
	"/usr/share/fonts/TTF/Symbola.ttf",
	`C:\Windows\Fonts\seguiemj.ttf`,
	`C:\Windows\Fonts\seguisym.ttf`,
}

// SystemEmojiFonts returns the well-known outline emoji fonts present on this machine.
func SystemEmojiFonts() []string {
	var out []string
	for _, p := range systemEmojiFonts {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			out = append(out, p)
		}
	}
	return out
}

// SceneOptions configures NewSceneRasterizer. Fonts are tried in order:
// FontPath, then Fallbacks, then the bundled Go Regular face.
type SceneOptions struct {
	// FontPath must load when set.
	FontPath string
	// Fallbacks that fail to load are skipped.
	Fallbacks []string
	Logger    *slog.Logger
}

type loadedFont struct {
	name string
	font *opentype.Font
}

func loadFonts(opts SceneOptions) ([]loadedFont, error) {
	var fonts []loadedFont
	if opts.FontPath != "" {
		f, err := parseFontFile(opts.FontPath)
		if err != nil {
			return nil, err
		}
		fonts = append(fonts, loadedFont{name: opts.FontPath, font: f})
	}
	for _, p := range opts.Fallbacks {
		if p == "" || p == opts.FontPath {
			continue
		}
		f, err := parseFontFile(p)
		if err != nil {
			if opts.Logger != nil {
				opts.Logger.Warn("font skipped", "path", p, "error", err)
			}
			continue
		}
		fonts = append(fonts, loadedFont{name: p, font: f})
	}
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bundled font: %w", err)
	}
	return append(fonts, loadedFont{name: "goregular", font: f}), nil
}

func parseFontFile(path string) (*opentype.Font, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	f, err := opentype.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return f, nil
}

// drawable drops the runes that only modify presentation: joiners,
// variation selectors and tag characters. Without shaping they would draw
// as .notdef boxes next to the base glyphs.
func drawable(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == 0x200D, r >= 0xFE00 && r <= 0xFE0F, r >= 0xE0020 && r <= 0xE007F:
			return -1
		}
		return r
	}, text)
}

// covers reports whether f has outlines for every visible rune of text.
func covers(f *opentype.Font, buf *sfnt.Buffer, text string) bool {
	if text == "" {
		return false
	}
	for _, r := range text {
		idx, err := f.GlyphIndex(buf, r)
		if err != nil || idx == 0 {
			return false
		}
		if unicode.IsSpace(r) {
			continue
		}
		segs, err := f.LoadGlyph(buf, idx, fixed.I(64), nil)
		if err != nil || len(segs) == 0 {
			return false
		}
	}
	return true
}
