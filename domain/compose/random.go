package compose

import (
	"math/rand/v2"
	"strings"

	"github.com/clipperhouse/uax29/v2/graphemes"
)

// Emoticons block used for random glyphs.
const (
	emojiFirst = 0x1F600
	emojiLast  = 0x1F64F
)

// CoolColors is the palette offered by "randomize colour". Repeated entries
// are drawn proportionally more often.
var CoolColors = []string{
	"#FFF4E7",
	"#DAF1D5",
	"#F3F8CE",
	"#A7CBE2",
	"#F7C9D1",
	"#E6DFF7",
	"#F7E1E6",
	"#FFFEE3",
	"#E6DFF7",
	"#9AD5BF",
	"#F5D372",
	"#D4F4F6",
	"#C2E5C3",
	"#DAEDDE",
	"#F3F8CE",
}

// RandomGlyph returns a random emoticon from U+1F600..U+1F64F.
func RandomGlyph() Glyph {
	return Glyph(string(rune(emojiFirst + rand.IntN(emojiLast-emojiFirst+1))))
}

// RandomColor returns a random entry of CoolColors.
func RandomColor() RGB {
	return MustParseHex(CoolColors[rand.IntN(len(CoolColors))])
}

// NormalizeGlyph keeps only the first grapheme cluster of s, so multi-rune
// emoji (skin tones, ZWJ sequences, flags) survive intact.
func NormalizeGlyph(s string) Glyph {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	g := graphemes.FromString(s)
	if g.Next() {
		return Glyph(g.Value())
	}
	return ""
}
