package compose

import "image"

// Mode enumerates the composition variants offered to the user.
type Mode int

const (
	ModeStandard Mode = iota
	ModeGenerated
	ModePasted
)

func (m Mode) String() string {
	switch m {
	case ModeStandard:
		return "standard"
	case ModeGenerated:
		return "generated"
	case ModePasted:
		return "pasted"
	default:
		return "unknown"
	}
}

// ParseMode maps a mode name back to its value; unknown names yield ModeStandard.
func ParseMode(s string) Mode {
	switch s {
	case "generated":
		return ModeGenerated
	case "pasted":
		return ModePasted
	default:
		return ModeStandard
	}
}

// Source is the content layer drawn over the background. Implemented by
// Glyph, Generated and Pasted only.
type Source interface {
	Mode() Mode
	isSource()
}

// Glyph is a single user-perceived character rendered as text.
type Glyph string

// Generated holds a remotely generated bitmap, already background-masked.
// Image is nil while nothing has been produced yet.
type Generated struct{ Image *image.NRGBA }

// Pasted holds a bitmap supplied through the clipboard or a file.
type Pasted struct{ Image *image.NRGBA }

func (Glyph) Mode() Mode     { return ModeStandard }
func (Generated) Mode() Mode { return ModeGenerated }
func (Pasted) Mode() Mode    { return ModePasted }

func (Glyph) isSource()     {}
func (Generated) isSource() {}
func (Pasted) isSource()    {}

const (
	MinScalePercent     = 10
	MaxScalePercent     = 100
	DefaultScalePercent = 80
)

// State is an immutable snapshot of the composition read by export and preview.
type State struct {
	Background   RGB
	Source       Source
	ScalePercent int
	// Fresh is set while a just-produced bitmap may not have been painted yet.
	Fresh bool
}

// Bitmap returns the content bitmap for bitmap sources, or nil,false for
// glyphs and for bitmap modes with nothing captured yet.
func (s State) Bitmap() (*image.NRGBA, bool) {
	switch src := s.Source.(type) {
	case Generated:
		return src.Image, src.Image != nil
	case Pasted:
		return src.Image, src.Image != nil
	}
	return nil, false
}

// ClampScale forces p into [MinScalePercent, MaxScalePercent].
func ClampScale(p int) int {
	if p < MinScalePercent {
		return MinScalePercent
	}
	if p > MaxScalePercent {
		return MaxScalePercent
	}
	return p
}
