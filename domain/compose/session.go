package compose

import (
	"errors"
	"image"
	"sync"
)

var (
	// ErrGenerationInFlight is returned when a second generation is requested
	// before the first one finished. The trigger is disabled, not cancelled.
	ErrGenerationInFlight = errors.New("generation already in progress")
	// ErrModeMismatch is returned when an operation targets a mode that is not active.
	ErrModeMismatch = errors.New("operation not valid in current mode")
)

// GenerationTicket identifies one generation request. A ticket issued before
// a mode switch no longer matches and its result is dropped.
type GenerationTicket struct {
	seq   uint64
	epoch uint64
}

// Session owns the mutable composition edited by the user. Snapshot hands
// out immutable State values to export and preview. Safe for concurrent use:
// generation completes on a worker goroutine while the UI thread edits.
type Session struct {
	mu         sync.Mutex
	background RGB
	glyph      Glyph
	scale      int
	mode       Mode
	generated  *image.NRGBA
	pasted     *image.NRGBA
	fresh      bool
	generating bool
	genSeq     uint64
	genEpoch   uint64
	epoch      uint64 // bumped on every mode switch
	revision   uint64 // bumped on every visible change
}

// NewSession returns a session in standard mode.
func NewSession(background RGB, glyph Glyph, scalePercent int) *Session {
	return &Session{background: background, glyph: glyph, scale: ClampScale(scalePercent)}
}

// Mode reports the active composition mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Generating reports whether a generation request is in flight.
func (s *Session) Generating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generating
}

// Revision increases whenever the visible composition changes.
func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// SetMode switches variant. The bitmap of the variant being left and of the
// variant being entered are both discarded; an in-flight generation keeps
// running but its result will be dropped.
func (s *Session) SetMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m == s.mode {
		return
	}
	s.clearLocked(s.mode)
	s.clearLocked(m)
	s.mode = m
	s.epoch++
	s.revision++
}

func (s *Session) clearLocked(m Mode) {
	switch m {
	case ModeGenerated:
		s.generated = nil
	case ModePasted:
		s.pasted = nil
	}
	s.fresh = false
}

// SetGlyph stores the first grapheme of g.
func (s *Session) SetGlyph(g string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.glyph = NormalizeGlyph(g)
	s.revision++
}

// SetBackground stores the background colour.
func (s *Session) SetBackground(c RGB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.background = c
	s.revision++
}

// SetScale stores the content scale, clamped to [10,100].
func (s *Session) SetScale(p int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scale = ClampScale(p)
	s.revision++
}

// BeginGeneration marks a request in flight and clears any previous bitmap.
func (s *Session) BeginGeneration() (GenerationTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeGenerated {
		return GenerationTicket{}, ErrModeMismatch
	}
	if s.generating {
		return GenerationTicket{}, ErrGenerationInFlight
	}
	s.generating = true
	s.generated = nil
	s.fresh = false
	s.genSeq++
	s.genEpoch = s.epoch
	s.revision++
	return GenerationTicket{seq: s.genSeq, epoch: s.epoch}, nil
}

// CompleteGeneration stores img if the ticket is still current. It reports
// whether the bitmap was accepted; a result for an abandoned mode is dropped.
func (s *Session) CompleteGeneration(t GenerationTicket, img *image.NRGBA) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.seq != s.genSeq {
		return false
	}
	s.generating = false
	s.revision++
	if t.epoch != s.epoch || s.mode != ModeGenerated || img == nil {
		return false
	}
	s.generated = img
	s.fresh = true
	return true
}

// FailGeneration ends the request without a bitmap.
func (s *Session) FailGeneration(t GenerationTicket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.seq != s.genSeq {
		return
	}
	s.generating = false
	if t.epoch == s.epoch {
		s.generated = nil
	}
	s.revision++
}

// SetPasted stores a decoded pasted bitmap. Only valid in pasted mode.
func (s *Session) SetPasted(img *image.NRGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModePasted {
		return ErrModeMismatch
	}
	s.pasted = img
	s.fresh = img != nil
	s.revision++
	return nil
}

// MarkSettled clears the fresh flag once the new bitmap has been painted.
func (s *Session) MarkSettled() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fresh = false
}

// Snapshot returns the current composition as an immutable State.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{Background: s.background, ScalePercent: s.scale, Fresh: s.fresh}
	switch s.mode {
	case ModeGenerated:
		st.Source = Generated{Image: s.generated}
	case ModePasted:
		st.Source = Pasted{Image: s.pasted}
	default:
		st.Source = s.glyph
	}
	return st
}
