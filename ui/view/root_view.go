package view

import (
	"image"
	"log/slog"
	"strconv"
	"strings"

	"github.com/soocke/emojipic/config"
	"github.com/soocke/emojipic/domain/compose"
	"github.com/soocke/emojipic/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Handlers are invoked on user actions. Nil handlers are skipped.
type Handlers struct {
	OnMode        func(compose.Mode)
	OnGlyph       func(string)
	OnRandomGlyph func()
	OnBackground  func(string)
	OnRandomColor func()
	OnSuggest     func()
	OnScale       func(int)
	OnGenerate    func(prompt string)
	OnPasteFile   func(path string)
	OnDownload    func()
	OnExit        func()
}

var modeNames = []string{
	compose.ModeStandard.String(),
	compose.ModeGenerated.String(),
	compose.ModePasted.String(),
}

// RootView composes the editor window: the preview on top, inputs below.
// It implements presenter.EditorView.
type RootView struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger

	Preview  Preview
	Settings SettingsPanel

	modeSelect  *TComboboxWidget
	glyphText   *TextWidget
	glyphBtns   []*ButtonWidget
	bgText      *TextWidget
	scaleText   *TextWidget
	promptText  *TextWidget
	generateBtn *ButtonWidget
	pasteText   *TextWidget
	pasteBtn    *ButtonWidget
	noticeLabel *TLabelWidget
	statusLabel *TLabelWidget
}

func NewRootView(cfg *config.Config, cfgPath string, logger *slog.Logger) *RootView {
	return &RootView{cfg: cfg, cfgPath: cfgPath, logger: logger}
}

// Build constructs the layout.
func (rv *RootView) Build(h Handlers) {
	if rv == nil {
		return
	}
	theme.InitStyles()
	call := func(f func()) func() {
		return func() {
			if f != nil {
				f()
			}
		}
	}

	// Row 0: the preview, centred, PreviewPad below the top edge.
	rv.Preview = NewPreview(0, 4, 600)

	// Row 1: mode selection.
	Grid(Label(Txt("Mode"), Anchor("w")), Row(1), Column(0), Sticky("w"), Padx("0.4m"))
	rv.modeSelect = TCombobox(Values(modeNames), Width(14))
	Grid(rv.modeSelect, Row(1), Column(1), Sticky("we"), Padx("0.4m"), Pady("0.2m"))
	rv.modeSelect.Current(0)
	Bind(rv.modeSelect, "<<ComboboxSelected>>", Command(func() {
		idx, err := strconv.Atoi(rv.modeSelect.Current(nil))
		if err != nil || idx < 0 || idx >= len(modeNames) {
			if rv.logger != nil {
				rv.logger.Error("mode selection parse error", "error", err)
			}
			return
		}
		if h.OnMode != nil {
			h.OnMode(compose.ParseMode(modeNames[idx]))
		}
	}))

	// Row 2: glyph.
	Grid(Label(Txt("Emoji"), Anchor("w")), Row(2), Column(0), Sticky("w"), Padx("0.4m"))
	rv.glyphText = Text(Height(1), Width(6))
	Grid(rv.glyphText, Row(2), Column(1), Sticky("we"), Padx("0.4m"), Pady("0.2m"))
	setBtn := Button(Txt("Set"), Command(func() {
		if h.OnGlyph != nil {
			h.OnGlyph(textOf(rv.glyphText))
		}
	}))
	Grid(setBtn, Row(2), Column(2), Sticky("we"), Padx("0.2m"))
	randBtn := Button(Txt("Random"), Command(call(h.OnRandomGlyph)))
	Grid(randBtn, Row(2), Column(3), Sticky("we"), Padx("0.2m"))
	rv.glyphBtns = []*ButtonWidget{setBtn, randBtn}

	// Row 3: background colour.
	Grid(Label(Txt("Background"), Anchor("w")), Row(3), Column(0), Sticky("w"), Padx("0.4m"))
	rv.bgText = Text(Height(1), Width(10))
	Grid(rv.bgText, Row(3), Column(1), Sticky("we"), Padx("0.4m"), Pady("0.2m"))
	if rv.cfg != nil {
		rv.bgText.Insert("1.0", rv.cfg.BackgroundColor)
	}
	bgFrame := Frame()
	Grid(bgFrame, Row(3), Column(2), Columnspan(2), Sticky("we"))
	Grid(Button(Txt("Apply"), Command(func() {
		if h.OnBackground != nil {
			h.OnBackground(textOf(rv.bgText))
		}
	})), In(bgFrame), Row(0), Column(0), Padx("0.2m"))
	Grid(Button(Txt("Random"), Command(call(h.OnRandomColor))), In(bgFrame), Row(0), Column(1), Padx("0.2m"))
	Grid(Button(Txt("From Image"), Command(call(h.OnSuggest))), In(bgFrame), Row(0), Column(2), Padx("0.2m"))

	// Row 4: content scale.
	Grid(Label(Txt("Image Scale %"), Anchor("w")), Row(4), Column(0), Sticky("w"), Padx("0.4m"))
	rv.scaleText = Text(Height(1), Width(6))
	Grid(rv.scaleText, Row(4), Column(1), Sticky("we"), Padx("0.4m"), Pady("0.2m"))
	if rv.cfg != nil {
		rv.scaleText.Insert("1.0", strconv.Itoa(rv.cfg.ContentScalePercent))
	}
	Grid(Button(Txt("Apply"), Command(func() {
		pct, err := strconv.Atoi(textOf(rv.scaleText))
		if err == nil && h.OnScale != nil {
			h.OnScale(pct)
		}
	})), Row(4), Column(2), Sticky("we"), Padx("0.2m"))

	// Row 5: prompt.
	Grid(Label(Txt("Prompt"), Anchor("w")), Row(5), Column(0), Sticky("w"), Padx("0.4m"))
	rv.promptText = Text(Height(1), Width(32))
	Grid(rv.promptText, Row(5), Column(1), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.2m"))
	rv.generateBtn = Button(Txt("Generate"), Command(func() {
		if h.OnGenerate != nil {
			h.OnGenerate(textOf(rv.promptText))
		}
	}))
	Grid(rv.generateBtn, Row(5), Column(3), Sticky("we"), Padx("0.2m"))

	// Row 6: pasted image file.
	Grid(Label(Txt("Image File"), Anchor("w")), Row(6), Column(0), Sticky("w"), Padx("0.4m"))
	rv.pasteText = Text(Height(1), Width(32))
	Grid(rv.pasteText, Row(6), Column(1), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.2m"))
	rv.pasteBtn = Button(Txt("Load"), Command(func() {
		if h.OnPasteFile != nil {
			h.OnPasteFile(textOf(rv.pasteText))
		}
	}))
	Grid(rv.pasteBtn, Row(6), Column(3), Sticky("we"), Padx("0.2m"))

	// Row 7: notices and actions.
	rv.noticeLabel = TLabel(Txt(""), Style(theme.StyleNoticeLabel), Anchor("w"))
	Grid(rv.noticeLabel, Row(7), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"))
	Grid(TButton(Txt("Download"), Style(theme.StylePrimaryButton), Command(call(h.OnDownload))), Row(7), Column(2), Sticky("we"), Padx("0.2m"), Pady("0.3m"))
	Grid(Button(Txt("Exit"), Command(call(h.OnExit))), Row(7), Column(3), Sticky("we"), Padx("0.2m"), Pady("0.3m"))
	rv.statusLabel = TLabel(Txt(""), Style(theme.StyleStatusLabel), Anchor("w"))
	Grid(rv.statusLabel, Row(8), Column(0), Columnspan(4), Sticky("we"), Padx("0.4m"))

	// Settings below the editor.
	settings := Frame(Borderwidth(1), Relief("groove"))
	Grid(settings, Row(9), Column(0), Columnspan(4), Sticky("we"), Padx("0.4m"), Pady("0.4m"))
	rv.Settings = NewSettingsPanel(rv.cfg, rv.cfgPath, rv.logger)
	rv.Settings.Build(settings, 0)

	rv.SetModeControls(compose.ModeStandard)
}

// SetPreview replaces the preview image.
func (rv *RootView) SetPreview(img image.Image) {
	if rv != nil && rv.Preview != nil {
		rv.Preview.Update(img)
	}
}

// SetGenerating disables the generate trigger while a request is in flight.
func (rv *RootView) SetGenerating(b bool) {
	if rv == nil || rv.generateBtn == nil {
		return
	}
	if b {
		rv.generateBtn.Configure(Txt("Generating..."), State("disabled"))
		return
	}
	rv.generateBtn.Configure(Txt("Generate"), State("normal"))
}

// SetModeControls enables the inputs of the active mode only.
func (rv *RootView) SetModeControls(m compose.Mode) {
	if rv == nil || rv.modeSelect == nil {
		return
	}
	rv.modeSelect.Current(int(m))
	enable := func(on bool) string {
		if on {
			return "normal"
		}
		return "disabled"
	}
	rv.glyphText.Configure(State(enable(m == compose.ModeStandard)))
	for _, b := range rv.glyphBtns {
		b.Configure(State(enable(m == compose.ModeStandard)))
	}
	rv.promptText.Configure(State(enable(m == compose.ModeGenerated)))
	rv.generateBtn.Configure(State(enable(m == compose.ModeGenerated)))
	rv.pasteText.Configure(State(enable(m == compose.ModePasted)))
	rv.pasteBtn.Configure(State(enable(m == compose.ModePasted)))
}

// ShowNotice displays a one-off message.
func (rv *RootView) ShowNotice(msg string) {
	if rv != nil && rv.noticeLabel != nil {
		rv.noticeLabel.Configure(Txt(msg))
	}
}

// SetStatus updates the status line.
func (rv *RootView) SetStatus(text string) {
	if rv != nil && rv.statusLabel != nil {
		rv.statusLabel.Configure(Txt(text))
	}
}

func textOf(w *TextWidget) string {
	if w == nil {
		return ""
	}
	return strings.TrimSpace(strings.Join(w.Get("1.0", END), ""))
}
