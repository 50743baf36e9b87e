package theme

// Palette and widget styles for the editor window.

import (
	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

const (
	ColorBg        = "#f7f9fb"
	ColorSurface   = "#ffffff"
	ColorPrimary   = "#2563eb"
	ColorDanger    = "#dc2626"
	ColorText      = "#1e293b"
	ColorTextMuted = "#64748b"
)

// Style names used with Style("primary.TButton") etc.
const (
	StylePrimaryButton = "primary.TButton"
	StyleNoticeLabel   = "notice.TLabel"
	StyleStatusLabel   = "status.TLabel"
)

// InitStyles activates the base theme and configures the editor styles.
func InitStyles() {
	_ = ActivateTheme("azure light")
	App.Configure(Background(ColorBg))

	StyleConfigure(StylePrimaryButton,
		Background(ColorPrimary),
		Foreground("white"),
		Padding("4p 3p"),
		Borderwidth(1),
		Relief("ridge"),
	)
	StyleConfigure(StyleNoticeLabel,
		Foreground(ColorDanger),
		Background(ColorSurface),
		Padding("2p 1p"),
	)
	StyleConfigure(StyleStatusLabel,
		Foreground(ColorTextMuted),
		Background(ColorBg),
		Padding("2p 1p"),
	)
}
