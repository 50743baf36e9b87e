package view

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/soocke/emojipic/config"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// SettingsPanel edits the persisted configuration. Changes take effect on
// the next start.
type SettingsPanel interface {
	Build(parent *FrameWidget, startRow int) (endRow int)
	ApplyChanges() error
}

type settingsPanel struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger
	widgets map[string]*TextWidget
}

func NewSettingsPanel(cfg *config.Config, cfgPath string, logger *slog.Logger) SettingsPanel {
	return &settingsPanel{cfg: cfg, cfgPath: cfgPath, logger: logger, widgets: make(map[string]*TextWidget)}
}

func (v *settingsPanel) Build(parent *FrameWidget, startRow int) (row int) {
	c := v.cfg
	row = startRow
	makeRow := func(id, label, value string) {
		lbl := Label(Txt(label), Anchor("w"))
		Grid(lbl, In(parent), Row(row), Column(0), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
		w := Text(Height(1), Width(16))
		Grid(w, In(parent), Row(row), Column(1), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		w.Delete("1.0", END)
		w.Insert("1.0", value)
		v.widgets[id] = w
		row++
	}
	makeRow("layout", "Layout (auto/compact/expanded)", c.Layout)
	makeRow("throttleMs", "Tracker Interval ms", strconv.Itoa(c.ThrottleMS))
	makeRow("settleMs", "Settle Delay ms", strconv.Itoa(c.SettleMS))
	makeRow("outputDir", "Output Folder", c.OutputDir)
	applyBtn := Button(Txt("Save Settings"), Command(func() { _ = v.ApplyChanges() }))
	Grid(applyBtn, In(parent), Row(row), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	row++
	return row
}

func (v *settingsPanel) text(id string) (string, bool) {
	w := v.widgets[id]
	if w == nil {
		return "", false
	}
	return strings.TrimSpace(strings.Join(w.Get("1.0", END), "")), true
}

func (v *settingsPanel) ApplyChanges() error {
	if v.cfg == nil {
		return nil
	}
	cfg := *v.cfg // copy
	assignInt := func(id string, dst *int) {
		if s, ok := v.text(id); ok {
			if i, err := strconv.Atoi(s); err == nil {
				*dst = i
			}
		}
	}
	if s, ok := v.text("layout"); ok && s != "" {
		cfg.Layout = s
	}
	if s, ok := v.text("outputDir"); ok && s != "" {
		cfg.OutputDir = s
	}
	assignInt("throttleMs", &cfg.ThrottleMS)
	assignInt("settleMs", &cfg.SettleMS)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	*v.cfg = cfg
	if err := v.cfg.Save(v.cfgPath); err != nil {
		if v.logger != nil {
			v.logger.Error("config save failed", "error", err)
		}
		return err
	}
	if v.logger != nil {
		v.logger.Info("config saved", "path", v.cfgPath)
	}
	return nil
}
