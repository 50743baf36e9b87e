//go:build headless

package main

import (
	"errors"
	"log/slog"

	"github.com/soocke/emojipic/config"
)

// Headless builds drop the Tk editor so serve and export run without a display.
func runGUI(cfg *config.Config, cfgPath string, logger *slog.Logger) error {
	return errors.New("built without the editor; use -mode serve or -mode export")
}
