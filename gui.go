//go:build !headless

package main

import (
	"log/slog"

	"github.com/soocke/emojipic/app"
	"github.com/soocke/emojipic/config"
)

func runGUI(cfg *config.Config, cfgPath string, logger *slog.Logger) error {
	application, err := app.NewApp("emojipic", 820, 980, cfg, cfgPath, logger)
	if err != nil {
		return err
	}
	application.Start()
	return nil
}
