package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/soocke/emojipic/config"
	"github.com/soocke/emojipic/core"
	"github.com/soocke/emojipic/domain/compose"
	"github.com/soocke/emojipic/server"
	"github.com/soocke/emojipic/ui/images"
)

func main() {
	var (
		cfgPath = flag.String("config", "emojipic.json", "config file (.json, .yaml or .yml)")
		mode    = flag.String("mode", "gui", "gui | serve | export")
		glyph   = flag.String("glyph", "", "export: emoji to draw in standard mode")
		bg      = flag.String("bg", "", "export: background colour #RRGGBB")
		paste   = flag.String("paste", "", "export: image file to compose in pasted mode, - reads stdin")
		prompt  = flag.String("prompt", "", "export: prompt for generated mode")
		scale   = flag.Int("scale", 0, "export: image scale percent (10-100)")
		out     = flag.String("out", "", "export: output folder (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := NewLogger(level)
	if err != nil {
		logger.Warn("config load failed, using defaults", "path", *cfgPath, "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch *mode {
	case "gui":
		err = runGUI(cfg, *cfgPath, logger)
	case "serve":
		err = runServer(ctx, cfg, logger)
	case "export":
		if *out != "" {
			cfg.OutputDir = *out
		}
		err = runExport(ctx, cfg, logger, exportFlags{glyph: *glyph, bg: *bg, paste: *paste, prompt: *prompt, scale: *scale})
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		logger.Error("emojipic failed", "mode", *mode, "error", err)
		os.Exit(1)
	}
}

type exportFlags struct {
	glyph, bg, paste, prompt string
	scale                    int
}

func runExport(ctx context.Context, cfg *config.Config, logger *slog.Logger, f exportFlags) error {
	c, err := core.Build(ctx, cfg, logger, core.Options{})
	if err != nil {
		return err
	}
	defer c.Close()

	req := core.ExportRequest{Mode: compose.ModeStandard, Glyph: f.glyph, Background: f.bg, ScalePercent: f.scale}
	switch {
	case f.paste != "":
		img, err := images.ReadSource(f.paste, os.Stdin)
		if err != nil {
			return err
		}
		req.Mode, req.Pasted = compose.ModePasted, img
	case f.prompt != "":
		req.Mode, req.Prompt = compose.ModeGenerated, f.prompt
	}
	if err := c.Compose(ctx, req); err != nil {
		return err
	}
	a, err := c.Export(ctx)
	if err != nil {
		return err
	}
	path, err := c.Saver.Save(ctx, a)
	if err != nil {
		return err
	}
	logger.Info("saved", "path", path, "width", a.Width, "height", a.Height)
	return nil
}

func runServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	c, err := core.Build(ctx, cfg, logger, core.Options{})
	if err != nil {
		return err
	}
	defer c.Close()

	return server.New(c.ServerOptions()).ListenAndServe(ctx, cfg.ServerAddr)
}
