// Package core assembles the display-independent object graph shared by the
// desktop editor, the HTTP service and the one-shot CLI export.
package core

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"

	capscreen "github.com/soocke/emojipic/capture"
	"github.com/soocke/emojipic/config"
	"github.com/soocke/emojipic/debug"
	"github.com/soocke/emojipic/domain/capture"
	"github.com/soocke/emojipic/domain/compose"
	"github.com/soocke/emojipic/domain/export"
	"github.com/soocke/emojipic/domain/generate"
	"github.com/soocke/emojipic/domain/mask"
	"github.com/soocke/emojipic/server"
)

// Options carries host-specific collaborators. All fields are optional.
type Options struct {
	// Probe reads the sticker's layout for the tracker. The page rasterizer
	// replaces it with its own probe.
	Probe capture.LayoutProbe
	// Origin is the screen position of the host window, used by the screen
	// rasterizer.
	Origin func() image.Point
	// Client overrides the generation client built from config.
	Client generate.Client
}

// Core holds the wired components.
type Core struct {
	Config    *config.Config
	Logger    *slog.Logger
	Session   *compose.Session
	Tracker   *capture.Tracker
	Scene     *export.SceneRasterizer
	Pipeline  *export.Pipeline
	Generator *generate.Service // nil when no credentials are configured
	Client    generate.Client   // nil when no credentials are configured
	Saver     export.Saver
	Mask      mask.Options

	// live is set when exports capture a real surface rather than the scene.
	live   bool
	page   *capscreen.PageRasterizer
	cancel context.CancelFunc
}

// Build constructs the components described by cfg. The returned Core must
// be closed.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Core, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	bg, err := compose.ParseHex(cfg.BackgroundColor)
	if err != nil {
		return nil, fmt.Errorf("background colour: %w", err)
	}
	scene, err := export.NewSceneRasterizer(export.SceneOptions{
		FontPath:  cfg.FontPath,
		Fallbacks: export.SystemEmojiFonts(),
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	c := &Core{
		Config:  cfg,
		Logger:  logger,
		Session: compose.NewSession(bg, compose.RandomGlyph(), cfg.ContentScalePercent),
		Scene:   scene,
		Saver:   export.FileSaver{Dir: cfg.OutputDir},
		Mask:    mask.Options{Tolerance: mask.DefaultTolerance},
		cancel:  cancel,
	}

	var raster capture.Rasterizer = scene
	probe := opts.Probe
	switch strings.ToLower(cfg.Rasterizer) {
	case "screen":
		raster = capscreen.ScreenRasterizer{Origin: opts.Origin}
		c.live = true
	case "page":
		page, err := capscreen.OpenPage(ctx, capscreen.PageOptions{
			URL:      cfg.PageURL,
			Selector: cfg.PageSelector,
			Logger:   logger,
		})
		if err != nil {
			cancel()
			return nil, err
		}
		c.page = page
		raster, probe = page, page
		c.live = true
	}

	c.Tracker = capture.NewTracker(probe, capture.TrackerOptions{
		Interval: cfg.Throttle(),
		Layout:   capture.ParseLayout(cfg.Layout),
		Logger:   logger,
	})
	if c.page != nil {
		if f, ok := c.page.Viewport(); ok {
			c.Tracker.Mount(f)
		}
		go c.page.Watch(ctx, c.Tracker, 50*time.Millisecond)
	}

	settle := cfg.Settle()
	if cfg.SettleMS == 0 {
		settle = -1
	}
	c.Pipeline = export.NewPipeline(raster, export.Options{
		SettleDelay: settle,
		Name:        cfg.OutputName,
		Logger:      logger,
	})

	client := opts.Client
	if client == nil {
		if key := cfg.APIKey(); key != "" {
			client = generate.NewHTTPClient(cfg.GenerationURL, cfg.GenerationModel, cfg.GenerationSize, key, cfg.GenerationTimeout())
		}
	}
	c.Client = client
	if client != nil {
		c.Generator = generate.NewService(client, c.Session, generate.Options{
			Mask:           c.Mask,
			PromptTemplate: cfg.PromptTemplate,
			Timeout:        cfg.GenerationTimeout(),
			Logger:         logger,
		})
	} else {
		logger.Info("generation disabled", "reason", "no API key", "env", cfg.APIKeyEnv)
	}

	if cfg.Debug {
		debug.StartRuntimeLogger(ctx, 5*time.Second, logger, func() []any {
			st := c.Tracker.Stats()
			return []any{"observed", st.Observed, "recomputes", st.Recomputes}
		})
	}

	logger.Info("core ready",
		"rasterizer", cfg.Rasterizer,
		"layout", cfg.Layout,
		"throttle", cfg.Throttle(),
		"settle", settle,
		"generation", c.Generator != nil,
		"fonts", scene.Fonts(),
	)
	return c, nil
}

// ServerOptions returns the HTTP service configuration backed by c. Live
// rasterizers export at the tracked region; the scene rasterizer sizes each
// export from the request.
func (c *Core) ServerOptions() server.Options {
	bg, _ := compose.ParseHex(c.Config.BackgroundColor)
	opts := server.Options{
		Exporter:       c.Pipeline,
		Client:         c.Client,
		Mask:           c.Mask,
		PromptTemplate: c.Config.PromptTemplate,
		GenTimeout:     c.Config.GenerationTimeout(),
		Background:     bg,
		Layout:         capture.ParseLayout(c.Config.Layout),
		Logger:         c.Logger,
	}
	if c.live {
		opts.Region = c.Tracker
	}
	return opts
}

// Close stops background work and releases the browser, if any.
func (c *Core) Close() error {
	if c == nil {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	if c.Tracker != nil {
		c.Tracker.Close()
	}
	if c.page != nil {
		return c.page.Close()
	}
	return nil
}

// ExportRequest describes a one-shot composition.
type ExportRequest struct {
	Mode         compose.Mode
	Glyph        string
	Background   string
	ScalePercent int
	Prompt       string
	Pasted       *image.NRGBA
}

// Compose applies req to the session, running generation when requested.
func (c *Core) Compose(ctx context.Context, req ExportRequest) error {
	s := c.Session
	if req.Background != "" {
		bg, err := compose.ParseHex(req.Background)
		if err != nil {
			return err
		}
		s.SetBackground(bg)
	}
	if req.ScalePercent != 0 {
		s.SetScale(req.ScalePercent)
	}
	s.SetMode(req.Mode)
	switch req.Mode {
	case compose.ModeStandard:
		if req.Glyph != "" {
			s.SetGlyph(req.Glyph)
		}
	case compose.ModeGenerated:
		if c.Generator == nil {
			return fmt.Errorf("generation not configured: set %s", c.Config.APIKeyEnv)
		}
		if err := c.Generator.Generate(ctx, req.Prompt); err != nil {
			return err
		}
	case compose.ModePasted:
		if req.Pasted != nil {
			if err := s.SetPasted(req.Pasted); err != nil {
				return err
			}
		}
	}
	return nil
}

// Export rasterizes the current session at the tracked region.
func (c *Core) Export(ctx context.Context) (export.Artifact, error) {
	return c.Pipeline.Export(ctx, c.Tracker.Region(), c.Session.Snapshot())
}
