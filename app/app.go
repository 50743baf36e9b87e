package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"

	"github.com/soocke/emojipic/config"
	"github.com/soocke/emojipic/ui/presenter"
)

const (
	tick = 100 * time.Millisecond
)

type app struct {
	config  *config.Config
	logger  *slog.Logger
	width   int
	height  int
	afterID string
	cancel  context.CancelFunc
	c       *AppContainer
}

// NewApp creates the editor window and wires its components.
func NewApp(title string, width, height int, cfg *config.Config, cfgPath string, logger *slog.Logger) (*app, error) {
	a := &app{config: cfg, logger: logger, width: width, height: height}

	App.WmTitle(title)
	WmProtocol(App, "WM_DELETE_WINDOW", a.exitHandler)
	WmGeometry(App, fmt.Sprintf("%dx%d+100+100", width, height))

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	c, err := BuildContainer(ctx, cfg, logger, cfgPath, func() string { return WmGeometry(App) })
	if err != nil {
		cancel()
		return nil, err
	}
	a.c = c
	return a, nil
}

// Start builds the view, mounts the tracker and runs the Tk event loop.
func (a *app) Start() {
	c := a.c
	c.RootView.Build(c.Handlers(a.exitHandler))

	// An unmapped window mounts with no layout; the first tick corrects it.
	f, _ := c.Window.Viewport()
	c.Core.Tracker.Mount(f)
	c.Loop = presenter.NewLoop(c.Preview, c.Core.Tracker, c.Window.Viewport, nil)
	a.scheduleUpdate()

	App.Wait()
}

func (a *app) update() {
	defer a.scheduleUpdate()
	defer func() {
		if r := recover(); r != nil && a.logger != nil {
			a.logger.Error("ui tick panic", "error", r)
		}
	}()
	a.c.Loop.Tick()
}

func (a *app) exitHandler() {
	// Cancel scheduled after event if any.
	if a.afterID != "" {
		TclAfterCancel(a.afterID)
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.c != nil && a.c.Core != nil {
		if err := a.c.Core.Close(); err != nil && a.logger != nil {
			a.logger.Warn("shutdown", "error", err)
		}
	}
	Destroy(App)
}

func (a *app) scheduleUpdate() {
	// Schedule the next update using TclAfter to stay on Tk's event loop thread.
	a.afterID = TclAfter(tick, func() { a.update() })
}
