package app

import (
	"context"
	"log/slog"

	"github.com/soocke/emojipic/config"
	"github.com/soocke/emojipic/core"
	"github.com/soocke/emojipic/domain/capture"
	"github.com/soocke/emojipic/ui/model"
	"github.com/soocke/emojipic/ui/presenter"
	"github.com/soocke/emojipic/ui/view"
)

// AppContainer assembles models, services, presenters and the root view.
type AppContainer struct {
	Config   *config.Config
	Logger   *slog.Logger
	Core     *core.Core
	Notices  *model.NoticeModel
	Exports  *model.ExportModel
	Window   *presenter.WindowLayout
	RootView *view.RootView

	// Presenters
	Editor  *presenter.EditorPresenter
	Preview *presenter.PreviewPresenter
	Loop    *presenter.Loop
}

// BuildContainer constructs all components. The view is built separately
// once the Tk window exists.
func BuildContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, cfgPath string, geometry func() string) (*AppContainer, error) {
	c := &AppContainer{Config: cfg, Logger: logger}
	c.Notices = model.NewNoticeModel()
	c.Exports = &model.ExportModel{}
	c.RootView = view.NewRootView(cfg, cfgPath, logger)
	c.Window = presenter.NewWindowLayout(geometry, capture.ParseLayout(cfg.Layout))

	co, err := core.Build(ctx, cfg, logger, core.Options{Probe: c.Window, Origin: c.Window.Origin})
	if err != nil {
		return nil, err
	}
	c.Core = co

	deps := presenter.EditorDeps{
		Session:  co.Session,
		Exporter: co.Pipeline,
		Saver:    co.Saver,
		Region:   co.Tracker,
		Notices:  c.Notices,
		Exports:  c.Exports,
		Logger:   logger,
	}
	if co.Generator != nil {
		deps.Gen = co.Generator
	}
	c.Editor = presenter.NewEditorPresenter(ctx, deps)
	c.Preview = presenter.NewPreviewPresenter(co.Session, co.Scene, c.RootView, c.Notices, c.Exports,
		func() int { return co.Tracker.Region().Side }, logger)
	return c, nil
}

// Handlers binds view callbacks to the editor presenter.
func (c *AppContainer) Handlers(onExit func()) view.Handlers {
	e := c.Editor
	return view.Handlers{
		OnMode:        e.SetMode,
		OnGlyph:       e.SetGlyph,
		OnRandomGlyph: e.RandomizeGlyph,
		OnBackground:  e.SetBackground,
		OnRandomColor: e.RandomizeColor,
		OnSuggest:     e.SuggestBackground,
		OnScale:       e.SetScale,
		OnGenerate:    e.Generate,
		OnPasteFile:   e.PasteFile,
		OnDownload:    e.Download,
		OnExit:        onExit,
	}
}
