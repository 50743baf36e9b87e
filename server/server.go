// Package server exposes composition export and background removal over HTTP.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/soocke/emojipic/domain/capture"
	"github.com/soocke/emojipic/domain/compose"
	"github.com/soocke/emojipic/domain/export"
	"github.com/soocke/emojipic/domain/generate"
	"github.com/soocke/emojipic/domain/mask"
	"github.com/soocke/emojipic/ui/images"
)

const maxBody = 32 << 20

// Exporter rasterizes a region for a composition.
type Exporter interface {
	Export(ctx context.Context, region capture.Region, state compose.State) (export.Artifact, error)
}

// RegionSource reports the currently tracked capture region.
type RegionSource interface {
	Region() capture.Region
}

// Options configures New.
type Options struct {
	Exporter Exporter
	// Region supplies the on-screen region for rasterizers that capture a
	// live surface. When nil the side is derived from the request's
	// viewport width and the region sits at the origin.
	Region RegionSource
	// Client enables generated-mode exports. Nil disables them.
	Client         generate.Client
	Mask           mask.Options
	PromptTemplate string
	GenTimeout     time.Duration
	Background     compose.RGB
	Layout         capture.Layout
	Logger         *slog.Logger
}

// Server serves the HTTP API. Exports are serialised because a rasterizer
// may hold a single shared surface.
type Server struct {
	opts   Options
	logger *slog.Logger
	mu     sync.Mutex
	router *chi.Mux
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{opts: opts, logger: opts.Logger}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	s.RegisterHTTP(r)
	s.router = r
	return s
}

// RegisterHTTP registers the endpoints on r.
func (s *Server) RegisterHTTP(r chi.Router) {
	r.Get("/healthz", s.handleHealth)
	r.Post("/export", s.handleExport)
	r.Post("/remove-background", s.handleRemoveBackground)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

// ListenAndServe runs the server until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("server listening", "addr", addr)
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
			"elapsed", time.Since(start),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":     "ok",
		"generation": s.opts.Client != nil,
	})
}

// ExportRequest is the body of POST /export.
type ExportRequest struct {
	Mode          string `json:"mode"`
	Glyph         string `json:"glyph"`
	Background    string `json:"background"`
	ScalePercent  int    `json:"scale_percent"`
	ViewportWidth int    `json:"viewport_width"`
	Prompt        string `json:"prompt"`
	// Image is a base64 encoded bitmap for pasted mode.
	Image string `json:"image"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	state, err := s.stateFor(r.Context(), req)
	if err != nil {
		var he httpError
		if errors.As(err, &he) {
			http.Error(w, he.msg, he.code)
			return
		}
		s.logger.Error("export compose failed", "error", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	s.mu.Lock()
	a, err := s.opts.Exporter.Export(r.Context(), s.regionFor(req), state)
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("export failed", "error", err)
		if errors.Is(err, export.ErrGlyphUnsupported) {
			http.Error(w, "glyph not supported by the configured fonts", http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	writePNG(w, a.Name, a.Data)
}

func (s *Server) regionFor(req ExportRequest) capture.Region {
	if s.opts.Region != nil {
		return s.opts.Region.Region()
	}
	return capture.Region{Side: s.opts.Layout.Side(float64(req.ViewportWidth))}
}

type httpError struct {
	code int
	msg  string
}

func (e httpError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return httpError{code: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

// stateFor builds the composition for one request on a private session.
func (s *Server) stateFor(ctx context.Context, req ExportRequest) (compose.State, error) {
	bg := s.opts.Background
	if req.Background != "" {
		c, err := compose.ParseHex(req.Background)
		if err != nil {
			return compose.State{}, badRequest("invalid background %q", req.Background)
		}
		bg = c
	}
	scale := req.ScalePercent
	if scale == 0 {
		scale = compose.DefaultScalePercent
	}
	sess := compose.NewSession(bg, compose.NormalizeGlyph(req.Glyph), scale)
	mode := compose.ParseMode(req.Mode)
	sess.SetMode(mode)
	switch mode {
	case compose.ModeStandard:
		if req.Glyph == "" {
			sess.SetGlyph(string(compose.RandomGlyph()))
		}
	case compose.ModePasted:
		if req.Image == "" {
			break
		}
		data, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			return compose.State{}, badRequest("image is not base64")
		}
		img, err := images.Decode(data)
		if err != nil {
			return compose.State{}, badRequest("image could not be decoded")
		}
		if err := sess.SetPasted(img); err != nil {
			return compose.State{}, err
		}
	case compose.ModeGenerated:
		if s.opts.Client == nil {
			return compose.State{}, httpError{code: http.StatusServiceUnavailable, msg: "generation not configured"}
		}
		svc := generate.NewService(s.opts.Client, sess, generate.Options{
			Mask:           s.opts.Mask,
			PromptTemplate: s.opts.PromptTemplate,
			Timeout:        s.opts.GenTimeout,
			Logger:         s.logger,
		})
		if err := svc.Generate(ctx, req.Prompt); err != nil {
			if errors.Is(err, generate.ErrEmptyPrompt) {
				return compose.State{}, badRequest("prompt required")
			}
			return compose.State{}, err
		}
	}
	st := sess.Snapshot()
	// Nothing is painted on screen here.
	st.Fresh = false
	return st, nil
}

func (s *Server) handleRemoveBackground(w http.ResponseWriter, r *http.Request) {
	img, err := mask.RemoveEncoded(io.LimitReader(r.Body, maxBody), s.opts.Mask)
	if err != nil {
		http.Error(w, "image could not be processed", http.StatusBadRequest)
		return
	}
	data, err := images.EncodePNG(img)
	if err != nil {
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}
	writePNG(w, "masked.png", data)
}

func writePNG(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
