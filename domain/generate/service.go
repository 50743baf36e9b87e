package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/soocke/emojipic/domain/compose"
	"github.com/soocke/emojipic/domain/mask"
)

// ErrEmptyPrompt is returned when there is nothing to describe.
var ErrEmptyPrompt = errors.New("generate: empty prompt")

// Service produces background-free bitmaps for the session's generated mode.
// Each bitmap is masked exactly once, here, before it reaches the session.
type Service struct {
	client   Client
	session  *compose.Session
	mask     mask.Options
	template string
	timeout  time.Duration
	logger   *slog.Logger
}

// Options configures NewService.
type Options struct {
	Mask           mask.Options
	PromptTemplate string // must contain one %s; empty means the raw prompt
	Timeout        time.Duration
	Logger         *slog.Logger
}

func NewService(client Client, session *compose.Session, opts Options) *Service {
	return &Service{
		client:   client,
		session:  session,
		mask:     opts.Mask,
		template: opts.PromptTemplate,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
	}
}

// Generate runs one request to completion. It returns ErrGenerationInFlight
// while another request is pending and never retries. On failure the
// session is left not generating and without a bitmap.
func (s *Service) Generate(ctx context.Context, prompt string) (err error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return ErrEmptyPrompt
	}
	ticket, err := s.session.BeginGeneration()
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if s.logger != nil {
				s.logger.Error("generate panic", "error", r, "stack", string(debug.Stack()))
			}
			s.session.FailGeneration(ticket)
			err = fmt.Errorf("generate: panic: %v", r)
		}
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	data, err := s.client.Generate(ctx, s.render(prompt))
	if err != nil {
		s.session.FailGeneration(ticket)
		s.logf(slog.LevelError, "generate failed", "error", err)
		return err
	}
	img, err := mask.RemoveEncoded(bytes.NewReader(data), s.mask)
	if err != nil {
		s.session.FailGeneration(ticket)
		s.logf(slog.LevelError, "generate decode failed", "error", err)
		return fmt.Errorf("generate: %w", err)
	}
	if !s.session.CompleteGeneration(ticket, img) {
		s.logf(slog.LevelInfo, "generation result dropped", "reason", "mode changed")
		return nil
	}
	s.logf(slog.LevelInfo, "generation done", "width", img.Rect.Dx(), "height", img.Rect.Dy(), "elapsed", time.Since(start))
	return nil
}

func (s *Service) render(prompt string) string {
	if s.template == "" || !strings.Contains(s.template, "%s") {
		return prompt
	}
	return fmt.Sprintf(s.template, prompt)
}

func (s *Service) logf(level slog.Level, msg string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Log(context.Background(), level, msg, args...)
}
