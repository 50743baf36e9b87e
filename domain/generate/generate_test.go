package generate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/soocke/emojipic/domain/compose"
	"github.com/soocke/emojipic/domain/mask"
)

// sticker returns a PNG with white corners and a coloured centre square.
func sticker(t *testing.T, side int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			c := color.NRGBA{255, 255, 255, 255}
			if x >= side/4 && x < 3*side/4 && y >= side/4 && y < 3*side/4 {
				c = color.NRGBA{30, 90, 200, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type fakeClient struct {
	mu      sync.Mutex
	data    []byte
	err     error
	prompts []string
	release chan struct{}
}

func (f *fakeClient) Generate(ctx context.Context, prompt string) ([]byte, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.release != nil {
		<-f.release
	}
	return f.data, f.err
}

func generatedSession() *compose.Session {
	s := compose.NewSession(compose.RGB{R: 255, G: 255, B: 255}, "A", 80)
	s.SetMode(compose.ModeGenerated)
	return s
}

func TestService_MasksGeneratedBitmap(t *testing.T) {
	sess := generatedSession()
	fc := &fakeClient{data: sticker(t, 64)}
	svc := NewService(fc, sess, Options{PromptTemplate: "%s, sticker"})
	if err := svc.Generate(context.Background(), " happy cat "); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if fc.prompts[0] != "happy cat, sticker" {
		t.Fatalf("unexpected prompt %q", fc.prompts[0])
	}
	st := sess.Snapshot()
	img, ok := st.Bitmap()
	if !ok {
		t.Fatalf("expected generated bitmap")
	}
	if !st.Fresh || sess.Generating() {
		t.Fatalf("expected fresh bitmap and idle session")
	}
	for _, p := range mask.Corners(img.Bounds()) {
		if a := img.NRGBAAt(p.X, p.Y).A; a != 0 {
			t.Fatalf("corner %v alpha %d, want 0", p, a)
		}
	}
	if c := img.NRGBAAt(32, 32); c != (color.NRGBA{30, 90, 200, 255}) {
		t.Fatalf("centre changed: %+v", c)
	}
}

func TestService_FailureSurfacesOnce(t *testing.T) {
	sess := generatedSession()
	netErr := errors.New("connection reset")
	svc := NewService(&fakeClient{err: netErr}, sess, Options{})
	err := svc.Generate(context.Background(), "dog")
	if !errors.Is(err, netErr) {
		t.Fatalf("expected network error, got %v", err)
	}
	if sess.Generating() {
		t.Fatalf("session must leave generating state")
	}
	if _, ok := sess.Snapshot().Bitmap(); ok {
		t.Fatalf("no bitmap expected after failure")
	}
}

func TestService_DecodeFailureLeavesNoContent(t *testing.T) {
	sess := generatedSession()
	svc := NewService(&fakeClient{data: []byte("garbage")}, sess, Options{})
	if err := svc.Generate(context.Background(), "dog"); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, ok := sess.Snapshot().Bitmap(); ok || sess.Generating() {
		t.Fatalf("decode failure must leave no content and not generating")
	}
}

func TestService_SecondRequestRejectedWhileInFlight(t *testing.T) {
	sess := generatedSession()
	fc := &fakeClient{data: sticker(t, 16), release: make(chan struct{})}
	svc := NewService(fc, sess, Options{})
	done := make(chan error, 1)
	go func() { done <- svc.Generate(context.Background(), "first") }()

	deadline := time.Now().Add(time.Second)
	for !sess.Generating() && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if err := svc.Generate(context.Background(), "second"); !errors.Is(err, compose.ErrGenerationInFlight) {
		t.Fatalf("expected in-flight rejection, got %v", err)
	}
	close(fc.release)
	if err := <-done; err != nil {
		t.Fatalf("first request: %v", err)
	}
	if len(fc.prompts) != 1 {
		t.Fatalf("expected exactly one upstream call, got %d", len(fc.prompts))
	}
}

func TestService_ResultDroppedAfterModeSwitch(t *testing.T) {
	sess := generatedSession()
	fc := &fakeClient{data: sticker(t, 16), release: make(chan struct{})}
	svc := NewService(fc, sess, Options{})
	done := make(chan error, 1)
	go func() { done <- svc.Generate(context.Background(), "cat") }()
	deadline := time.Now().Add(time.Second)
	for !sess.Generating() && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	sess.SetMode(compose.ModePasted)
	close(fc.release)
	if err := <-done; err != nil {
		t.Fatalf("dropped result is not an error: %v", err)
	}
	sess.SetMode(compose.ModeGenerated)
	if _, ok := sess.Snapshot().Bitmap(); ok {
		t.Fatalf("late result must not be shown")
	}
}

func TestService_EmptyPrompt(t *testing.T) {
	svc := NewService(&fakeClient{}, generatedSession(), Options{})
	if err := svc.Generate(context.Background(), "   "); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt, got %v", err)
	}
}

func TestHTTPClient_DecodesBase64Payload(t *testing.T) {
	payload := sticker(t, 8)
	var got imageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString(payload)}},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "dall-e-3", "1024x1024", "sk-test", 5*time.Second)
	data, err := c.Generate(context.Background(), "a frog")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Fatalf("payload mismatch")
	}
	if got.Prompt != "a frog" || got.ResponseFormat != "b64_json" || got.N != 1 || got.Model != "dall-e-3" {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestHTTPClient_Errors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"api error", http.StatusBadRequest, `{"error":{"message":"content policy"}}`, func(err error) bool {
			return err != nil && bytes.Contains([]byte(err.Error()), []byte("content policy"))
		}},
		{"missing payload", http.StatusOK, `{"data":[]}`, func(err error) bool { return errors.Is(err, ErrNoPayload) }},
		{"malformed", http.StatusOK, `{"data":`, func(err error) bool { return err != nil }},
		{"bad base64", http.StatusOK, `{"data":[{"b64_json":"%%%"}]}`, func(err error) bool { return err != nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()
			_, err := NewHTTPClient(srv.URL, "", "", "k", time.Second).Generate(context.Background(), "x")
			if !tc.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestHTTPClient_NoCredentials(t *testing.T) {
	if _, err := NewHTTPClient("http://127.0.0.1:1", "", "", "", time.Second).Generate(context.Background(), "x"); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}
}
