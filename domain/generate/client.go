package generate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrNoPayload is returned when the service answered without image data.
	ErrNoPayload = errors.New("generate: response carried no image")
	// ErrNoCredentials is returned before any request when no API key is set.
	ErrNoCredentials = errors.New("generate: missing API key")
)

// Client turns a text prompt into encoded image bytes.
type Client interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// HTTPClient calls an OpenAI-compatible images endpoint and asks for a
// base64 payload.
type HTTPClient struct {
	Endpoint string
	Model    string
	Size     string
	APIKey   string
	HTTP     *http.Client
}

// NewHTTPClient returns a client with a bounded HTTP timeout.
func NewHTTPClient(endpoint, model, size, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		Endpoint: endpoint,
		Model:    model,
		Size:     size,
		APIKey:   apiKey,
		HTTP:     &http.Client{Timeout: timeout},
	}
}

type imageRequest struct {
	Model          string `json:"model,omitempty"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size,omitempty"`
	ResponseFormat string `json:"response_format"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *HTTPClient) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if c.APIKey == "" {
		return nil, ErrNoCredentials
	}
	body, err := json.Marshal(imageRequest{Model: c.Model, Prompt: prompt, N: 1, Size: c.Size, ResponseFormat: "b64_json"})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("generate: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate: request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("generate: read response: %w", err)
	}

	var out imageResponse
	decodeErr := json.Unmarshal(raw, &out)
	if resp.StatusCode/100 != 2 {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return nil, fmt.Errorf("generate: status %d: %s", resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("generate: malformed response: %w", decodeErr)
	}
	if len(out.Data) == 0 || out.Data[0].B64JSON == "" {
		return nil, ErrNoPayload
	}
	img, err := base64.StdEncoding.DecodeString(out.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("generate: decode payload: %w", err)
	}
	return img, nil
}
