package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for composition, capture and export.
// Fields may be loaded from a JSON (or YAML) file and overridden by command-line flags.
type Config struct {
	Debug bool `json:"debug" yaml:"debug"`

	// Capture region
	Layout     string `json:"layout" yaml:"layout"` // auto | compact | expanded
	ThrottleMS int    `json:"throttle_ms" yaml:"throttle_ms"`
	SettleMS   int    `json:"settle_ms" yaml:"settle_ms"`
	Rasterizer string `json:"rasterizer" yaml:"rasterizer"` // scene | screen | page

	// Composition defaults
	BackgroundColor     string `json:"background_color" yaml:"background_color"`
	ContentScalePercent int    `json:"content_scale_percent" yaml:"content_scale_percent"`
	FontPath            string `json:"font_path" yaml:"font_path"`

	// Output
	OutputName string `json:"output_name" yaml:"output_name"`
	OutputDir  string `json:"output_dir" yaml:"output_dir"`

	// Page rasterizer (headless browser)
	PageURL      string `json:"page_url" yaml:"page_url"`
	PageSelector string `json:"page_selector" yaml:"page_selector"`

	// Bitmap generation
	GenerationURL            string `json:"generation_url" yaml:"generation_url"`
	GenerationModel          string `json:"generation_model" yaml:"generation_model"`
	GenerationSize           string `json:"generation_size" yaml:"generation_size"`
	PromptTemplate           string `json:"prompt_template" yaml:"prompt_template"`
	APIKeyEnv                string `json:"api_key_env" yaml:"api_key_env"`
	GenerationTimeoutSeconds int    `json:"generation_timeout_seconds" yaml:"generation_timeout_seconds"`

	ServerAddr string `json:"server_addr" yaml:"server_addr"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:                    false,
		Layout:                   "auto",
		ThrottleMS:               300,
		SettleMS:                 250,
		Rasterizer:               "scene",
		BackgroundColor:          "#FFF4E7",
		ContentScalePercent:      80,
		OutputName:               "emojipic.png",
		OutputDir:                ".",
		PageSelector:             "#sticker",
		GenerationURL:            "https://api.openai.com/v1/images/generations",
		GenerationModel:          "dall-e-3",
		GenerationSize:           "1024x1024",
		PromptTemplate:           "%s, single emoji style sticker, centered, plain solid white background",
		APIKeyEnv:                "OPENAI_API_KEY",
		GenerationTimeoutSeconds: 90,
		ServerAddr:               ":8080",
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Layout)) {
	case "compact", "expanded", "auto":
		c.Layout = strings.ToLower(strings.TrimSpace(c.Layout))
	default:
		c.Layout = "auto"
	}
	if c.ThrottleMS <= 0 {
		c.ThrottleMS = 300
	}
	if c.SettleMS < 0 {
		c.SettleMS = 0
	}
	switch c.Rasterizer {
	case "scene", "screen", "page":
	default:
		c.Rasterizer = "scene"
	}
	if strings.TrimSpace(c.BackgroundColor) == "" {
		c.BackgroundColor = "#FFF4E7"
	}
	if c.ContentScalePercent < 10 {
		c.ContentScalePercent = 10
	}
	if c.ContentScalePercent > 100 {
		c.ContentScalePercent = 100
	}
	if strings.TrimSpace(c.OutputName) == "" {
		c.OutputName = "emojipic.png"
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.PageSelector == "" {
		c.PageSelector = "#sticker"
	}
	if c.PromptTemplate == "" || !strings.Contains(c.PromptTemplate, "%s") {
		c.PromptTemplate = "%s"
	}
	if c.GenerationTimeoutSeconds <= 0 {
		c.GenerationTimeoutSeconds = 90
	}
	if c.ServerAddr == "" {
		c.ServerAddr = ":8080"
	}
	return nil
}

// Throttle returns the capture-region sampling interval.
func (c *Config) Throttle() time.Duration { return time.Duration(c.ThrottleMS) * time.Millisecond }

// Settle returns the paint settling delay applied before capturing a fresh bitmap.
func (c *Config) Settle() time.Duration { return time.Duration(c.SettleMS) * time.Millisecond }

// GenerationTimeout bounds a single bitmap generation request.
func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.GenerationTimeoutSeconds) * time.Second
}

// APIKey reads the generation credential from the configured environment variable.
func (c *Config) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(c.APIKeyEnv))
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load attempts to read configuration from the given file path. If the file does not
// exist it returns DefaultConfig(). On decode error it returns defaults with the error.
// Files ending in .yaml or .yml are decoded as YAML, everything else as JSON.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return DefaultConfig(), err
	}
	_ = cfg.Validate()
	return cfg, nil
}

// Save writes the configuration to the given path, as YAML or JSON depending on extension.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
