package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/l3aro/jackal-flow/pkg/flow"
	"gopkg.in/yaml.v3"
)

// RendererType represents the diagram renderer backend
type RendererType string

const (
	RendererKroki RendererType = "kroki"
	RendererMmdc  RendererType = "mmdc"
)

// Config holds all configuration for jackal-flow
type Config struct {
	// Source recognition
	CommentPrefix   string   `yaml:"comment_prefix" env:"JFLOW_COMMENT_PREFIX"`
	BindingKeywords []string `yaml:"binding_keywords" env:"JFLOW_BINDING_KEYWORDS"`

	// Diagram direction (TD or LR)
	Direction string `yaml:"direction" env:"JFLOW_DIRECTION"`

	// Renderer settings
	Renderer      RendererType  `yaml:"renderer" env:"JFLOW_RENDERER"`
	KrokiURL      string        `yaml:"kroki_url" env:"JFLOW_KROKI_URL"`
	MmdcPath      string        `yaml:"mmdc_path" env:"JFLOW_MMDC_PATH"`
	Theme         string        `yaml:"theme" env:"JFLOW_THEME"`
	RenderTimeout time.Duration `yaml:"render_timeout" env:"JFLOW_RENDER_TIMEOUT"`

	// Diagram cache
	CacheSize int    `yaml:"cache_size" env:"JFLOW_CACHE_SIZE"`
	CachePath string `yaml:"cache_path" env:"JFLOW_CACHE_PATH"`

	// Tooltip preview length
	PreviewItems int `yaml:"preview_items" env:"JFLOW_PREVIEW_ITEMS"`

	// Server and watcher
	ListenAddr    string        `yaml:"listen_addr" env:"JFLOW_LISTEN_ADDR"`
	WatchDebounce time.Duration `yaml:"watch_debounce" env:"JFLOW_WATCH_DEBOUNCE"`

	// Logging
	Verbose  bool   `yaml:"verbose" env:"JFLOW_VERBOSE"`
	LogLevel string `yaml:"log_level" env:"JFLOW_LOG_LEVEL"`
	LogJSON  bool   `yaml:"log_json" env:"JFLOW_LOG_JSON"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		CommentPrefix:   flow.DefaultCommentPrefix,
		BindingKeywords: []string{"let"},
		Direction:       flow.DirectionTopDown,
		Renderer:        RendererKroki,
		KrokiURL:        "https://kroki.io",
		MmdcPath:        "mmdc",
		Theme:           "dark",
		RenderTimeout:   10 * time.Second,
		CacheSize:       256,
		CachePath:       defaultCachePath(),
		PreviewItems:    3,
		ListenAddr:      "127.0.0.1:5050",
		WatchDebounce:   150 * time.Millisecond,
		Verbose:         false,
		LogLevel:        "info",
		LogJSON:         false,
	}
}

// FlowOptions returns the source recognition options for the extractor.
func (c *Config) FlowOptions() flow.Options {
	return flow.Options{
		CommentPrefix:   c.CommentPrefix,
		BindingKeywords: c.BindingKeywords,
	}
}

// GlobalConfigFilePath returns the global config file path (~/.jflow/config.yaml)
func GlobalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".jflow", "config.yaml")
	}
	return filepath.Join(home, ".jflow", "config.yaml")
}

// ProjectConfigFilePath returns the project-level config file path (./.jflow/config.yaml)
func ProjectConfigFilePath() string {
	return filepath.Join(".jflow", "config.yaml")
}

// defaultCachePath returns the default diagram cache location (~/.jflow/diagrams.msgpack)
func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".jflow", "diagrams.msgpack")
	}
	return filepath.Join(home, ".jflow", "diagrams.msgpack")
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables (including a ./.env file)
// 2. Project-level config (./.jflow/config.yaml)
// 3. Global config (~/.jflow/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range []string{GlobalConfigFilePath(), ProjectConfigFilePath()} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// A missing .env file is fine
	_ = godotenv.Load()
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("JFLOW_COMMENT_PREFIX"); v != "" {
		cfg.CommentPrefix = v
	}
	if v := os.Getenv("JFLOW_BINDING_KEYWORDS"); v != "" {
		cfg.BindingKeywords = splitList(v)
	}
	if v := os.Getenv("JFLOW_DIRECTION"); v != "" {
		cfg.Direction = v
	}
	if v := os.Getenv("JFLOW_RENDERER"); v != "" {
		cfg.Renderer = RendererType(v)
	}
	if v := os.Getenv("JFLOW_KROKI_URL"); v != "" {
		cfg.KrokiURL = v
	}
	if v := os.Getenv("JFLOW_MMDC_PATH"); v != "" {
		cfg.MmdcPath = v
	}
	if v := os.Getenv("JFLOW_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("JFLOW_RENDER_TIMEOUT"); v != "" {
		if d := parseDuration(v); d > 0 {
			cfg.RenderTimeout = d
		}
	}
	if v := os.Getenv("JFLOW_CACHE_SIZE"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.CacheSize = i
		}
	}
	if v := os.Getenv("JFLOW_CACHE_PATH"); v != "" {
		cfg.CachePath = v
	}
	if v := os.Getenv("JFLOW_PREVIEW_ITEMS"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.PreviewItems = i
		}
	}
	if v := os.Getenv("JFLOW_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("JFLOW_WATCH_DEBOUNCE"); v != "" {
		if d := parseDuration(v); d > 0 {
			cfg.WatchDebounce = d
		}
	}
	if v := os.Getenv("JFLOW_VERBOSE"); v != "" {
		cfg.Verbose = parseBool(v)
	}
	if v := os.Getenv("JFLOW_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("JFLOW_LOG_JSON"); v != "" {
		cfg.LogJSON = parseBool(v)
	}
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	if strings.TrimSpace(c.CommentPrefix) == "" {
		return fmt.Errorf("comment_prefix must not be empty")
	}

	for _, kw := range c.BindingKeywords {
		if strings.TrimSpace(kw) == "" || strings.ContainsAny(kw, " \t") {
			return fmt.Errorf("invalid binding keyword %q", kw)
		}
	}

	switch strings.ToUpper(c.Direction) {
	case flow.DirectionTopDown, flow.DirectionLeftRight, "TB":
	default:
		return fmt.Errorf("invalid direction: %s (must be 'TD' or 'LR')", c.Direction)
	}

	switch c.Renderer {
	case RendererKroki:
		if c.KrokiURL == "" {
			return fmt.Errorf("kroki_url is required when renderer is kroki")
		}
		if !strings.HasPrefix(c.KrokiURL, "http://") && !strings.HasPrefix(c.KrokiURL, "https://") {
			return fmt.Errorf("kroki_url must start with http:// or https://")
		}
	case RendererMmdc:
		if c.MmdcPath == "" {
			return fmt.Errorf("mmdc_path is required when renderer is mmdc")
		}
	default:
		return fmt.Errorf("invalid renderer: %s (must be 'kroki' or 'mmdc')", c.Renderer)
	}

	if c.RenderTimeout < 0 {
		return fmt.Errorf("render_timeout must be non-negative")
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache_size must be positive")
	}
	if c.PreviewItems <= 0 {
		return fmt.Errorf("preview_items must be positive")
	}
	if c.WatchDebounce < 0 {
		return fmt.Errorf("watch_debounce must be non-negative")
	}

	return nil
}

// splitList splits a comma separated list, dropping empty items
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseBool accepts true/1/yes
func parseBool(s string) bool {
	return s == "true" || s == "1" || s == "yes"
}

// parseDuration attempts to parse a string as time.Duration
func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// parseInt attempts to parse a string as int
func parseInt(s string) int {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0
	}
	return i
}
