// Package config loads logomotion settings from .env files, an optional YAML
// file and environment overrides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"logomotion/gemini"
)

// Client defaults live in the gemini package; config only re-exports them.
const (
	DefaultBaseURL      = gemini.BaseURL
	DefaultImageModel   = gemini.DefaultImageModel
	DefaultVideoModel   = gemini.DefaultVideoModel
	DefaultPollInterval = gemini.DefaultPollInterval
	DefaultTimeout      = gemini.DefaultTimeout

	// DefaultUpdateRepo is the release slug checked by -update
	DefaultUpdateRepo = "logomotion/logomotion"

	// DefaultDebugLogFile receives debug logs when no log file is set
	DefaultDebugLogFile = "logomotion-debug.log"
)

// Config holds everything except the API key, which is resolved per call.
type Config struct {
	BaseURL      string        `yaml:"base_url"`
	ImageModel   string        `yaml:"image_model"`
	VideoModel   string        `yaml:"video_model"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Timeout      time.Duration `yaml:"timeout"`

	// OutputDir holds downloaded videos; empty means a temp dir
	OutputDir string `yaml:"output_dir"`

	LogFile    string `yaml:"log_file"`
	Debug      bool   `yaml:"debug"`
	UpdateRepo string `yaml:"update_repo"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BaseURL:      DefaultBaseURL,
		ImageModel:   DefaultImageModel,
		VideoModel:   DefaultVideoModel,
		PollInterval: DefaultPollInterval,
		Timeout:      DefaultTimeout,
		UpdateRepo:   DefaultUpdateRepo,
	}
}

// Load builds a Config. A missing .env file is not an error; a YAML file that
// was asked for (by argument or LOGOMOTION_CONFIG) must exist.
func Load(path string) (*Config, error) {
	// Load .env file if it exists (won't error if missing)
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv("LOGOMOTION_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("GEMINI_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("LOGOMOTION_IMAGE_MODEL"); v != "" {
		c.ImageModel = v
	}
	if v := os.Getenv("LOGOMOTION_VIDEO_MODEL"); v != "" {
		c.VideoModel = v
	}
	if v := os.Getenv("LOGOMOTION_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("LOGOMOTION_POLL_INTERVAL: %w", err)
		}
		c.PollInterval = d
	}
	if v := os.Getenv("LOGOMOTION_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("LOGOMOTION_LOG_FILE"); v != "" {
		c.LogFile = v
	}
	if v := os.Getenv("LOGOMOTION_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			// any other non-empty value turns debug on
			debug = true
		}
		c.Debug = debug
	}
	if v := os.Getenv("LOGOMOTION_UPDATE_REPO"); v != "" {
		c.UpdateRepo = v
	}
	return nil
}

// Validate checks the values that would otherwise fail deep inside a request.
func (c *Config) Validate() error {
	parsed, err := url.Parse(c.BaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("invalid base_url %q", c.BaseURL)
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")

	if c.ImageModel == "" {
		return fmt.Errorf("image_model is required")
	}
	if c.VideoModel == "" {
		return fmt.Errorf("video_model is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}
