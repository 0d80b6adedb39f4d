package orion

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/oliverbestmann/parallax/pulse"
	"gopkg.in/yaml.v3"
)

// Platform selects the frame driver.
type Platform string

const (
	PlatformWindow     Platform = "window"
	PlatformCompositor Platform = "compositor"
	PlatformXR         Platform = "xr"
)

// Duration is a time.Duration written as a string like "2s" in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}

	if s == "" {
		return nil
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

type EyeConfig struct {
	Width  uint32 `yaml:"width"`
	Height uint32 `yaml:"height"`

	// images per eye swapchain of the XR runtime
	Images int `yaml:"images"`
}

// Config configures an application built on the frame drivers.
type Config struct {
	Platform Platform     `yaml:"platform"`
	Window   WindowConfig `yaml:"window"`
	Eye      EyeConfig    `yaml:"eye"`

	// linear rgba
	ClearColor []float32 `yaml:"clear_color,omitempty"`

	FenceTimeout      Duration `yaml:"fence_timeout"`
	MaxAcquireRetries int      `yaml:"max_acquire_retries"`
	IdleInterval      Duration `yaml:"idle_interval"`

	// stop after this many frames, zero runs until the window is closed
	Frames uint64 `yaml:"frames"`

	// directory to write a cpu profile to
	Profile string `yaml:"profile,omitempty"`

	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the configuration used for missing values.
func DefaultConfig() Config {
	return Config{
		Platform: PlatformWindow,
		Window: WindowConfig{
			Width:  1000,
			Height: 600,
			Title:  "Parallax",
		},
		Eye: EyeConfig{
			Width:  1440,
			Height: 1600,
			Images: 3,
		},
		FenceTimeout: Duration(pulse.DefaultFenceTimeout),
		IdleInterval: Duration(10 * time.Millisecond),
		LogLevel:     "info",
	}
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig parses a YAML configuration. Missing values are
// taken from DefaultConfig.
func ParseConfig(data []byte) (*Config, error) {
	config := DefaultConfig()

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Platform {
	case PlatformWindow, PlatformCompositor, PlatformXR:
	default:
		return fmt.Errorf("unknown platform %q", c.Platform)
	}

	if len(c.ClearColor) != 0 && len(c.ClearColor) != 4 {
		return fmt.Errorf("clear_color needs 4 components, got %d", len(c.ClearColor))
	}

	if c.Eye.Width == 0 || c.Eye.Height == 0 || c.Eye.Images <= 0 {
		return fmt.Errorf("invalid eye configuration %+v", c.Eye)
	}

	if c.MaxAcquireRetries < 0 {
		return fmt.Errorf("max_acquire_retries must not be negative")
	}

	if _, err := c.Level(); err != nil {
		return err
	}

	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}

	return level, nil
}

func (c *Config) clearColor() *pulse.Color {
	if len(c.ClearColor) != 4 {
		return nil
	}

	color := pulse.ColorLinearRGBA(c.ClearColor[0], c.ClearColor[1], c.ClearColor[2], c.ClearColor[3])
	return &color
}

func (c *Config) WindowOptions() WindowOptions {
	return WindowOptions{
		ClearColor:        c.clearColor(),
		FenceTimeout:      c.FenceTimeout.Duration(),
		MaxAcquireRetries: c.MaxAcquireRetries,
	}
}

func (c *Config) CompositorOptions() CompositorOptions {
	return CompositorOptions{
		ClearColor:   c.clearColor(),
		FenceTimeout: c.FenceTimeout.Duration(),
	}
}

func (c *Config) SessionOptions() SessionOptions {
	return SessionOptions{
		ClearColor:   c.clearColor(),
		FenceTimeout: c.FenceTimeout.Duration(),
		IdleInterval: c.IdleInterval.Duration(),
	}
}
