package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "manbook.yaml"

// Formats lists the supported document formats.
var Formats = []string{"pdf", "txt", "html"}

// ProgressModes lists the supported progress reporter modes.
var ProgressModes = []string{"auto", "tui", "log", "off"}

// Config is the YAML schema of the manbook configuration file.
type Config struct {
	Title        string        `yaml:"title"`
	Output       string        `yaml:"output"`
	Format       string        `yaml:"format"`
	Concurrency  int           `yaml:"concurrency"`
	ListTimeout  time.Duration `yaml:"list_timeout"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	GracePeriod  time.Duration `yaml:"grace_period"`
	ListCommand  []string      `yaml:"list_command"`
	ManCommand   []string      `yaml:"man_command"`
	Progress     string        `yaml:"progress"`
	FailuresLog  string        `yaml:"failures_log"`
	MetricsFile  string        `yaml:"metrics_file"`
	Layout       Layout        `yaml:"layout"`
}

// Layout controls page geometry of the generated document.
type Layout struct {
	Width               int  `yaml:"width"`
	Height              int  `yaml:"height"`
	CompactPlaceholders bool `yaml:"compact_placeholders"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Title:        "Man Pages for Termux Packages",
		Output:       "termux_man_pages.pdf",
		Concurrency:  runtime.GOMAXPROCS(0),
		ListTimeout:  2 * time.Minute,
		FetchTimeout: 30 * time.Second,
		GracePeriod:  5 * time.Second,
		ListCommand:  []string{"pkg", "list-all"},
		ManCommand:   []string{"man"},
		Progress:     "auto",
		Layout: Layout{
			Width:               96,
			Height:              60,
			CompactPlaceholders: true,
		},
	}
}

// DefaultPath returns the config path from MANBOOK_CONFIG_FILE, falling
// back to manbook.yaml in the working directory.
func DefaultPath() string {
	if path := os.Getenv("MANBOOK_CONFIG_FILE"); path != "" {
		return path
	}
	return defaultConfigPath
}

// Load reads the file at path over the defaults. When required is false a
// missing file yields the defaults.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", filepath.Base(path), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Output) == "" {
		return errors.New("config output is required")
	}
	if c.Format != "" && !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("config format %q is not one of %s", c.Format, strings.Join(Formats, ", "))
	}
	if c.Concurrency < 1 {
		return errors.New("config concurrency must be at least 1")
	}
	if c.ListTimeout <= 0 || c.FetchTimeout <= 0 {
		return errors.New("config timeouts must be positive")
	}
	if c.GracePeriod < 0 {
		return errors.New("config grace_period must not be negative")
	}
	if len(c.ListCommand) == 0 || c.ListCommand[0] == "" {
		return errors.New("config list_command is required")
	}
	if len(c.ManCommand) == 0 || c.ManCommand[0] == "" {
		return errors.New("config man_command is required")
	}
	if !slices.Contains(ProgressModes, c.Progress) {
		return fmt.Errorf("config progress %q is not one of %s", c.Progress, strings.Join(ProgressModes, ", "))
	}
	if c.Layout.Width < 40 {
		return errors.New("config layout.width must be at least 40")
	}
	if c.Layout.Height < 10 {
		return errors.New("config layout.height must be at least 10")
	}
	return nil
}

// DocumentFormat returns the explicit format or infers it from the
// output file extension.
func (c *Config) DocumentFormat() string {
	if c.Format != "" {
		return c.Format
	}
	switch strings.ToLower(filepath.Ext(c.Output)) {
	case ".txt", ".text":
		return "txt"
	case ".html", ".htm":
		return "html"
	default:
		return "pdf"
	}
}
