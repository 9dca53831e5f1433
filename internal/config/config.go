// Package config loads blending tool settings from TOML or YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/vearutop/texblend"
	"github.com/vearutop/texblend/internal/imageio"
	"gopkg.in/yaml.v3"
)

// Config holds tool settings.
type Config struct {
	Resampler     string `toml:"resampler" yaml:"resampler"`         // kernel, nfnt or xdraw
	Interpolation string `toml:"interpolation" yaml:"interpolation"` // nearest, bilinear, bicubic, mitchell, lanczos2, lanczos3
	JPEGQuality   int    `toml:"jpeg_quality" yaml:"jpeg_quality"`
	OutputDir     string `toml:"output_dir" yaml:"output_dir"`
	OutputFormat  string `toml:"output_format" yaml:"output_format"` // png, jpg, tif, bmp
	LogLevel      string `toml:"log_level" yaml:"log_level"`
	LogFormat     string `toml:"log_format" yaml:"log_format"` // text or json
	Workers       int    `toml:"workers" yaml:"workers"`
}

var (
	// ErrUnknownFormat is returned for config files that are neither TOML nor YAML.
	ErrUnknownFormat = errors.New("config: unknown file format")
	// ErrInvalid is returned by Validate.
	ErrInvalid = errors.New("config: invalid value")
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Resampler:     texblend.BackendKernel,
		Interpolation: "bilinear",
		JPEGQuality:   95,
		OutputDir:     ".",
		OutputFormat:  "png",
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// Load reads path and merges it over the defaults.
// A missing file is reported with an error wrapping os.ErrNotExist.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var file Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&file)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&file)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg := Merge(Default(), &file)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge overlays non-zero fields of override onto base and returns base.
func Merge(base, override *Config) *Config {
	if override == nil {
		return base
	}
	if override.Resampler != "" {
		base.Resampler = override.Resampler
	}
	if override.Interpolation != "" {
		base.Interpolation = override.Interpolation
	}
	if override.JPEGQuality != 0 {
		base.JPEGQuality = override.JPEGQuality
	}
	if override.OutputDir != "" {
		base.OutputDir = override.OutputDir
	}
	if override.OutputFormat != "" {
		base.OutputFormat = override.OutputFormat
	}
	if override.LogLevel != "" {
		base.LogLevel = override.LogLevel
	}
	if override.LogFormat != "" {
		base.LogFormat = override.LogFormat
	}
	if override.Workers != 0 {
		base.Workers = override.Workers
	}
	return base
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if _, err := c.NewResampler(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("%w: jpeg_quality %d out of range 1..100", ErrInvalid, c.JPEGQuality)
	}
	if _, err := c.Format(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalid, c.LogFormat)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d", ErrInvalid, c.Workers)
	}
	return nil
}

// NewResampler builds the configured resampler.
func (c *Config) NewResampler() (texblend.Resampler, error) {
	return texblend.NewResampler(c.Resampler, c.Interpolation)
}

// Format resolves OutputFormat.
func (c *Config) Format() (imageio.Format, error) {
	return imageio.FormatFromPath("out." + strings.TrimPrefix(c.OutputFormat, "."))
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, err
	}
	return l, nil
}

// NewLogger builds a logger writing to w per LogLevel and LogFormat.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := c.Level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
