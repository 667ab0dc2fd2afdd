// Package config holds the server configuration and loads it from a YAML file.
// Environment variables and command line flags are applied on top by main.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"pdfpro/artifact"
	"pdfpro/pdf"
)

const (
	// DefaultPort is the default server port
	DefaultPort = "8080"

	// DefaultMaxFileSize is the default maximum size of one uploaded file (100MB)
	DefaultMaxFileSize = 100 * 1024 * 1024

	// DefaultMaxFiles is the default maximum number of files per request
	DefaultMaxFiles = 20

	// DefaultUploadDir holds uploaded inputs
	DefaultUploadDir = "./uploads"

	// DefaultTempDir holds generated outputs
	DefaultTempDir = "./temp"

	// DefaultLogLevel is used when no level is configured
	DefaultLogLevel = "info"

	// DefaultLogFormat is "text" or "json"
	DefaultLogFormat = "text"
)

// Config holds application configuration
type Config struct {
	Port          string        `yaml:"port"`
	MaxFileSize   int64         `yaml:"max_file_size"`
	MaxFiles      int           `yaml:"max_files"`
	UploadDir     string        `yaml:"upload_dir"`
	TempDir       string        `yaml:"temp_dir"`
	Retention     time.Duration `yaml:"retention"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	ImageFallback string        `yaml:"image_fallback"`
	Rasterizer    string        `yaml:"rasterizer"`
	LogLevel      string        `yaml:"log_level"`
	LogFormat     string        `yaml:"log_format"`
	CORSOrigins   []string      `yaml:"cors_origins"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() *Config {
	return &Config{
		Port:          DefaultPort,
		MaxFileSize:   DefaultMaxFileSize,
		MaxFiles:      DefaultMaxFiles,
		UploadDir:     DefaultUploadDir,
		TempDir:       DefaultTempDir,
		Retention:     artifact.DefaultRetention,
		SweepInterval: artifact.DefaultSweepInterval,
		ImageFallback: pdf.FallbackTranscode,
		Rasterizer:    pdf.DefaultRasterizer,
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
		CORSOrigins:   []string{"*"},
	}
}

// LoadFile reads a YAML file over the defaults. Keys missing from the file keep their
// default values.
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// MaxRequestSize caps the body of one request: every allowed file plus form overhead.
func (c *Config) MaxRequestSize() int64 {
	return int64(c.MaxFiles)*c.MaxFileSize + 1<<20
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if c.MaxFileSize <= 0 {
		errs = append(errs, fmt.Errorf("max file size must be positive, got %d", c.MaxFileSize))
	}
	if c.MaxFiles < 2 {
		errs = append(errs, fmt.Errorf("max files must be at least 2, got %d", c.MaxFiles))
	}
	if c.UploadDir == "" || c.TempDir == "" {
		errs = append(errs, errors.New("upload and temp directories are required"))
	}
	if c.Retention <= 0 {
		errs = append(errs, fmt.Errorf("retention must be positive, got %s", c.Retention))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("sweep interval must be positive, got %s", c.SweepInterval))
	}
	if c.ImageFallback != pdf.FallbackTranscode && c.ImageFallback != pdf.FallbackSkip {
		errs = append(errs, fmt.Errorf("image fallback must be %q or %q, got %q", pdf.FallbackTranscode, pdf.FallbackSkip, c.ImageFallback))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log format must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}
