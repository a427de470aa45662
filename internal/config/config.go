// Package config handles loading and resolving fauna configuration.
// Resolution order (first non-empty value wins):
//  1. CLI flags (--src and friends, applied by the command layer)
//  2. Environment variables FAUNA_SOURCE, FAUNA_DB_PATH, FAUNA_S3_ENDPOINT
//  3. config.json in the current working directory
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultConfigFile = "config.json"
	DefaultFormat     = "table"
	DefaultTimeout    = 30 * time.Second
	DefaultRate       = 2.0
	DefaultWidth      = 800
	DefaultHeight     = 500
	DefaultMinWidth   = 600
	DefaultMinHeight  = 400
	DefaultListenAddr = ":8080"
	DefaultS3Region   = "us-east-1"

	EnvSource     = "FAUNA_SOURCE"
	EnvDBPath     = "FAUNA_DB_PATH"
	EnvS3Endpoint = "FAUNA_S3_ENDPOINT"
)

// ErrNoSource is returned by RequireSource when no locator is configured.
var ErrNoSource = errors.New(
	"no data source configured.\n\n" +
		"Set it one of these ways:\n" +
		"  1. CLI flag:        fauna --src species.csv ...\n" +
		"  2. Environment:     export FAUNA_SOURCE=species.csv\n" +
		"  3. config.json:     {\"source\": \"species.csv\"}",
)

// File is the on-disk representation of config.json.
type File struct {
	Source        string  `json:"source"`
	DefaultFormat string  `json:"default_format"`
	Timeout       string  `json:"timeout"`
	Rate          float64 `json:"rate"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	MinWidth      float64 `json:"min_width"`
	MinHeight     float64 `json:"min_height"`
	DBPath        string  `json:"db_path"`
	ListenAddr    string  `json:"listen_addr"`
	S3Region      string  `json:"s3_region"`
	S3Endpoint    string  `json:"s3_endpoint"`
	S3PathStyle   bool    `json:"s3_path_style"`
}

// Config is the fully-resolved runtime configuration.
// All callers use this struct; the File is only read during loading.
type Config struct {
	Source      string
	Format      string
	Timeout     time.Duration
	Rate        float64
	Width       float64
	Height      float64
	MinWidth    float64
	MinHeight   float64
	DBPath      string
	ListenAddr  string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
	ConfigPath  string // path of the config.json that was loaded (empty if none found)

	// Runtime overrides set from CLI flags after Load()
	Quiet   bool
	Verbose bool
	Debug   bool
}

// Load resolves configuration from all sources.
// flagSource is the value of --src (empty string if not set).
func Load(flagSource string) (*Config, error) {
	cfg := &Config{
		Format:     DefaultFormat,
		Timeout:    DefaultTimeout,
		Rate:       DefaultRate,
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		MinWidth:   DefaultMinWidth,
		MinHeight:  DefaultMinHeight,
		ListenAddr: DefaultListenAddr,
		S3Region:   DefaultS3Region,
	}

	// Layer 1: config.json (lowest priority). A missing file is fine; a
	// malformed one is not.
	f, path, err := loadFile()
	switch {
	case err == nil:
		applyFile(cfg, f, path)
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	// Layer 2: environment
	if v := os.Getenv(EnvSource); v != "" {
		cfg.Source = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvS3Endpoint); v != "" {
		cfg.S3Endpoint = v
	}

	// Layer 3: CLI flag (highest priority)
	if flagSource != "" {
		cfg.Source = flagSource
	}

	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.DBPath = filepath.Join(home, ".fauna", "fauna.db")
		}
	}

	return cfg, nil
}

// Validate checks resolved values for consistency.
func (c *Config) Validate() error {
	switch {
	case c.Timeout <= 0:
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	case c.Rate <= 0:
		return fmt.Errorf("rate must be positive, got %g", c.Rate)
	case c.MinWidth <= 0 || c.MinHeight <= 0:
		return fmt.Errorf("minimum size must be positive, got %gx%g", c.MinWidth, c.MinHeight)
	}
	return nil
}

// RequireSource returns ErrNoSource when no locator is configured.
func (c *Config) RequireSource() error {
	if c.Source == "" {
		return ErrNoSource
	}
	return nil
}

// loadFile attempts to read config.json from the current working directory.
// A missing file yields an error wrapping os.ErrNotExist.
func loadFile() (*File, string, error) {
	path, err := filepath.Abs(DefaultConfigFile)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("config.json not found at %s: %w", path, os.ErrNotExist)
		}
		return nil, "", fmt.Errorf("reading config.json: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, "", fmt.Errorf("parsing config.json: %w", err)
	}
	return &f, path, nil
}

// applyFile copies values from a parsed File into cfg,
// skipping any fields that are zero/empty.
func applyFile(cfg *Config, f *File, path string) {
	cfg.ConfigPath = path
	if f.Source != "" {
		cfg.Source = f.Source
	}
	if f.DefaultFormat != "" {
		cfg.Format = f.DefaultFormat
	}
	if f.Timeout != "" {
		if d, err := time.ParseDuration(f.Timeout); err == nil {
			cfg.Timeout = d
		}
	}
	if f.Rate > 0 {
		cfg.Rate = f.Rate
	}
	if f.Width > 0 {
		cfg.Width = f.Width
	}
	if f.Height > 0 {
		cfg.Height = f.Height
	}
	if f.MinWidth > 0 {
		cfg.MinWidth = f.MinWidth
	}
	if f.MinHeight > 0 {
		cfg.MinHeight = f.MinHeight
	}
	if f.DBPath != "" {
		cfg.DBPath = f.DBPath
	}
	if f.ListenAddr != "" {
		cfg.ListenAddr = f.ListenAddr
	}
	if f.S3Region != "" {
		cfg.S3Region = f.S3Region
	}
	if f.S3Endpoint != "" {
		cfg.S3Endpoint = f.S3Endpoint
	}
	if f.S3PathStyle {
		cfg.S3PathStyle = true
	}
}

// Template returns a File populated with sensible defaults, suitable for
// writing an initial config.json via `fauna config init`.
func Template() File {
	return File{
		Source:        "",
		DefaultFormat: DefaultFormat,
		Timeout:       DefaultTimeout.String(),
		Rate:          DefaultRate,
		Width:         DefaultWidth,
		Height:        DefaultHeight,
		MinWidth:      DefaultMinWidth,
		MinHeight:     DefaultMinHeight,
		ListenAddr:    DefaultListenAddr,
		S3Region:      DefaultS3Region,
	}
}

// WriteFile serialises a File to the given path.
func WriteFile(path string, f File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0600)
}
