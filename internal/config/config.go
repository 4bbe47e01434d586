package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// Config is resolved from defaults, then an optional TOML file, then
// environment variables (highest precedence).
type Config struct {
	Addr string `toml:"addr" env:"EDITOR_ADDR"`

	// Dir is the deployment directory: static files, the document and the
	// git working tree all live here.
	Dir        string `toml:"dir" env:"EDITOR_DIR"`
	DataFile   string `toml:"data_file" env:"EDITOR_DATA_FILE"`
	EditorFile string `toml:"editor_file" env:"EDITOR_EDITOR_FILE"`
	VizFile    string `toml:"viz_file" env:"EDITOR_VIZ_FILE"`

	// Activity file for /api/pace. S3 is used when FitS3Bucket is set.
	FitFile       string `toml:"fit_file" env:"EDITOR_FIT_FILE"`
	FitS3Bucket   string `toml:"fit_s3_bucket" env:"EDITOR_FIT_S3_BUCKET"`
	FitS3Key      string `toml:"fit_s3_key" env:"EDITOR_FIT_S3_KEY"`
	FitS3Region   string `toml:"fit_s3_region" env:"EDITOR_FIT_S3_REGION"`
	FitS3Endpoint string `toml:"fit_s3_endpoint" env:"EDITOR_FIT_S3_ENDPOINT"` // for MinIO

	GitTimeout   time.Duration `toml:"git_timeout" env:"EDITOR_GIT_TIMEOUT"`
	HistoryLimit int           `toml:"history_limit" env:"EDITOR_HISTORY_LIMIT"`
	MaxBodyBytes int64         `toml:"max_body_bytes" env:"EDITOR_MAX_BODY"`

	Locale   string `toml:"locale" env:"EDITOR_LOCALE"`     // BCP 47 or POSIX; $LANG when unset
	NATSURL  string `toml:"nats_url" env:"EDITOR_NATS_URL"` // empty = events disabled
	LogLevel string `toml:"log_level" env:"EDITOR_LOG_LEVEL"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:         ":3456",
		Dir:          ".",
		DataFile:     "data.json",
		EditorFile:   "why_I_run_editor.html",
		VizFile:      "why_I_run_viz.html",
		FitFile:      "run.fit",
		FitS3Key:     "run.fit",
		FitS3Region:  "us-east-1",
		GitTimeout:   15 * time.Second,
		HistoryLimit: 20,
		MaxBodyBytes: 5 << 20,
		Locale:       os.Getenv("LANG"),
		LogLevel:     "info",
	}
}

// Load resolves the configuration. path names an optional TOML file; an empty
// path skips it, a missing file is an error.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, c); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found", path)
			}
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.DataFile == "" {
		return errors.New("data_file must not be empty")
	}
	if c.GitTimeout <= 0 {
		return fmt.Errorf("git_timeout must be positive, got %s", c.GitTimeout)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive, got %d", c.HistoryLimit)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive, got %d", c.MaxBodyBytes)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Resolve joins name with the deployment directory unless name is absolute.
func (c *Config) Resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Dir, name)
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
