package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds everything tally reads from config.toml.
type Config struct {
	APIURL         string
	PageSize       int
	RequestTimeout time.Duration
	PollInterval   time.Duration
	LogPath        string
	LogLevel       string
	MetricsBind    string
}

const (
	defaultConfigPath     = "~/.config/tally/config.toml"
	defaultAPIURL         = "http://127.0.0.1:4000/api"
	defaultPageSize       = 10
	maxPageSize           = 100
	defaultRequestTimeout = 10 * time.Second
	defaultPollInterval   = 30 * time.Second
	defaultLogPath        = "~/.local/state/tally/tally.log"
	defaultLogLevel       = "info"
)

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:         defaultAPIURL,
		PageSize:       defaultPageSize,
		RequestTimeout: defaultRequestTimeout,
		PollInterval:   defaultPollInterval,
		LogPath:        mustExpand(defaultLogPath),
		LogLevel:       defaultLogLevel,
	}
}

type fileConfig struct {
	APIURL         string `toml:"api_url"`
	PageSize       *int   `toml:"page_size"`
	RequestTimeout string `toml:"request_timeout"`
	PollInterval   string `toml:"poll_interval"`
	LogPath        string `toml:"log_path"`
	LogLevel       string `toml:"log_level"`
	MetricsBind    string `toml:"metrics_bind"`
}

// Load locates and parses the tally config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if raw.PageSize != nil {
		cfg.PageSize = *raw.PageSize
	}
	if cfg.RequestTimeout, err = parseDuration("request_timeout", raw.RequestTimeout, defaultRequestTimeout); err != nil {
		return Config{}, err
	}
	if cfg.PollInterval, err = parseDuration("poll_interval", raw.PollInterval, defaultPollInterval); err != nil {
		return Config{}, err
	}
	if v := strings.TrimSpace(raw.LogPath); v != "" {
		cfg.LogPath = mustExpand(v)
	}
	if v := strings.ToLower(strings.TrimSpace(raw.LogLevel)); v != "" {
		cfg.LogLevel = v
	}
	cfg.MetricsBind = strings.TrimSpace(raw.MetricsBind)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config %s: %w", resolved, err)
	}
	return cfg, nil
}

// Validate reports the first field holding an unusable value.
func (c Config) Validate() error {
	var problems []error
	if c.PageSize < 1 || c.PageSize > maxPageSize {
		problems = append(problems, fmt.Errorf("page_size must be between 1 and %d, got %d", maxPageSize, c.PageSize))
	}
	if c.RequestTimeout <= 0 {
		problems = append(problems, fmt.Errorf("request_timeout must be positive"))
	}
	if c.PollInterval <= 0 {
		problems = append(problems, fmt.Errorf("poll_interval must be positive"))
	}
	if !validLevels[c.LogLevel] {
		problems = append(problems, fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}
	return errors.Join(problems...)
}

func parseDuration(field, value string, fallback time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", field, err)
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
