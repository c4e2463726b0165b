// Package prefs handles tally user preferences persistence.
// Preferences are stored in ~/.config/tally/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences for tally.
type Prefs struct {
	Theme     string `toml:"theme"`
	SalesSort string `toml:"sales_sort"`
}

const (
	defaultPrefsPath = "~/.config/tally/prefs.toml"
	defaultTheme     = "Nightfox"
	defaultSalesSort = "date"
)

// Defaults returns the preferences used when nothing is stored.
func Defaults() Prefs {
	return Prefs{Theme: defaultTheme, SalesSort: defaultSalesSort}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from the given path, falling back to defaults if
// missing or unreadable. The error is informational; the returned Prefs are
// always usable.
func Load(path string) (Prefs, error) {
	prefs := Defaults()

	resolved, err := resolvePath(path)
	if err != nil {
		return prefs, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, fmt.Errorf("open prefs: %w", err)
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, fmt.Errorf("read prefs: %w", err)
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Defaults(), fmt.Errorf("parse prefs: %w", err)
	}

	prefs.Theme = strings.TrimSpace(prefs.Theme)
	if prefs.Theme == "" {
		prefs.Theme = defaultTheme
	}
	prefs.SalesSort = strings.ToLower(strings.TrimSpace(prefs.SalesSort))
	if prefs.SalesSort == "" {
		prefs.SalesSort = defaultSalesSort
	}

	return prefs, nil
}

// Save writes preferences to path, creating directories as needed. The file
// is replaced by rename; readers see the old or the new contents, never a mix.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), resolved); err != nil {
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
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
