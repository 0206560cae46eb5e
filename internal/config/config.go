// Package config persists user preferences for the loader subsystem as
// a small JSON file. The loader treats it as an opaque key-value store;
// nothing here assumes a particular consumer.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/leafnirs/leafnirs/internal/manager"
)

// DefaultFileName is the preferences file created when no explicit
// path is given.
const DefaultFileName = "leafnirs_config.json"

// Preferences are the persisted user settings.
type Preferences struct {
	PreferredLoader     string   `json:"preferred_loader"`
	RecentFiles         []string `json:"recent_files"`
	MaxRecentFiles      int      `json:"max_recent_files"`
	DefaultVisiblePairs int      `json:"default_visible_pairs"`
	DarkTheme           bool     `json:"dark_theme"`
}

// DefaultPreferences returns the shipped defaults: raw loader, ten
// recent files, dark theme.
func DefaultPreferences() Preferences {
	return Preferences{
		PreferredLoader:     manager.StrategyRaw.String(),
		MaxRecentFiles:      10,
		DefaultVisiblePairs: 5,
		DarkTheme:           true,
	}
}

// Store reads and writes preferences at a fixed path. Loading is
// lenient: a missing or corrupt file yields defaults. Saving replaces
// the file atomically so a crash never leaves a half-written config.
type Store struct {
	path  string
	prefs Preferences
	log   zerolog.Logger
}

// Open loads preferences from path, falling back to defaults when the
// file is absent or unreadable.
func Open(path string, logger zerolog.Logger) *Store {
	s := &Store{path: path, prefs: DefaultPreferences(), log: logger}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("path", path).Msg("config unreadable, using defaults")
		}
		return s
	}
	prefs := DefaultPreferences()
	if err := json.Unmarshal(data, &prefs); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("config corrupt, using defaults")
		return s
	}
	if prefs.MaxRecentFiles <= 0 {
		prefs.MaxRecentFiles = DefaultPreferences().MaxRecentFiles
	}
	s.prefs = prefs
	return s
}

// Path returns the file the store persists to.
func (s *Store) Path() string { return s.path }

// Preferences returns a copy of the current preferences.
func (s *Store) Preferences() Preferences {
	prefs := s.prefs
	prefs.RecentFiles = append([]string(nil), s.prefs.RecentFiles...)
	return prefs
}

// PreferredStrategy maps the stored loader name to a strategy.
func (s *Store) PreferredStrategy() manager.Strategy {
	return manager.ParseStrategy(s.prefs.PreferredLoader)
}

// SetPreferredLoader records the active strategy and persists.
func (s *Store) SetPreferredLoader(strategy manager.Strategy) error {
	s.prefs.PreferredLoader = strategy.String()
	return s.Save()
}

// AddRecentFile moves path to the front of the recent list, dropping
// duplicates and trimming to the configured maximum, then persists.
func (s *Store) AddRecentFile(path string) error {
	recent := make([]string, 0, len(s.prefs.RecentFiles)+1)
	recent = append(recent, path)
	for _, f := range s.prefs.RecentFiles {
		if f != path {
			recent = append(recent, f)
		}
	}
	if len(recent) > s.prefs.MaxRecentFiles {
		recent = recent[:s.prefs.MaxRecentFiles]
	}
	s.prefs.RecentFiles = recent
	return s.Save()
}

// Save writes the preferences atomically.
func (s *Store) Save() error {
	data, err := json.MarshalIndent(s.prefs, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return renameio.WriteFile(s.path, append(data, '\n'), 0o644)
}
