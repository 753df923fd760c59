// Package theme holds the light/dark display preference.
package theme

import (
	"errors"
	"log/slog"
	"sync"
)

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// StorageKey is the device storage key the preference is persisted under.
const StorageKey = "theme"

type Theme string

var ErrInvalidTheme = errors.New("theme must be light or dark")

// Parse accepts "light" or "dark".
func Parse(s string) (Theme, error) {
	switch Theme(s) {
	case Light, Dark:
		return Theme(s), nil
	}
	return "", ErrInvalidTheme
}

// Storage is the device-local key/value store the preference lives in.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// State is the current theme plus where it is persisted. It starts as
// light until Init runs.
type State struct {
	mu      sync.Mutex
	theme   Theme
	storage Storage
	logger  *slog.Logger
}

func NewState(storage Storage, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	return &State{theme: Light, storage: storage, logger: logger}
}

// Init picks the stored preference if there is a valid one, otherwise the
// OS preference. Nothing is written to storage.
func (s *State) Init(osPrefersDark bool) Theme {
	initial := Light
	if osPrefersDark {
		initial = Dark
	}
	if v, ok := s.storage.Get(StorageKey); ok {
		if saved, err := Parse(v); err == nil {
			initial = saved
		} else {
			s.logger.Debug("Ignoring stored theme", "value", v)
		}
	}

	s.mu.Lock()
	s.theme = initial
	s.mu.Unlock()
	return initial
}

// Toggle flips the theme and persists the new value.
func (s *State) Toggle() Theme {
	s.mu.Lock()
	next := Dark
	if s.theme == Dark {
		next = Light
	}
	s.theme = next
	s.mu.Unlock()

	s.storage.Set(StorageKey, string(next))
	return next
}

// Set persists t and makes it current.
func (s *State) Set(t Theme) error {
	if _, err := Parse(string(t)); err != nil {
		return err
	}
	s.storage.Set(StorageKey, string(t))
	s.mu.Lock()
	s.theme = t
	s.mu.Unlock()
	return nil
}

func (s *State) Theme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}
