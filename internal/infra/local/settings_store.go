package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
	"trivia-client/internal/domain"
)

const (
	minNameLength = 2
	maxNameLength = 20
)

// Settings is the player's locally persisted profile.
type Settings struct {
	Username         string `yaml:"username"`
	SoundEnabled     bool   `yaml:"sound_enabled"`
	VibrationEnabled bool   `yaml:"vibration_enabled"`
}

// SettingsStore keeps Settings in a YAML file and serves as the round identity store.
type SettingsStore struct {
	path string
	mu   sync.Mutex
}

func NewSettingsStore(path string) *SettingsStore {
	return &SettingsStore{path: path}
}

// ValidateName trims a display name and checks its length.
func ValidateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(name)
	if n < minNameLength || n > maxNameLength {
		return "", domain.ErrInvalidIdentity
	}
	return name, nil
}

// Identity returns the stored display name, if any.
func (s *SettingsStore) Identity(_ context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings, err := s.load()
	if err != nil {
		return "", false, err
	}
	return settings.Username, settings.Username != "", nil
}

// SetIdentity validates and stores a display name, keeping the other settings.
func (s *SettingsStore) SetIdentity(_ context.Context, raw string) (string, error) {
	name, err := ValidateName(raw)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	settings, err := s.load()
	if err != nil {
		return "", err
	}
	settings.Username = name
	if err := s.save(settings); err != nil {
		return "", err
	}
	return name, nil
}

// Settings returns the stored settings. Unset toggles default to on.
func (s *SettingsStore) Settings(_ context.Context) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// UpdateToggles stores the sound and vibration flags.
func (s *SettingsStore) UpdateToggles(_ context.Context, sound, vibration bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings, err := s.load()
	if err != nil {
		return err
	}
	settings.SoundEnabled = sound
	settings.VibrationEnabled = vibration
	return s.save(settings)
}

func (s *SettingsStore) load() (Settings, error) {
	settings := Settings{SoundEnabled: true, VibrationEnabled: true}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("parse settings: %w", err)
	}
	return settings, nil
}

func (s *SettingsStore) save(settings Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return os.Rename(tmp, s.path)
}
