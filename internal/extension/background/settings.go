package background

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/heysagnik/chikki/internal/extension/protocol"
)

const settingsFile = "settings.yaml"

// SettingsStore reads and writes the user's settings file. Keys missing from
// the file keep their defaults.
type SettingsStore struct {
	mu   sync.Mutex
	path string
}

// NewSettingsStore uses settings.yaml inside dir.
func NewSettingsStore(dir string) *SettingsStore {
	return &SettingsStore{path: filepath.Join(dir, settingsFile)}
}

// Path returns the settings file location.
func (s *SettingsStore) Path() string {
	return s.path
}

// Load returns the current settings.
func (s *SettingsStore) Load() (protocol.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := protocol.DefaultSettings()
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return protocol.DefaultSettings(), fmt.Errorf("parse settings: %w", err)
	}
	if settings.MinLoadingMillis < 0 {
		settings.MinLoadingMillis = 0
	}
	return settings, nil
}

// Save writes settings to disk.
func (s *SettingsStore) Save(settings protocol.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := os.WriteFile(s.path, out, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
