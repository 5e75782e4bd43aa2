package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// DefaultFileName is used when no settings path is configured.
const DefaultFileName = "settings.toml"

// document is the settings file layout.
type document struct {
	Version int   `toml:"version"`
	Paths   paths `toml:"paths"`
}

type paths struct {
	Executable string `toml:"executable,omitempty"`
	Study      string `toml:"study,omitempty"`
}

// tomlStore implements Store using a TOML file.
type tomlStore struct {
	mu         sync.RWMutex
	configPath string
	doc        document
}

// NewTOML creates a TOML-backed store at configPath.
func NewTOML(configPath string) Store {
	if configPath == "" {
		configPath = DefaultFileName
	}
	return &tomlStore{
		configPath: configPath,
		doc:        document{Version: 1},
	}
}

// DefaultPath returns ~/.config/rodopt/settings.toml, or the bare file name
// when the user config directory is unknown.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(dir, "rodopt", DefaultFileName)
}

// Load reads the settings file. A missing file leaves the store empty.
func (s *tomlStore) Load() error {
	data, err := os.ReadFile(s.configPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	var doc document
	if unmarshalErr := toml.Unmarshal(data, &doc); unmarshalErr != nil {
		return fmt.Errorf("failed to parse settings: %w", unmarshalErr)
	}
	if doc.Version == 0 {
		doc.Version = 1
	}

	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	return nil
}

func (s *tomlStore) Executable() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Paths.Executable
}

func (s *tomlStore) Study() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Paths.Study
}

// SaveExecutable records the executable path and writes the file if it
// changed.
func (s *tomlStore) SaveExecutable(path string) error {
	return s.update(func(p *paths) bool {
		path = strings.TrimSpace(path)
		if p.Executable == path {
			return false
		}
		p.Executable = path
		return true
	})
}

// SaveStudy records the study path and writes the file if it changed.
func (s *tomlStore) SaveStudy(path string) error {
	return s.update(func(p *paths) bool {
		path = strings.TrimSpace(path)
		if p.Study == path {
			return false
		}
		p.Study = path
		return true
	})
}

func (s *tomlStore) update(apply func(*paths) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !apply(&s.doc.Paths) {
		return nil
	}
	return s.save()
}

// save writes the file; callers hold mu.
func (s *tomlStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := toml.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if writeErr := os.WriteFile(s.configPath, data, 0o644); writeErr != nil {
		return fmt.Errorf("failed to write settings: %w", writeErr)
	}
	return nil
}
