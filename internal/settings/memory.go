package settings

import "sync"

// memoryStore keeps settings in memory only.
type memoryStore struct {
	mu         sync.RWMutex
	executable string
	study      string
}

// NewMemory returns a Store that never touches the filesystem.
func NewMemory() Store {
	return &memoryStore{}
}

func (m *memoryStore) Load() error { return nil }

func (m *memoryStore) Executable() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.executable
}

func (m *memoryStore) SaveExecutable(path string) error {
	m.mu.Lock()
	m.executable = path
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) Study() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.study
}

func (m *memoryStore) SaveStudy(path string) error {
	m.mu.Lock()
	m.study = path
	m.mu.Unlock()
	return nil
}
