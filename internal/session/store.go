package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store сохраняет сессии между запросами или запусками процесса.
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore хранит сессии в памяти процесса.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Snapshot
}

// NewMemoryStore создает MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Snapshot)}
}

// Load возвращает сессию по идентификатору.
func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	snap, ok := m.items[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNoSession
	}
	return Restore(snap)
}

// Save сохраняет снимок сессии. Побеждает последняя запись.
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	snap := s.Snapshot()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[snap.ID] = snap
	return nil
}

// Delete удаляет сессию.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

// FileStore хранит одну сессию в JSON файле. Используется командной строкой,
// где у процесса всегда один пользователь.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore создает FileStore для файла path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path возвращает путь к файлу сессии.
func (f *FileStore) Path() string {
	return f.path
}

// Load читает сессию из файла. Пустой id принимает любую сохраненную сессию.
func (f *FileStore) Load(_ context.Context, id string) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding session file: %w", err)
	}
	if id != "" && snap.ID != id {
		return nil, ErrNoSession
	}
	return Restore(snap)
}

// Save записывает сессию через временный файл, чтобы не оставить файл обрезанным.
func (f *FileStore) Save(_ context.Context, s *Session) error {
	data, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*")
	if err != nil {
		return fmt.Errorf("creating session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return os.Rename(tmp.Name(), f.path)
}

// Delete удаляет файл сессии. id не проверяется: файл хранит одну сессию.
func (f *FileStore) Delete(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}
