package session

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// LocalStorage is a tiny string key-value store that survives restarts
type LocalStorage interface {
	// GetItem returns the stored value and whether the key exists
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// FileStorage keeps one file per key in a directory
type FileStorage struct {
	dir string
}

// NewFileStorage stores items under dir, creating it on first write
func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{dir: dir}
}

func (f *FileStorage) path(key string) string {
	return filepath.Join(f.dir, unsafeKeyChars.ReplaceAllString(key, "_"))
}

func (f *FileStorage) GetItem(key string) (string, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

func (f *FileStorage) SetItem(key, value string) error {
	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return err
	}
	return os.WriteFile(f.path(key), []byte(value), 0600)
}

func (f *FileStorage) RemoveItem(key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// MemoryStorage is a LocalStorage for tests
type MemoryStorage struct {
	mu    sync.Mutex
	items map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

func (m *MemoryStorage) GetItem(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryStorage) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *MemoryStorage) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
