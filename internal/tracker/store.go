package tracker

import (
	"encoding/json"
	"os"
	"sync"
)

// Store is a small key-value store backing tracker state. Two instances with
// different lifetimes are used: a session-scoped one that vanishes with the
// browsing session, and a durable visitor-scoped one that survives across
// sessions.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Clear() error
}

// MemoryStore keeps values in memory. It backs the session-scoped state and
// tests.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key], nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
	return nil
}

// FileStore persists values as JSON in a single file. It backs the durable
// visitor-scoped state.
type FileStore struct {
	mu       sync.Mutex
	filepath string
}

var _ Store = (*FileStore)(nil)

func NewFileStore(filepath string) *FileStore {
	return &FileStore{filepath: filepath}
}

func (s *FileStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", err
	}
	return values[key], nil
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value

	data, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return os.WriteFile(s.filepath, data, 0644)
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.filepath)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}

	var values map[string]string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	if values == nil {
		values = map[string]string{}
	}
	return values, nil
}
