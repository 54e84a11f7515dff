// Package session persists the client's auth token between runs.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// TokenStore is durable token storage. Read returns "" when nothing is
// stored. Writes are last-write-wins.
type TokenStore interface {
	Save(token string) error
	Read() (string, error)
	Clear() error
}

type sessionFile struct {
	Token   string    `yaml:"token"`
	SavedAt time.Time `yaml:"saved_at"`
}

// FileStore keeps the token in a YAML file readable only by the owner.
type FileStore struct {
	path string
	now  func() time.Time
}

var _ TokenStore = (*FileStore)(nil)

// NewFileStore creates a FileStore at path. The file is created on the
// first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// DefaultPath returns tasks/session.yaml under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config directory: %w", err)
	}
	return filepath.Join(dir, "tasks", "session.yaml"), nil
}

// Path returns the file location.
func (s *FileStore) Path() string {
	return s.path
}

// Save writes token to the file, replacing any previous one.
func (s *FileStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := yaml.Marshal(sessionFile{Token: token, SavedAt: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Read returns the stored token, or "" if there is none.
func (s *FileStore) Read() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session: %w", err)
	}

	var f sessionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("failed to decode session %s: %w", s.path, err)
	}
	return f.Token, nil
}

// Clear removes the file. Clearing an absent session is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// MemoryStore keeps the token in memory only.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

var _ TokenStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryStore) Read() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
