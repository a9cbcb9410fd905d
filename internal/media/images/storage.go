// Package images stores cover images next to the converted audio and
// derives placeholders from them.
package images

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/listenupapp/tafcue/internal/util"
)

// Storage manages cover files named {name}.jpg in one directory.
// Thread-safe for concurrent operations.
type Storage struct {
	dir string
	mu  sync.RWMutex
}

// NewStorage creates dir if needed and returns a Storage for it.
func NewStorage(dir string) (*Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cover directory: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Save stores image data for name, replacing any previous cover.
func (s *Storage) Save(name string, data []byte) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(data) == 0 {
		return fmt.Errorf("image data cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := util.WriteFileAtomic(s.Path(name), data, 0o644); err != nil {
		return fmt.Errorf("write cover: %w", err)
	}
	return nil
}

// Get returns the cover for name.
func (s *Storage) Get(name string) ([]byte, error) {
	if name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("cover not found for %s: %w", name, err)
		}
		return nil, fmt.Errorf("read cover: %w", err)
	}
	return data, nil
}

// Exists reports whether a non-empty cover exists for name.
func (s *Storage) Exists(name string) bool {
	if name == "" {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return util.FileExists(s.Path(name))
}

// Delete removes the cover for name. A missing cover is not an error.
func (s *Storage) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete cover: %w", err)
	}
	return nil
}

// Hash returns the hex SHA-256 of the cover for name.
func (s *Storage) Hash(name string) (string, error) {
	data, err := s.Get(name)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Path returns the file path of the cover for name.
func (s *Storage) Path(name string) string {
	return filepath.Join(s.dir, name+".jpg")
}

// FileName returns the base name of the cover for name.
func FileName(name string) string {
	return name + ".jpg"
}
