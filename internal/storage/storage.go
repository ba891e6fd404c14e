package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Storage is a directory that parser output is written into.
type Storage struct {
	dir string
}

// New creates a Storage rooted at dir, creating it if needed.
func New(dir string) (*Storage, error) {
	dir, err := ExpandHome(dir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", dir, err)
	}

	return &Storage{dir: dir}, nil
}

// ExpandHome replaces a leading ~/ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// Dir returns the storage directory.
func (s *Storage) Dir() string {
	return s.dir
}

// Path returns the path of name inside the storage directory. name must be
// a plain file name.
func (s *Storage) Path(name string) (string, error) {
	clean := filepath.Base(name)
	if clean != name || clean == "." || clean == ".." || clean == string(filepath.Separator) {
		return "", fmt.Errorf("invalid file name: %q", name)
	}
	return filepath.Join(s.dir, clean), nil
}

// Create opens name for writing, truncating any existing file.
func (s *Storage) Create(name string) (*os.File, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, nil
}
