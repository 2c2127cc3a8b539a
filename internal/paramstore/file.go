package paramstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/yourusername/clever-goals/internal/models"
)

// FileStore keeps the latest parameter set in a single JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file location.
func (s *FileStore) Path() string { return s.path }

// Save writes the whole set atomically: a temp file in the same directory is
// renamed over the target.
func (s *FileStore) Save(_ context.Context, params map[string]*models.LeagueFitParameters) error {
	data, err := Encode(params)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write parameters: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync parameters: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close parameters file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}

// Load reads the set. A missing file is models.ErrNotFound.
func (s *FileStore) Load(_ context.Context) (map[string]*models.LeagueFitParameters, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", models.ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return Decode(data)
}
