package scene

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/inamate/pixeldraft/internal/document"
)

// FileStore persists the scene as a single JSON document.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Save rewrites the whole file. The new content is written to a temporary
// file in the same directory and renamed over the old one, so readers see
// either the old scene or the new one.
func (f *FileStore) Save(shapes []document.Shape) error {
	data, err := document.EncodeScene(shapes)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create scene dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp scene file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write scene: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync scene: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close scene: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("replace scene file: %w", err)
	}
	return nil
}

// Load reads the scene. A missing file is an empty scene. Records that
// cannot be decoded are returned as warnings.
func (f *FileStore) Load() ([]document.Shape, []error, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read scene: %w", err)
	}
	return document.DecodeScene(data)
}

// Exists reports whether the scene file is present.
func (f *FileStore) Exists() bool {
	_, err := os.Stat(f.Path)
	return err == nil
}
