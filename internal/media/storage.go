// Package media stores uploaded post images.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
)

// Storage persists uploaded files and returns the name to record on the post.
type Storage interface {
	Save(ctx context.Context, data []byte, ext string) (string, error)
	Delete(ctx context.Context, name string) error
}

// LocalStorage writes files below a root directory on disk.
type LocalStorage struct {
	root string
}

// NewLocalStorage creates a LocalStorage rooted at root
func NewLocalStorage(root string) *LocalStorage {
	return &LocalStorage{root: root}
}

// Save writes data to posts/<uuid><ext> and returns that relative name.
func (s *LocalStorage) Save(ctx context.Context, data []byte, ext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := path.Join("posts", uuid.NewString()+ext)
	full := s.path(name)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}
	return name, nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *LocalStorage) Delete(ctx context.Context, name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(s.path(name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete media file: %w", err)
	}
	return nil
}

func (s *LocalStorage) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+name)))
}
