package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore reads and writes documents on the local filesystem. Hrefs are
// interpreted as file paths; a file:// prefix is stripped.
type FileStore struct{}

// NewFileStore returns a Store backed by the local filesystem.
func NewFileStore() *FileStore { return &FileStore{} }

// Get reads the file at href. A missing file surfaces as [ErrNotFound].
func (s *FileStore) Get(_ context.Context, href string) ([]byte, error) {
	data, err := os.ReadFile(localPath(href))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", href, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", href, err)
	}
	return data, nil
}

// Put writes data to the file at href, creating parent directories as
// needed. Existing files are overwritten.
func (s *FileStore) Put(_ context.Context, href string, data []byte) error {
	path := localPath(href)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("write %s: %w", href, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", href, err)
	}
	return nil
}

// Delete removes the file at href. A missing file surfaces as [ErrNotFound].
func (s *FileStore) Delete(_ context.Context, href string) error {
	err := os.Remove(localPath(href))
	if os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", href, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", href, err)
	}
	return nil
}

// localPath converts an href to a native filesystem path.
func localPath(href string) string {
	href = strings.TrimPrefix(href, "file://")
	return filepath.FromSlash(href)
}
