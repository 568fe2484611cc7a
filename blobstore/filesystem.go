package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileSystemStore keeps blobs as plain files under a directory that the
// HTTP server exposes at /uploads/. Writes go through a temp file + rename
// so a crashed upload never leaves a half-written blob at a served path.
type FileSystemStore struct {
	dir     string
	baseURL string
}

func NewFileSystemStore(dir, baseURL string) (*FileSystemStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &FileSystemStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *FileSystemStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	destPath := filepath.Join(s.dir, filepath.Base(key))

	tmpFile, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if cerr := tmpFile.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if size > 0 && written != size {
		return "", fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return "", fmt.Errorf("failed to finalize blob: %w", err)
	}
	success = true

	return s.URL(key), nil
}

func (s *FileSystemStore) Delete(ctx context.Context, key string) error {
	destPath := filepath.Join(s.dir, filepath.Base(key))
	if err := os.Remove(destPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("blob not found: %s", key)
		}
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// URL maps a key onto the public /uploads/ path the server exposes.
func (s *FileSystemStore) URL(key string) string {
	return s.baseURL + path.Clean("/uploads/"+path.Base(key))
}
