// Package store holds the narrow interfaces this core uses to talk to its
// external collaborators: blob storage for rendered artifacts and a segment
// source for story inputs. The production implementations are owned by the
// archive's storage services; the local implementations here serve the CLI
// and tests.
package store

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// BlobStore uploads and downloads named artifacts. Put is checksum-gated:
// an upload whose content already matches the stored blob is skipped.
type BlobStore interface {
	Put(ctx context.Context, name string, data []byte) (written bool, err error)
	Get(ctx context.Context, name string) ([]byte, error)
	Exists(ctx context.Context, name string) (bool, error)
}

// LocalBlobStore implements BlobStore on a local directory
type LocalBlobStore struct {
	dir string
}

// NewLocalBlobStore creates a blob store rooted at dir
func NewLocalBlobStore(dir string) *LocalBlobStore {
	return &LocalBlobStore{dir: dir}
}

// Put writes the blob unless an identical one is already stored
func (s *LocalBlobStore) Put(ctx context.Context, name string, data []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path := s.path(name)

	if existing, err := os.ReadFile(path); err == nil {
		if sha256.Sum256(existing) == sha256.Sum256(data) {
			slog.Debug("blob unchanged, skipping upload", "name", name)
			return false, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("create blob dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, fmt.Errorf("write blob %s: %w", name, err)
	}
	return true, nil
}

// Get reads a blob by name
func (s *LocalBlobStore) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", name, err)
	}
	return data, nil
}

// Exists reports whether a blob is stored
func (s *LocalBlobStore) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(s.path(name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (s *LocalBlobStore) path(name string) string {
	return filepath.Join(s.dir, filepath.FromSlash(name))
}
