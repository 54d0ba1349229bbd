/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
)

// FilesystemStore implements ObjectStore on a local directory. Keys map to
// paths below the root.
type FilesystemStore struct {
	rootDir string
	logger  zerolog.Logger
}

// NewFilesystemStore creates a filesystem-based content store.
func NewFilesystemStore(rootDir string, logger zerolog.Logger) *FilesystemStore {
	return &FilesystemStore{
		rootDir: rootDir,
		logger:  logger,
	}
}

// Put writes data atomically, so a reader never sees a half-written object
// and an interrupted overwrite leaves the previous version in place.
func (fs *FilesystemStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := fs.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	if err := renameio.WriteFile(fullPath, data, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	fs.logger.Debug().
		Str("path", fullPath).
		Str("key", key).
		Int("bytes", len(data)).
		Msg("filesystem storage: object stored")
	return nil
}

// Get reads the object stored at key.
func (fs *FilesystemStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := fs.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

// CheckAccess verifies the storage directory exists and is accessible,
// creating it when missing.
func (fs *FilesystemStore) CheckAccess(ctx context.Context) error {
	info, err := os.Stat(fs.rootDir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(fs.rootDir, 0755); err != nil {
			return fmt.Errorf("create media root: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access media root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("media root is not a directory: %s", fs.rootDir)
	}
	return nil
}

// resolve maps a key to a path, refusing keys that escape the root.
func (fs *FilesystemStore) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(fs.rootDir, clean), nil
}
