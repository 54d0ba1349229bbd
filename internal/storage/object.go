/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package storage holds the content store backends that uploaded media bytes
// are written to.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no object exists at the key.
var ErrNotFound = errors.New("object not found")

// ObjectStore abstracts object storage operations. Keys are slash-separated
// and opaque to the store; Put overwrites any existing object at the key.
// Implementations must be safe for concurrent use.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	CheckAccess(ctx context.Context) error
}
