/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidIntent marks an intent that fails validation. The run is
	// aborted before anything is discovered.
	ErrInvalidIntent = errors.New("invalid upload intent")

	// ErrInvalidName is returned by Derive under the reject name policy when
	// a discovered file or directory name falls outside the permitted charset.
	ErrInvalidName = errors.New("name outside permitted charset")
)

// DiscoveryError reports a root path that is missing or unreadable. It is
// fatal to the run.
type DiscoveryError struct {
	Root string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discover %s: %v", e.Root, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// ReadError reports a single file that could not be read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// ContentStoreError reports a failed put of a single object, including a put
// abandoned at the per-task deadline.
type ContentStoreError struct {
	ContentKey string
	Err        error
}

func (e *ContentStoreError) Error() string {
	return fmt.Sprintf("content store put %s: %v", e.ContentKey, e.Err)
}

func (e *ContentStoreError) Unwrap() error { return e.Err }
