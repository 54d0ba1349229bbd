/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package index

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Store.Get when no record has the key.
	ErrNotFound = errors.New("index record not found")

	// ErrDuplicateKey marks a record replaced by a later record with the
	// same composite key in one write.
	ErrDuplicateKey = errors.New("composite key repeated in run")
)

// IndexWriteError reports a failed write of a single record.
type IndexWriteError struct {
	CompositeKey string
	Err          error
}

func (e *IndexWriteError) Error() string {
	return fmt.Sprintf("index write %s: %v", e.CompositeKey, e.Err)
}

func (e *IndexWriteError) Unwrap() error { return e.Err }

// BatchPartialFailure reports a record the store kept returning as
// unprocessed until the attempt budget ran out.
type BatchPartialFailure struct {
	CompositeKey string
	Attempts     int
	Err          error // last retry error, e.g. context cancellation; may be nil
}

func (e *BatchPartialFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("index batch: %s unprocessed after %d attempts: %v", e.CompositeKey, e.Attempts, e.Err)
	}
	return fmt.Sprintf("index batch: %s unprocessed after %d attempts", e.CompositeKey, e.Attempts)
}

func (e *BatchPartialFailure) Unwrap() error { return e.Err }

// errUnprocessed drives the backoff loop while records remain pending.
var errUnprocessed = errors.New("unprocessed records remain")
