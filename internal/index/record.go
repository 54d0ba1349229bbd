/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package index writes track metadata records to the queryable index store
// and provides the batched, retrying writer used by collection uploads.
package index

import (
	"context"
	"time"
)

// Record is one indexed track. CompositeKey (artist/album/song) is its
// identity: writing a record with an existing key replaces the old one.
type Record struct {
	CompositeKey string    `json:"composite_key" dynamodbav:"composite_key"`
	ContentKey   string    `json:"content_key" dynamodbav:"content_key"`
	Genre        string    `json:"genre" dynamodbav:"genre"`
	Artist       string    `json:"artist" dynamodbav:"artist"`
	Album        string    `json:"album,omitempty" dynamodbav:"album,omitempty"`
	Song         string    `json:"song,omitempty" dynamodbav:"song,omitempty"`
	Kind         string    `json:"kind" dynamodbav:"kind"`
	Title        string    `json:"title,omitempty" dynamodbav:"title,omitempty"`
	Track        int       `json:"track,omitempty" dynamodbav:"track,omitempty"`
	Disc         int       `json:"disc,omitempty" dynamodbav:"disc,omitempty"`
	Year         int       `json:"year,omitempty" dynamodbav:"year,omitempty"`
	Size         int64     `json:"size" dynamodbav:"size"`
	RunID        string    `json:"run_id,omitempty" dynamodbav:"run_id,omitempty"`
	IngestedAt   time.Time `json:"ingested_at" dynamodbav:"ingested_at"`
}

// Store is the index store capability set. Implementations must be safe for
// concurrent use.
type Store interface {
	// Put writes a single record.
	Put(ctx context.Context, rec Record) error

	// BatchPut writes recs as one request. Records the store did not process
	// are returned so the caller can retry them; a non-nil error means the
	// request as a whole failed and nothing can be assumed written.
	BatchPut(ctx context.Context, recs []Record) (unprocessed []Record, err error)

	// Get reads a record by composite key, returning ErrNotFound when absent.
	Get(ctx context.Context, compositeKey string) (*Record, error)

	Close() error
}
