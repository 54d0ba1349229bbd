/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package ingest

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/friendsincode/moosic/internal/storage"
	"github.com/friendsincode/moosic/internal/tags"
	"github.com/friendsincode/moosic/internal/telemetry"
)

const (
	DefaultUploadWorkers = 8
	DefaultUploadTimeout = 2 * time.Minute
)

// Item pairs a discovered file with the key it is stored under.
type Item struct {
	File       File
	ContentKey string
}

// Status is the terminal state of one upload.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Outcome is the result of uploading one item.
type Outcome struct {
	File       File
	ContentKey string
	Status     Status
	Err        error
	Size       int64
	Tags       *tags.Info // nil when tags were not read or none were found
}

// UploaderOptions tunes the upload pool.
type UploaderOptions struct {
	Workers  int
	Timeout  time.Duration // per task, read included
	ReadTags bool
}

// Uploader reads files and writes them to an object store on a bounded
// worker pool.
//
// Transfers hold a slot of inflight from before the read until Put returns,
// including transfers abandoned at their deadline. At most Workers store
// calls and file buffers are alive at once, whatever the store does with
// cancellation.
type Uploader struct {
	store    storage.ObjectStore
	pool     *ants.Pool
	inflight *semaphore.Weighted
	opts     UploaderOptions
	logger   zerolog.Logger

	readFile func(path string) ([]byte, error)
}

type antsLogger struct {
	logger zerolog.Logger
}

func (l antsLogger) Printf(format string, args ...any) { l.logger.Warn().Msgf(format, args...) }

// NewUploader starts a pool of opts.Workers workers. Call Close to release it.
func NewUploader(store storage.ObjectStore, opts UploaderOptions, logger zerolog.Logger) (*Uploader, error) {
	if opts.Workers < 1 {
		opts.Workers = DefaultUploadWorkers
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultUploadTimeout
	}
	logger = logger.With().Str("component", "uploader").Logger()

	pool, err := ants.NewPool(opts.Workers, ants.WithLogger(antsLogger{logger: logger}))
	if err != nil {
		return nil, fmt.Errorf("create upload pool: %w", err)
	}
	return &Uploader{
		store:    store,
		pool:     pool,
		inflight: semaphore.NewWeighted(int64(opts.Workers)),
		opts:     opts,
		logger:   logger,
		readFile: os.ReadFile,
	}, nil
}

// Close releases the worker pool.
func (u *Uploader) Close() {
	u.pool.Release()
}

// UploadOne uploads a single item on the calling goroutine, under the same
// per-task deadline as pooled uploads.
func (u *Uploader) UploadOne(ctx context.Context, item Item) Outcome {
	return u.upload(ctx, item)
}

// UploadAll uploads every item and returns one outcome per item, in input
// order. It returns only after every task has reached a terminal state; a
// failed item never stops the others.
func (u *Uploader) UploadAll(ctx context.Context, items []Item) []Outcome {
	outcomes := make([]Outcome, len(items))
	var wg sync.WaitGroup

	for i := range items {
		wg.Add(1)
		err := u.pool.Submit(func() {
			defer wg.Done()
			outcomes[i] = u.upload(ctx, items[i])
		})
		if err != nil {
			wg.Done()
			outcomes[i] = failed(items[i], &ContentStoreError{ContentKey: items[i].ContentKey, Err: err})
		}
	}

	wg.Wait()
	return outcomes
}

// upload runs one transfer under the task deadline. When the deadline passes
// first, the task is failed and returns without waiting for the transfer, so
// a store call that ignores cancellation cannot hold a worker. It keeps its
// transfer slot until the store call returns; a task that cannot get a slot
// before its deadline fails without reading the file.
func (u *Uploader) upload(ctx context.Context, item Item) Outcome {
	start := time.Now()
	taskCtx, cancel := context.WithTimeout(ctx, u.opts.Timeout)
	defer cancel()

	var out Outcome
	if err := u.inflight.Acquire(taskCtx, 1); err != nil {
		out = failed(item, &ContentStoreError{ContentKey: item.ContentKey, Err: err})
		u.logger.Warn().
			Str("path", item.File.Path).
			Str("content_key", item.ContentKey).
			Msg("no transfer slot before deadline")
	} else {
		out = u.await(taskCtx, item)
	}

	telemetry.ContentUploadDuration.Observe(time.Since(start).Seconds())
	telemetry.ContentUploadsTotal.WithLabelValues(string(out.Status)).Inc()
	if out.Status == StatusSucceeded {
		telemetry.ContentUploadBytesTotal.Add(float64(out.Size))
	}
	return out
}

// await starts the transfer on a held slot and waits for it or the deadline.
func (u *Uploader) await(taskCtx context.Context, item Item) Outcome {
	done := make(chan Outcome, 1)
	go func() {
		out := u.transfer(taskCtx, item)
		u.inflight.Release(1)
		done <- out
	}()

	select {
	case out := <-done:
		return out
	case <-taskCtx.Done():
		select {
		case out := <-done:
			return out
		default:
		}
		u.logger.Warn().
			Str("path", item.File.Path).
			Str("content_key", item.ContentKey).
			Dur("timeout", u.opts.Timeout).
			Msg("upload abandoned at deadline")
		return failed(item, &ContentStoreError{ContentKey: item.ContentKey, Err: taskCtx.Err()})
	}
}

func (u *Uploader) transfer(ctx context.Context, item Item) Outcome {
	data, err := u.readFile(item.File.Path)
	if err != nil {
		u.logger.Warn().Err(err).Str("path", item.File.Path).Msg("read failed")
		return failed(item, &ReadError{Path: item.File.Path, Err: err})
	}

	if err := u.store.Put(ctx, item.ContentKey, data); err != nil {
		u.logger.Warn().Err(err).Str("content_key", item.ContentKey).Msg("content put failed")
		return failed(item, &ContentStoreError{ContentKey: item.ContentKey, Err: err})
	}

	out := Outcome{
		File:       item.File,
		ContentKey: item.ContentKey,
		Status:     StatusSucceeded,
		Size:       int64(len(data)),
	}
	if u.opts.ReadTags {
		if info, err := tags.Read(data); err == nil && !info.Empty() {
			out.Tags = &info
		} else if err != nil {
			u.logger.Trace().Err(err).Str("path", item.File.Path).Msg("no embedded tags")
		}
	}

	u.logger.Debug().
		Str("path", item.File.Path).
		Str("content_key", item.ContentKey).
		Int64("size", out.Size).
		Msg("uploaded")
	return out
}

func failed(item Item, err error) Outcome {
	return Outcome{
		File:       item.File,
		ContentKey: item.ContentKey,
		Status:     StatusFailed,
		Err:        err,
	}
}
