/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package index

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/friendsincode/moosic/internal/telemetry"
)

// DefaultBatchSize matches the DynamoDB BatchWriteItem limit.
const DefaultBatchSize = 25

// WriterOptions tunes batching and retry of unprocessed records.
type WriterOptions struct {
	BatchSize   int
	MaxAttempts int // total submissions per batch, first one included
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// KeyFailure is a record that did not reach the index.
type KeyFailure struct {
	CompositeKey string
	Err          error
}

// BatchOutcome summarizes WriteAll. Batches that succeeded stay written even
// when a later batch fails; nothing is rolled back. Collapsed holds one
// composite key per input record replaced by a later record with the same key.
type BatchOutcome struct {
	Written     []string
	Failed      []KeyFailure
	Collapsed   []string
	Batches     int
	Submissions int
}

// Writer submits records to a Store.
type Writer struct {
	store  Store
	opts   WriterOptions
	logger zerolog.Logger
}

// NewWriter creates a batch writer. Zero options fall back to defaults.
func NewWriter(store Store, opts WriterOptions, logger zerolog.Logger) *Writer {
	if opts.BatchSize < 1 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.BackoffMax < opts.BackoffBase {
		opts.BackoffMax = opts.BackoffBase
	}
	return &Writer{
		store:  store,
		opts:   opts,
		logger: logger.With().Str("component", "index-writer").Logger(),
	}
}

// WriteOne writes a single record directly.
func (w *Writer) WriteOne(ctx context.Context, rec Record) error {
	if err := w.store.Put(ctx, rec); err != nil {
		telemetry.IndexWritesTotal.WithLabelValues("failed").Inc()
		return &IndexWriteError{CompositeKey: rec.CompositeKey, Err: err}
	}
	telemetry.IndexWritesTotal.WithLabelValues("succeeded").Inc()
	return nil
}

// WriteAll writes recs in batches of at most BatchSize. Records sharing a
// composite key collapse to the last one, since the store would keep only
// that one anyway and some stores reject duplicate keys in one request.
func (w *Writer) WriteAll(ctx context.Context, recs []Record) BatchOutcome {
	var out BatchOutcome
	unique, collapsed := dedupe(recs)
	if len(collapsed) > 0 {
		out.Collapsed = collapsed
		w.logger.Warn().Strs("keys", collapsed).Msg("records with repeated composite keys collapsed")
	}

	for start := 0; start < len(unique); start += w.opts.BatchSize {
		end := min(start+w.opts.BatchSize, len(unique))
		out.Batches++
		w.writeBatch(ctx, unique[start:end], &out)
	}

	telemetry.IndexWritesTotal.WithLabelValues("succeeded").Add(float64(len(out.Written)))
	telemetry.IndexWritesTotal.WithLabelValues("failed").Add(float64(len(out.Failed)))
	return out
}

func (w *Writer) writeBatch(ctx context.Context, batch []Record, out *BatchOutcome) {
	pending := batch
	attempts := 0
	var requestErr error

	op := func() error {
		attempts++
		out.Submissions++
		telemetry.IndexBatchSubmissionsTotal.Inc()
		if attempts > 1 {
			telemetry.IndexBatchRetriesTotal.Inc()
		}

		unprocessed, err := w.store.BatchPut(ctx, pending)
		if err != nil {
			requestErr = err
			return backoff.Permanent(err)
		}

		left := keySet(unprocessed)
		remaining := pending[:0:0]
		for _, rec := range pending {
			if _, ok := left[rec.CompositeKey]; ok {
				remaining = append(remaining, rec)
				continue
			}
			out.Written = append(out.Written, rec.CompositeKey)
		}
		pending = remaining
		if len(pending) > 0 {
			return errUnprocessed
		}
		return nil
	}

	notify := func(err error, wait time.Duration) {
		w.logger.Debug().
			Int("unprocessed", len(pending)).
			Int("attempt", attempts).
			Dur("wait", wait).
			Msg("retrying unprocessed index records")
	}

	retryErr := backoff.RetryNotify(op, w.backOff(ctx), notify)
	if len(pending) == 0 {
		return
	}

	for _, rec := range pending {
		var err error
		if requestErr != nil {
			err = &IndexWriteError{CompositeKey: rec.CompositeKey, Err: requestErr}
		} else {
			var cause error
			if retryErr != nil && !errors.Is(retryErr, errUnprocessed) {
				cause = retryErr
			}
			err = &BatchPartialFailure{CompositeKey: rec.CompositeKey, Attempts: attempts, Err: cause}
		}
		out.Failed = append(out.Failed, KeyFailure{CompositeKey: rec.CompositeKey, Err: err})
	}

	w.logger.Warn().
		Int("failed", len(pending)).
		Int("attempts", attempts).
		AnErr("request_error", requestErr).
		Msg("index batch left records unwritten")
}

func (w *Writer) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.opts.BackoffBase
	b.MaxInterval = w.opts.BackoffMax
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(w.opts.MaxAttempts-1)), ctx)
}

// dedupe keeps the last record per composite key, at the position of the
// first, and lists the key once for every record it replaced.
func dedupe(recs []Record) ([]Record, []string) {
	pos := make(map[string]int, len(recs))
	unique := make([]Record, 0, len(recs))
	var collapsed []string
	for _, rec := range recs {
		if i, ok := pos[rec.CompositeKey]; ok {
			unique[i] = rec
			collapsed = append(collapsed, rec.CompositeKey)
			continue
		}
		pos[rec.CompositeKey] = len(unique)
		unique = append(unique, rec)
	}
	return unique, collapsed
}

func keySet(recs []Record) map[string]struct{} {
	set := make(map[string]struct{}, len(recs))
	for _, rec := range recs {
		set[rec.CompositeKey] = struct{}{}
	}
	return set
}
