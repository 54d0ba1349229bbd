/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package ingest turns an upload intent into content uploads and index
// records: discover files, derive keys, upload on a bounded pool, then
// index the records of the uploads that succeeded.
package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/friendsincode/moosic/internal/index"
	"github.com/friendsincode/moosic/internal/telemetry"
)

// Coordinator runs the ingestion state machine
// discovering -> deriving -> uploading -> indexing -> reporting.
type Coordinator struct {
	discoverer *Discoverer
	deriver    *Deriver
	uploader   *Uploader
	writer     *index.Writer
	logger     zerolog.Logger

	now   func() time.Time
	runID func() string
}

// NewCoordinator wires the stages together.
func NewCoordinator(discoverer *Discoverer, deriver *Deriver, uploader *Uploader, writer *index.Writer, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		discoverer: discoverer,
		deriver:    deriver,
		uploader:   uploader,
		writer:     writer,
		logger:     logger.With().Str("component", "coordinator").Logger(),
		now:        time.Now,
		runID:      uuid.NewString,
	}
}

// PlanEntry is what a run would do with one file.
type PlanEntry struct {
	Path         string `json:"path"`
	CompositeKey string `json:"composite_key,omitempty"`
	ContentKey   string `json:"content_key,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Plan is the dry-run view of an intent.
type Plan struct {
	Intent  Intent      `json:"intent"`
	Entries []PlanEntry `json:"entries"`
}

// Plan validates the intent, discovers and derives, and uploads nothing.
func (c *Coordinator) Plan(in Intent) (*Plan, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	files, err := c.discoverer.Discover(in.RootPath, in.Kind)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Intent: in, Entries: make([]PlanEntry, 0, len(files))}
	for _, f := range files {
		entry := PlanEntry{Path: f.Path}
		rec, err := c.deriver.Derive(in, f)
		if err != nil {
			entry.Error = err.Error()
		} else {
			entry.CompositeKey = rec.CompositeKey
			entry.ContentKey = rec.ContentKey
		}
		plan.Entries = append(plan.Entries, entry)
	}
	return plan, nil
}

// Run executes one ingestion and always returns a report. Only an invalid
// intent or a discovery failure aborts; per-item failures are collected.
func (c *Coordinator) Run(ctx context.Context, in Intent) *Report {
	in = in.Normalize()
	r := &Report{
		RunID:     c.runID(),
		Kind:      in.Kind,
		Root:      in.RootPath,
		StartedAt: c.now().UTC(),
	}
	log := c.logger.With().Str("run_id", r.RunID).Str("kind", string(in.Kind)).Logger()

	ctx, span := telemetry.StartStage(ctx, "ingest.run",
		attribute.String("ingest.run_id", r.RunID),
		attribute.String("ingest.kind", string(r.Kind)),
	)
	defer span.End()
	defer func() {
		r.Duration = c.now().Sub(r.StartedAt)
		telemetry.RecordRun(string(r.Kind), r.Result(), r.Attempted)
		span.SetAttributes(
			attribute.String("ingest.state", string(r.State)),
			attribute.Int("ingest.attempted", r.Attempted),
			attribute.Int("ingest.succeeded_content", r.SucceededContent),
			attribute.Int("ingest.succeeded_index", r.SucceededIndex),
			attribute.Int("ingest.failures", len(r.Failures)),
		)
	}()

	// Discovering.
	r.State = StateDiscovering
	if err := in.Validate(); err != nil {
		return c.abort(r, span, log, StageIntent, in.RootPath, err)
	}
	files, err := c.discover(ctx, in)
	if err != nil {
		return c.abort(r, span, log, StageDiscover, in.RootPath, err)
	}
	r.Attempted = len(files)
	log.Info().Str("root", in.RootPath).Int("files", len(files)).Msg("discovered")

	if len(files) > 0 {
		// Deriving.
		r.State = StateDeriving
		items, records := c.derive(in, files, r)

		// Uploading.
		r.State = StateUploading
		uploaded := c.upload(ctx, in.Kind, items, records, r)

		// Indexing. Only records whose content landed are submitted.
		r.State = StateIndexing
		for i := range uploaded {
			uploaded[i].RunID = r.RunID
			uploaded[i].IngestedAt = r.StartedAt
		}
		c.index(ctx, in.Kind, uploaded, r)
	}

	r.State = StateReporting
	log.Info().
		Int("attempted", r.Attempted).
		Int("succeeded_content", r.SucceededContent).
		Int("succeeded_index", r.SucceededIndex).
		Int("failures", len(r.Failures)).
		Msg("ingestion finished")
	r.State = StateCompleted
	return r
}

func (c *Coordinator) abort(r *Report, span trace.Span, log zerolog.Logger, stage Stage, id string, err error) *Report {
	r.fail(id, stage, err)
	r.State = StateAborted
	telemetry.RecordError(span, err)
	log.Error().Err(err).Str("stage", string(stage)).Msg("ingestion aborted")
	return r
}

func (c *Coordinator) discover(ctx context.Context, in Intent) ([]File, error) {
	_, span := telemetry.StartStage(ctx, "ingest.discover", attribute.String("ingest.root", in.RootPath))
	defer span.End()

	files, err := c.discoverer.Discover(in.RootPath, in.Kind)
	telemetry.RecordError(span, err)
	span.SetAttributes(attribute.Int("ingest.files", len(files)))
	return files, err
}

// derive returns the upload items and records of the files that derived
// cleanly, index aligned.
func (c *Coordinator) derive(in Intent, files []File, r *Report) ([]Item, []index.Record) {
	items := make([]Item, 0, len(files))
	records := make([]index.Record, 0, len(files))
	for _, f := range files {
		rec, err := c.deriver.Derive(in, f)
		if err != nil {
			r.fail(f.Path, StageDerive, err)
			continue
		}
		items = append(items, Item{File: f, ContentKey: rec.ContentKey})
		records = append(records, rec)
	}
	return items, records
}

// upload sends the items and returns the records of the ones that
// succeeded, with size and embedded tags filled in.
func (c *Coordinator) upload(ctx context.Context, kind Kind, items []Item, records []index.Record, r *Report) []index.Record {
	ctx, span := telemetry.StartStage(ctx, "ingest.upload", attribute.Int("ingest.items", len(items)))
	defer span.End()

	var outcomes []Outcome
	switch {
	case len(items) == 0:
	case kind == KindSong:
		outcomes = []Outcome{c.uploader.UploadOne(ctx, items[0])}
	default:
		outcomes = c.uploader.UploadAll(ctx, items)
	}

	uploaded := make([]index.Record, 0, len(outcomes))
	for i, out := range outcomes {
		if out.Status != StatusSucceeded {
			stage := StageUpload
			var readErr *ReadError
			if errors.As(out.Err, &readErr) {
				stage = StageRead
			}
			r.fail(out.File.Path, stage, out.Err)
			continue
		}
		r.SucceededContent++

		rec := records[i]
		rec.Size = out.Size
		if out.Tags != nil {
			rec.Title = out.Tags.Title
			rec.Track = out.Tags.Track
			rec.Disc = out.Tags.Disc
			rec.Year = out.Tags.Year
		}
		uploaded = append(uploaded, rec)
	}

	span.SetAttributes(attribute.Int("ingest.succeeded", len(uploaded)))
	return uploaded
}

func (c *Coordinator) index(ctx context.Context, kind Kind, records []index.Record, r *Report) {
	if len(records) == 0 {
		return
	}
	ctx, span := telemetry.StartStage(ctx, "ingest.index", attribute.Int("ingest.records", len(records)))
	defer span.End()

	if kind == KindSong {
		if err := c.writer.WriteOne(ctx, records[0]); err != nil {
			telemetry.RecordError(span, err)
			r.fail(records[0].CompositeKey, StageIndex, err)
			return
		}
		r.SucceededIndex++
		return
	}

	out := c.writer.WriteAll(ctx, records)
	r.SucceededIndex += len(out.Written)
	for _, f := range out.Failed {
		r.fail(f.CompositeKey, StageIndex, f.Err)
	}
	for _, key := range out.Collapsed {
		r.fail(key, StageIndex, &index.IndexWriteError{CompositeKey: key, Err: index.ErrDuplicateKey})
	}
	span.SetAttributes(
		attribute.Int("ingest.batches", out.Batches),
		attribute.Int("ingest.submissions", out.Submissions),
		attribute.Int("ingest.failed", len(out.Failed)),
		attribute.Int("ingest.collapsed", len(out.Collapsed)),
	)
}
