/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	// ContentUploadsTotal counts content store puts by outcome.
	ContentUploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moosic_content_uploads_total",
		Help: "Content store uploads by outcome",
	}, []string{"status"}) // status=succeeded|failed

	ContentUploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moosic_content_upload_bytes_total",
		Help: "Bytes successfully written to the content store",
	})

	ContentUploadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "moosic_content_upload_duration_seconds",
		Help:    "Wall time per upload task, read included",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	})

	// IndexWritesTotal counts index records by final outcome.
	IndexWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moosic_index_writes_total",
		Help: "Index records by final outcome",
	}, []string{"status"}) // status=succeeded|failed

	IndexBatchSubmissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moosic_index_batch_submissions_total",
		Help: "Batch write requests sent to the index store, retries included",
	})

	IndexBatchRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moosic_index_batch_retries_total",
		Help: "Batch resubmissions of unprocessed records",
	})

	// IndexQueryDuration is fed by the gorm callbacks of the SQL index.
	IndexQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "moosic_index_sql_query_duration_seconds",
		Help:    "SQL index statement duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	IndexQueryErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moosic_index_sql_errors_total",
		Help: "SQL index statement errors",
	}, []string{"operation"})

	// IngestRunsTotal counts finished runs by kind and result.
	IngestRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moosic_ingest_runs_total",
		Help: "Ingestion runs by upload kind and result",
	}, []string{"kind", "result"}) // result=ok|partial|aborted

	IngestRunFiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "moosic_ingest_run_files",
		Help: "Files attempted in the last run",
	})
)

// RecordRun records the summary of a finished run.
func RecordRun(kind, result string, attempted int) {
	IngestRunsTotal.WithLabelValues(kind, result).Inc()
	IngestRunFiles.Set(float64(attempted))
}

// Push sends the default registry to a Prometheus pushgateway. A no-op when
// url is empty.
func Push(ctx context.Context, url, job, instance string) error {
	if url == "" {
		return nil
	}
	pusher := push.New(url, job).Gatherer(prometheus.DefaultGatherer)
	if instance != "" {
		pusher = pusher.Grouping("instance", instance)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
