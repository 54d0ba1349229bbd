/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/friendsincode/moosic/internal/index"
	"github.com/friendsincode/moosic/internal/ingest"
	"github.com/friendsincode/moosic/internal/notify"
	"github.com/friendsincode/moosic/internal/telemetry"
	"github.com/friendsincode/moosic/internal/version"
)

// errIncomplete makes the process exit non-zero after the report is printed.
var errIncomplete = errors.New("ingestion finished with failures")

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a song, album or artist catalog",
	Long: `Upload media to the content store and index one record per track.

Examples:
  moosic upload --kind album --genre rock --artist Queen --name AQOTS --path ./AQOTS
  moosic upload --kind artist --genre rock --name Queen --path ./Queen
  moosic upload --kind song --genre rock --artist Queen --album ANATO --name bohemian.mp3 --path ./bohemian.mp3
  moosic upload --intent-file queen.yaml`,
	RunE: runUpload,
}

// Intent flags, shared with plan.
var (
	intentKind   string
	intentGenre  string
	intentArtist string
	intentAlbum  string
	intentName   string
	intentPath   string
	intentFile   string
)

var (
	uploadWorkers int
	reportJSON    bool
)

func init() {
	addIntentFlags(uploadCmd)
	uploadCmd.Flags().IntVarP(&uploadWorkers, "workers", "w", 0, "Concurrent uploads (default: MOOSIC_UPLOAD_WORKERS)")
	uploadCmd.Flags().BoolVar(&reportJSON, "json", false, "Print the report as JSON")
	rootCmd.AddCommand(uploadCmd)
}

func addIntentFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&intentKind, "kind", "", "Upload kind: song, album or artist")
	cmd.Flags().StringVar(&intentGenre, "genre", "", "Genre")
	cmd.Flags().StringVar(&intentArtist, "artist", "", "Artist (song and album uploads)")
	cmd.Flags().StringVar(&intentAlbum, "album", "", "Album (song uploads)")
	cmd.Flags().StringVar(&intentName, "name", "", "Song, album or artist name, depending on kind")
	cmd.Flags().StringVar(&intentPath, "path", "", "File or directory to upload")
	cmd.Flags().StringVar(&intentFile, "intent-file", "", "YAML file holding the intent; flags override its fields")
}

// intentFromFlags merges the intent file, if any, with explicit flags.
// Validation is left to the coordinator, which reports an invalid intent as
// an aborted run.
func intentFromFlags() (ingest.Intent, error) {
	var in ingest.Intent
	if intentFile != "" {
		loaded, err := ingest.LoadIntent(intentFile)
		if err != nil {
			return ingest.Intent{}, err
		}
		in = loaded
	}

	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	if intentKind != "" {
		kind, err := ingest.ParseKind(intentKind)
		if err != nil {
			return ingest.Intent{}, err
		}
		in.Kind = kind
	}
	override(&in.Genre, intentGenre)
	override(&in.Artist, intentArtist)
	override(&in.Album, intentAlbum)
	override(&in.Name, intentName)
	override(&in.RootPath, intentPath)

	return in.Normalize(), nil
}

// newCoordinator builds the pipeline from config. The returned cleanup
// releases the upload pool and closes the index store.
func newCoordinator(ctx context.Context) (*ingest.Coordinator, func(), error) {
	content, err := openContentStore(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("open content store: %w", err)
	}
	if err := content.CheckAccess(ctx); err != nil {
		return nil, nil, fmt.Errorf("content store not accessible: %w", err)
	}

	store, err := openIndexStore(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("open index store: %w", err)
	}

	policy, err := ingest.ParseNamePolicy(cfg.NamePolicy)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	workers := cfg.UploadWorkers
	if uploadWorkers > 0 {
		workers = uploadWorkers
	}
	uploader, err := ingest.NewUploader(content, ingest.UploaderOptions{
		Workers:  workers,
		Timeout:  cfg.UploadTimeout,
		ReadTags: cfg.ReadTags,
	}, logger)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	writer := index.NewWriter(store, index.WriterOptions{
		BatchSize:   cfg.IndexBatchSize,
		MaxAttempts: cfg.IndexMaxAttempts,
		BackoffBase: cfg.IndexBackoffBase,
		BackoffMax:  cfg.IndexBackoffMax,
	}, logger)

	coord := ingest.NewCoordinator(
		ingest.NewDiscoverer(cfg.Extensions),
		ingest.NewDeriver(cfg.KeyTemplate, policy),
		uploader,
		writer,
		logger,
	)
	cleanup := func() {
		uploader.Close()
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("close index store")
		}
	}
	return coord, cleanup, nil
}

func runUpload(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	in, err := intentFromFlags()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tracing, err := telemetry.StartTracing(ctx, telemetry.TracingConfig{
		Enabled:    cfg.TracingEnabled,
		Endpoint:   cfg.OTLPEndpoint,
		SampleRate: cfg.TracingSampleRate,
		Version:    version.Version,
	}, logger)
	if err != nil {
		return fmt.Errorf("start tracing: %w", err)
	}
	defer func() {
		if err := tracing.Flush(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("spans not exported")
		}
	}()

	coord, cleanup, err := newCoordinator(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	report := coord.Run(ctx, in)

	if err := printReport(cmd, report); err != nil {
		return err
	}
	publishReport(ctx, report)

	switch {
	case report.State == ingest.StateAborted && len(report.Failures) > 0:
		return fmt.Errorf("ingestion aborted: %w", report.Failures[len(report.Failures)-1].Err)
	case !report.OK():
		return fmt.Errorf("%w: %d of %d failed", errIncomplete, len(report.Failures), report.Attempted)
	}
	return nil
}

func printReport(cmd *cobra.Command, report *ingest.Report) error {
	out := cmd.OutOrStdout()
	if reportJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return report.WriteText(out)
}

// publishReport pushes run metrics and the NATS notification. Neither
// changes the exit status.
func publishReport(ctx context.Context, report *ingest.Report) {
	if cfg.PushgatewayURL != "" {
		host, _ := os.Hostname()
		if err := telemetry.Push(ctx, cfg.PushgatewayURL, "moosic", host); err != nil {
			logger.Warn().Err(err).Msg("metrics push failed")
		}
	}

	if cfg.NATSURL != "" {
		n, err := notify.Connect(notify.Config{URL: cfg.NATSURL, Subject: cfg.NATSSubject}, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, run not announced")
			return
		}
		defer n.Close()
		if err := n.Publish(report); err != nil {
			logger.Warn().Err(err).Msg("run notification failed")
		}
	}
}
