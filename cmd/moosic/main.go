/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/friendsincode/moosic/internal/config"
	"github.com/friendsincode/moosic/internal/logging"
)

var (
	logger zerolog.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "moosic",
	Short: "moosic - media ingestion into object storage and a track index",
	Long: `moosic uploads a song, an album directory or an artist's catalog to object
storage and records one index entry per track, keyed by artist/album/song.

Backends are selected through MOOSIC_* environment variables: S3 or the local
filesystem for content; DynamoDB, SQL (postgres, mysql, sqlite), Redis or
Badger for the index.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it)
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = logging.Setup(cfg.Environment, cfg.LogFormat)
	return nil
}
