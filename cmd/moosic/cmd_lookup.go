/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/friendsincode/moosic/internal/index"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup COMPOSITE_KEY",
	Short: "Print the index record for artist/album/song",
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	store, err := openIndexStore(cmd.Context())
	if err != nil {
		return fmt.Errorf("open index store: %w", err)
	}
	defer store.Close()

	rec, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, index.ErrNotFound) {
			return fmt.Errorf("no record for %q", args[0])
		}
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
