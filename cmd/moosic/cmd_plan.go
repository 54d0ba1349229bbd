/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/friendsincode/moosic/internal/ingest"
)

var planOutput string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the keys an upload would write, without uploading",
	Long: `plan discovers and derives exactly as upload does and prints a JSON manifest
of file paths, composite keys and content keys. Nothing is written to either
store.

Examples:
  moosic plan --kind artist --genre rock --name Queen --path ./Queen
  moosic plan --intent-file queen.yaml -o plan.json`,
	RunE: runPlan,
}

func init() {
	addIntentFlags(planCmd)
	planCmd.Flags().StringVarP(&planOutput, "output", "o", "", "Output file (default: stdout)")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	in, err := intentFromFlags()
	if err != nil {
		return err
	}

	policy, err := ingest.ParseNamePolicy(cfg.NamePolicy)
	if err != nil {
		return err
	}
	coord := ingest.NewCoordinator(
		ingest.NewDiscoverer(cfg.Extensions),
		ingest.NewDeriver(cfg.KeyTemplate, policy),
		nil, nil, logger,
	)

	plan, err := coord.Plan(in)
	if err != nil {
		return fmt.Errorf("plan failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if planOutput != "" {
		f, err := os.Create(planOutput)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(plan); err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}

	if planOutput != "" {
		fmt.Fprintf(os.Stderr, "Plan for %d file(s) written to %s\n", len(plan.Entries), planOutput)
	}
	return nil
}
