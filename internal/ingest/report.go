/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// State is a step of the run state machine.
type State string

const (
	StateDiscovering State = "discovering"
	StateDeriving    State = "deriving"
	StateUploading   State = "uploading"
	StateIndexing    State = "indexing"
	StateReporting   State = "reporting"
	StateCompleted   State = "completed"
	StateAborted     State = "aborted"
)

// Stage names where a failure happened.
type Stage string

const (
	StageIntent   Stage = "intent"
	StageDiscover Stage = "discover"
	StageDerive   Stage = "derive"
	StageRead     Stage = "read"
	StageUpload   Stage = "upload"
	StageIndex    Stage = "index"
)

// Failure is one item that did not make it, identified by file path for
// content stages and by composite key for the index stage.
type Failure struct {
	Identifier string
	Stage      Stage
	Err        error
}

// MarshalJSON renders Err as its message.
func (f Failure) MarshalJSON() ([]byte, error) {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		Identifier string `json:"identifier"`
		Stage      Stage  `json:"stage"`
		Error      string `json:"error"`
	}{f.Identifier, f.Stage, msg})
}

// Report is the final accounting of a run. It is produced even when every
// item failed.
type Report struct {
	RunID            string        `json:"run_id"`
	Kind             Kind          `json:"kind"`
	Root             string        `json:"root"`
	State            State         `json:"state"`
	Attempted        int           `json:"attempted"`
	SucceededContent int           `json:"succeeded_content"`
	SucceededIndex   int           `json:"succeeded_index"`
	Failures         []Failure     `json:"failures"`
	StartedAt        time.Time     `json:"started_at"`
	Duration         time.Duration `json:"duration_ns"`
}

// OK is true only for a completed run without failures.
func (r *Report) OK() bool {
	return r.State == StateCompleted && len(r.Failures) == 0
}

// Result is the run outcome label used in metrics: ok, partial or aborted.
func (r *Report) Result() string {
	switch {
	case r.State == StateAborted:
		return "aborted"
	case r.OK():
		return "ok"
	default:
		return "partial"
	}
}

func (r *Report) fail(id string, stage Stage, err error) {
	r.Failures = append(r.Failures, Failure{Identifier: id, Stage: stage, Err: err})
}

// WriteText prints a human readable summary.
func (r *Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "run\t%s\n", r.RunID)
	fmt.Fprintf(tw, "kind\t%s\n", r.Kind)
	fmt.Fprintf(tw, "root\t%s\n", r.Root)
	fmt.Fprintf(tw, "state\t%s\n", r.State)
	fmt.Fprintf(tw, "attempted\t%d\n", r.Attempted)
	fmt.Fprintf(tw, "content uploaded\t%d\n", r.SucceededContent)
	fmt.Fprintf(tw, "index written\t%d\n", r.SucceededIndex)
	fmt.Fprintf(tw, "failures\t%d\n", len(r.Failures))
	fmt.Fprintf(tw, "duration\t%s\n", r.Duration.Round(time.Millisecond))
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, f := range r.Failures {
		if _, err := fmt.Fprintf(w, "  [%s] %s: %v\n", f.Stage, f.Identifier, f.Err); err != nil {
			return err
		}
	}
	return nil
}
