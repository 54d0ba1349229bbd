package notify

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/moosic/internal/ingest"
)

type fakeConn struct {
	subject  string
	data     []byte
	flushed  bool
	closed   bool
	flushErr error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.subject = subject
	f.data = data
	return nil
}

func (f *fakeConn) FlushTimeout(time.Duration) error {
	f.flushed = true
	return f.flushErr
}

func (f *fakeConn) Close() { f.closed = true }

func TestPublishReport(t *testing.T) {
	conn := &fakeConn{}
	n := newNotifier(conn, Config{Subject: "moosic.test"}, zerolog.Nop())

	report := &ingest.Report{
		RunID:            "run-1",
		Kind:             ingest.KindAlbum,
		State:            ingest.StateCompleted,
		Attempted:        2,
		SucceededContent: 2,
		SucceededIndex:   1,
		Failures:         []ingest.Failure{{Identifier: "Queen/AQOTS/track2.mp3", Stage: ingest.StageIndex, Err: errors.New("throttled")}},
	}
	if err := n.Publish(report); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if conn.subject != "moosic.test" || !conn.flushed {
		t.Fatalf("unexpected publish: subject %q flushed %v", conn.subject, conn.flushed)
	}

	var msg struct {
		MessageID string `json:"message_id"`
		OK        bool   `json:"ok"`
		Report    struct {
			RunID    string `json:"run_id"`
			Failures []struct {
				Identifier string `json:"identifier"`
				Error      string `json:"error"`
			} `json:"failures"`
		} `json:"report"`
	}
	if err := json.Unmarshal(conn.data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.MessageID == "" || msg.OK || msg.Report.RunID != "run-1" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if len(msg.Report.Failures) != 1 || msg.Report.Failures[0].Error != "throttled" {
		t.Fatalf("failures not carried: %+v", msg.Report.Failures)
	}

	n.Close()
	if !conn.closed {
		t.Fatal("connection not closed")
	}
}

func TestPublishFlushError(t *testing.T) {
	conn := &fakeConn{flushErr: errors.New("nats: timeout")}
	n := newNotifier(conn, Config{}, zerolog.Nop())

	if err := n.Publish(&ingest.Report{RunID: "run-2"}); err == nil {
		t.Fatal("expected flush error")
	}
	if conn.subject != DefaultConfig().Subject {
		t.Fatalf("expected default subject, got %q", conn.subject)
	}
}
