package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRun(t *testing.T) {
	before := testutil.ToFloat64(IngestRunsTotal.WithLabelValues("album", "ok"))

	RecordRun("album", "ok", 12)

	if got := testutil.ToFloat64(IngestRunsTotal.WithLabelValues("album", "ok")); got != before+1 {
		t.Fatalf("expected run counter to increase by 1, got %v -> %v", before, got)
	}
	if got := testutil.ToFloat64(IngestRunFiles); got != 12 {
		t.Fatalf("expected files gauge 12, got %v", got)
	}
}

func TestPushNoopWithoutURL(t *testing.T) {
	if err := Push(context.Background(), "", "moosic", ""); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestPushSendsToGateway(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := Push(context.Background(), srv.URL, "moosic", "run-1"); err != nil {
		t.Fatalf("push: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Fatalf("expected PUT, got %s", gotMethod)
	}
	if !strings.HasPrefix(gotPath, "/metrics/job/moosic") || !strings.Contains(gotPath, "run-1") {
		t.Fatalf("unexpected push path %q", gotPath)
	}
}
