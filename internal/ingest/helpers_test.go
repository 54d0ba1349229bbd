package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/moosic/internal/index"
	"github.com/friendsincode/moosic/internal/storage"
)

// memObjects is an in-memory ObjectStore.
type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
	failKey map[string]error
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}, failKey: map[string]error{}}
}

func (m *memObjects) Put(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if err, ok := m.failKey[key]; ok {
		return err
	}
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

func (m *memObjects) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (m *memObjects) CheckAccess(ctx context.Context) error { return nil }

// memIndex is an in-memory index.Store that counts calls.
type memIndex struct {
	mu         sync.Mutex
	records    map[string]index.Record
	puts       int
	batchCalls int
	batchSizes []int
}

func newMemIndex() *memIndex {
	return &memIndex{records: map[string]index.Record{}}
}

func (m *memIndex) Put(ctx context.Context, rec index.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	m.records[rec.CompositeKey] = rec
	return nil
}

func (m *memIndex) BatchPut(ctx context.Context, recs []index.Record) ([]index.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	m.batchSizes = append(m.batchSizes, len(recs))
	for _, rec := range recs {
		m.records[rec.CompositeKey] = rec
	}
	return nil, nil
}

func (m *memIndex) Get(ctx context.Context, key string) (*index.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return nil, index.ErrNotFound
	}
	return &rec, nil
}

func (m *memIndex) Close() error { return nil }

// writeTree creates each relative path under root with small contents.
func writeTree(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte("audio:"+p), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
}

func newTestUploader(t *testing.T, store storage.ObjectStore, opts UploaderOptions) *Uploader {
	t.Helper()
	u, err := NewUploader(store, opts, zerolog.Nop())
	if err != nil {
		t.Fatalf("new uploader: %v", err)
	}
	t.Cleanup(u.Close)
	return u
}

type testRig struct {
	objects  *memObjects
	index    *memIndex
	uploader *Uploader
	coord    *Coordinator
}

func newTestRig(t *testing.T, batchSize int) *testRig {
	t.Helper()
	objects := newMemObjects()
	idx := newMemIndex()
	uploader := newTestUploader(t, objects, UploaderOptions{Workers: 4, Timeout: 5 * time.Second})
	writer := index.NewWriter(idx, index.WriterOptions{
		BatchSize:   batchSize,
		MaxAttempts: 3,
		BackoffBase: time.Millisecond,
		BackoffMax:  time.Millisecond,
	}, zerolog.Nop())

	coord := NewCoordinator(NewDiscoverer(nil), NewDeriver("", NamePass), uploader, writer, zerolog.Nop())
	coord.runID = func() string { return "run-test" }
	coord.now = func() time.Time { return time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC) }
	return &testRig{objects: objects, index: idx, uploader: uploader, coord: coord}
}
