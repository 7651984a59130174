package ingest_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fakturscan/internal/extract"
	"fakturscan/internal/ingest"
	"fakturscan/internal/parser"
	"fakturscan/internal/service"
)

func receive(t *testing.T, ch <-chan string, within time.Duration) string {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(within):
		t.Fatal("timed out waiting for watcher event")
		return ""
	}
}

func TestStartWatcher_RequiresRoots(t *testing.T) {
	_, _, err := ingest.StartWatcher(context.Background(), ingest.WatchConfig{}, zap.NewNop())
	assert.Error(t, err)
}

func TestStartWatcher_InitialScanFiltersExtensions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.png"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"+ingest.ResultSuffix), []byte("{}"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := ingest.StartWatcher(ctx, ingest.WatchConfig{Roots: []string{dir}, InitialScan: true}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "a.txt"), receive(t, events, time.Second))
	select {
	case p := <-events:
		t.Fatalf("unexpected event for %s", p)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStartWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:    []string{dir},
		Debounce: 100 * time.Millisecond,
	}, zap.NewNop())
	require.NoError(t, err)

	path := filepath.Join(dir, "faktur.pdf")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	assert.Equal(t, path, receive(t, events, 2*time.Second))
	select {
	case p := <-events:
		t.Fatalf("burst emitted twice: %s", p)
	case <-time.After(250 * time.Millisecond):
	}
}

func TestStartWatcher_ClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{Roots: []string{t.TempDir()}}, zap.NewNop())
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("events channel not closed")
	}
	_, ok := <-errs
	assert.False(t, ok)
}

func TestProcessor_WritesResults(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	text := "Harga Jual 1.000.000,00\nDasar Pengenaan Pajak 1.000.000,00\nJumlah PPN 110.000,00\n"
	src := filepath.Join(in, "faktur.txt")
	require.NoError(t, os.WriteFile(src, []byte(text), 0o644))

	svc := service.NewParseService(service.ParseServiceConfig{
		Parser:    parser.New(parser.DefaultOptions()),
		Extractor: extract.NewChain(zap.NewNop(), extract.NewPlainTextExtractor()),
	}, zap.NewNop())
	worker := service.NewBatchWorker(svc, service.BatchConfig{Concurrency: 2}, zap.NewNop())
	proc := ingest.NewProcessor(worker, out, 1<<20, zap.NewNop())

	paths := make(chan string, 2)
	paths <- src
	paths <- filepath.Join(in, "missing.txt")
	close(paths)

	n, err := proc.Run(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(filepath.Join(out, "faktur.txt"+ingest.ResultSuffix))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status": "approved"`)
	assert.Contains(t, string(data), `"document_name": "faktur.txt"`)
}
