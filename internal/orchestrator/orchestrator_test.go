package orchestrator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scntm/scanner/internal/config"
	"github.com/scntm/scanner/internal/model"
	"github.com/scntm/scanner/internal/progresspub"
)

type fakeStore struct {
	mu       sync.Mutex
	scans    map[string]*model.Scan
	findings map[string][]model.Finding
}

func newFakeStore(scans ...*model.Scan) *fakeStore {
	s := &fakeStore{scans: make(map[string]*model.Scan), findings: make(map[string][]model.Finding)}
	for _, sc := range scans {
		s.scans[sc.ID] = sc
	}
	return s
}

func (f *fakeStore) LoadScan(_ context.Context, scanID string) (*model.Scan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sc, ok := f.scans[scanID]
	if !ok {
		return nil, ErrNotFound
	}
	copySc := *sc
	return &copySc, nil
}

func (f *fakeStore) UpdateScan(_ context.Context, scan *model.Scan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copySc := *scan
	f.scans[scan.ID] = &copySc
	return nil
}

func (f *fakeStore) RefreshStatus(_ context.Context, scanID string) (model.ScanStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sc, ok := f.scans[scanID]
	if !ok {
		return "", ErrNotFound
	}
	return sc.Status, nil
}

func (f *fakeStore) SaveFindings(_ context.Context, scanID string, findings []model.Finding) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findings[scanID] = findings
	return nil
}

var ErrNotFound = assertErr("scan not found")

type assertErr string

func (e assertErr) Error() string { return string(e) }

func testConfig() config.ScannerConfig {
	cfg := config.NewDefaultScannerConfig()
	cfg.HTTP.RequestDelaySeconds = 0
	cfg.Crawl.MaxDepthQuick = 1
	cfg.Crawl.MaxPagesQuick = 5
	return cfg
}

func TestRunScan_CompletesAgainstSimpleServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><a href="/about">about</a></body></html>`))
	}))
	defer srv.Close()

	scan := &model.Scan{ID: "scan-1", TargetURL: srv.URL, Mode: string(config.ModeQuick), Status: model.StatusPending}
	store := newFakeStore(scan)
	pub := progresspub.NewInMemoryPublisher(zerolog.Nop())

	orch := New(store, pub, testConfig(), zerolog.Nop())
	require.NoError(t, orch.RunScan(context.Background(), "scan-1"))

	final, err := store.LoadScan(context.Background(), "scan-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, final.Status)
	assert.Equal(t, 100, final.ProgressPercent)
	assert.True(t, final.PagesFound > 0)
	assert.Equal(t, final.PagesFound, final.PagesScanned)
}

func TestRunScan_NoOpWhenScanAlreadyTerminal(t *testing.T) {
	scan := &model.Scan{ID: "scan-2", TargetURL: "https://example.com", Mode: string(config.ModeQuick), Status: model.StatusCompleted, ProgressPercent: 100}
	store := newFakeStore(scan)
	pub := progresspub.NewInMemoryPublisher(zerolog.Nop())

	orch := New(store, pub, testConfig(), zerolog.Nop())
	require.NoError(t, orch.RunScan(context.Background(), "scan-2"))

	final, err := store.LoadScan(context.Background(), "scan-2")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, final.Status)
}

func TestRunScan_PropagatesLoadScanError(t *testing.T) {
	store := newFakeStore()
	pub := progresspub.NewInMemoryPublisher(zerolog.Nop())

	orch := New(store, pub, testConfig(), zerolog.Nop())
	err := orch.RunScan(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunScan_FailsOnUnresolvableTarget(t *testing.T) {
	scan := &model.Scan{ID: "scan-3", TargetURL: "://not-a-url", Mode: string(config.ModeQuick), Status: model.StatusPending}
	store := newFakeStore(scan)
	pub := progresspub.NewInMemoryPublisher(zerolog.Nop())

	orch := New(store, pub, testConfig(), zerolog.Nop())
	require.NoError(t, orch.RunScan(context.Background(), "scan-3"))

	final, err := store.LoadScan(context.Background(), "scan-3")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, final.Status)
	assert.NotEmpty(t, final.ErrorMessage)
}
