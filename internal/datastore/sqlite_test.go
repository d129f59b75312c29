package datastore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scntm/scanner/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.db")
	store, err := NewSQLiteStore(path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedScan(t *testing.T, store *SQLiteStore, id string) {
	t.Helper()
	_, err := store.db.Exec(`
		INSERT INTO scans (id, target_url, scan_mode, status, progress_percent, pages_found,
			pages_scanned, include_subdomains, exclude_patterns, custom_headers, request_delay,
			started_at, completed_at, error_message)
		VALUES (?, 'https://example.com', 'quick', 'pending', 0, 0, 0, 0, '[]', '{}', 2.0, NULL, NULL, '')`, id)
	require.NoError(t, err)
}

func TestLoadScan_ReturnsErrScanNotFoundWhenMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.LoadScan(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrScanNotFound)
}

func TestUpdateScan_ThenLoadScan_RoundTrips(t *testing.T) {
	store := newTestStore(t)
	seedScan(t, store, "scan-1")

	started := time.Now().UTC().Truncate(time.Second)
	scan := &model.Scan{
		ID:                "scan-1",
		Status:            model.StatusCrawling,
		ProgressPercent:   5,
		PagesFound:        3,
		PagesScanned:      1,
		IncludeSubdomains: true,
		ExcludePatterns:   []string{"\\.pdf$"},
		CustomHeaders:     map[string]string{"X-Test": "1"},
		RequestDelay:      2.5,
		StartedAt:         started,
	}
	require.NoError(t, store.UpdateScan(context.Background(), scan))

	loaded, err := store.LoadScan(context.Background(), "scan-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCrawling, loaded.Status)
	assert.Equal(t, 5, loaded.ProgressPercent)
	assert.Equal(t, 3, loaded.PagesFound)
	assert.True(t, loaded.IncludeSubdomains)
	assert.Equal(t, []string{"\\.pdf$"}, loaded.ExcludePatterns)
	assert.Equal(t, "1", loaded.CustomHeaders["X-Test"])
	assert.WithinDuration(t, started, loaded.StartedAt, time.Second)
}

func TestRefreshStatus_ReflectsLatestUpdate(t *testing.T) {
	store := newTestStore(t)
	seedScan(t, store, "scan-2")

	status, err := store.RefreshStatus(context.Background(), "scan-2")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, status)

	scan, err := store.LoadScan(context.Background(), "scan-2")
	require.NoError(t, err)
	scan.Status = model.StatusCancelled
	require.NoError(t, store.UpdateScan(context.Background(), scan))

	status, err = store.RefreshStatus(context.Background(), "scan-2")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, status)
}

func TestSaveFindings_PersistsFindingsAndEvidenceOrder(t *testing.T) {
	store := newTestStore(t)
	seedScan(t, store, "scan-3")

	findings := []model.Finding{
		{
			ModuleName:        "xss",
			VulnType:          "reflected_xss",
			Severity:          model.SeverityHigh,
			CVSSScore:         7.1,
			CVSSVector:        "CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:U/C:L/I:L/A:N",
			OWASPCategory:     "A03",
			CWEID:             "CWE-79",
			AffectedURL:       "https://example.com/search?q=1",
			AffectedParameter: "q",
			Description:       "reflected",
			Remediation:        "encode output",
			Confidence:         model.ConfidenceFirm,
			Evidence: []model.Evidence{
				{Type: model.EvidencePayload, Title: "payload", Content: "<script>", OrderIndex: 0},
				{Type: model.EvidenceResponse, Title: "response", Content: "<script>", OrderIndex: 1},
			},
		},
	}

	require.NoError(t, store.SaveFindings(context.Background(), "scan-3", findings))

	rows, err := store.db.Query(`SELECT module_name, vuln_type FROM findings WHERE scan_id = 'scan-3'`)
	require.NoError(t, err)
	defer rows.Close()

	var count int
	for rows.Next() {
		count++
	}
	assert.Equal(t, 1, count)

	var evidenceCount int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM evidence`).Scan(&evidenceCount))
	assert.Equal(t, 2, evidenceCount)

	titleRows, err := store.db.Query(`SELECT title FROM evidence ORDER BY order_index`)
	require.NoError(t, err)
	defer titleRows.Close()
	var titles []string
	for titleRows.Next() {
		var title string
		require.NoError(t, titleRows.Scan(&title))
		titles = append(titles, title)
	}
	assert.Equal(t, []string{"payload", "response"}, titles)
}
