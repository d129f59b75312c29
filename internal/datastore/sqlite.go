package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/scntm/scanner/internal/model"
)

// ErrScanNotFound is returned by LoadScan when no row matches the id.
var ErrScanNotFound = errors.New("datastore: scan not found")

// SQLiteStore is the default Store adapter, backed by modernc.org/sqlite.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLiteStore opens (creating if necessary) the sqlite file at
// dataSourceName and ensures its schema exists.
func NewSQLiteStore(dataSourceName string, logger zerolog.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(dataSourceName); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create datastore directory %s: %w", dir, err)
		}
	}

	sqlDB, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dataSourceName, err)
	}

	store := &SQLiteStore{db: sqlDB, logger: logger}
	if err := store.initSchema(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS scans (
	id                 TEXT PRIMARY KEY,
	target_url         TEXT NOT NULL,
	scan_mode          TEXT NOT NULL,
	status             TEXT NOT NULL,
	progress_percent   INTEGER NOT NULL DEFAULT 0,
	pages_found        INTEGER NOT NULL DEFAULT 0,
	pages_scanned      INTEGER NOT NULL DEFAULT 0,
	include_subdomains INTEGER NOT NULL DEFAULT 0,
	exclude_patterns   TEXT NOT NULL DEFAULT '[]',
	custom_headers     TEXT NOT NULL DEFAULT '{}',
	request_delay      REAL NOT NULL DEFAULT 2.0,
	started_at         TEXT,
	completed_at       TEXT,
	error_message      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS findings (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	scan_id             TEXT NOT NULL REFERENCES scans(id),
	module_name         TEXT NOT NULL,
	vuln_type           TEXT NOT NULL,
	severity            TEXT NOT NULL,
	cvss_score          REAL NOT NULL,
	cvss_vector         TEXT NOT NULL,
	owasp_category      TEXT NOT NULL,
	cwe_id              TEXT NOT NULL,
	affected_url        TEXT NOT NULL,
	affected_parameter  TEXT NOT NULL DEFAULT '',
	description         TEXT NOT NULL,
	remediation         TEXT NOT NULL,
	confidence          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS evidence (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	finding_id  INTEGER NOT NULL REFERENCES findings(id),
	type        TEXT NOT NULL,
	title       TEXT NOT NULL,
	content     TEXT NOT NULL,
	order_index INTEGER NOT NULL
);
`
	_, err := s.db.Exec(schema)
	return err
}

// CreateScan inserts a new Scan row in status pending. Scan
// rows are created externally to the orchestrator; this is the
// creation half of that contract, not part of the Store port itself.
func (s *SQLiteStore) CreateScan(ctx context.Context, scan *model.Scan) error {
	excludePatterns, err := json.Marshal(scan.ExcludePatterns)
	if err != nil {
		return fmt.Errorf("encode exclude_patterns: %w", err)
	}
	customHeaders, err := json.Marshal(scan.CustomHeaders)
	if err != nil {
		return fmt.Errorf("encode custom_headers: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scans (id, target_url, scan_mode, status, progress_percent, pages_found,
			pages_scanned, include_subdomains, exclude_patterns, custom_headers, request_delay,
			started_at, completed_at, error_message)
		VALUES (?, ?, ?, 'pending', 0, 0, 0, ?, ?, ?, ?, NULL, NULL, '')`,
		scan.ID, scan.TargetURL, scan.Mode, boolToInt(scan.IncludeSubdomains),
		string(excludePatterns), string(customHeaders), scan.RequestDelay)
	if err != nil {
		return fmt.Errorf("create scan %s: %w", scan.ID, err)
	}
	return nil
}

// LoadScan implements Store.
func (s *SQLiteStore) LoadScan(ctx context.Context, scanID string) (*model.Scan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, target_url, scan_mode, status, progress_percent, pages_found,
		       pages_scanned, include_subdomains, exclude_patterns, custom_headers,
		       request_delay, started_at, completed_at, error_message
		FROM scans WHERE id = ?`, scanID)

	var (
		scan              model.Scan
		includeSubdomains int
		excludePatterns   string
		customHeaders     string
		startedAt         sql.NullString
		completedAt       sql.NullString
	)
	err := row.Scan(&scan.ID, &scan.TargetURL, &scan.Mode, &scan.Status, &scan.ProgressPercent,
		&scan.PagesFound, &scan.PagesScanned, &includeSubdomains, &excludePatterns, &customHeaders,
		&scan.RequestDelay, &startedAt, &completedAt, &scan.ErrorMessage)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load scan %s: %w", scanID, err)
	}

	scan.IncludeSubdomains = includeSubdomains != 0
	if err := json.Unmarshal([]byte(excludePatterns), &scan.ExcludePatterns); err != nil {
		return nil, fmt.Errorf("decode exclude_patterns for scan %s: %w", scanID, err)
	}
	if err := json.Unmarshal([]byte(customHeaders), &scan.CustomHeaders); err != nil {
		return nil, fmt.Errorf("decode custom_headers for scan %s: %w", scanID, err)
	}
	if startedAt.Valid && startedAt.String != "" {
		scan.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt.String)
	}
	if completedAt.Valid && completedAt.String != "" {
		scan.CompletedAt, _ = time.Parse(time.RFC3339Nano, completedAt.String)
	}
	return &scan, nil
}

// UpdateScan implements Store: an atomic whole-row write of the lifecycle
// fields the orchestrator is allowed to mutate.
func (s *SQLiteStore) UpdateScan(ctx context.Context, scan *model.Scan) error {
	excludePatterns, err := json.Marshal(scan.ExcludePatterns)
	if err != nil {
		return fmt.Errorf("encode exclude_patterns: %w", err)
	}
	customHeaders, err := json.Marshal(scan.CustomHeaders)
	if err != nil {
		return fmt.Errorf("encode custom_headers: %w", err)
	}

	var startedAt, completedAt sql.NullString
	if !scan.StartedAt.IsZero() {
		startedAt = sql.NullString{String: scan.StartedAt.Format(time.RFC3339Nano), Valid: true}
	}
	if !scan.CompletedAt.IsZero() {
		completedAt = sql.NullString{String: scan.CompletedAt.Format(time.RFC3339Nano), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE scans SET
			status = ?, progress_percent = ?, pages_found = ?, pages_scanned = ?,
			include_subdomains = ?, exclude_patterns = ?, custom_headers = ?,
			request_delay = ?, started_at = ?, completed_at = ?, error_message = ?
		WHERE id = ?`,
		scan.Status, scan.ProgressPercent, scan.PagesFound, scan.PagesScanned,
		boolToInt(scan.IncludeSubdomains), string(excludePatterns), string(customHeaders),
		scan.RequestDelay, startedAt, completedAt, scan.ErrorMessage, scan.ID)
	if err != nil {
		return fmt.Errorf("update scan %s: %w", scan.ID, err)
	}
	return nil
}

// RefreshStatus implements Store: a narrow read used for cancellation polling.
func (s *SQLiteStore) RefreshStatus(ctx context.Context, scanID string) (model.ScanStatus, error) {
	var status model.ScanStatus
	err := s.db.QueryRowContext(ctx, `SELECT status FROM scans WHERE id = ?`, scanID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrScanNotFound
	}
	if err != nil {
		return "", fmt.Errorf("refresh status for scan %s: %w", scanID, err)
	}
	return status, nil
}

// SaveFindings implements Store: writes the whole batch, each finding's
// evidence alongside it, inside one transaction.
func (s *SQLiteStore) SaveFindings(ctx context.Context, scanID string, findings []model.Finding) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save_findings tx: %w", err)
	}
	defer tx.Rollback()

	findingStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO findings (scan_id, module_name, vuln_type, severity, cvss_score, cvss_vector,
			owasp_category, cwe_id, affected_url, affected_parameter, description, remediation, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare finding insert: %w", err)
	}
	defer findingStmt.Close()

	evidenceStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO evidence (finding_id, type, title, content, order_index)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare evidence insert: %w", err)
	}
	defer evidenceStmt.Close()

	for _, f := range findings {
		res, err := findingStmt.ExecContext(ctx, scanID, f.ModuleName, f.VulnType, f.Severity,
			f.CVSSScore, f.CVSSVector, f.OWASPCategory, f.CWEID, f.AffectedURL,
			f.AffectedParameter, f.Description, f.Remediation, f.Confidence)
		if err != nil {
			return fmt.Errorf("insert finding %s/%s: %w", f.ModuleName, f.VulnType, err)
		}
		findingID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("finding last insert id: %w", err)
		}
		for _, ev := range f.Evidence {
			if _, err := evidenceStmt.ExecContext(ctx, findingID, ev.Type, ev.Title, ev.Content, ev.OrderIndex); err != nil {
				return fmt.Errorf("insert evidence for finding %d: %w", findingID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save_findings tx: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
