// Package datastore implements the scanner's persistence port: a small
// interface the orchestrator drives the Scan state machine through, plus a
// modernc.org/sqlite-backed default adapter.
package datastore

import (
	"context"

	"github.com/scntm/scanner/internal/model"
)

// Store is the persistence port. Implementations own the Scan row and its
// Finding/Evidence children; the orchestrator never writes SQL directly.
type Store interface {
	LoadScan(ctx context.Context, scanID string) (*model.Scan, error)
	UpdateScan(ctx context.Context, scan *model.Scan) error
	RefreshStatus(ctx context.Context, scanID string) (model.ScanStatus, error)
	SaveFindings(ctx context.Context, scanID string, findings []model.Finding) error
}
