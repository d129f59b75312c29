// Package progresspub implements the progress port: a best-effort sink
// the orchestrator pushes state mutations to. Publish failures must never
// fail the scan, so the port has no error return at all.
package progresspub

import "github.com/scntm/scanner/internal/model"

// Snapshot is one progress event pushed at a state mutation.
type Snapshot struct {
	Status       model.ScanStatus
	Progress     int
	PagesFound   int
	PagesScanned int
}

// Publisher is the progress port.
type Publisher interface {
	Publish(scanID string, snapshot Snapshot)
}

// NopPublisher discards every snapshot.
type NopPublisher struct{}

func (NopPublisher) Publish(string, Snapshot) {}
