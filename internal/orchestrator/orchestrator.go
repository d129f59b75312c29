// Package orchestrator drives a single Scan row through its state machine:
// Load, Begin, Configure, Crawl, Detect, Finalize,
// Complete, Fail. It owns no persistence or transport itself; those are
// injected as the datastore.Store and progresspub.Publisher ports.
package orchestrator

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/scntm/scanner/internal/config"
	"github.com/scntm/scanner/internal/crawler"
	"github.com/scntm/scanner/internal/cvss"
	"github.com/scntm/scanner/internal/datastore"
	"github.com/scntm/scanner/internal/detector"
	"github.com/scntm/scanner/internal/httpclient"
	"github.com/scntm/scanner/internal/model"
	"github.com/scntm/scanner/internal/progresspub"
	"github.com/scntm/scanner/internal/scope"
)

// Orchestrator runs the Scan state machine for run_scan(scan_id).
type Orchestrator struct {
	store      datastore.Store
	publisher  progresspub.Publisher
	baseConfig config.ScannerConfig
	logger     zerolog.Logger
}

// New constructs an Orchestrator. baseConfig supplies the crawl depth/page
// caps, HTTP egress defaults, and detector catalog config every scan falls
// back to unless its Scan row overrides them.
func New(store datastore.Store, publisher progresspub.Publisher, baseConfig config.ScannerConfig, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		store:      store,
		publisher:  publisher,
		baseConfig: baseConfig,
		logger:     logger.With().Str("module", "orchestrator").Logger(),
	}
}

var errCancelled = fmt.Errorf("orchestrator: scan cancelled")

// RunScan is the exposed run_scan(scan_id) entry point: synchronous,
// returns once the scan reaches a terminal status. At-least-once delivery
// is tolerated: a scan already in a terminal state at load is a no-op.
// Only a persistence-port error propagates to the caller; scan-level
// failures are captured in the persisted status/error_message instead.
func (o *Orchestrator) RunScan(ctx context.Context, scanID string) error {
	log := o.logger.With().Str("scan_id", scanID).Logger()

	scan, err := o.store.LoadScan(ctx, scanID)
	if err != nil {
		log.Error().Err(err).Msg("failed to load scan")
		return err
	}
	if scan.Status.Terminal() {
		log.Info().Str("status", string(scan.Status)).Msg("scan already terminal, no-op")
		return nil
	}

	if err := o.execute(ctx, scan); err != nil {
		if err == errCancelled {
			// The cancelled status was written externally; leave the row
			// untouched and stop publishing.
			log.Info().Msg("scan cancelled externally, exiting without further writes")
			return nil
		}
		return o.fail(ctx, scan, err)
	}
	return nil
}

// execute runs Configure through Complete. Any error it returns is routed
// through fail by the caller; no findings are persisted on that path.
func (o *Orchestrator) execute(ctx context.Context, scan *model.Scan) error {
	scan.Status = model.StatusCrawling
	scan.ProgressPercent = 5
	scan.StartedAt = time.Now().UTC()
	if err := o.persistAndPublish(ctx, scan); err != nil {
		return err
	}

	client, crw, seeds, mode, err := o.configure(scan)
	if err != nil {
		return err
	}

	pages := crw.Run(ctx, seeds)
	scan.PagesFound = len(pages)
	scan.Status = model.StatusScanning
	scan.ProgressPercent = 30
	if err := o.persistAndPublish(ctx, scan); err != nil {
		return err
	}

	findings, err := o.detect(ctx, scan, mode, pages, client)
	if err != nil {
		return err
	}

	survivors := finalize(findings)
	if err := o.store.SaveFindings(ctx, scan.ID, survivors); err != nil {
		return fmt.Errorf("save findings: %w", err)
	}

	scan.Status = model.StatusCompleted
	scan.ProgressPercent = 100
	scan.CompletedAt = time.Now().UTC()
	return o.persistAndPublish(ctx, scan)
}

// configure resolves depth/page caps from mode and builds the Scope,
// HttpClient (which internally wires Throttle and CircuitBreaker), Crawler,
// and seed list.
func (o *Orchestrator) configure(scan *model.Scan) (*httpclient.Client, *crawler.Crawler, []string, config.ScanMode, error) {
	mode := config.ScanMode(scan.Mode)
	depthCap := o.baseConfig.Crawl.MaxDepth(mode)
	pagesCap := o.baseConfig.Crawl.MaxPages(mode)

	sc, err := scope.New(scan.TargetURL, scan.IncludeSubdomains, scan.ExcludePatterns)
	if err != nil {
		return nil, nil, nil, mode, fmt.Errorf("construct scope: %w", err)
	}

	httpCfg := o.baseConfig.HTTP
	if scan.RequestDelay > 0 {
		httpCfg.RequestDelaySeconds = scan.RequestDelay
	}
	if len(scan.CustomHeaders) > 0 {
		httpCfg.CustomHeaders = scan.CustomHeaders
	}
	client := httpclient.New(httpCfg, o.logger)

	detector.SetCanaryPrefix(o.baseConfig.Detector.CanaryPrefix)
	detector.SetDisabledModules(o.baseConfig.Detector.DisabledModules)

	crw := crawler.New(sc, client, depthCap, pagesCap, httpCfg.Concurrency, o.logger)
	seeds := crawler.Seeds(scan.TargetURL, mode, sc)
	return client, crw, seeds, mode, nil
}

// detect iterates pages in enqueue order, checking
// cancellation before each, running every detector for the mode
// sequentially per page so evidence stays causally ordered.
func (o *Orchestrator) detect(ctx context.Context, scan *model.Scan, mode config.ScanMode, pages []model.CrawledPage, client *httpclient.Client) ([]model.Finding, error) {
	detectors := detector.ForMode(mode)
	var findings []model.Finding

	for _, page := range pages {
		status, err := o.store.RefreshStatus(ctx, scan.ID)
		if err != nil {
			return nil, fmt.Errorf("refresh status: %w", err)
		}
		if status == model.StatusCancelled {
			o.logger.Info().Str("scan_id", scan.ID).Msg("scan cancelled, stopping detect phase")
			return nil, errCancelled
		}

		for _, d := range detectors {
			findings = append(findings, detector.Run(ctx, d, page, client, o.logger)...)
		}

		scan.PagesScanned++
		scan.ProgressPercent = capProgress(30 + int(math.Floor(60*float64(scan.PagesScanned)/float64(maxInt(scan.PagesFound, 1)))))
		if err := o.persistAndPublish(ctx, scan); err != nil {
			return nil, err
		}
	}
	return findings, nil
}

// finalize applies the dedup and severity invariants:
// first occurrence per fingerprint wins, severity is recomputed from the
// CVSS score rather than trusted from the detector, and evidence
// order_index is renumbered contiguously per survivor.
func finalize(findings []model.Finding) []model.Finding {
	seen := make(map[string]bool, len(findings))
	survivors := make([]model.Finding, 0, len(findings))

	for _, f := range findings {
		fp := f.Fingerprint()
		if seen[fp] {
			continue
		}
		seen[fp] = true

		f.Severity = cvss.SeverityFromScore(f.CVSSScore)
		for i := range f.Evidence {
			f.Evidence[i].OrderIndex = i
		}
		survivors = append(survivors, f)
	}
	return survivors
}

// fail transitions the scan to failed without persisting findings; any
// error escaping Configure through Finalize lands here.
func (o *Orchestrator) fail(ctx context.Context, scan *model.Scan, cause error) error {
	scan.Status = model.StatusFailed
	scan.ErrorMessage = cause.Error()
	scan.CompletedAt = time.Now().UTC()

	if err := o.persistAndPublish(ctx, scan); err != nil {
		o.logger.Error().Err(err).Str("scan_id", scan.ID).Msg("failed to persist failure state")
		return err
	}
	return nil
}

func (o *Orchestrator) persistAndPublish(ctx context.Context, scan *model.Scan) error {
	if err := o.store.UpdateScan(ctx, scan); err != nil {
		return fmt.Errorf("update scan: %w", err)
	}
	o.publisher.Publish(scan.ID, progresspub.Snapshot{
		Status:       scan.Status,
		Progress:     scan.ProgressPercent,
		PagesFound:   scan.PagesFound,
		PagesScanned: scan.PagesScanned,
	})
	return nil
}

func capProgress(p int) int {
	if p > 90 {
		return 90
	}
	return p
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
