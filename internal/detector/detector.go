// Package detector defines the Detector contract and the static
// registry every module in internal/detector/modules registers itself
// into at init time.
package detector

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/scntm/scanner/internal/config"
	"github.com/scntm/scanner/internal/httpclient"
	"github.com/scntm/scanner/internal/model"
)

// Detector is one vulnerability check. Implementations are stateless and
// safe for concurrent use across pages.
type Detector interface {
	Name() string
	Description() string
	ScanModes() []config.ScanMode
	IsActive() bool

	// DetectPassive analyzes an already-fetched page without issuing any
	// further requests.
	DetectPassive(page model.CrawledPage) []model.Finding

	// DetectActive may issue additional requests through client.
	DetectActive(ctx context.Context, page model.CrawledPage, client *httpclient.Client) []model.Finding
}

var registry []Detector

// Register adds d to the static registry. Called from module package
// init() functions; never called after startup.
func Register(d Detector) {
	registry = append(registry, d)
}

// canaryPrefix is the reflection marker the xss detector injects and looks
// for; the other injection detectors use their own fixed markers. It
// defaults to the built-in config default and is overridden once per run by the
// orchestrator via SetCanaryPrefix, honoring config.DetectorConfig.
var canaryPrefix = "scntm7x5s"

// SetCanaryPrefix overrides the canary returned by CanaryPrefix for the
// remainder of the process.
func SetCanaryPrefix(prefix string) {
	if prefix != "" {
		canaryPrefix = prefix
	}
}

// CanaryPrefix returns the active canary marker.
func CanaryPrefix() string { return canaryPrefix }

// Disabled reports whether moduleName is in disabledModules, letting the
// orchestrator honor config.DetectorConfig.DisabledModules without the
// registry needing to know about config at registration time.
var disabledModules map[string]bool

// SetDisabledModules configures which module names Disabled reports true
// for, for the remainder of the process.
func SetDisabledModules(names []string) {
	disabledModules = make(map[string]bool, len(names))
	for _, n := range names {
		disabledModules[n] = true
	}
}

// Disabled reports whether moduleName was listed in SetDisabledModules.
func Disabled(moduleName string) bool {
	return disabledModules[moduleName]
}

// ForMode returns the registered detectors active for mode, in
// registration order.
func ForMode(mode config.ScanMode) []Detector {
	var out []Detector
	for _, d := range registry {
		if Disabled(d.Name()) {
			continue
		}
		for _, m := range d.ScanModes() {
			if m == mode {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

// Run invokes DetectPassive, then DetectActive if d.IsActive(), swallowing
// any panic as a warning log; a single misbehaving detector never
// fails the scan.
func Run(ctx context.Context, d Detector, page model.CrawledPage, client *httpclient.Client, logger zerolog.Logger) []model.Finding {
	var findings []model.Finding

	findings = append(findings, safeCall(logger, d.Name(), "passive", func() []model.Finding {
		return d.DetectPassive(page)
	})...)

	if d.IsActive() {
		findings = append(findings, safeCall(logger, d.Name(), "active", func() []model.Finding {
			return d.DetectActive(ctx, page, client)
		})...)
	}

	return findings
}

func safeCall(logger zerolog.Logger, name, phase string, fn func() []model.Finding) []model.Finding {
	var result []model.Finding
	func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Warn().
					Str("detector", name).
					Str("phase", phase).
					Interface("panic", r).
					Msg("detector panicked, treating page as no finding")
			}
		}()
		result = fn()
	}()
	return result
}
