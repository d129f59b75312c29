package modules

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/scntm/scanner/internal/config"
	"github.com/scntm/scanner/internal/detector"
	"github.com/scntm/scanner/internal/httpclient"
	"github.com/scntm/scanner/internal/model"
)

func init() {
	detector.Register(pathTraversalDetector{})
}

var pathTraversalParamNames = map[string]bool{
	"file": true, "path": true, "filename": true, "filepath": true,
	"doc": true, "document": true, "page": true, "folder": true,
	"dir": true, "load": true, "include": true, "template": true,
}

var pathTraversalPayloads = []string{
	"../../../../etc/passwd",
	"..%2f..%2f..%2f..%2fetc%2fpasswd",
	"..%252f..%252f..%252f..%252fetc%252fpasswd",
	"....//....//....//....//etc/passwd",
	"..\\..\\..\\..\\windows\\win.ini",
	"/proc/self/environ",
	"/etc/hosts",
	"/etc/passwd",
}

var pathTraversalIndicator = regexp.MustCompile(`root:.*:/bin/|\[extensions\]|for 16-bit app support|daemon:.*:/usr/sbin|HOME=/`)

type pathTraversalDetector struct{}

func (pathTraversalDetector) Name() string        { return "path_traversal" }
func (pathTraversalDetector) Description() string { return "Injects directory-traversal payloads into file-shaped params and form fields." }
func (pathTraversalDetector) ScanModes() []config.ScanMode { return []config.ScanMode{config.ModeFull} }
func (pathTraversalDetector) IsActive() bool               { return true }

func (pathTraversalDetector) DetectPassive(model.CrawledPage) []model.Finding { return nil }

// DetectActive probes file-shaped query parameters and form fields with the
// fixed traversal payload set.
func (d pathTraversalDetector) DetectActive(ctx context.Context, page model.CrawledPage, client *httpclient.Client) []model.Finding {
	var findings []model.Finding
	for _, point := range injectionPoints(page) {
		if !pathTraversalParamNames[strings.ToLower(point.param)] {
			continue
		}
		for _, payload := range pathTraversalPayloads {
			resp, request, err := point.send(ctx, client, payload)
			if err != nil {
				continue
			}
			if pathTraversalIndicator.MatchString(string(resp.Body)) {
				findings = append(findings, detector.NewFinding(
					d.Name(), "path_traversal",
					"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:N/A:N",
					"A01:2021-Broken Access Control", "CWE-22",
					point.targetURL, point.param,
					fmt.Sprintf("Parameter %q returns local file contents with payload %q.", point.param, payload),
					"Resolve file paths against an allowlist and reject any path containing traversal sequences.",
					model.ConfidenceConfirmed,
					detector.PayloadEvidence("payload", payload),
					detector.RequestEvidence("request", request),
				))
				break
			}
		}
	}
	return findings
}
