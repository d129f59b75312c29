package modules

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/scntm/scanner/internal/config"
	"github.com/scntm/scanner/internal/detector"
	"github.com/scntm/scanner/internal/httpclient"
	"github.com/scntm/scanner/internal/model"
)

func init() {
	detector.Register(openRedirectDetector{})
}

var openRedirectParamNames = map[string]bool{
	"url": true, "redirect": true, "next": true, "return": true,
	"returnto": true, "goto": true, "target": true, "redir": true,
	"destination": true, "continue": true,
}

var openRedirectPayloads = []string{"https://evil.com", "//evil.com", `/\evil.com`}

type openRedirectDetector struct{}

func (openRedirectDetector) Name() string        { return "open_redirect" }
func (openRedirectDetector) Description() string { return "Replaces redirect-shaped query params with an attacker URL and checks where the server sends the client." }
func (openRedirectDetector) ScanModes() []config.ScanMode {
	return []config.ScanMode{config.ModeQuick, config.ModeFull}
}
func (openRedirectDetector) IsActive() bool { return true }

func (openRedirectDetector) DetectPassive(model.CrawledPage) []model.Finding { return nil }

func (d openRedirectDetector) DetectActive(ctx context.Context, page model.CrawledPage, client *httpclient.Client) []model.Finding {
	var findings []model.Finding
	for _, name := range queryParamNames(page.URL) {
		if !openRedirectParamNames[strings.ToLower(name)] {
			continue
		}
		for _, payload := range openRedirectPayloads {
			testURL, err := withQueryParam(page.URL, name, payload)
			if err != nil {
				continue
			}
			resp, err := client.RequestNoRedirect(ctx, "GET", testURL)
			if err != nil {
				continue
			}
			if resp.StatusCode < 300 || resp.StatusCode > 308 {
				continue
			}
			loc, err := url.Parse(resp.Headers.Get("Location"))
			if err != nil || !strings.Contains(loc.Hostname(), "evil.com") {
				continue
			}

			findings = append(findings, detector.NewFinding(
				d.Name(), "open_redirect",
				"CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:U/C:N/I:L/A:N",
				"A01:2021-Broken Access Control", "CWE-601",
				page.URL, name,
				fmt.Sprintf("Parameter %q redirects to an attacker-controlled host when set to %q.", name, payload),
				"Validate redirect targets against an allowlist of same-origin paths.",
				model.ConfidenceConfirmed,
				detector.RequestEvidence("request_url", testURL),
				detector.ResponseEvidence("location", resp.Headers.Get("Location")),
			))
			break
		}
	}
	return findings
}
