package modules

import (
	"context"
	"fmt"

	"github.com/scntm/scanner/internal/config"
	"github.com/scntm/scanner/internal/detector"
	"github.com/scntm/scanner/internal/httpclient"
	"github.com/scntm/scanner/internal/model"
)

func init() {
	detector.Register(crlfInjectionDetector{})
}

const crlfInjectedHeaderName = "X-Scntm-Crlf"

var crlfPayloads = []string{
	"\r\nX-Scntm-Crlf: injected",
	"%0d%0aX-Scntm-Crlf:%20injected",
	"%0D%0AX-Scntm-Crlf:%20injected",
	" X-Scntm-Crlf: injected",
	"\r\n\r\nX-Scntm-Crlf: injected",
	"%0d%0a%0d%0a<html>injected</html>",
}

type crlfInjectionDetector struct{}

func (crlfInjectionDetector) Name() string        { return "crlf_injection" }
func (crlfInjectionDetector) Description() string { return "Injects CR/LF sequences and checks for response header/body splitting." }
func (crlfInjectionDetector) ScanModes() []config.ScanMode { return []config.ScanMode{config.ModeFull} }
func (crlfInjectionDetector) IsActive() bool               { return true }

func (crlfInjectionDetector) DetectPassive(model.CrawledPage) []model.Finding { return nil }

func (d crlfInjectionDetector) DetectActive(ctx context.Context, page model.CrawledPage, client *httpclient.Client) []model.Finding {
	var findings []model.Finding
	for _, name := range queryParamNames(page.URL) {
		for _, payload := range crlfPayloads {
			testURL, err := withQueryParam(page.URL, name, payload)
			if err != nil {
				continue
			}
			resp, err := client.Get(ctx, testURL)
			if err != nil {
				continue
			}

			if resp.Headers.Get(crlfInjectedHeaderName) != "" || containsFold(string(resp.Body), "<html>injected</html>") {
				findings = append(findings, detector.NewFinding(
					d.Name(), "crlf_injection",
					"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:L/I:L/A:N",
					"A03:2021-Injection", "CWE-93",
					page.URL, name,
					fmt.Sprintf("Parameter %q injects a CR/LF sequence that splits the response with payload %q.", name, payload),
					"Strip or reject CR/LF characters from values reflected into headers.",
					model.ConfidenceConfirmed,
					detector.RequestEvidence("payload_url", testURL),
				))
				break
			}
		}
	}
	return findings
}
