package modules

import (
	"context"
	"fmt"
	"strings"

	"github.com/scntm/scanner/internal/config"
	"github.com/scntm/scanner/internal/detector"
	"github.com/scntm/scanner/internal/httpclient"
	"github.com/scntm/scanner/internal/model"
)

func init() {
	detector.Register(sstiDetector{})
}

var sstiExpressions = map[string]string{
	"{{7*7}}":       "49",
	"${7*7}":        "49",
	"#{7*7}":        "49",
	"{{'7'*7}}":     "7777777",
	"<%= 7*7 %>":    "49",
	"${{7*7}}":      "49",
}

type sstiDetector struct{}

func (sstiDetector) Name() string        { return "ssti" }
func (sstiDetector) Description() string { return "Injects template expressions and checks for evaluated arithmetic in the response." }
func (sstiDetector) ScanModes() []config.ScanMode { return []config.ScanMode{config.ModeFull} }
func (sstiDetector) IsActive() bool               { return true }

func (sstiDetector) DetectPassive(model.CrawledPage) []model.Finding { return nil }

// DetectActive injects each template expression into every query parameter
// and form field. The page body as the crawler saw it is the baseline: an
// expected result already present there is skipped as a false positive.
func (d sstiDetector) DetectActive(ctx context.Context, page model.CrawledPage, client *httpclient.Client) []model.Finding {
	var findings []model.Finding
	for _, point := range injectionPoints(page) {
		for expr, result := range sstiExpressions {
			if strings.Contains(page.Body, result) {
				continue
			}
			resp, request, err := point.send(ctx, client, expr)
			if err != nil {
				continue
			}
			body := string(resp.Body)
			if strings.Contains(body, result) && !strings.Contains(body, expr) {
				findings = append(findings, detector.NewFinding(
					d.Name(), "ssti",
					"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:C/C:H/I:H/A:H",
					"A03:2021-Injection", "CWE-1336",
					point.targetURL, point.param,
					fmt.Sprintf("Parameter %q evaluates template expression %q to %q.", point.param, expr, result),
					"Never render user input through a template engine's eval path; use a logic-less or sandboxed template engine.",
					model.ConfidenceConfirmed,
					detector.PayloadEvidence("expression", expr),
					detector.RequestEvidence("request", request),
					detector.ResponseEvidence("evaluated_result", result),
				))
				break
			}
		}
	}
	return findings
}
