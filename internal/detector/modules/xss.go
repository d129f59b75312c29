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
	detector.Register(xssDetector{})
}

type xssContext string

const (
	xssContextHTML      xssContext = "html"
	xssContextAttribute xssContext = "attribute"
	xssContextJS        xssContext = "js"
	xssContextURL       xssContext = "url"
)

var xssEntityWindowPatterns = []string{"&lt;", "&gt;", "&amp;", "&#x3c;", "&#x3C;", "&#60;"}

var xssDOMSources = []string{"location.hash", "location.search", "document.referrer", "window.name", "document.URL", "location.href"}
var xssDOMSinks = []string{"document.write", "innerHTML", "outerHTML", "eval", "setTimeout", "setInterval", "location.href=", "location="}

type xssDetector struct{}

func (xssDetector) Name() string        { return "xss" }
func (xssDetector) Description() string { return "Reflects a unique canary through query params and form fields, context-selecting the payload." }
func (xssDetector) ScanModes() []config.ScanMode {
	return []config.ScanMode{config.ModeQuick, config.ModeFull}
}
func (xssDetector) IsActive() bool { return true }

func (xssDetector) DetectPassive(model.CrawledPage) []model.Finding { return nil }

// DetectActive probes every query parameter and form field with a
// context-selected canary payload, using the page body as the baseline for
// context guessing.
func (d xssDetector) DetectActive(ctx context.Context, page model.CrawledPage, client *httpclient.Client) []model.Finding {
	canary := detector.CanaryPrefix()
	var findings []model.Finding

	for _, point := range injectionPoints(page) {
		ctxGuess := guessXSSContext(page.Body, point.param)
		payload := xssPayloadFor(ctxGuess, canary)

		resp, request, err := point.send(ctx, client, payload)
		if err != nil {
			continue
		}

		if reflectedUnencoded(string(resp.Body), canary) {
			findings = append(findings, detector.NewFinding(
				d.Name(), "reflected_xss",
				"CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:C/C:L/I:L/A:N",
				"A03:2021-Injection", "CWE-79",
				point.targetURL, point.param,
				fmt.Sprintf("Parameter %q reflects an unencoded payload in a %s context.", point.param, ctxGuess),
				"HTML-encode all user input before reflecting it into the response; set a strict Content-Security-Policy.",
				model.ConfidenceConfirmed,
				detector.PayloadEvidence("payload", payload),
				detector.RequestEvidence("request", request),
				detector.ResponseEvidence("reflection", surroundingWindow(string(resp.Body), canary, 50)),
			))
		}
	}

	if len(findings) == 0 {
		findings = append(findings, d.domSinkHeuristic(page)...)
	}
	return findings
}

func (d xssDetector) domSinkHeuristic(page model.CrawledPage) []model.Finding {
	if containsAny(page.Body, xssDOMSources) && containsAny(page.Body, xssDOMSinks) {
		return []model.Finding{detector.NewFinding(
			d.Name(), "dom_xss_heuristic",
			"CVSS:3.1/AV:N/AC:H/PR:N/UI:R/S:C/C:L/I:L/A:N",
			"A03:2021-Injection", "CWE-79",
			page.URL, "",
			"Page contains both a DOM XSS source and sink pattern, suggesting a possible DOM-based XSS sink.",
			"Avoid passing untrusted DOM sources directly into sinks like innerHTML or eval.",
			model.ConfidenceTentative,
		)}
	}
	return nil
}

func guessXSSContext(baseline, paramName string) xssContext {
	idx := strings.Index(baseline, paramName)
	if idx < 0 {
		return xssContextHTML
	}
	start := idx - 200
	if start < 0 {
		start = 0
	}
	window := baseline[start:idx]

	if strings.Contains(window, "<script") && !strings.Contains(window, "</script>") {
		return xssContextJS
	}
	trailing := window
	if len(trailing) > 50 {
		trailing = trailing[len(trailing)-50:]
	}
	if strings.HasSuffix(strings.TrimSpace(trailing), `="`) || strings.HasSuffix(strings.TrimSpace(trailing), "='") {
		return xssContextAttribute
	}
	if containsAny(trailing, []string{"href=", "src=", "action="}) {
		return xssContextURL
	}
	return xssContextHTML
}

func xssPayloadFor(ctx xssContext, canary string) string {
	switch ctx {
	case xssContextJS:
		return `';` + canary + `;'`
	case xssContextAttribute:
		return `" onmouseover="` + canary + `` + `"`
	case xssContextURL:
		return `javascript:` + canary
	default:
		return `<svg onload=` + canary + `>`
	}
}

func reflectedUnencoded(body, canary string) bool {
	idx := strings.Index(body, canary)
	if idx < 0 {
		return false
	}
	window := surroundingWindow(body, canary, 50)
	for _, enc := range xssEntityWindowPatterns {
		if strings.Contains(window, enc) {
			return false
		}
	}
	return true
}

var wsCollapse = regexp.MustCompile(`\s+`)

func surroundingWindow(body, needle string, radius int) string {
	idx := strings.Index(body, needle)
	if idx < 0 {
		return ""
	}
	start := idx - radius
	if start < 0 {
		start = 0
	}
	end := idx + len(needle) + radius
	if end > len(body) {
		end = len(body)
	}
	return wsCollapse.ReplaceAllString(body[start:end], " ")
}
