package modules

import (
	"context"
	"strings"

	"github.com/scntm/scanner/internal/config"
	"github.com/scntm/scanner/internal/detector"
	"github.com/scntm/scanner/internal/httpclient"
	"github.com/scntm/scanner/internal/model"
)

func init() {
	detector.Register(csrfDetector{})
}

var csrfTokenNames = map[string]bool{
	"csrf_token": true, "csrfmiddlewaretoken": true, "_csrf": true,
	"authenticity_token": true, "_token": true, "x-csrf-token": true,
	"__requestverificationtoken": true, "anticsrf": true,
}

type csrfDetector struct{}

func (csrfDetector) Name() string        { return "csrf" }
func (csrfDetector) Description() string { return "Flags POST forms without a recognizable anti-CSRF token input." }
func (csrfDetector) ScanModes() []config.ScanMode { return []config.ScanMode{config.ModeFull} }
func (csrfDetector) IsActive() bool               { return false }

func (d csrfDetector) DetectPassive(page model.CrawledPage) []model.Finding {
	var findings []model.Finding
	for _, form := range page.Forms {
		if !strings.EqualFold(form.Method, "POST") {
			continue
		}
		if formHasCSRFToken(form) {
			continue
		}
		findings = append(findings, detector.NewFinding(
			d.Name(), "missing_csrf_token",
			"CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:U/C:N/I:L/A:N",
			"A01:2021-Broken Access Control", "CWE-352",
			form.Action, "",
			"POST form has no recognizable anti-CSRF token input.",
			"Issue a per-session anti-CSRF token and validate it on every state-changing request.",
			model.ConfidenceFirm,
		))
	}
	return findings
}

func (csrfDetector) DetectActive(context.Context, model.CrawledPage, *httpclient.Client) []model.Finding {
	return nil
}

func formHasCSRFToken(form model.Form) bool {
	for _, in := range form.Inputs {
		if csrfTokenNames[strings.ToLower(in.Name)] {
			return true
		}
	}
	return false
}
