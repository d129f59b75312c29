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
	detector.Register(rateLimitCheckDetector{})
}

type rateLimitCheckDetector struct{}

func (rateLimitCheckDetector) Name() string        { return "rate_limit_check" }
func (rateLimitCheckDetector) Description() string { return "Flags login-shaped pages with no visible rate-limit response headers." }
func (rateLimitCheckDetector) ScanModes() []config.ScanMode { return []config.ScanMode{config.ModeFull} }
func (rateLimitCheckDetector) IsActive() bool               { return false }

func (d rateLimitCheckDetector) DetectPassive(page model.CrawledPage) []model.Finding {
	if !pageHasPasswordForm(page) {
		return nil
	}
	if hasRateLimitHeaders(page.Headers) {
		return nil
	}
	return []model.Finding{detector.NewFinding(
		d.Name(), "missing_auth_rate_limiting",
		"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:N/I:N/A:L",
		"A07:2021-Identification and Authentication Failures", "CWE-307",
		page.URL, "",
		"Page has a password form but exposes no rate-limit response headers, suggesting unthrottled login attempts.",
		"Rate-limit authentication endpoints per account and per source IP.",
		model.ConfidenceTentative,
	)}
}

func (rateLimitCheckDetector) DetectActive(context.Context, model.CrawledPage, *httpclient.Client) []model.Finding {
	return nil
}

func pageHasPasswordForm(page model.CrawledPage) bool {
	for _, form := range page.Forms {
		for _, in := range form.Inputs {
			if strings.EqualFold(in.Type, "password") {
				return true
			}
		}
	}
	return false
}

func hasRateLimitHeaders(h model.Header) bool {
	for key := range h {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "x-ratelimit-") || strings.HasPrefix(lower, "ratelimit-") || lower == "retry-after" {
			return true
		}
	}
	return false
}
