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
	detector.Register(cookieSecurityDetector{})
}

type cookieSecurityDetector struct{}

func (cookieSecurityDetector) Name() string        { return "cookie_security" }
func (cookieSecurityDetector) Description() string { return "Flags Set-Cookie headers missing HttpOnly, Secure, or SameSite." }
func (cookieSecurityDetector) ScanModes() []config.ScanMode {
	return []config.ScanMode{config.ModeQuick, config.ModeFull}
}
func (cookieSecurityDetector) IsActive() bool { return false }

func (d cookieSecurityDetector) DetectPassive(page model.CrawledPage) []model.Finding {
	var findings []model.Finding

	for _, raw := range page.Headers.Values("Set-Cookie") {
		name := cookieName(raw)
		lower := strings.ToLower(raw)

		var missing []string
		if !strings.Contains(lower, "httponly") {
			missing = append(missing, "HttpOnly")
		}
		if !strings.Contains(lower, "secure") {
			missing = append(missing, "Secure")
		}
		if !strings.Contains(lower, "samesite") {
			missing = append(missing, "SameSite")
		}
		if len(missing) == 0 {
			continue
		}

		findings = append(findings, detector.NewFinding(
			d.Name(), "insecure_cookie_flags",
			"CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:U/C:L/I:N/A:N",
			"A05:2021-Security Misconfiguration", "CWE-1004",
			page.URL, name,
			fmt.Sprintf("Cookie %q is missing: %s.", name, strings.Join(missing, ", ")),
			"Set HttpOnly, Secure, and an explicit SameSite attribute on every session cookie.",
			model.ConfidenceConfirmed,
			detector.ResponseEvidence("set-cookie", raw),
		))
	}

	return findings
}

func (cookieSecurityDetector) DetectActive(context.Context, model.CrawledPage, *httpclient.Client) []model.Finding {
	return nil
}

func cookieName(setCookie string) string {
	first := strings.SplitN(setCookie, ";", 2)[0]
	kv := strings.SplitN(first, "=", 2)
	return strings.TrimSpace(kv[0])
}
