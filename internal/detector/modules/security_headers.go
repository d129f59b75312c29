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
	detector.Register(securityHeadersDetector{})
}

type securityHeaderRule struct {
	header      string
	vulnType    string
	description string
	vector      string
}

var securityHeaderRules = []securityHeaderRule{
	{"Strict-Transport-Security", "missing_hsts", "Response does not set Strict-Transport-Security.", "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:L/I:N/A:N"},
	{"X-Content-Type-Options", "missing_x_content_type_options", "Response does not set X-Content-Type-Options: nosniff.", "CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:U/C:L/I:N/A:N"},
	{"X-Frame-Options", "missing_x_frame_options", "Response does not set X-Frame-Options, enabling clickjacking.", "CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:U/C:N/I:L/A:N"},
	{"Content-Security-Policy", "missing_csp", "Response does not set a Content-Security-Policy.", "CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:U/C:L/I:L/A:N"},
	{"X-XSS-Protection", "missing_x_xss_protection", "Response does not set X-XSS-Protection.", "CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:U/C:N/I:L/A:N"},
	{"Referrer-Policy", "missing_referrer_policy", "Response does not set Referrer-Policy.", "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:L/I:N/A:N"},
	{"Permissions-Policy", "missing_permissions_policy", "Response does not set Permissions-Policy.", "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:L/I:N/A:N"},
}

var infoDisclosureHeaders = []string{"Server", "X-Powered-By", "X-AspNet-Version"}

type securityHeadersDetector struct{}

func (securityHeadersDetector) Name() string        { return "security_headers" }
func (securityHeadersDetector) Description() string { return "Checks for missing security response headers and server-banner disclosure." }
func (securityHeadersDetector) ScanModes() []config.ScanMode {
	return []config.ScanMode{config.ModeQuick, config.ModeFull}
}
func (securityHeadersDetector) IsActive() bool { return false }

func (d securityHeadersDetector) DetectPassive(page model.CrawledPage) []model.Finding {
	var findings []model.Finding

	for _, rule := range securityHeaderRules {
		if page.Headers.Get(rule.header) != "" {
			continue
		}
		findings = append(findings, detector.NewFinding(
			d.Name(), rule.vulnType, rule.vector,
			"A05:2021-Security Misconfiguration", "CWE-693",
			page.URL, "", rule.description,
			fmt.Sprintf("Set the %s response header.", rule.header),
			model.ConfidenceConfirmed,
			detector.ResponseEvidence("headers", fmt.Sprintf("%v", map[string][]string(page.Headers))),
		))
	}

	for _, h := range infoDisclosureHeaders {
		v := page.Headers.Get(h)
		if v == "" {
			continue
		}
		findings = append(findings, detector.NewFinding(
			d.Name(), "information_disclosure_header",
			"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:L/I:N/A:N",
			"A05:2021-Security Misconfiguration", "CWE-200",
			page.URL, "", fmt.Sprintf("Response discloses implementation details via %s: %s", h, v),
			fmt.Sprintf("Remove or genericize the %s header.", h),
			model.ConfidenceConfirmed,
			detector.ResponseEvidence(h, v),
		))
	}

	return findings
}

func (securityHeadersDetector) DetectActive(context.Context, model.CrawledPage, *httpclient.Client) []model.Finding {
	return nil
}
