package modules

import (
	"context"
	"net/url"
	"strings"

	"github.com/scntm/scanner/internal/config"
	"github.com/scntm/scanner/internal/detector"
	"github.com/scntm/scanner/internal/httpclient"
	"github.com/scntm/scanner/internal/model"
)

func init() {
	detector.Register(httpsCheckDetector{})
}

type httpsCheckDetector struct{}

func (httpsCheckDetector) Name() string        { return "https_check" }
func (httpsCheckDetector) Description() string { return "Flags plaintext HTTP pages and HTTPS pages loading mixed-content subresources." }
func (httpsCheckDetector) ScanModes() []config.ScanMode {
	return []config.ScanMode{config.ModeQuick, config.ModeFull}
}
func (httpsCheckDetector) IsActive() bool { return false }

func (d httpsCheckDetector) DetectPassive(page model.CrawledPage) []model.Finding {
	u, err := url.Parse(page.URL)
	if err != nil {
		return nil
	}

	if u.Scheme == "http" {
		return []model.Finding{detector.NewFinding(
			d.Name(), "missing_https",
			"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:L/I:L/A:N",
			"A02:2021-Cryptographic Failures", "CWE-319",
			page.URL, "", "Page is served over plaintext HTTP.",
			"Redirect all HTTP traffic to HTTPS and enable HSTS.",
			model.ConfidenceConfirmed,
		)}
	}

	var mixed []string
	for _, link := range page.Links {
		lu, err := url.Parse(link)
		if err != nil || lu.Scheme != "http" {
			continue
		}
		mixed = append(mixed, link)
	}
	if len(mixed) == 0 {
		return nil
	}
	return []model.Finding{detector.NewFinding(
		d.Name(), "mixed_content",
		"CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:U/C:L/I:L/A:N",
		"A02:2021-Cryptographic Failures", "CWE-319",
		page.URL, "", "HTTPS page references plaintext HTTP subresources: "+strings.Join(mixed, ", "),
		"Serve all subresources over HTTPS.",
		model.ConfidenceConfirmed,
		detector.PayloadEvidence("mixed_resources", strings.Join(mixed, "\n")),
	)}
}

func (httpsCheckDetector) DetectActive(context.Context, model.CrawledPage, *httpclient.Client) []model.Finding {
	return nil
}
