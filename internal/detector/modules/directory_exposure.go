package modules

import (
	"context"
	"fmt"
	"net/url"

	"github.com/scntm/scanner/internal/config"
	"github.com/scntm/scanner/internal/detector"
	"github.com/scntm/scanner/internal/httpclient"
	"github.com/scntm/scanner/internal/model"
)

func init() {
	detector.Register(directoryExposureDetector{})
}

var directoryListingIndicators = []string{
	"Index of /", "<title>Directory listing for", "Parent Directory</a>",
	"[To Parent Directory]",
}

var directoryExposureProbePaths = []string{
	"/backup/", "/tmp/", "/.git/", "/.svn/", "/.env", "/config/",
	"/uploads/", "/files/", "/old/", "/.well-known/",
}

type directoryExposureDetector struct{}

func (directoryExposureDetector) Name() string        { return "directory_exposure" }
func (directoryExposureDetector) Description() string { return "Flags directory-listing pages and probes a fixed set of sensitive directories." }
func (directoryExposureDetector) ScanModes() []config.ScanMode {
	return []config.ScanMode{config.ModeQuick, config.ModeFull}
}
func (directoryExposureDetector) IsActive() bool { return true }

func (d directoryExposureDetector) DetectPassive(page model.CrawledPage) []model.Finding {
	if !containsAny(page.Body, directoryListingIndicators) {
		return nil
	}
	return []model.Finding{detector.NewFinding(
		d.Name(), "directory_listing",
		"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:L/I:N/A:N",
		"A05:2021-Security Misconfiguration", "CWE-548",
		page.URL, "", "Page renders a directory listing.",
		"Disable directory listing in the web server/framework configuration.",
		model.ConfidenceConfirmed,
	)}
}

func (d directoryExposureDetector) DetectActive(ctx context.Context, page model.CrawledPage, client *httpclient.Client) []model.Finding {
	u, err := url.Parse(page.URL)
	if err != nil {
		return nil
	}
	origin := &url.URL{Scheme: u.Scheme, Host: u.Host}

	var findings []model.Finding
	for _, path := range directoryExposureProbePaths {
		target := origin.ResolveReference(&url.URL{Path: path}).String()
		resp, err := client.Get(ctx, target)
		if err != nil || resp.StatusCode != 200 {
			continue
		}
		if !containsAny(string(resp.Body), directoryListingIndicators) {
			continue
		}
		findings = append(findings, detector.NewFinding(
			d.Name(), "directory_exposure",
			"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:L/I:N/A:N",
			"A05:2021-Security Misconfiguration", "CWE-548",
			target, "",
			fmt.Sprintf("Directory %s is exposed and lists its contents.", path),
			"Remove public access to the directory or disable listing.",
			model.ConfidenceConfirmed,
		))
	}
	return findings
}
