package modules

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/temoto/robotstxt"

	"github.com/scntm/scanner/internal/config"
	"github.com/scntm/scanner/internal/detector"
	"github.com/scntm/scanner/internal/httpclient"
	"github.com/scntm/scanner/internal/model"
)

func init() {
	detector.Register(robotsTxtDetector{})
}

var sensitiveRobotsKeywords = []string{
	"admin", "backup", "config", "private", "secret", "internal",
	"staging", "dev", "test", "api", "database", "db", "credentials",
	"password", ".env", "wp-admin", "panel",
}

type robotsTxtDetector struct{}

func (robotsTxtDetector) Name() string        { return "robots_txt" }
func (robotsTxtDetector) Description() string { return "Parses robots.txt and flags Disallow entries naming sensitive paths." }
func (robotsTxtDetector) ScanModes() []config.ScanMode {
	return []config.ScanMode{config.ModeQuick, config.ModeFull}
}
func (robotsTxtDetector) IsActive() bool { return true }

func (robotsTxtDetector) DetectPassive(model.CrawledPage) []model.Finding { return nil }

func (d robotsTxtDetector) DetectActive(ctx context.Context, page model.CrawledPage, client *httpclient.Client) []model.Finding {
	u, err := url.Parse(page.URL)
	if err != nil {
		return nil
	}
	robotsURL := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/robots.txt"}).String()

	resp, err := client.Get(ctx, robotsURL)
	if err != nil || resp.StatusCode != 200 {
		return nil
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, resp.Body)
	if err != nil {
		return nil
	}

	group := data.FindGroup("*")
	if group == nil {
		return nil
	}

	var findings []model.Finding
	seen := map[string]bool{}
	for _, line := range strings.Split(string(resp.Body), "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found || !strings.EqualFold(strings.TrimSpace(key), "disallow") {
			continue
		}
		path := strings.TrimSpace(strings.SplitN(value, "#", 2)[0])
		if path == "" || group.Test(path) {
			continue
		}
		if seen[path] || !containsAnyFold(path, sensitiveRobotsKeywords) {
			continue
		}
		seen[path] = true
		findings = append(findings, detector.NewFinding(
			d.Name(), "sensitive_disallow_path",
			"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:N/I:N/A:N",
			"A01:2021-Broken Access Control", "CWE-200",
			robotsURL, "",
			fmt.Sprintf("robots.txt discloses a sensitive path: %s", path),
			"Do not rely on robots.txt to hide sensitive paths; enforce access control server-side.",
			model.ConfidenceFirm,
			detector.ResponseEvidence("disallow", path),
		))
	}
	return findings
}
