package modules

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/scntm/scanner/internal/config"
	"github.com/scntm/scanner/internal/detector"
	"github.com/scntm/scanner/internal/httpclient"
	"github.com/scntm/scanner/internal/model"
)

func init() {
	detector.Register(apiMisconfigDetector{})
}

var apiMisconfigProbePaths = []string{
	"/api/", "/graphql", "/swagger.json", "/openapi.json",
	"/api-docs", "/swagger-ui.html", "/_debug/",
}

type apiMisconfigDetector struct{}

func (apiMisconfigDetector) Name() string        { return "api_misconfig" }
func (apiMisconfigDetector) Description() string { return "Probes common API/doc/debug endpoints for structural exposure." }
func (apiMisconfigDetector) ScanModes() []config.ScanMode { return []config.ScanMode{config.ModeFull} }
func (apiMisconfigDetector) IsActive() bool               { return true }

func (apiMisconfigDetector) DetectPassive(model.CrawledPage) []model.Finding { return nil }

func (d apiMisconfigDetector) DetectActive(ctx context.Context, page model.CrawledPage, client *httpclient.Client) []model.Finding {
	u, err := url.Parse(page.URL)
	if err != nil {
		return nil
	}
	origin := &url.URL{Scheme: u.Scheme, Host: u.Host}

	var findings []model.Finding
	for _, path := range apiMisconfigProbePaths {
		target := origin.ResolveReference(&url.URL{Path: path}).String()
		resp, err := client.Get(ctx, target)
		if err != nil || resp.StatusCode != 200 {
			continue
		}
		body := string(resp.Body)

		if strings.Contains(path, "_debug") {
			findings = append(findings, detector.NewFinding(
				d.Name(), "debug_endpoint_exposed",
				"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:L/A:N",
				"A05:2021-Security Misconfiguration", "CWE-215",
				target, "", "A debug endpoint is publicly reachable.",
				"Remove debug endpoints from production deployments or gate them behind authentication.",
				model.ConfidenceConfirmed,
			))
			continue
		}

		switch {
		case containsFold(body, `"paths"`) || containsFold(body, `"openapi"`):
			findings = append(findings, detector.NewFinding(
				d.Name(), "api_spec_exposed",
				"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:L/I:N/A:N",
				"A05:2021-Security Misconfiguration", "CWE-200",
				target, "",
				fmt.Sprintf("API specification document is publicly exposed at %s.", path),
				"Restrict access to API schema documents in production.",
				model.ConfidenceConfirmed,
			))
		case containsFold(body, `"__schema"`):
			findings = append(findings, detector.NewFinding(
				d.Name(), "graphql_introspection_enabled",
				"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:L/I:N/A:N",
				"A05:2021-Security Misconfiguration", "CWE-200",
				target, "", "GraphQL introspection reply returned from a common endpoint.",
				"Disable introspection in production.",
				model.ConfidenceFirm,
			))
		}
	}
	return findings
}
