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
	detector.Register(graphqlDetector{})
}

var graphqlEndpoints = []string{"/graphql", "/api/graphql", "/v1/graphql", "/query"}
var graphqlIDEPaths = []string{"/graphiql", "/graphql/console", "/graphql/voyager"}

const graphqlIntrospectionQuery = `{"query":"{__schema{types{name}}}"}`
const graphqlTypenameQuery = `{"query":"{__typename}"}`

type graphqlDetector struct{}

func (graphqlDetector) Name() string        { return "graphql" }
func (graphqlDetector) Description() string { return "Probes common GraphQL endpoints for introspection, batching, and exposed IDE consoles." }
func (graphqlDetector) ScanModes() []config.ScanMode { return []config.ScanMode{config.ModeFull} }
func (graphqlDetector) IsActive() bool               { return true }

func (graphqlDetector) DetectPassive(model.CrawledPage) []model.Finding { return nil }

func (d graphqlDetector) DetectActive(ctx context.Context, page model.CrawledPage, client *httpclient.Client) []model.Finding {
	u, err := url.Parse(page.URL)
	if err != nil {
		return nil
	}
	origin := &url.URL{Scheme: u.Scheme, Host: u.Host}

	var findings []model.Finding
	for _, path := range graphqlEndpoints {
		endpoint := origin.ResolveReference(&url.URL{Path: path}).String()

		resp, err := client.Post(ctx, endpoint, []byte(graphqlIntrospectionQuery), "application/json")
		if err != nil {
			continue
		}
		if containsFold(string(resp.Body), `"__schema"`) {
			findings = append(findings, detector.NewFinding(
				d.Name(), "graphql_introspection_enabled",
				"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:L/I:N/A:N",
				"A05:2021-Security Misconfiguration", "CWE-200",
				endpoint, "",
				"GraphQL introspection is enabled, exposing the full schema.",
				"Disable introspection in production deployments.",
				model.ConfidenceConfirmed,
				detector.ResponseEvidence("introspection_response", truncate(string(resp.Body), 500)),
			))
		}

		if f := d.probeBatching(ctx, client, endpoint); f != nil {
			findings = append(findings, *f)
		}
	}

	for _, path := range graphqlIDEPaths {
		endpoint := origin.ResolveReference(&url.URL{Path: path}).String()
		resp, err := client.Get(ctx, endpoint)
		if err != nil || resp.StatusCode != 200 {
			continue
		}
		findings = append(findings, detector.NewFinding(
			d.Name(), "graphql_ide_exposed",
			"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:L/I:N/A:N",
			"A05:2021-Security Misconfiguration", "CWE-200",
			endpoint, "",
			fmt.Sprintf("GraphQL IDE console is exposed at %s.", path),
			"Remove GraphQL IDE consoles from production deployments.",
			model.ConfidenceConfirmed,
		))
	}

	return findings
}

func (d graphqlDetector) probeBatching(ctx context.Context, client *httpclient.Client, endpoint string) *model.Finding {
	batch := "[" + graphqlTypenameQuery + "," + graphqlTypenameQuery + "," + graphqlTypenameQuery + "," + graphqlTypenameQuery + "," + graphqlTypenameQuery + "]"
	resp, err := client.Post(ctx, endpoint, []byte(batch), "application/json")
	if err != nil {
		return nil
	}
	count := strings.Count(string(resp.Body), `"__typename"`)
	if count < 3 {
		return nil
	}
	f := detector.NewFinding(
		d.Name(), "graphql_batching_allowed",
		"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:N/I:N/A:L",
		"A04:2021-Insecure Design", "CWE-770",
		endpoint, "",
		"Endpoint accepts batched GraphQL queries, enabling resource-exhaustion and rate-limit bypass.",
		"Limit batch size or disable query batching.",
		model.ConfidenceConfirmed,
	)
	return &f
}

