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
	detector.Register(corsDetector{})
}

type corsOriginKind int

const (
	corsOriginAttacker corsOriginKind = iota
	corsOriginNull
	corsOriginConfusion
)

type corsProbe struct {
	origin string
	kind   corsOriginKind
}

// corsProbes enumerates the probe origins: attacker hosts, the null origin,
// IP-notation variants, auth-confusion, and subdomain/suffix-confusion
// variants built from the target host.
func corsProbes(targetHost string) []corsProbe {
	bare := strings.Split(targetHost, ":")[0]
	return []corsProbe{
		{"https://evil.com", corsOriginAttacker},
		{"http://evil.com", corsOriginAttacker},
		{"null", corsOriginNull},
		{"http://0x7f000001", corsOriginAttacker},
		{"http://2130706433", corsOriginAttacker},
		{"http://0177.0.0.1", corsOriginAttacker},
		{"https://" + bare + "@evil.com", corsOriginAttacker},
		{"https://sub." + bare, corsOriginConfusion},
		{"https://" + bare + ".evil.com", corsOriginConfusion},
		{"https://evil" + bare, corsOriginConfusion},
	}
}

type corsDetector struct{}

func (corsDetector) Name() string        { return "cors" }
func (corsDetector) Description() string { return "Probes CORS origin reflection and credential-sharing misconfiguration." }
func (corsDetector) ScanModes() []config.ScanMode {
	return []config.ScanMode{config.ModeQuick, config.ModeFull}
}
func (corsDetector) IsActive() bool { return true }

func (corsDetector) DetectPassive(model.CrawledPage) []model.Finding { return nil }

func (d corsDetector) DetectActive(ctx context.Context, page model.CrawledPage, client *httpclient.Client) []model.Finding {
	u, err := url.Parse(page.URL)
	if err != nil {
		return nil
	}

	// First matching rule wins; one finding per page.
	for _, probe := range corsProbes(u.Host) {
		resp, err := client.RequestWithHeaders(ctx, "GET", page.URL, map[string]string{"Origin": probe.origin}, nil)
		if err != nil {
			continue
		}

		acao := resp.Headers.Get("Access-Control-Allow-Origin")
		acac := strings.EqualFold(resp.Headers.Get("Access-Control-Allow-Credentials"), "true")
		if acao == "" {
			continue
		}

		var vulnType, vector string
		switch {
		case acao == "*" && acac:
			vulnType = "cors_wildcard_with_credentials"
			vector = "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:N/A:N"
		case acao == probe.origin && acac && probe.kind == corsOriginAttacker:
			vulnType = "cors_origin_reflection_with_credentials"
			vector = "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:N"
		case acao == probe.origin && probe.kind == corsOriginAttacker:
			vulnType = "cors_origin_reflection"
			vector = "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:L/I:N/A:N"
		case acao == "null" && probe.kind == corsOriginNull:
			vulnType = "cors_null_origin_allowed"
			vector = "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:L/I:N/A:N"
		case acao == probe.origin && probe.kind == corsOriginConfusion:
			vulnType = "cors_subdomain_confusion"
			vector = "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:N/A:N"
		default:
			continue
		}

		return []model.Finding{detector.NewFinding(
			d.Name(), vulnType, vector,
			"A05:2021-Security Misconfiguration", "CWE-942",
			page.URL, "Origin",
			fmt.Sprintf("Access-Control-Allow-Origin reflects %q (credentials=%v) for probe origin %q.", acao, acac, probe.origin),
			"Validate Origin against an explicit allowlist; never reflect an arbitrary Origin when credentials are allowed.",
			model.ConfidenceConfirmed,
			detector.RequestEvidence("origin", probe.origin),
			detector.ResponseEvidence("access-control-allow-origin", acao),
		)}
	}
	return nil
}
