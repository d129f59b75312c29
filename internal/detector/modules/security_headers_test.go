package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scntm/scanner/internal/model"
)

func TestSecurityHeadersDetector_FlagsMissingHeaders(t *testing.T) {
	d := securityHeadersDetector{}
	page := model.CrawledPage{URL: "https://example.com/", Headers: model.Header{}}

	findings := d.DetectPassive(page)
	assert.Len(t, findings, len(securityHeaderRules))
}

func TestSecurityHeadersDetector_NoFindingsWhenAllPresent(t *testing.T) {
	d := securityHeadersDetector{}
	headers := model.Header{}
	for _, rule := range securityHeaderRules {
		headers.Add(rule.header, "present")
	}
	page := model.CrawledPage{URL: "https://example.com/", Headers: headers}

	findings := d.DetectPassive(page)
	assert.Empty(t, findings)
}

func TestSecurityHeadersDetector_FlagsServerBanner(t *testing.T) {
	d := securityHeadersDetector{}
	headers := model.Header{}
	for _, rule := range securityHeaderRules {
		headers.Add(rule.header, "present")
	}
	headers.Add("Server", "nginx/1.18.0")
	page := model.CrawledPage{URL: "https://example.com/", Headers: headers}

	findings := d.DetectPassive(page)
	assert.Len(t, findings, 1)
	assert.Equal(t, "information_disclosure_header", findings[0].VulnType)
}
