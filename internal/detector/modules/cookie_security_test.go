package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scntm/scanner/internal/model"
)

func TestCookieSecurityDetector_FlagsMissingFlags(t *testing.T) {
	d := cookieSecurityDetector{}
	headers := model.Header{}
	headers.Add("Set-Cookie", "session=abc123; Path=/")
	page := model.CrawledPage{URL: "https://example.com/", Headers: headers}

	findings := d.DetectPassive(page)
	assert.Len(t, findings, 1)
	assert.Equal(t, "session", findings[0].AffectedParameter)
}

func TestCookieSecurityDetector_NoFindingWhenFullyFlagged(t *testing.T) {
	d := cookieSecurityDetector{}
	headers := model.Header{}
	headers.Add("Set-Cookie", "session=abc123; Path=/; HttpOnly; Secure; SameSite=Strict")
	page := model.CrawledPage{URL: "https://example.com/", Headers: headers}

	findings := d.DetectPassive(page)
	assert.Empty(t, findings)
}
