package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinding_Fingerprint_DistinguishesParameter(t *testing.T) {
	base := Finding{ModuleName: "xss", VulnType: "Reflected XSS", AffectedURL: "https://x/s"}
	withParam := base
	withParam.AffectedParameter = "q"

	assert.NotEqual(t, base.Fingerprint(), withParam.Fingerprint())
}

func TestFinding_Fingerprint_SameInputsEqual(t *testing.T) {
	a := Finding{ModuleName: "sqli", VulnType: "MySQL Error SQLi", AffectedURL: "https://x/s", AffectedParameter: "id"}
	b := Finding{ModuleName: "sqli", VulnType: "MySQL Error SQLi", AffectedURL: "https://x/s", AffectedParameter: "id"}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestScanStatus_Terminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusScanning.Terminal())
	assert.False(t, StatusPending.Terminal())
}

func TestHeader_CaseInsensitive(t *testing.T) {
	h := Header{}
	h.Add("content-type", "text/html")

	assert.Equal(t, "text/html", h.Get("Content-Type"))
}
