package modules

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scntm/scanner/internal/model"
)

func TestCORSDetector_ReflectionWithCredentialsIsCritical(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", r.Header.Get("Origin"))
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	d := corsDetector{}
	findings := d.DetectActive(context.Background(), model.CrawledPage{URL: srv.URL + "/"}, newTestHTTPClient())

	require.Len(t, findings, 1)
	assert.Equal(t, "cors_origin_reflection_with_credentials", findings[0].VulnType)
	assert.Equal(t, model.SeverityCritical, findings[0].Severity)
	assert.InDelta(t, 9.1, findings[0].CVSSScore, 0.001)
	assert.Equal(t, model.ConfidenceConfirmed, findings[0].Confidence)
}

func TestCORSDetector_ReflectionWithoutCredentialsIsMedium(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", r.Header.Get("Origin"))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	d := corsDetector{}
	findings := d.DetectActive(context.Background(), model.CrawledPage{URL: srv.URL + "/"}, newTestHTTPClient())

	require.Len(t, findings, 1)
	assert.Equal(t, "cors_origin_reflection", findings[0].VulnType)
	assert.Equal(t, model.SeverityMedium, findings[0].Severity)
}

func TestCORSDetector_NoCORSHeadersNoFinding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	d := corsDetector{}
	findings := d.DetectActive(context.Background(), model.CrawledPage{URL: srv.URL + "/"}, newTestHTTPClient())
	assert.Empty(t, findings)
}
