package modules

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scntm/scanner/internal/config"
	"github.com/scntm/scanner/internal/httpclient"
	"github.com/scntm/scanner/internal/model"
)

func newTestHTTPClient() *httpclient.Client {
	cfg := config.NewDefaultScannerConfig().HTTP
	cfg.RequestDelaySeconds = 0
	return httpclient.New(cfg, zerolog.Nop())
}

func TestOpenRedirectDetector_DetectsAttackerRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target := r.URL.Query().Get("next")
		if target != "" {
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	d := openRedirectDetector{}
	page := model.CrawledPage{URL: srv.URL + "/?next=/home"}

	findings := d.DetectActive(context.Background(), page, newTestHTTPClient())
	require.Len(t, findings, 1)
	assert.Equal(t, "open_redirect", findings[0].VulnType)
	assert.Equal(t, "next", findings[0].AffectedParameter)
}

func TestOpenRedirectDetector_NoFindingWhenRedirectsWithinSite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target := r.URL.Query().Get("next")
		if target != "" {
			http.Redirect(w, r, "/safe", http.StatusFound)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	d := openRedirectDetector{}
	page := model.CrawledPage{URL: srv.URL + "/?next=/home"}

	findings := d.DetectActive(context.Background(), page, newTestHTTPClient())
	assert.Empty(t, findings)
}

func TestOpenRedirectDetector_IgnoresUnrecognizedParamNames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	d := openRedirectDetector{}
	page := model.CrawledPage{URL: srv.URL + "/?color=blue"}

	findings := d.DetectActive(context.Background(), page, newTestHTTPClient())
	assert.Empty(t, findings)
}
