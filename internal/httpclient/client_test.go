package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scntm/scanner/internal/config"
)

func testConfig() config.HTTPConfig {
	cfg := config.NewDefaultScannerConfig().HTTP
	cfg.RequestDelaySeconds = 0 // floored to throttle.Floor regardless, so the per-host gap stays 2s
	return cfg
}

func TestClient_Get_ReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	c := New(testConfig(), zerolog.Nop())
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "hello", string(resp.Body))
}

func TestClient_AppliesDefaultUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	c := New(testConfig(), zerolog.Nop())
	_, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, gotUA, "ScntmScanner")
}

func TestClient_RequestNoRedirect_DoesNotFollow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://evil.com/", http.StatusFound)
	}))
	defer srv.Close()

	c := New(testConfig(), zerolog.Nop())
	resp, err := c.RequestNoRedirect(context.Background(), http.MethodGet, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://evil.com/", resp.Headers.Get("Location"))
}

func TestClient_RetriesTransportErrorsThenFails(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRetries = 1
	cfg.RequestTimeout = 200 * time.Millisecond

	c := New(cfg, zerolog.Nop())
	// Nothing listens on loopback port 1, so the dial fails quickly.
	_, err := c.Get(context.Background(), "http://127.0.0.1:1/")
	assert.Error(t, err)
}
