package modules

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scntm/scanner/internal/model"
)

func TestXSSDetector_ReflectedQueryParameter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<html><body>results for %s</body></html>", r.URL.Query().Get("q"))
	}))
	defer srv.Close()

	d := xssDetector{}
	page := model.CrawledPage{
		URL:  srv.URL + "/s?q=hello",
		Body: "<html><body>results for hello</body></html>",
	}
	findings := d.DetectActive(context.Background(), page, newTestHTTPClient())

	require.Len(t, findings, 1)
	assert.Equal(t, "reflected_xss", findings[0].VulnType)
	assert.Equal(t, "q", findings[0].AffectedParameter)
	assert.InDelta(t, 6.1, findings[0].CVSSScore, 0.001)
	assert.Equal(t, model.ConfidenceConfirmed, findings[0].Confidence)
	require.NotEmpty(t, findings[0].Evidence)
	assert.Equal(t, model.EvidencePayload, findings[0].Evidence[0].Type)
}

func TestXSSDetector_EncodedReflectionIsNotFlagged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// html/template-style encoding: angle brackets become entities.
		fmt.Fprintf(w, "<html><body>&lt;svg onload=%s&gt;</body></html>", r.URL.Query().Get("q"))
	}))
	defer srv.Close()

	d := xssDetector{}
	page := model.CrawledPage{URL: srv.URL + "/s?q=hello", Body: "<html><body>hello</body></html>"}
	findings := d.DetectActive(context.Background(), page, newTestHTTPClient())

	assert.Empty(t, findings)
}

func TestXSSDetector_ProbesFormFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		fmt.Fprintf(w, "<html><body>you said: %s</body></html>", r.PostForm.Get("comment"))
	}))
	defer srv.Close()

	d := xssDetector{}
	page := model.CrawledPage{
		URL:  srv.URL + "/post",
		Body: "<html><form method=post><textarea name=comment></textarea></form></html>",
		Forms: []model.Form{{
			Action: srv.URL + "/post",
			Method: "POST",
			Inputs: []model.FormInput{{Name: "comment", Type: "text"}},
		}},
	}
	findings := d.DetectActive(context.Background(), page, newTestHTTPClient())

	require.Len(t, findings, 1)
	assert.Equal(t, srv.URL+"/post", findings[0].AffectedURL)
	assert.Equal(t, "comment", findings[0].AffectedParameter)
}

func TestXSSDetector_DOMSinkHeuristic(t *testing.T) {
	page := model.CrawledPage{
		URL:  "https://example.com/",
		Body: `<script>document.write(location.hash)</script>`,
	}
	d := xssDetector{}
	findings := d.domSinkHeuristic(page)

	require.Len(t, findings, 1)
	assert.Equal(t, "dom_xss_heuristic", findings[0].VulnType)
	assert.Equal(t, model.ConfidenceTentative, findings[0].Confidence)
}
