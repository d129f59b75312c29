package modules

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scntm/scanner/internal/model"
)

func TestSQLiDetector_ErrorBasedIdentifiesMySQL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("id"), "'") {
			w.Write([]byte("You have an error in your SQL syntax; check the manual"))
			return
		}
		w.Write([]byte("<html>profile page</html>"))
	}))
	defer srv.Close()

	d := sqliDetector{}
	page := model.CrawledPage{URL: srv.URL + "/?id=1"}
	findings := d.DetectActive(context.Background(), page, newTestHTTPClient())

	require.Len(t, findings, 1)
	assert.Equal(t, "sqli_error_based", findings[0].VulnType)
	assert.Contains(t, findings[0].Description, "MySQL")
	assert.Equal(t, model.SeverityCritical, findings[0].Severity)
	assert.InDelta(t, 9.8, findings[0].CVSSScore, 0.001)
	assert.Equal(t, "id", findings[0].AffectedParameter)
	assert.Equal(t, model.ConfidenceConfirmed, findings[0].Confidence)
}

func TestSQLiDetector_ProbesFormFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = r.ParseForm()
			if strings.Contains(r.PostForm.Get("username"), "'") {
				w.Write([]byte("You have an error in your SQL syntax"))
				return
			}
		}
		w.Write([]byte("<html>login</html>"))
	}))
	defer srv.Close()

	d := sqliDetector{}
	page := model.CrawledPage{
		URL: srv.URL + "/login",
		Forms: []model.Form{{
			Action: srv.URL + "/login",
			Method: "POST",
			Inputs: []model.FormInput{
				{Name: "username", Type: "text"},
			},
		}},
	}
	findings := d.DetectActive(context.Background(), page, newTestHTTPClient())

	require.NotEmpty(t, findings)
	assert.Equal(t, "sqli_error_based", findings[0].VulnType)
	assert.Equal(t, srv.URL+"/login", findings[0].AffectedURL)
	assert.Equal(t, "username", findings[0].AffectedParameter)
}
