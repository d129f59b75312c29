// Package modules holds the 23 catalog detectors, one file each, all
// registering themselves into internal/detector's registry at init time.
package modules

import (
	"context"
	"net/url"
	"strings"

	"github.com/scntm/scanner/internal/httpclient"
	"github.com/scntm/scanner/internal/model"
)

// withQueryParam returns rawURL with query parameter name set to value,
// leaving every other parameter untouched.
func withQueryParam(rawURL, name, value string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(name, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// queryParamNames returns the distinct query parameter names on rawURL.
func queryParamNames(rawURL string) []string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	var names []string
	for name := range u.Query() {
		names = append(names, name)
	}
	return names
}

// formTargets returns the forms that have at least one input with a
// non-empty name; input types are not filtered, and each form is returned
// whole with all of its inputs.
func formTargets(forms []model.Form) []model.Form {
	var out []model.Form
	for _, f := range forms {
		hasField := false
		for _, in := range f.Inputs {
			if in.Name != "" {
				hasField = true
				break
			}
		}
		if hasField {
			out = append(out, f)
		}
	}
	return out
}

// injectionPoint is one mutable input an active detector can probe: a query
// parameter on the page URL, or a named field on one of the page's forms.
type injectionPoint struct {
	// targetURL is the URL the finding is attributed to: the page URL for
	// query parameters, the form action for form fields.
	targetURL string
	param     string
	send      func(ctx context.Context, client *httpclient.Client, value string) (*httpclient.Response, string, error)
}

// injectionPoints enumerates every query parameter and form field on page.
// Each point's send injects a value into that one input, keeping every
// other input at its captured default, and returns the response plus a
// request description for evidence.
func injectionPoints(page model.CrawledPage) []injectionPoint {
	var points []injectionPoint

	for _, name := range queryParamNames(page.URL) {
		name := name
		pageURL := page.URL
		points = append(points, injectionPoint{
			targetURL: pageURL,
			param:     name,
			send: func(ctx context.Context, client *httpclient.Client, value string) (*httpclient.Response, string, error) {
				testURL, err := withQueryParam(pageURL, name, value)
				if err != nil {
					return nil, "", err
				}
				resp, err := client.Get(ctx, testURL)
				return resp, testURL, err
			},
		})
	}

	for _, form := range formTargets(page.Forms) {
		form := form
		for _, in := range form.Inputs {
			if in.Name == "" || skipFormFieldType(in.Type) {
				continue
			}
			name := in.Name
			points = append(points, injectionPoint{
				targetURL: form.Action,
				param:     name,
				send: func(ctx context.Context, client *httpclient.Client, value string) (*httpclient.Response, string, error) {
					return submitForm(ctx, client, form, name, value)
				},
			})
		}
	}

	return points
}

func skipFormFieldType(fieldType string) bool {
	switch strings.ToLower(fieldType) {
	case "submit", "button", "image", "reset", "file":
		return true
	}
	return false
}

// submitForm sends form with the named field set to value and every other
// input at its captured default. GET forms encode into the action's query
// string, anything else posts a urlencoded body.
func submitForm(ctx context.Context, client *httpclient.Client, form model.Form, name, value string) (*httpclient.Response, string, error) {
	vals := url.Values{}
	for _, in := range form.Inputs {
		if in.Name == "" {
			continue
		}
		if in.Name == name {
			vals.Set(in.Name, value)
		} else {
			vals.Set(in.Name, in.Value)
		}
	}

	if !strings.EqualFold(form.Method, "POST") {
		u, err := url.Parse(form.Action)
		if err != nil {
			return nil, "", err
		}
		u.RawQuery = vals.Encode()
		resp, err := client.Get(ctx, u.String())
		return resp, u.String(), err
	}

	body := vals.Encode()
	resp, err := client.Post(ctx, form.Action, []byte(body), "application/x-www-form-urlencoded")
	return resp, "POST " + form.Action + " " + body, err
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func containsAnyFold(haystack string, needles []string) bool {
	for _, n := range needles {
		if containsFold(haystack, n) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
