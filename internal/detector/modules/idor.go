package modules

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/scntm/scanner/internal/config"
	"github.com/scntm/scanner/internal/detector"
	"github.com/scntm/scanner/internal/httpclient"
	"github.com/scntm/scanner/internal/model"
)

func init() {
	detector.Register(idorDetector{})
}

var idorPathSegment = regexp.MustCompile(`/(\d+)(/|$)`)
var idorQueryParams = map[string]bool{"id": true, "user_id": true, "account": true, "order": true}

type idorDetector struct{}

func (idorDetector) Name() string        { return "idor" }
func (idorDetector) Description() string { return "Increments numeric IDs in the URL and compares the response to the original." }
func (idorDetector) ScanModes() []config.ScanMode { return []config.ScanMode{config.ModeFull} }
func (idorDetector) IsActive() bool               { return true }

func (idorDetector) DetectPassive(model.CrawledPage) []model.Finding { return nil }

func (d idorDetector) DetectActive(ctx context.Context, page model.CrawledPage, client *httpclient.Client) []model.Finding {
	candidate, field, original, incremented, ok := incrementedIDVariant(page.URL)
	if !ok {
		return nil
	}

	origResp, err := client.Get(ctx, page.URL)
	if err != nil {
		return nil
	}
	modResp, err := client.Get(ctx, candidate)
	if err != nil {
		return nil
	}

	if origResp.StatusCode != 200 || modResp.StatusCode != 200 {
		return nil
	}
	if len(modResp.Body) < 100 {
		return nil
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(origResp.Body), string(modResp.Body), false)
	if dmp.DiffLevenshtein(diffs) == 0 {
		return nil
	}

	return []model.Finding{detector.NewFinding(
		d.Name(), "idor",
		"CVSS:3.1/AV:N/AC:L/PR:L/UI:N/S:U/C:H/I:N/A:N",
		"A01:2021-Broken Access Control", "CWE-639",
		page.URL, field,
		fmt.Sprintf("Incrementing %s from %s to %s returns a different, non-trivial 200 response.", field, original, incremented),
		"Authorize every object access against the requesting user's session, not just object existence.",
		model.ConfidenceTentative,
		detector.RequestEvidence("modified_url", candidate),
	)}
}

func incrementedIDVariant(rawURL string) (candidateURL, field, original, incremented string, ok bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", "", "", false
	}

	q := u.Query()
	for name := range idorQueryParams {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		next := strconv.Itoa(n + 1)
		mutated, err := withQueryParam(rawURL, name, next)
		if err != nil {
			continue
		}
		return mutated, name, v, next, true
	}

	matches := idorPathSegment.FindStringSubmatchIndex(u.Path)
	if matches == nil {
		return "", "", "", "", false
	}
	numStr := u.Path[matches[2]:matches[3]]
	n, err := strconv.Atoi(numStr)
	if err != nil {
		return "", "", "", "", false
	}
	next := strconv.Itoa(n + 1)
	newPath := u.Path[:matches[2]] + next + u.Path[matches[3]:]
	mutated := *u
	mutated.Path = newPath
	return mutated.String(), "path_id", numStr, next, true
}
