package modules

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/scntm/scanner/internal/config"
	"github.com/scntm/scanner/internal/detector"
	"github.com/scntm/scanner/internal/httpclient"
	"github.com/scntm/scanner/internal/model"
)

func init() {
	detector.Register(sqliDetector{})
}

var sqliErrorPayloads = []string{
	`'`, `"`, `')`, `' OR '1'='1`, `" OR "1"="1`, `'--`, `' /*`, `' OR 1=1-- -`,
	// WAF-bypass variants
	`'/**/OR/**/'1'='1`, `%27%20OR%20%271%27=%271`, `' oR '1'='1`,
}

type dbErrorSignature struct {
	engine  string
	pattern *regexp.Regexp
}

var sqliErrorSignatures = []dbErrorSignature{
	{"MySQL", regexp.MustCompile(`(?i)you have an error in your sql syntax|warning: mysqli?|mysql_fetch`)},
	{"PostgreSQL", regexp.MustCompile(`(?i)pg_query\(\)|postgresql.*error|syntax error at or near`)},
	{"MSSQL", regexp.MustCompile(`(?i)unclosed quotation mark|microsoft sql server|odbc sql server driver`)},
	{"Oracle", regexp.MustCompile(`(?i)ora-\d{5}|oracle error`)},
	{"SQLite", regexp.MustCompile(`(?i)sqlite3?\.(operationalerror|warning)|sqlite_error`)},
}

var sqliBooleanPairs = [][2]string{
	{"1' AND '1'='1", "1' AND '1'='2"},
	{"1 AND 1=1", "1 AND 1=2"},
}

var sqliTimingPayloads = map[string]time.Duration{
	"1' AND SLEEP(5)-- -":        5 * time.Second,
	"1; WAITFOR DELAY '0:0:5'--": 5 * time.Second,
	"1' AND pg_sleep(5)-- -":     5 * time.Second,
}

type sqliDetector struct{}

func (sqliDetector) Name() string        { return "sqli" }
func (sqliDetector) Description() string { return "Error-based, boolean-blind, and time-based blind SQL injection probes." }
func (sqliDetector) ScanModes() []config.ScanMode {
	return []config.ScanMode{config.ModeFull}
}
func (sqliDetector) IsActive() bool { return true }

func (sqliDetector) DetectPassive(model.CrawledPage) []model.Finding { return nil }

// DetectActive probes each query parameter and form field through three
// phases in order; the first positive phase short-circuits the rest for
// that input.
func (d sqliDetector) DetectActive(ctx context.Context, page model.CrawledPage, client *httpclient.Client) []model.Finding {
	var findings []model.Finding
	for _, point := range injectionPoints(page) {
		if f := d.errorBased(ctx, client, point); f != nil {
			findings = append(findings, *f)
			continue
		}
		if f := d.booleanBlind(ctx, client, point); f != nil {
			findings = append(findings, *f)
			continue
		}
		if f := d.timeBased(ctx, client, point); f != nil {
			findings = append(findings, *f)
		}
	}
	return findings
}

func (d sqliDetector) errorBased(ctx context.Context, client *httpclient.Client, point injectionPoint) *model.Finding {
	for _, payload := range sqliErrorPayloads {
		resp, request, err := point.send(ctx, client, payload)
		if err != nil {
			continue
		}
		for _, sig := range sqliErrorSignatures {
			if sig.pattern.MatchString(string(resp.Body)) {
				f := detector.NewFinding(
					d.Name(), "sqli_error_based",
					"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H",
					"A03:2021-Injection", "CWE-89",
					point.targetURL, point.param,
					fmt.Sprintf("Parameter %q triggers a %s error with payload %q.", point.param, sig.engine, payload),
					"Use parameterized queries; never interpolate user input into SQL.",
					model.ConfidenceConfirmed,
					detector.RequestEvidence("request", request),
					detector.ResponseEvidence("db_error", sig.engine),
				)
				return &f
			}
		}
	}
	return nil
}

func (d sqliDetector) booleanBlind(ctx context.Context, client *httpclient.Client, point injectionPoint) *model.Finding {
	for _, pair := range sqliBooleanPairs {
		trueResp, trueReq, err := point.send(ctx, client, pair[0])
		if err != nil {
			continue
		}
		falseResp, falseReq, err := point.send(ctx, client, pair[1])
		if err != nil {
			continue
		}

		if trueResp.StatusCode == 200 && falseResp.StatusCode != 200 {
			f := detector.NewFinding(
				d.Name(), "sqli_boolean_blind",
				"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:N/A:N",
				"A03:2021-Injection", "CWE-89",
				point.targetURL, point.param,
				fmt.Sprintf("Parameter %q yields different HTTP status between true/false boolean payloads.", point.param),
				"Use parameterized queries; never interpolate user input into SQL.",
				model.ConfidenceFirm,
				detector.RequestEvidence("true_request", trueReq),
				detector.RequestEvidence("false_request", falseReq),
			)
			return &f
		}
		if trueResp.StatusCode == 200 && falseResp.StatusCode == 200 {
			diff := len(trueResp.Body) - len(falseResp.Body)
			if diff > 50 || diff < -50 {
				f := detector.NewFinding(
					d.Name(), "sqli_boolean_blind",
					"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:L/I:N/A:N",
					"A03:2021-Injection", "CWE-89",
					point.targetURL, point.param,
					fmt.Sprintf("Parameter %q yields a >50 byte body-size difference between true/false boolean payloads.", point.param),
					"Use parameterized queries; never interpolate user input into SQL.",
					model.ConfidenceTentative,
					detector.RequestEvidence("true_request", trueReq),
					detector.RequestEvidence("false_request", falseReq),
				)
				return &f
			}
		}
	}
	return nil
}

func (d sqliDetector) timeBased(ctx context.Context, client *httpclient.Client, point injectionPoint) *model.Finding {
	for payload, expectedDelay := range sqliTimingPayloads {
		start := time.Now()
		_, request, err := point.send(ctx, client, payload)
		elapsed := time.Since(start)
		if err != nil {
			continue
		}
		if elapsed >= expectedDelay-time.Second {
			f := detector.NewFinding(
				d.Name(), "sqli_time_based_blind",
				"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H",
				"A03:2021-Injection", "CWE-89",
				point.targetURL, point.param,
				fmt.Sprintf("Parameter %q delays the response by ~%s with a sleep payload.", point.param, elapsed),
				"Use parameterized queries; never interpolate user input into SQL.",
				model.ConfidenceFirm,
				detector.RequestEvidence("request", request),
			)
			return &f
		}
	}
	return nil
}
