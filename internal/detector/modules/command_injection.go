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
	detector.Register(commandInjectionDetector{})
}

var cmdInjectionWindowsIndicator = regexp.MustCompile(`\[extensions\]|for 16-bit app support`)

type commandInjectionDetector struct{}

func (commandInjectionDetector) Name() string        { return "command_injection" }
func (commandInjectionDetector) Description() string { return "Output- and time-based OS command injection probes across shell metacharacter variants." }
func (commandInjectionDetector) ScanModes() []config.ScanMode { return []config.ScanMode{config.ModeFull} }
func (commandInjectionDetector) IsActive() bool               { return true }

func (commandInjectionDetector) DetectPassive(model.CrawledPage) []model.Finding { return nil }

func (d commandInjectionDetector) DetectActive(ctx context.Context, page model.CrawledPage, client *httpclient.Client) []model.Finding {
	canary := "scntm_cmd_7x9z"
	outputPayloads := []string{
		fmt.Sprintf("; echo %s", canary),
		fmt.Sprintf("| echo %s", canary),
		fmt.Sprintf("& echo %s &", canary),
		fmt.Sprintf("`echo %s`", canary),
		fmt.Sprintf("$(echo %s)", canary),
		fmt.Sprintf("&& echo %s", canary),
		fmt.Sprintf("|| echo %s", canary),
		fmt.Sprintf("& echo %s & type %%windir%%\\win.ini", canary),
	}

	var findings []model.Finding
	for _, point := range injectionPoints(page) {
		if f := d.outputBased(ctx, client, point, outputPayloads, canary); f != nil {
			findings = append(findings, *f)
			continue
		}
		if f := d.timeBased(ctx, client, point); f != nil {
			findings = append(findings, *f)
		}
	}
	return findings
}

func (d commandInjectionDetector) outputBased(ctx context.Context, client *httpclient.Client, point injectionPoint, payloads []string, canary string) *model.Finding {
	for _, payload := range payloads {
		resp, request, err := point.send(ctx, client, payload)
		if err != nil {
			continue
		}
		body := string(resp.Body)
		if containsFold(body, canary) || cmdInjectionWindowsIndicator.MatchString(body) {
			f := detector.NewFinding(
				d.Name(), "command_injection",
				"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:C/C:H/I:H/A:H",
				"A03:2021-Injection", "CWE-78",
				point.targetURL, point.param,
				fmt.Sprintf("Parameter %q executes injected shell metacharacters with payload %q.", point.param, payload),
				"Never pass user input to a shell; use an argv-based exec API with a strict input allowlist.",
				model.ConfidenceConfirmed,
				detector.PayloadEvidence("payload", payload),
				detector.RequestEvidence("request", request),
			)
			return &f
		}
	}
	return nil
}

func (d commandInjectionDetector) timeBased(ctx context.Context, client *httpclient.Client, point injectionPoint) *model.Finding {
	payloads := []string{"; sleep 5", "| sleep 5", "&& sleep 5", "& ping -n 6 127.0.0.1 & "}
	for _, payload := range payloads {
		start := time.Now()
		_, request, err := point.send(ctx, client, payload)
		elapsed := time.Since(start)
		if err != nil {
			continue
		}
		if elapsed >= 4*time.Second {
			f := detector.NewFinding(
				d.Name(), "command_injection_timing",
				"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H",
				"A03:2021-Injection", "CWE-78",
				point.targetURL, point.param,
				fmt.Sprintf("Parameter %q delays the response by ~%s with a sleep/ping payload.", point.param, elapsed),
				"Never pass user input to a shell; use an argv-based exec API with a strict input allowlist.",
				model.ConfidenceFirm,
				detector.RequestEvidence("request", request),
			)
			return &f
		}
	}
	return nil
}
