package modules

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/scntm/scanner/internal/config"
	"github.com/scntm/scanner/internal/detector"
	"github.com/scntm/scanner/internal/httpclient"
	"github.com/scntm/scanner/internal/model"
)

func init() {
	detector.Register(jwtAnalysisDetector{})
}

var jwtPattern = regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`)

type jwtHeader struct {
	Alg string `json:"alg"`
}

type jwtAnalysisDetector struct{}

func (jwtAnalysisDetector) Name() string        { return "jwt_analysis" }
func (jwtAnalysisDetector) Description() string { return "Decodes JWTs found in page text and flags weak/absent signing algorithms." }
func (jwtAnalysisDetector) ScanModes() []config.ScanMode {
	return []config.ScanMode{config.ModeQuick, config.ModeFull}
}
func (jwtAnalysisDetector) IsActive() bool { return false }

func (d jwtAnalysisDetector) DetectPassive(page model.CrawledPage) []model.Finding {
	haystacks := []string{page.Body}
	for _, vs := range page.Headers {
		haystacks = append(haystacks, strings.Join(vs, " "))
	}

	seen := map[string]bool{}
	var findings []model.Finding
	for _, text := range haystacks {
		for _, token := range jwtPattern.FindAllString(text, -1) {
			if seen[token] {
				continue
			}
			seen[token] = true

			headerPart := strings.Split(token, ".")[0]
			decoded, err := base64.RawURLEncoding.DecodeString(headerPart)
			if err != nil {
				continue
			}
			var h jwtHeader
			if err := json.Unmarshal(decoded, &h); err != nil {
				continue
			}

			switch strings.ToLower(h.Alg) {
			case "none":
				findings = append(findings, detector.NewFinding(
					d.Name(), "jwt_alg_none",
					"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:N",
					"A02:2021-Cryptographic Failures", "CWE-347",
					page.URL, "",
					"JWT found with alg=none, allowing unsigned token forgery.",
					"Reject tokens with alg=none server-side; pin the expected algorithm.",
					model.ConfidenceConfirmed,
					detector.PayloadEvidence("jwt", token),
				))
			case "hs256", "hs384", "hs512":
				findings = append(findings, detector.NewFinding(
					d.Name(), "jwt_hmac_signed",
					"CVSS:3.1/AV:N/AC:H/PR:N/UI:N/S:U/C:L/I:N/A:N",
					"A02:2021-Cryptographic Failures", "CWE-326",
					page.URL, "",
					fmt.Sprintf("JWT found signed with %s; verify the secret is high-entropy and server-side only.", h.Alg),
					"Use a long, random HMAC secret or switch to an asymmetric algorithm.",
					model.ConfidenceTentative,
					detector.PayloadEvidence("jwt", token),
				))
			}
		}
	}
	return findings
}

func (jwtAnalysisDetector) DetectActive(context.Context, model.CrawledPage, *httpclient.Client) []model.Finding {
	return nil
}
