package modules

import (
	"context"
	"fmt"
	"net/url"

	"github.com/scntm/scanner/internal/config"
	"github.com/scntm/scanner/internal/detector"
	"github.com/scntm/scanner/internal/httpclient"
	"github.com/scntm/scanner/internal/model"
)

func init() {
	detector.Register(sensitiveFilesDetector{})
}

type sensitiveFileEntry struct {
	path        string
	description string
	indicators  []string
	credential  bool
}

var sensitiveFileEntries = []sensitiveFileEntry{
	{"/.env", "Environment variable file", []string{"=", "DB_", "API_KEY", "SECRET"}, true},
	{"/.git/config", "Exposed git repository config", []string{"[core]", "[remote"}, true},
	{"/.aws/credentials", "AWS credentials file", []string{"aws_access_key_id", "aws_secret_access_key"}, true},
	{"/wp-config.php", "WordPress database config", []string{"DB_PASSWORD", "DB_NAME"}, true},
	{"/phpinfo.php", "PHP configuration disclosure", []string{"phpinfo()", "PHP Version"}, false},
	{"/.htpasswd", "Apache basic-auth password file", nil, true},
	{"/config.php.bak", "Backup of a PHP config file", nil, true},
	{"/id_rsa", "Private SSH key", []string{"BEGIN RSA PRIVATE KEY", "BEGIN OPENSSH PRIVATE KEY"}, true},
	{"/.npmrc", "npm registry credentials", []string{"_authToken"}, true},
	{"/docker-compose.yml", "Docker Compose service definitions", nil, false},
}

type sensitiveFilesDetector struct{}

func (sensitiveFilesDetector) Name() string        { return "sensitive_files" }
func (sensitiveFilesDetector) Description() string { return "Probes an enumerated list of well-known sensitive file paths." }
func (sensitiveFilesDetector) ScanModes() []config.ScanMode { return []config.ScanMode{config.ModeFull} }
func (sensitiveFilesDetector) IsActive() bool               { return true }

func (sensitiveFilesDetector) DetectPassive(model.CrawledPage) []model.Finding { return nil }

func (d sensitiveFilesDetector) DetectActive(ctx context.Context, page model.CrawledPage, client *httpclient.Client) []model.Finding {
	u, err := url.Parse(page.URL)
	if err != nil {
		return nil
	}
	origin := &url.URL{Scheme: u.Scheme, Host: u.Host}

	var findings []model.Finding
	for _, entry := range sensitiveFileEntries {
		target := origin.ResolveReference(&url.URL{Path: entry.path}).String()
		resp, err := client.Get(ctx, target)
		if err != nil || resp.StatusCode != 200 {
			continue
		}
		if len(entry.indicators) > 0 && !containsAny(string(resp.Body), entry.indicators) {
			continue
		}

		vector := "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:L/I:N/A:N"
		if entry.credential {
			vector = "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:N/A:N"
		}

		findings = append(findings, detector.NewFinding(
			d.Name(), "sensitive_file_exposure", vector,
			"A05:2021-Security Misconfiguration", "CWE-200",
			target, "",
			fmt.Sprintf("%s is publicly accessible (%s).", entry.path, entry.description),
			"Remove the file from the web root or block access to it at the web server layer.",
			model.ConfidenceConfirmed,
		))
	}
	return findings
}
