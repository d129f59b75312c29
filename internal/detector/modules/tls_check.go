package modules

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/scntm/scanner/internal/config"
	"github.com/scntm/scanner/internal/detector"
	"github.com/scntm/scanner/internal/httpclient"
	"github.com/scntm/scanner/internal/model"
)

func init() {
	detector.Register(tlsCheckDetector{})
}

type tlsCheckDetector struct{}

func (tlsCheckDetector) Name() string        { return "tls_check" }
func (tlsCheckDetector) Description() string { return "Inspects certificate expiry and weak-protocol handshake acceptance on the target host." }
func (tlsCheckDetector) ScanModes() []config.ScanMode {
	return []config.ScanMode{config.ModeQuick, config.ModeFull}
}
func (tlsCheckDetector) IsActive() bool { return true }

func (tlsCheckDetector) DetectPassive(model.CrawledPage) []model.Finding { return nil }

func (d tlsCheckDetector) DetectActive(ctx context.Context, page model.CrawledPage, client *httpclient.Client) []model.Finding {
	u, err := url.Parse(page.URL)
	if err != nil || u.Scheme != "https" {
		return nil
	}
	host := u.Hostname()
	addr := net.JoinHostPort(host, portOrDefault(u.Port(), "443"))

	var findings []model.Finding
	if f := d.certFinding(ctx, addr, host, page.URL); f != nil {
		findings = append(findings, *f)
	}
	findings = append(findings, d.weakProtocolFindings(ctx, addr, host, page.URL)...)
	return findings
}

func (d tlsCheckDetector) certFinding(ctx context.Context, addr, host, pageURL string) *model.Finding {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: host, InsecureSkipVerify: true})
	if err != nil {
		f := detector.NewFinding(
			d.Name(), "invalid_tls_certificate",
			"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:N/I:H/A:N",
			"A02:2021-Cryptographic Failures", "CWE-295",
			pageURL, "", fmt.Sprintf("TLS handshake to %s failed: %v", addr, err),
			"Install a valid certificate chain trusted by standard root stores.",
			model.ConfidenceConfirmed,
		)
		return &f
	}
	defer conn.Close()

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return nil
	}
	leaf := certs[0]

	if err := leaf.VerifyHostname(host); err != nil {
		f := detector.NewFinding(
			d.Name(), "invalid_tls_certificate",
			"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:N/I:H/A:N",
			"A02:2021-Cryptographic Failures", "CWE-295",
			pageURL, "", fmt.Sprintf("Certificate does not match hostname %s: %v", host, err),
			"Issue a certificate whose SAN list covers the serving hostname.",
			model.ConfidenceConfirmed,
		)
		return &f
	}

	remaining := time.Until(leaf.NotAfter)
	switch {
	case remaining <= 0:
		f := detector.NewFinding(
			d.Name(), "expired_tls_certificate",
			"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:N/I:H/A:N",
			"A02:2021-Cryptographic Failures", "CWE-295",
			pageURL, "", fmt.Sprintf("TLS certificate expired on %s.", leaf.NotAfter.Format(time.RFC3339)),
			"Renew the certificate before expiry and automate rotation.",
			model.ConfidenceConfirmed,
		)
		return &f
	case remaining <= 30*24*time.Hour:
		f := detector.NewFinding(
			d.Name(), "tls_certificate_expiring_soon",
			"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:N/I:L/A:N",
			"A02:2021-Cryptographic Failures", "CWE-295",
			pageURL, "", fmt.Sprintf("TLS certificate expires on %s, in less than 30 days.", leaf.NotAfter.Format(time.RFC3339)),
			"Renew the certificate before expiry and automate rotation.",
			model.ConfidenceConfirmed,
		)
		return &f
	}
	return nil
}

func (d tlsCheckDetector) weakProtocolFindings(ctx context.Context, addr, host, pageURL string) []model.Finding {
	var findings []model.Finding
	for _, v := range []struct {
		version uint16
		label   string
	}{
		{tls.VersionTLS10, "TLS 1.0"},
		{tls.VersionTLS11, "TLS 1.1"},
	} {
		dialer := &net.Dialer{Timeout: 10 * time.Second}
		conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{
			ServerName:         host,
			InsecureSkipVerify: true,
			MinVersion:         v.version,
			MaxVersion:         v.version,
		})
		if err != nil {
			continue
		}
		conn.Close()
		findings = append(findings, detector.NewFinding(
			d.Name(), "weak_tls_protocol_accepted",
			"CVSS:3.1/AV:N/AC:H/PR:N/UI:N/S:U/C:L/I:L/A:N",
			"A02:2021-Cryptographic Failures", "CWE-326",
			pageURL, "", fmt.Sprintf("Server accepts a %s handshake.", v.label),
			"Disable deprecated TLS protocol versions below 1.2.",
			model.ConfidenceConfirmed,
		))
	}
	return findings
}

func portOrDefault(port, fallback string) string {
	if port == "" {
		return fallback
	}
	return port
}
