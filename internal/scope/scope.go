// Package scope implements the in-scope predicate the crawler and its seed
// list use to decide which URLs may be followed.
package scope

import (
	"net/url"
	"regexp"
	"strings"
)

// staticExtensions are never crawled or probed.
var staticExtensions = []string{
	".css", ".js", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico",
	".woff", ".woff2", ".ttf", ".eot", ".mp4", ".mp3", ".avi",
	".zip", ".gz", ".tar", ".pdf", ".doc", ".docx", ".xls", ".xlsx",
}

// Scope decides whether a URL is in-scope for a single target.
type Scope struct {
	host              string
	includeSubdomains bool
	excludePatterns   []*regexp.Regexp
}

// New constructs a Scope for targetURL. Malformed exclude patterns are
// dropped rather than failing construction; a bad regex should not make the
// whole scan un-runnable.
func New(targetURL string, includeSubdomains bool, excludePatterns []string) (*Scope, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return nil, err
	}

	s := &Scope{
		host:              strings.ToLower(u.Hostname()),
		includeSubdomains: includeSubdomains,
	}
	for _, p := range excludePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		s.excludePatterns = append(s.excludePatterns, re)
	}
	return s, nil
}

// IsInScope evaluates the scope predicate over the original (not
// normalized) URL string, since exclude patterns match the original form.
func (s *Scope) IsInScope(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}

	if !s.hostInScope(strings.ToLower(u.Hostname())) {
		return false
	}

	if hasStaticExtension(u.Path) {
		return false
	}

	for _, re := range s.excludePatterns {
		if re.MatchString(raw) {
			return false
		}
	}

	return true
}

func (s *Scope) hostInScope(host string) bool {
	if host == s.host {
		return true
	}
	if s.includeSubdomains && strings.HasSuffix(host, "."+s.host) {
		return true
	}
	return false
}

func hasStaticExtension(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range staticExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
