// Package urlnorm produces the canonical string form of a URL used as the
// crawler's dedup key, per the Url definition in the data model.
package urlnorm

import (
	"net/url"
	"sort"
	"strings"
)

// Normalize lowercases scheme and host, drops the default port, strips a
// trailing path slash (unless the path is just "/"), sorts query parameters
// lexicographically while preserving blank values, and removes the
// fragment. It is a pure, idempotent function.
func Normalize(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	return NormalizeURL(u), nil
}

// NormalizeURL normalizes an already-parsed *url.URL.
func NormalizeURL(u *url.URL) string {
	out := *u
	out.Scheme = strings.ToLower(out.Scheme)
	out.Host = normalizeHost(out.Host, out.Scheme)
	out.Fragment = ""
	out.RawFragment = ""

	if out.Path != "/" && strings.HasSuffix(out.Path, "/") {
		out.Path = strings.TrimSuffix(out.Path, "/")
	}

	out.RawQuery = sortedQuery(out.RawQuery)

	return out.String()
}

func normalizeHost(host, scheme string) string {
	h := strings.ToLower(host)
	switch scheme {
	case "http":
		h = strings.TrimSuffix(h, ":80")
	case "https":
		h = strings.TrimSuffix(h, ":443")
	}
	return h
}

// sortedQuery sorts "key=value" pairs lexicographically by their raw
// encoded form, preserving blank values (url.Values would drop them when
// re-encoded via Values.Encode in some edge cases; operating on the raw
// pairs keeps this exact).
func sortedQuery(raw string) string {
	if raw == "" {
		return ""
	}
	pairs := strings.Split(raw, "&")
	sort.Strings(pairs)
	return strings.Join(pairs, "&")
}
