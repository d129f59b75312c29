package crawler

import (
	"net/url"
	"strings"

	"github.com/scntm/scanner/internal/config"
	"github.com/scntm/scanner/internal/scope"
	"github.com/scntm/scanner/internal/urlnorm"
)

// quickSeedPaths and fullSeedPaths are the well-known-path lists the crawl
// is seeded with, in addition to the target itself.
var quickSeedPaths = []string{
	"/login",
	"/admin",
	"/dashboard",
	"/api",
	"/robots.txt",
}

var fullSeedPaths = append(append([]string{}, quickSeedPaths...),
	"/swagger",
	"/swagger.json",
	"/swagger-ui.html",
	"/openapi.json",
	"/api-docs",
	"/graphql",
	"/graphiql",
	"/register",
	"/signup",
	"/account",
	"/profile",
	"/settings",
	"/config",
	"/backup",
	"/.env",
	"/.git/config",
	"/sitemap.xml",
	"/health",
	"/status",
	"/debug",
	"/_debug",
)

// Seeds builds the depth-0 seed list for target: the normalized target plus
// the well-known-path list for mode, each filtered by sc.
func Seeds(target string, mode config.ScanMode, sc *scope.Scope) []string {
	if normalized, err := urlnorm.Normalize(target); err == nil {
		target = normalized
	}
	seeds := []string{target}

	base, err := url.Parse(target)
	if err != nil {
		return seeds
	}
	origin := &url.URL{Scheme: base.Scheme, Host: base.Host}

	paths := quickSeedPaths
	if mode == config.ModeFull {
		paths = fullSeedPaths
	}

	seen := map[string]bool{strings.TrimRight(target, "/"): true}
	for _, p := range paths {
		ref, err := url.Parse(p)
		if err != nil {
			continue
		}
		candidate := origin.ResolveReference(ref).String()
		if seen[candidate] {
			continue
		}
		if sc != nil && !sc.IsInScope(candidate) {
			continue
		}
		seen[candidate] = true
		seeds = append(seeds, candidate)
	}

	return seeds
}
