// Package crawler implements the BFS fetcher: a bounded
// frontier drained in batches through colly, link/form extraction via
// goquery, and dedup on the normalized URL.
package crawler

import (
	"context"
	"strings"
	"sync"

	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"

	"github.com/scntm/scanner/internal/httpclient"
	"github.com/scntm/scanner/internal/model"
	"github.com/scntm/scanner/internal/scope"
	"github.com/scntm/scanner/internal/urlnorm"
)

type frontierEntry struct {
	url   string
	depth int
}

type fetchResult struct {
	statusCode int
	headers    model.Header
	body       []byte
	err        error
}

// Crawler runs the BFS crawl for a single scan.
type Crawler struct {
	scope      *scope.Scope
	httpClient *httpclient.Client
	logger     zerolog.Logger

	depthCap    int
	pagesCap    int
	concurrency int

	collector *colly.Collector

	mu        sync.Mutex
	visited   map[string]bool
	frontier  []frontierEntry
	pages     []model.CrawledPage
}

// New builds a Crawler bounded by depthCap/pagesCap, fetching through
// httpClient (so every crawl request shares the same throttle/breaker/retry
// egress path detectors use).
func New(sc *scope.Scope, httpClient *httpclient.Client, depthCap, pagesCap, concurrency int, logger zerolog.Logger) *Crawler {
	collector := colly.NewCollector(
		colly.Async(true),
		colly.AllowURLRevisit(), // the crawler owns dedup via its own visited set
	)
	collector.SetClient(httpClient.StdClient())
	_ = collector.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: concurrency})

	return &Crawler{
		scope:       sc,
		httpClient:  httpClient,
		logger:      logger.With().Str("component", "crawler").Logger(),
		depthCap:    depthCap,
		pagesCap:    pagesCap,
		concurrency: concurrency,
		collector:   collector,
		visited:     make(map[string]bool),
	}
}

// Run crawls starting from the seed URLs (the normalized target plus the
// well-known-path seed list from Seeds) until the frontier is exhausted or
// pagesCap is reached. It returns the crawled pages in discovery order.
func (c *Crawler) Run(ctx context.Context, seeds []string) []model.CrawledPage {
	// Results are keyed by the frontier URL stashed in the request context,
	// not r.Request.URL — redirects rewrite the latter.
	results := &sync.Map{}
	c.collector.OnResponse(func(r *colly.Response) {
		results.Store(r.Ctx.Get("frontier_url"), fetchResult{
			statusCode: r.StatusCode,
			headers:    model.Header(r.Headers.Clone()),
			body:       r.Body,
		})
	})
	c.collector.OnError(func(r *colly.Response, err error) {
		c.logger.Warn().Str("url", r.Request.URL.String()).Err(err).Msg("crawl fetch failed, omitting page")
		results.Store(r.Ctx.Get("frontier_url"), fetchResult{err: err})
	})

	for _, seed := range seeds {
		c.enqueueIfNew(seed, 0)
	}

	for {
		if ctx.Err() != nil {
			return c.pages
		}
		batch := c.drainBatch()
		if len(batch) == 0 {
			break
		}

		for _, entry := range batch {
			reqCtx := colly.NewContext()
			reqCtx.Put("frontier_url", entry.url)
			if err := c.collector.Request("GET", entry.url, nil, reqCtx, nil); err != nil {
				c.logger.Debug().Str("url", entry.url).Err(err).Msg("visit failed to enqueue")
			}
		}
		c.collector.Wait()

		stop := false
		for _, entry := range batch {
			raw, ok := results.Load(entry.url)
			results.Delete(entry.url)
			if !ok {
				continue
			}
			res := raw.(fetchResult)
			if res.err != nil {
				continue
			}
			if !isHTML(res.headers.Get("Content-Type")) {
				continue
			}

			page := buildPage(entry.url, entry.depth, res)

			c.mu.Lock()
			if len(c.pages) >= c.pagesCap {
				stop = true
				c.mu.Unlock()
				continue
			}
			c.pages = append(c.pages, page)
			c.mu.Unlock()

			if entry.depth < c.depthCap {
				for _, link := range page.Links {
					c.enqueueIfNew(link, entry.depth+1)
				}
			}
		}
		if stop {
			break
		}
	}

	return c.pages
}

func isHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}

// enqueueIfNew normalizes, scope-checks, and visited-checks url before
// adding it to the frontier — the single chokepoint that guarantees the
// crawler never emits two pages with the same normalized URL.
func (c *Crawler) enqueueIfNew(rawURL string, depth int) {
	if depth > c.depthCap {
		return
	}
	normalized, err := urlnorm.Normalize(rawURL)
	if err != nil {
		return
	}
	if !c.scope.IsInScope(rawURL) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.visited[normalized] {
		return
	}
	c.visited[normalized] = true
	c.frontier = append(c.frontier, frontierEntry{url: rawURL, depth: depth})
}

// drainBatch pops up to concurrency entries from the frontier.
func (c *Crawler) drainBatch() []frontierEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.concurrency
	if n > len(c.frontier) {
		n = len(c.frontier)
	}
	batch := c.frontier[:n]
	c.frontier = c.frontier[n:]
	return batch
}

func buildPage(pageURL string, depth int, res fetchResult) model.CrawledPage {
	links, forms := extract(pageURL, res.body)
	return model.CrawledPage{
		URL:        pageURL,
		StatusCode: res.statusCode,
		Headers:    res.headers,
		Body:       string(res.body),
		Forms:      forms,
		Links:      links,
		Depth:      depth,
	}
}
