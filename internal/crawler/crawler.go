// Package crawler discovers same-site pages from rendered snapshots so a
// single target URL can expand into a bounded set of pages to analyze.
package crawler

import (
	"context"
	"net"
	"net/url"
	"path"
	"strings"

	"github.com/projectdiscovery/gologger"
	"golang.org/x/net/publicsuffix"

	"github.com/veyra-labs/dpscan/internal/snapshot"
)

const maxLinksPerPage = 500

var staticAssetExt = map[string]struct{}{
	".png":   {},
	".jpg":   {},
	".jpeg":  {},
	".gif":   {},
	".svg":   {},
	".webp":  {},
	".ico":   {},
	".pdf":   {},
	".zip":   {},
	".rar":   {},
	".7z":    {},
	".mp3":   {},
	".mp4":   {},
	".avi":   {},
	".mov":   {},
	".woff":  {},
	".woff2": {},
	".ttf":   {},
	".eot":   {},
	".css":   {},
	".js":    {},
}

// FetchFunc renders one URL into a snapshot.
type FetchFunc func(ctx context.Context, pageURL string) (*snapshot.Page, error)

// Result is one crawled page. Err is set when the fetch failed; Page is
// nil in that case.
type Result struct {
	URL   string
	Depth int
	Page  *snapshot.Page
	Err   error
}

// Crawler walks a site breadth-first, fetching pages through a single
// browser and harvesting links from each snapshot.
type Crawler struct {
	base     *url.URL
	rootDom  string
	maxDepth int
	maxPages int
	fetch    FetchFunc
}

// New builds a crawler rooted at target. depth 0 means only the target
// itself; maxPages bounds the total fetch count regardless of depth.
func New(target string, depth, maxPages int, fetch FetchFunc) (*Crawler, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	if maxPages <= 0 {
		maxPages = 1
	}

	root, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(u.Hostname()))
	if err != nil {
		// IPs and single-label hosts have no registered domain; scope to
		// the exact host instead.
		root = strings.ToLower(u.Hostname())
	}

	return &Crawler{
		base:     u,
		rootDom:  root,
		maxDepth: depth,
		maxPages: maxPages,
		fetch:    fetch,
	}, nil
}

// Crawl fetches pages breadth-first starting from the base URL. Every
// attempted fetch produces one Result, failures included, in visit order.
func (c *Crawler) Crawl(ctx context.Context) []Result {
	type queued struct {
		url   string
		depth int
	}

	start, ok := c.normalizeURL(c.base.String())
	if !ok {
		return nil
	}

	visited := map[string]bool{start: true}
	queue := []queued{{url: start, depth: 0}}
	var results []Result

	for len(queue) > 0 && len(results) < c.maxPages {
		select {
		case <-ctx.Done():
			return results
		default:
		}

		item := queue[0]
		queue = queue[1:]

		page, err := c.fetch(ctx, item.url)
		results = append(results, Result{URL: item.url, Depth: item.depth, Page: page, Err: err})
		if err != nil {
			gologger.Debug().Msgf("crawl fetch failed for %s: %s", item.url, err)
			continue
		}
		if item.depth >= c.maxDepth {
			continue
		}

		for _, link := range c.pageLinks(page, item.url) {
			if visited[link] {
				continue
			}
			visited[link] = true
			queue = append(queue, queued{url: link, depth: item.depth + 1})
		}
	}
	return results
}

// pageLinks extracts in-scope anchor targets from a snapshot, resolved
// against the page URL, deduped and capped.
func (c *Crawler) pageLinks(page *snapshot.Page, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	seen := map[string]bool{}
	var out []string
	page.Walk(func(n *snapshot.Node, _ string) {
		if len(out) >= maxLinksPerPage {
			return
		}
		if n.Tag != "a" && n.Tag != "area" {
			return
		}
		href := strings.TrimSpace(n.Attr("href"))
		resolved := c.resolveURL(base, href)
		if resolved == "" || seen[resolved] {
			return
		}
		seen[resolved] = true
		out = append(out, resolved)
	})
	return out
}

func (c *Crawler) resolveURL(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "#") ||
		strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:") ||
		strings.HasPrefix(lower, "data:") {
		return ""
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	normalized, ok := c.normalizeURL(base.ResolveReference(refURL).String())
	if !ok || !c.inScope(normalized) || skipByExtension(normalized) {
		return ""
	}
	return normalized
}

func (c *Crawler) normalizeURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}

	if u.Scheme == "" {
		u.Scheme = c.base.Scheme
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if u.Host == "" {
		u.Host = c.base.Host
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}

	port := u.Port()
	switch {
	case u.Scheme == "http" && port == "80":
		u.Host = host
	case u.Scheme == "https" && port == "443":
		u.Host = host
	case port != "":
		u.Host = net.JoinHostPort(host, port)
	default:
		u.Host = host
	}

	u.Fragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	return u.String(), true
}

// inScope reports whether the link shares the base URL's registered
// domain, so shop.example.com stays in scope for example.com.
func (c *Crawler) inScope(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	root, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host == c.rootDom
	}
	return root == c.rootDom
}

func skipByExtension(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return true
	}
	ext := strings.ToLower(path.Ext(u.Path))
	_, skip := staticAssetExt[ext]
	return skip
}
