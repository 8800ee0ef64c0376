// Package crawler walks a website in a headless browser and hands every
// rendered page to an index sink.
package crawler

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/epy0n0ff/charles/internal/index"
)

// DefaultMaxPages caps site crawls when no cap is configured
const DefaultMaxPages = 20

// Request describes one crawl
type Request struct {
	StartURL    string
	BrowserExec string
	Ignored     IgnoredPatterns
	Sink        index.Sink
	MaxPages    int
}

// Crawler produces indexed pages into the request's sink
type Crawler interface {
	Crawl(ctx context.Context, req Request) error
}

// IgnoredPatterns are path.Match patterns matched against URL paths
type IgnoredPatterns []string

// Ignores reports whether the URL path matches any pattern
func (p IgnoredPatterns) Ignores(u *url.URL) bool {
	urlPath := u.EscapedPath()
	if urlPath == "" {
		urlPath = "/"
	}
	for _, pattern := range p {
		if ok, err := path.Match(pattern, urlPath); err == nil && ok {
			return true
		}
		if strings.HasSuffix(pattern, "/*") && strings.HasPrefix(urlPath, strings.TrimSuffix(pattern, "*")) {
			return true
		}
	}
	return false
}

// frontier is the breadth-first queue of a crawl restricted to one host
type frontier struct {
	host    string
	ignored IgnoredPatterns
	queue   []string
	seen    map[string]bool
}

func newFrontier(start *url.URL, ignored IgnoredPatterns) *frontier {
	f := &frontier{
		host:    start.Host,
		ignored: ignored,
		seen:    make(map[string]bool),
	}
	f.add(start)
	return f
}

// add queues u if it is on the crawled host, not ignored and not seen yet
func (f *frontier) add(u *url.URL) bool {
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if !strings.EqualFold(u.Host, f.host) {
		return false
	}
	if f.ignored.Ignores(u) {
		return false
	}
	normalized := normalize(u)
	if f.seen[normalized] {
		return false
	}
	f.seen[normalized] = true
	f.queue = append(f.queue, normalized)
	return true
}

// addLink resolves href against base and queues it
func (f *frontier) addLink(base *url.URL, href string) bool {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return false
	}
	return f.add(base.ResolveReference(ref))
}

func (f *frontier) next() (string, bool) {
	if len(f.queue) == 0 {
		return "", false
	}
	u := f.queue[0]
	f.queue = f.queue[1:]
	return u, true
}

// normalize drops fragments and trailing slashes so that a page is visited once
func normalize(u *url.URL) string {
	cp := *u
	cp.Fragment = ""
	cp.RawFragment = ""
	cp.Host = strings.ToLower(cp.Host)
	cp.Path = strings.TrimSuffix(cp.Path, "/")
	cp.RawPath = ""
	return cp.String()
}
