package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/epy0n0ff/charles/internal/index"
)

// GraphCrawl crawls a site breadth-first in a headless browser, following
// links on the start URL's host until MaxPages pages were indexed.
type GraphCrawl struct {
	// PageTimeout bounds loading and reading a single page
	PageTimeout time.Duration
	// Timeout bounds the whole crawl; zero means no bound
	Timeout time.Duration
}

// NewGraphCrawl creates a crawler with a default page timeout
func NewGraphCrawl() *GraphCrawl {
	return &GraphCrawl{PageTimeout: 30 * time.Second}
}

// Crawl implements Crawler
func (g *GraphCrawl) Crawl(ctx context.Context, req Request) error {
	start, err := url.Parse(req.StartURL)
	if err != nil {
		return fmt.Errorf("invalid start url %q: %w", req.StartURL, err)
	}
	if req.Sink == nil {
		return errors.New("crawl request without sink")
	}
	maxPages := req.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	l := launcher.New().Headless(true)
	if bin := browserBin(req.BrowserExec); bin != "" {
		l = l.Bin(bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	defer l.Kill()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to browser: %w", err)
	}
	defer browser.Close()

	f := newFrontier(start, req.Ignored)
	indexed := 0
	for indexed < maxPages {
		if err := ctx.Err(); err != nil {
			return err
		}
		next, ok := f.next()
		if !ok {
			break
		}

		page, links, err := g.render(browser, next)
		if err != nil {
			// the start page must load; others are skipped
			if indexed == 0 && next == normalize(start) {
				return fmt.Errorf("crawl %s: %w", next, err)
			}
			continue
		}
		if err := req.Sink.Put(ctx, page); err != nil {
			return fmt.Errorf("index %s: %w", next, err)
		}
		indexed++

		base, _ := url.Parse(next)
		for _, href := range links {
			f.addLink(base, href)
		}
	}
	return nil
}

// lookPath finds a DevTools browser installed on the system
var lookPath = launcher.LookPath

// browserBin returns the browser to launch for exec. PhantomJS does not speak
// the DevTools protocol, so it and missing binaries fall back to an installed
// browser. An empty result lets rod download one.
func browserBin(exec string) string {
	if exec != "" && !strings.Contains(strings.ToLower(filepath.Base(exec)), "phantomjs") {
		if _, err := os.Stat(exec); err == nil {
			return exec
		}
	}
	if found, ok := lookPath(); ok {
		return found
	}
	return ""
}

// render loads pageURL and returns its content and outgoing links
func (g *GraphCrawl) render(browser *rod.Browser, pageURL string) (index.Page, []string, error) {
	p, err := browser.Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return index.Page{}, nil, fmt.Errorf("open page: %w", err)
	}
	defer p.Close()

	if g.PageTimeout > 0 {
		p = p.Timeout(g.PageTimeout)
	}
	if err := p.WaitLoad(); err != nil {
		return index.Page{}, nil, fmt.Errorf("wait load: %w", err)
	}

	info, err := p.Info()
	if err != nil {
		return index.Page{}, nil, fmt.Errorf("page info: %w", err)
	}

	body, err := p.Element("body")
	if err != nil {
		return index.Page{}, nil, fmt.Errorf("page body: %w", err)
	}
	text, err := body.Text()
	if err != nil {
		return index.Page{}, nil, fmt.Errorf("page text: %w", err)
	}

	var links []string
	anchors, err := p.Elements("a[href]")
	if err == nil {
		for _, a := range anchors {
			href, err := a.Attribute("href")
			if err != nil || href == nil {
				continue
			}
			links = append(links, *href)
		}
	}

	return index.Page{
		URL:       pageURL,
		Title:     strings.TrimSpace(info.Title),
		Content:   strings.Join(strings.Fields(text), " "),
		IndexedAt: time.Now().UTC(),
	}, links, nil
}
