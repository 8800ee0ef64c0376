package steps

import (
	"context"
	"regexp"

	"go.uber.org/zap"

	"github.com/epy0n0ff/charles/internal/command"
	"github.com/epy0n0ff/charles/internal/crawler"
	"github.com/epy0n0ff/charles/internal/index"
)

// IndexSite crawls a website and indexes its pages under Key
type IndexSite struct {
	Crawler     crawler.Crawler
	Index       index.Repository
	URL         string
	Key         string
	BrowserExec string
	MaxPages    int
	Ignored     crawler.IgnoredPatterns
}

// Perform implements Step
func (s *IndexSite) Perform(ctx context.Context, cmd *command.Command, logger *zap.Logger) (bool, error) {
	logger.Info("Indexing site " + s.URL + " into " + s.Key)
	indexed, ok := crawl(ctx, logger, s.Crawler, s.Index, s.Key, crawler.Request{
		StartURL:    s.URL,
		BrowserExec: s.BrowserExec,
		Ignored:     s.Ignored,
		MaxPages:    s.MaxPages,
	})
	if !ok {
		return false, nil
	}
	if indexed == 0 {
		logger.Error("No pages were indexed from " + s.URL)
		return false, nil
	}
	logger.Info("Site indexed", zap.Int("pages", indexed))
	return true, nil
}

var linkPattern = regexp.MustCompile(`https?://[^\s<>()\[\]"']+`)

// FirstLink returns the first http(s) link of a comment body
func FirstLink(body string) (string, bool) {
	link := linkPattern.FindString(body)
	return link, link != ""
}

// IndexPage indexes the single page linked in the command body
type IndexPage struct {
	Crawler     crawler.Crawler
	Index       index.Repository
	Key         string
	BrowserExec string
}

// Perform implements Step
func (s *IndexPage) Perform(ctx context.Context, cmd *command.Command, logger *zap.Logger) (bool, error) {
	link, ok := FirstLink(cmd.Body())
	if !ok {
		logger.Error("No link to index was found in the command")
		return false, nil
	}
	logger.Info("Indexing page " + link + " into " + s.Key)
	indexed, ok := crawl(ctx, logger, s.Crawler, s.Index, s.Key, crawler.Request{
		StartURL:    link,
		BrowserExec: s.BrowserExec,
		MaxPages:    1,
	})
	if !ok {
		return false, nil
	}
	if indexed == 0 {
		logger.Error("Page " + link + " was not indexed")
		return false, nil
	}
	return true, nil
}

func crawl(ctx context.Context, logger *zap.Logger, c crawler.Crawler, repo index.Repository, key string, req crawler.Request) (int, bool) {
	batch := index.NewBatch(repo, key)
	req.Sink = batch
	if err := c.Crawl(ctx, req); err != nil {
		logger.Error("Crawl of "+req.StartURL+" failed", zap.Error(err))
		return 0, false
	}
	indexed, err := batch.Flush(ctx)
	if err != nil {
		logger.Error("Indexing failed", zap.Error(err))
		return 0, false
	}
	return indexed, true
}

// DeleteIndex removes every document indexed under Key
type DeleteIndex struct {
	Index index.Repository
	Key   string
}

// Perform implements Step
func (s *DeleteIndex) Perform(ctx context.Context, cmd *command.Command, logger *zap.Logger) (bool, error) {
	if err := s.Index.Delete(ctx, s.Key); err != nil {
		logger.Error("Failed to delete index "+s.Key, zap.Error(err))
		return false, nil
	}
	logger.Info("Index " + s.Key + " deleted")
	return true, nil
}
