package index

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Sink receives the pages produced by a crawl
type Sink interface {
	Put(ctx context.Context, page Page) error
}

// Batch collects pages and writes them to a Repository with one Upsert
type Batch struct {
	repo Repository
	key  string

	mu    sync.Mutex
	pages []Page
}

// NewBatch creates a batch writing to key
func NewBatch(repo Repository, key string) *Batch {
	return &Batch{repo: repo, key: key}
}

// Put implements Sink
func (b *Batch) Put(ctx context.Context, page Page) error {
	if page.URL == "" {
		return fmt.Errorf("page without url")
	}
	if page.IndexedAt.IsZero() {
		page.IndexedAt = time.Now().UTC()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pages = append(b.pages, page)
	return nil
}

// Len returns how many pages are waiting to be flushed
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pages)
}

// Flush upserts the collected pages and empties the batch
func (b *Batch) Flush(ctx context.Context) (int, error) {
	b.mu.Lock()
	pages := b.pages
	b.pages = nil
	b.mu.Unlock()

	if len(pages) == 0 {
		return 0, nil
	}
	if err := b.repo.Upsert(ctx, b.key, pages); err != nil {
		return 0, fmt.Errorf("failed to index %d pages under %s: %w", len(pages), b.key, err)
	}
	return len(pages), nil
}
