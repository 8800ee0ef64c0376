// Package index stores crawled pages keyed by "<owner>/<repo>".
package index

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Page is one indexed document
type Page struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	IndexedAt time.Time `json:"indexed_at"`
}

// Repository is the search-index backend
type Repository interface {
	// Upsert inserts or replaces pages under key
	Upsert(ctx context.Context, key string, pages []Page) error

	// Delete removes every page stored under key
	Delete(ctx context.Context, key string) error

	// Count returns how many pages are stored under key
	Count(ctx context.Context, key string) (int, error)
}

// Key returns the index key of a repository
func Key(owner, repo string) string {
	return owner + "/" + repo
}

// Memory is an in-memory Repository
type Memory struct {
	mu   sync.Mutex
	docs map[string]map[string]Page
}

// NewMemory creates an empty in-memory index
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]map[string]Page)}
}

// Upsert implements Repository
func (m *Memory) Upsert(ctx context.Context, key string, pages []Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs[key] == nil {
		m.docs[key] = make(map[string]Page)
	}
	for _, p := range pages {
		m.docs[key][p.URL] = p
	}
	return nil
}

// Delete implements Repository
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, key)
	return nil
}

// Count implements Repository
func (m *Memory) Count(ctx context.Context, key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs[key]), nil
}

// URLs returns the URLs stored under key, sorted
func (m *Memory) URLs(key string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	urls := make([]string, 0, len(m.docs[key]))
	for u := range m.docs[key] {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}
