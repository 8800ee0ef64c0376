package index

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRepositories(t *testing.T) {
	repos := map[string]func(t *testing.T) Repository{
		"memory": func(t *testing.T) Repository { return NewMemory() },
		"sqlite": func(t *testing.T) Repository { return openTestSQLite(t) },
	}

	for name, newRepo := range repos {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo(t)

			require.NoError(t, repo.Upsert(ctx, "alice/alice.github.io", []Page{
				{URL: "http://alice.github.io", Title: "Home"},
				{URL: "http://alice.github.io/about", Title: "About"},
			}))
			require.NoError(t, repo.Upsert(ctx, "bob/docs", []Page{
				{URL: "http://bob.github.io/docs", Title: "Docs"},
			}))

			n, err := repo.Count(ctx, "alice/alice.github.io")
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			// upsert replaces by url
			require.NoError(t, repo.Upsert(ctx, "alice/alice.github.io", []Page{
				{URL: "http://alice.github.io", Title: "Home v2"},
			}))
			n, err = repo.Count(ctx, "alice/alice.github.io")
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			require.NoError(t, repo.Delete(ctx, "alice/alice.github.io"))
			n, err = repo.Count(ctx, "alice/alice.github.io")
			require.NoError(t, err)
			assert.Zero(t, n)

			n, err = repo.Count(ctx, "bob/docs")
			require.NoError(t, err)
			assert.Equal(t, 1, n, "deleting one key must not touch another")
		})
	}
}

func TestSQLiteSearch(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	require.NoError(t, s.Upsert(ctx, "bob/docs", []Page{
		{URL: "http://bob.github.io/docs", Title: "Docs", Content: "Getting started with Widgets"},
		{URL: "http://bob.github.io/docs/faq", Title: "FAQ", Content: "questions"},
	}))

	pages, err := s.Search(ctx, "bob/docs", "widgets")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "http://bob.github.io/docs", pages[0].URL)
	assert.False(t, pages[0].IndexedAt.IsZero())
}

type failingRepo struct{ Memory }

func (f *failingRepo) Upsert(ctx context.Context, key string, pages []Page) error {
	return errors.New("disk full")
}

func TestBatch(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	b := NewBatch(mem, Key("alice", "alice.github.io"))

	require.NoError(t, b.Put(ctx, Page{URL: "http://alice.github.io"}))
	require.NoError(t, b.Put(ctx, Page{URL: "http://alice.github.io/blog"}))
	assert.Error(t, b.Put(ctx, Page{}))
	assert.Equal(t, 2, b.Len())

	n, err := b.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Zero(t, b.Len())
	assert.Equal(t, []string{"http://alice.github.io", "http://alice.github.io/blog"}, mem.URLs("alice/alice.github.io"))

	n, err = b.Flush(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBatchFlushError(t *testing.T) {
	ctx := context.Background()
	b := NewBatch(&failingRepo{}, "alice/site")
	require.NoError(t, b.Put(ctx, Page{URL: "http://alice.github.io/site"}))

	_, err := b.Flush(ctx)
	assert.ErrorContains(t, err, "disk full")
}
