package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	key        TEXT NOT NULL,
	url        TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	content    TEXT NOT NULL DEFAULT '',
	indexed_at INTEGER NOT NULL,
	PRIMARY KEY (key, url)
);
CREATE INDEX IF NOT EXISTS documents_key ON documents(key);
`

// SQLite is a Repository backed by a SQLite database
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if needed) the index at dsn
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open index %s: %w", dsn, err)
	}
	// SQLite allows a single writer; in-memory databases exist per connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the database
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Upsert implements Repository
func (s *SQLite) Upsert(ctx context.Context, key string, pages []Page) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (key, url, title, content, indexed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key, url) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			indexed_at = excluded.indexed_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range pages {
		indexedAt := p.IndexedAt
		if indexedAt.IsZero() {
			indexedAt = time.Now()
		}
		if _, err := stmt.ExecContext(ctx, key, p.URL, p.Title, p.Content, indexedAt.Unix()); err != nil {
			return fmt.Errorf("failed to store %s: %w", p.URL, err)
		}
	}
	return tx.Commit()
}

// Delete implements Repository
func (s *SQLite) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE key = ?`, key)
	return err
}

// Count implements Repository
func (s *SQLite) Count(ctx context.Context, key string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE key = ?`, key).Scan(&n)
	return n, err
}

// Search returns the pages under key whose title or content contains term
func (s *SQLite) Search(ctx context.Context, key, term string) ([]Page, error) {
	like := "%" + strings.ToLower(term) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT url, title, content, indexed_at FROM documents
		WHERE key = ? AND (lower(title) LIKE ? OR lower(content) LIKE ?)
		ORDER BY url`, key, like, like)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		var p Page
		var indexedAt int64
		if err := rows.Scan(&p.URL, &p.Title, &p.Content, &indexedAt); err != nil {
			return nil, err
		}
		p.IndexedAt = time.Unix(indexedAt, 0).UTC()
		pages = append(pages, p)
	}
	return pages, rows.Err()
}
