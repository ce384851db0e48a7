package search

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/bluerabbit/kcore/pkg/debug"
)

// Index is a full-text index over article bodies, backed by an in-memory
// SQLite FTS5 table. It complements the sidebar's title filter: the filter
// matches catalog titles, the index matches document content.
type Index struct {
	db *sql.DB
}

// Hit is a single full-text match.
type Hit struct {
	Name    string  `json:"name"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Rank    float64 `json:"rank"`
}

// NewIndex creates an empty in-memory index.
func NewIndex() (*Index, error) {
	db, err := sql.Open("sqlite", "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("cannot open index database: %w", err)
	}
	// The shared-cache in-memory DB disappears when the last connection
	// closes, so keep exactly one.
	db.SetMaxOpenConns(1)

	schema := `
	CREATE VIRTUAL TABLE IF NOT EXISTS articles USING fts5(
		name UNINDEXED,
		title,
		body,
		tokenize = 'porter unicode61'
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot create fts table: %w", err)
	}

	return &Index{db: db}, nil
}

// Close releases the underlying database.
func (idx *Index) Close() error {
	if idx.db != nil {
		return idx.db.Close()
	}
	return nil
}

// Add indexes one article. Re-adding a name replaces the previous entry,
// which is what a file watcher reload needs.
func (idx *Index) Add(name, title, body string) error {
	tx, err := idx.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM articles WHERE name = ?`, name); err != nil {
		return fmt.Errorf("cannot replace %s: %w", name, err)
	}
	if _, err := tx.Exec(`INSERT INTO articles (name, title, body) VALUES (?, ?, ?)`, name, title, body); err != nil {
		return fmt.Errorf("cannot index %s: %w", name, err)
	}
	return tx.Commit()
}

// Remove drops an article from the index.
func (idx *Index) Remove(name string) error {
	_, err := idx.db.Exec(`DELETE FROM articles WHERE name = ?`, name)
	return err
}

// Count reports how many articles are indexed.
func (idx *Index) Count() (int, error) {
	var n int
	err := idx.db.QueryRow(`SELECT count(*) FROM articles`).Scan(&n)
	return n, err
}

// Search runs a full-text query and returns hits ordered by relevance.
// limit <= 0 means no limit.
func (idx *Index) Search(query string, limit int) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := idx.db.Query(`
		SELECT name, title,
			snippet(articles, 2, '>>', '<<', '...', 16) AS snippet,
			bm25(articles) AS rank
		FROM articles
		WHERE articles MATCH ?
		ORDER BY rank
		LIMIT ?`, ftsQuery(query), limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.Name, &h.Title, &h.Snippet, &h.Rank); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	debug.Log("search: query=%q hits=%d", query, len(hits))
	return hits, rows.Err()
}

// ftsQuery quotes each term so user input with FTS operators ("AND", quotes,
// hyphens) cannot break the MATCH expression. Terms are implicitly ANDed.
func ftsQuery(query string) string {
	fields := strings.Fields(query)
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, `""`)
		quoted = append(quoted, `"`+f+`"*`)
	}
	return strings.Join(quoted, " ")
}
