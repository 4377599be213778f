package relational

import "strings"

// Dialect renders the three reads of the relational strategy for one SQL flavor.
// Every statement targets the products table.
type Dialect interface {
	// AutoCorrect selects at most one title: the one most similar to q among titles
	// whose similarity is at least minSimilarity. With minSimilarity 0 every title
	// is a candidate.
	AutoCorrect(q string, minSimilarity float64) (string, []any)
	// AutoComplete selects up to limit distinct titles starting with prefix,
	// case-insensitively and in alphabetical order.
	AutoComplete(prefix string, limit int) (string, []any)
	// FullText selects up to limit (id, title, description, score) rows matching q,
	// best score first.
	FullText(q string, limit int) (string, []any)
}

// Postgres renders statements using pg_trgm and the built-in text search.
type Postgres struct {
	// TextSearchConfig is the text search configuration, e.g. "english".
	TextSearchConfig string
}

func (p Postgres) config() string {
	if p.TextSearchConfig == "" {
		return "english"
	}
	return p.TextSearchConfig
}

func (Postgres) AutoCorrect(q string, minSimilarity float64) (string, []any) {
	return `SELECT title
FROM products
WHERE similarity(lower(title), lower($1)) >= $2
ORDER BY similarity(lower(title), lower($1)) DESC, title
LIMIT 1`, []any{q, minSimilarity}
}

func (Postgres) AutoComplete(prefix string, limit int) (string, []any) {
	return `SELECT DISTINCT title
FROM products
WHERE title ILIKE $1 ESCAPE '\'
ORDER BY title
LIMIT $2`, []any{escapeLike(prefix) + "%", limit}
}

func (p Postgres) FullText(q string, limit int) (string, []any) {
	return `SELECT p.id::text, p.title, coalesce(p.description, ''), ts_rank(p.document, tsq) AS score
FROM (
	SELECT id, title, description,
		setweight(to_tsvector($2::text::regconfig, title), 'A') ||
		setweight(to_tsvector($2::text::regconfig, coalesce(description, '')), 'B') AS document
	FROM products
) p, plainto_tsquery($2::text::regconfig, $1) tsq
WHERE p.document @@ tsq
ORDER BY score DESC, p.id
LIMIT $3`, []any{q, p.config(), limit}
}

// SQLite renders statements against the similarity, fts_rank and fts_match functions
// registered by storage.OpenSQLite.
type SQLite struct{}

func (SQLite) AutoCorrect(q string, minSimilarity float64) (string, []any) {
	return `SELECT title
FROM products
WHERE similarity(title, ?) >= ?
ORDER BY similarity(title, ?) DESC, title
LIMIT 1`, []any{q, minSimilarity, q}
}

// AutoComplete compares through unicode_lower because the LIKE operator of SQLite
// folds ASCII letters only.
func (SQLite) AutoComplete(prefix string, limit int) (string, []any) {
	return `SELECT DISTINCT title
FROM products
WHERE unicode_lower(title) LIKE ? ESCAPE '\'
ORDER BY title COLLATE NOCASE
LIMIT ?`, []any{escapeLike(strings.ToLower(prefix)) + "%", limit}
}

func (SQLite) FullText(q string, limit int) (string, []any) {
	return `SELECT CAST(id AS TEXT), title, coalesce(description, ''),
	fts_rank(title, coalesce(description, ''), ?) AS score
FROM products
WHERE fts_match(title, coalesce(description, ''), ?) = 1
ORDER BY score DESC, id
LIMIT ?`, []any{q, q, limit}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes %, _ and \ in s match literally in a LIKE pattern with ESCAPE '\'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
