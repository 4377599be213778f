// Package storage opens the relational product stores and writes product records into them.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hyperjump/tansaku/internal/models"
)

// Kind identifies the SQL flavor of a relational store.
type Kind string

const (
	KindPostgres Kind = "postgres"
	KindSQLite   Kind = "sqlite"
)

// ProductStore writes product records into the products table.
// Reads go through the relational search strategy, not this type.
type ProductStore struct {
	db   *sql.DB
	kind Kind
}

// NewProductStore wraps an open database of the given kind.
func NewProductStore(db *sql.DB, kind Kind) *ProductStore {
	return &ProductStore{db: db, kind: kind}
}

// InitSchema creates the products table (and, for Postgres, the pg_trgm extension
// and the trigram index on lower(title)) when missing.
func (s *ProductStore) InitSchema(ctx context.Context) error {
	var stmts []string
	switch s.kind {
	case KindPostgres:
		stmts = postgresSchema
	case KindSQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("unknown store kind %q", s.kind)
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// ReplaceAll deletes every product and inserts products in one transaction.
// Product IDs are assigned by the database; Product.ID is ignored.
func (s *ProductStore) ReplaceAll(ctx context.Context, products []models.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("failed to clear products: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, s.insertSQL())
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range products {
		if _, err := stmt.ExecContext(ctx, p.Title, nullable(p.Description), nullable(p.Brand), nullable(p.Category)); err != nil {
			return fmt.Errorf("failed to insert product %q: %w", p.Title, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit products: %w", err)
	}
	return nil
}

// Count returns the number of stored products.
func (s *ProductStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

func (s *ProductStore) insertSQL() string {
	if s.kind == KindPostgres {
		return `INSERT INTO products (title, description, brand, category) VALUES ($1, $2, $3, $4)`
	}
	return `INSERT INTO products (title, description, brand, category) VALUES (?, ?, ?, ?)`
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
