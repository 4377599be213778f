package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// SQLiteDriver is the database/sql driver name under which the SQLite driver is
// registered together with the similarity, fts_rank, fts_match and unicode_lower
// functions.
const SQLiteDriver = "sqlite3_tansaku"

var registerDriver sync.Once

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT,
		brand TEXT,
		category TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_title ON products(title)`,
}

func registerSQLiteDriver() {
	registerDriver.Do(func() {
		sql.Register(SQLiteDriver, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				if err := conn.RegisterFunc("similarity", Similarity, true); err != nil {
					return fmt.Errorf("register similarity: %w", err)
				}
				if err := conn.RegisterFunc("fts_rank", RankDocument, true); err != nil {
					return fmt.Errorf("register fts_rank: %w", err)
				}
				if err := conn.RegisterFunc("fts_match", MatchDocument, true); err != nil {
					return fmt.Errorf("register fts_match: %w", err)
				}
				if err := conn.RegisterFunc("unicode_lower", strings.ToLower, true); err != nil {
					return fmt.Errorf("register unicode_lower: %w", err)
				}
				return nil
			},
		})
	})
}

// OpenSQLite opens or creates a SQLite database at dbPath with the search functions
// registered. Parent directories are created if they do not exist.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	registerSQLiteDriver()
	memory := dbPath == ":memory:"
	if !memory {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open(SQLiteDriver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: a second connection to :memory: would be a different database,
	// and SQLite allows a single writer anyway.
	db.SetMaxOpenConns(1)

	if !memory {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL: %w", err)
		}
	}
	return db, nil
}
