package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver
)

// New creates a new SQLite connection pool.
func New(ctx context.Context, path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("file:%s%s_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path, sep)
}

// Migrate runs the SQL statements to set up the database schema.
//
// Books reference authors and libraries without foreign keys: referential checks happen
// on the write path, and the author snapshot columns are a write-time copy.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS libraries (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		location TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS authors (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		country TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		country TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user'
	);

	CREATE TABLE IF NOT EXISTS user_libraries (
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		library_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (user_id, library_id)
	);

	CREATE TABLE IF NOT EXISTS books (
		id TEXT NOT NULL PRIMARY KEY,
		title TEXT NOT NULL,
		author_id TEXT NOT NULL,
		author_name TEXT NOT NULL,
		author_country TEXT NOT NULL,
		published_date INTEGER NOT NULL, -- unix milliseconds, UTC
		pages INTEGER NOT NULL CHECK (pages > 0),
		library_id TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_books_library ON books(library_id);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT NOT NULL PRIMARY KEY,
		type TEXT NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		library_id TEXT NOT NULL,
		book_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		created_at INTEGER NOT NULL -- unix milliseconds, UTC
	);
	CREATE INDEX IF NOT EXISTS idx_events_library_created ON events(library_id, created_at);
	`
	_, err := db.ExecContext(ctx, sqlStmt)
	return err
}
