// Package sqlstore implements store.Store on SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // dialect registration
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/isdelr/bookfeed-be/internal/store"
)

const (
	tableUsers         = "users"
	tableUserLibraries = "user_libraries"
	tableLibraries     = "libraries"
	tableAuthors       = "authors"
	tableBooks         = "books"
	tableEvents        = "events"
)

var dialect = goqu.Dialect("sqlite3")

// Store is a store.Store backed by a SQLite database.
type Store struct {
	db *sqlx.DB
}

var _ store.Store = (*Store)(nil)

// New creates a Store on an already migrated database.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Reset deletes every row from every table.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{tableEvents, tableBooks, tableUserLibraries, tableUsers, tableAuthors, tableLibraries} {
		query, args, err := dialect.Delete(table).Prepared(true).ToSQL()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// get runs a single-row select built with goqu and maps sql.ErrNoRows to store.ErrNotFound.
func (s *Store) get(ctx context.Context, dest interface{}, ds *goqu.SelectDataset) error {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	if err := s.db.GetContext(ctx, dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Store) selectAll(ctx context.Context, dest interface{}, ds *goqu.SelectDataset) error {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	return s.db.SelectContext(ctx, dest, query, args...)
}

// execAffecting runs a write and returns store.ErrNotFound if it touched no rows.
func (s *Store) execAffecting(ctx context.Context, query string, args []interface{}) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) insert(ctx context.Context, table string, row interface{}) error {
	query, args, err := dialect.Insert(table).Rows(row).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return mapWriteErr(err)
}

func mapWriteErr(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		case sqlite3.SQLITE_CONSTRAINT:
			// Connections without extended result codes only report the primary code.
			if strings.Contains(se.Error(), "UNIQUE constraint failed") {
				return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
			}
		}
	}
	return err
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
