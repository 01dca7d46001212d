package sqlstore

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/isdelr/bookfeed-be/internal/models"
)

type libraryRow struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	Location string `db:"location"`
}

type authorRow struct {
	ID      string `db:"id"`
	Name    string `db:"name"`
	Country string `db:"country"`
}

// CreateLibrary inserts a library.
func (s *Store) CreateLibrary(ctx context.Context, library models.Library) error {
	return s.insert(ctx, tableLibraries, libraryRow(library))
}

// GetLibrary retrieves a single library by its ID.
func (s *Store) GetLibrary(ctx context.Context, id string) (models.Library, error) {
	var row libraryRow
	ds := dialect.From(tableLibraries).Select("id", "name", "location").Where(goqu.C("id").Eq(id))
	if err := s.get(ctx, &row, ds); err != nil {
		return models.Library{}, err
	}
	return models.Library(row), nil
}

// CreateAuthor inserts an author.
func (s *Store) CreateAuthor(ctx context.Context, author models.Author) error {
	return s.insert(ctx, tableAuthors, authorRow(author))
}

// GetAuthor retrieves a single author by its ID.
func (s *Store) GetAuthor(ctx context.Context, id string) (models.Author, error) {
	var row authorRow
	ds := dialect.From(tableAuthors).Select("id", "name", "country").Where(goqu.C("id").Eq(id))
	if err := s.get(ctx, &row, ds); err != nil {
		return models.Author{}, err
	}
	return models.Author(row), nil
}
