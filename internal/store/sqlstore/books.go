package sqlstore

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/isdelr/bookfeed-be/internal/models"
)

var bookColumns = []interface{}{
	"id", "title", "author_id", "author_name", "author_country", "published_date", "pages", "library_id",
}

type bookRow struct {
	ID            string `db:"id"`
	Title         string `db:"title"`
	AuthorID      string `db:"author_id"`
	AuthorName    string `db:"author_name"`
	AuthorCountry string `db:"author_country"`
	PublishedDate int64  `db:"published_date"`
	Pages         int    `db:"pages"`
	LibraryID     string `db:"library_id"`
}

func toBookRow(b models.Book) bookRow {
	return bookRow{
		ID:            b.ID,
		Title:         b.Title,
		AuthorID:      b.Author,
		AuthorName:    b.AuthorName,
		AuthorCountry: b.AuthorCountry,
		PublishedDate: toMillis(b.PublishedDate),
		Pages:         b.Pages,
		LibraryID:     b.Library,
	}
}

func (r bookRow) model() models.Book {
	return models.Book{
		ID:            r.ID,
		Title:         r.Title,
		Author:        r.AuthorID,
		AuthorName:    r.AuthorName,
		AuthorCountry: r.AuthorCountry,
		PublishedDate: fromMillis(r.PublishedDate),
		Pages:         r.Pages,
		Library:       r.LibraryID,
	}
}

// CreateBook inserts a book.
func (s *Store) CreateBook(ctx context.Context, book models.Book) error {
	return s.insert(ctx, tableBooks, toBookRow(book))
}

// GetBook retrieves a single book by its ID.
func (s *Store) GetBook(ctx context.Context, id string) (models.Book, error) {
	var row bookRow
	ds := dialect.From(tableBooks).Select(bookColumns...).Where(goqu.C("id").Eq(id))
	if err := s.get(ctx, &row, ds); err != nil {
		return models.Book{}, err
	}
	return row.model(), nil
}

// ListBooksByLibraries retrieves every book held in one of libraryIDs.
func (s *Store) ListBooksByLibraries(ctx context.Context, libraryIDs []string) ([]models.Book, error) {
	books := []models.Book{}
	if len(libraryIDs) == 0 {
		return books, nil
	}

	var rows []bookRow
	ds := dialect.From(tableBooks).
		Select(bookColumns...).
		Where(goqu.C("library_id").In(libraryIDs)).
		Order(goqu.C("id").Asc())
	if err := s.selectAll(ctx, &rows, ds); err != nil {
		return nil, err
	}

	for _, row := range rows {
		books = append(books, row.model())
	}
	return books, nil
}

// UpdateBook overwrites every mutable column of an existing book.
func (s *Store) UpdateBook(ctx context.Context, book models.Book) error {
	row := toBookRow(book)
	query, args, err := dialect.Update(tableBooks).
		Set(goqu.Record{
			"title":          row.Title,
			"author_id":      row.AuthorID,
			"author_name":    row.AuthorName,
			"author_country": row.AuthorCountry,
			"published_date": row.PublishedDate,
			"pages":          row.Pages,
			"library_id":     row.LibraryID,
		}).
		Where(goqu.C("id").Eq(book.ID)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return err
	}
	return s.execAffecting(ctx, query, args)
}

// DeleteBook removes a book.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	query, args, err := dialect.Delete(tableBooks).Where(goqu.C("id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	return s.execAffecting(ctx, query, args)
}
