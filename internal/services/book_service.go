package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/bookfeed-be/internal/apperr"
	"github.com/isdelr/bookfeed-be/internal/auth"
	"github.com/isdelr/bookfeed-be/internal/models"
	"github.com/isdelr/bookfeed-be/internal/store"
)

// BookServiceProvider defines the interface for book services.
type BookServiceProvider interface {
	CreateBook(ctx context.Context, claims *auth.Claims, in BookInput) (models.Book, error)
	ListBooks(ctx context.Context, claims *auth.Claims) ([]models.Book, error)
	GetBook(ctx context.Context, claims *auth.Claims, id string) (models.Book, error)
	UpdateBook(ctx context.Context, claims *auth.Claims, id string, p BookPatch) (models.Book, error)
	DeleteBook(ctx context.Context, claims *auth.Claims, id string) error
}

// BookStore is the subset of the store the book service needs.
type BookStore interface {
	store.Books
	store.Authors
	store.Libraries
}

// EventRecorder records book activity.
type EventRecorder interface {
	RecordEvent(ctx context.Context, eventType, message string, book models.Book, userID string)
}

// BookService provides business logic for books, scoped by library membership.
//
// Validation and persistence are separate store calls without a transaction: a library
// deleted between the checks and the write is not detected.
type BookService struct {
	store     BookStore
	validator *BookValidator
	events    EventRecorder
}

// NewBookService creates a new BookService. events may be nil.
func NewBookService(s BookStore, events EventRecorder) *BookService {
	return &BookService{store: s, validator: NewBookValidator(s, s), events: events}
}

// CreateBook validates in and stores a new book with the author snapshot filled in.
func (s *BookService) CreateBook(ctx context.Context, claims *auth.Claims, in BookInput) (models.Book, error) {
	res, err := s.validator.ValidateCreate(ctx, claims, in)
	if err != nil {
		return models.Book{}, err
	}
	published, err := ParsePublishedDate(in.PublishedDate)
	if err != nil {
		return models.Book{}, apperr.Wrap(apperr.MalformedInput, err.Error(), err)
	}

	book := models.Book{
		ID:            store.NewID(),
		Title:         in.Title,
		Author:        res.Author.ID,
		AuthorName:    res.Author.Name,
		AuthorCountry: res.Author.Country,
		PublishedDate: published,
		Pages:         *in.Pages,
		Library:       res.Library.ID,
	}
	if err := s.store.CreateBook(ctx, book); err != nil {
		return models.Book{}, fmt.Errorf("create book: %w", err)
	}

	log.Info().Str("book_id", book.ID).Str("library_id", book.Library).Str("user_id", claims.UserID).Msg("Book created")
	s.record(ctx, models.EventBookCreate, fmt.Sprintf("Book %q created", book.Title), book, claims)
	return book, nil
}

// ListBooks returns every book in the caller's libraries.
func (s *BookService) ListBooks(ctx context.Context, claims *auth.Claims) ([]models.Book, error) {
	return s.store.ListBooksByLibraries(ctx, claims.Libraries)
}

// GetBook returns a book the caller may see.
func (s *BookService) GetBook(ctx context.Context, claims *auth.Claims, id string) (models.Book, error) {
	return s.authorizedBook(ctx, claims, id)
}

// UpdateBook applies the fields present in p. The author snapshot is refreshed only when
// the author reference changes. A move between libraries is recorded under both libraries.
func (s *BookService) UpdateBook(ctx context.Context, claims *auth.Claims, id string, p BookPatch) (models.Book, error) {
	if err := s.validator.CheckSchema(ctx, p); err != nil {
		return models.Book{}, err
	}
	book, err := s.authorizedBook(ctx, claims, id)
	if err != nil {
		return models.Book{}, err
	}
	previousLibrary := book.Library
	res, err := s.validator.CheckReferences(ctx, claims, p)
	if err != nil {
		return models.Book{}, err
	}

	if p.Title != nil {
		book.Title = *p.Title
	}
	if p.PublishedDate != nil {
		published, err := ParsePublishedDate(*p.PublishedDate)
		if err != nil {
			return models.Book{}, apperr.Wrap(apperr.MalformedInput, err.Error(), err)
		}
		book.PublishedDate = published
	}
	if p.Pages != nil {
		book.Pages = *p.Pages
	}
	if res.Library != nil {
		book.Library = res.Library.ID
	}
	if res.Author != nil && res.Author.ID != book.Author {
		book.Author = res.Author.ID
		book.AuthorName = res.Author.Name
		book.AuthorCountry = res.Author.Country
	}

	if err := s.store.UpdateBook(ctx, book); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Book{}, apperr.New(apperr.NotFound, "Book not found")
		}
		return models.Book{}, fmt.Errorf("update book: %w", err)
	}

	s.record(ctx, models.EventBookUpdate, fmt.Sprintf("Book %q updated", book.Title), book, claims)
	if previousLibrary != book.Library {
		// Members of the library the book left see the move too.
		moved := book
		moved.Library = previousLibrary
		s.record(ctx, models.EventBookUpdate, fmt.Sprintf("Book %q moved to another library", book.Title), moved, claims)
	}
	return book, nil
}

// DeleteBook removes a book the caller may see.
func (s *BookService) DeleteBook(ctx context.Context, claims *auth.Claims, id string) error {
	book, err := s.authorizedBook(ctx, claims, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteBook(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.New(apperr.NotFound, "Book not found")
		}
		return fmt.Errorf("delete book: %w", err)
	}

	log.Info().Str("book_id", id).Str("user_id", claims.UserID).Msg("Book deleted")
	s.record(ctx, models.EventBookDelete, fmt.Sprintf("Book %q deleted", book.Title), book, claims)
	return nil
}

// authorizedBook loads a book and checks the caller belongs to its library.
func (s *BookService) authorizedBook(ctx context.Context, claims *auth.Claims, id string) (models.Book, error) {
	book, err := s.store.GetBook(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Book{}, apperr.New(apperr.NotFound, "Book not found")
	}
	if err != nil {
		return models.Book{}, fmt.Errorf("get book: %w", err)
	}
	if !claims.IsMember(book.Library) {
		return models.Book{}, apperr.New(apperr.Forbidden, "Access denied to this library")
	}
	return book, nil
}

func (s *BookService) record(ctx context.Context, eventType, message string, book models.Book, claims *auth.Claims) {
	if s.events == nil {
		return
	}
	s.events.RecordEvent(ctx, eventType, message, book, claims.UserID)
}
