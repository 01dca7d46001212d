// Package store defines the entity store used by the services.
//
// Two implementations exist: sqlstore (SQLite) and mongostore (MongoDB). Both return
// ErrNotFound for missing entities and accept string ids generated by NewID.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/bookfeed-be/internal/models"
)

// ErrNotFound is returned when an entity does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrDuplicate is returned when a unique field (e.g. username) is already taken.
var ErrDuplicate = errors.New("store: duplicate key")

// NewID returns a new time-ordered entity id. Ids compare lexically in creation order.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ValidID reports whether s is a well-formed entity id.
func ValidID(s string) bool {
	return uuid.Validate(s) == nil
}

// Users persists user accounts.
type Users interface {
	CreateUser(ctx context.Context, user models.User) error
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

// Libraries persists libraries.
type Libraries interface {
	CreateLibrary(ctx context.Context, library models.Library) error
	GetLibrary(ctx context.Context, id string) (models.Library, error)
}

// Authors persists authors.
type Authors interface {
	CreateAuthor(ctx context.Context, author models.Author) error
	GetAuthor(ctx context.Context, id string) (models.Author, error)
}

// Books persists books.
type Books interface {
	CreateBook(ctx context.Context, book models.Book) error
	GetBook(ctx context.Context, id string) (models.Book, error)
	// ListBooksByLibraries returns every book held in one of libraryIDs, ordered by id.
	ListBooksByLibraries(ctx context.Context, libraryIDs []string) ([]models.Book, error)
	UpdateBook(ctx context.Context, book models.Book) error
	DeleteBook(ctx context.Context, id string) error
}

// Events persists book activity events.
type Events interface {
	CreateEvent(ctx context.Context, event models.Event) error
	// ListEventsByLibraries returns up to limit events in libraryIDs, newest first.
	ListEventsByLibraries(ctx context.Context, libraryIDs []string, limit int) ([]models.Event, error)
	// PruneEventsBefore deletes events created before cutoff and returns how many were removed.
	PruneEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Store is the full entity store.
type Store interface {
	Users
	Libraries
	Authors
	Books
	Events

	// Reset removes every entity. Used by seeding.
	Reset(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
