package testutil

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/isdelr/bookfeed-be/internal/database"
	"github.com/isdelr/bookfeed-be/internal/models"
	"github.com/isdelr/bookfeed-be/internal/store"
	"github.com/isdelr/bookfeed-be/internal/store/sqlstore"
)

// TestContext returns a context with a timeout suitable for store calls in tests.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// NewStore creates a migrated SQLite store in a temporary directory.
func NewStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	ctx, cancel := TestContext()
	defer cancel()

	db, err := database.New(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		t.Fatalf("migrate test database: %v", err)
	}

	s := sqlstore.New(db)
	t.Cleanup(func() { s.Close() })
	return s
}

// WithChiURLParam adds a chi URL parameter to the request context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	s store.Store
	t *testing.T
}

// NewFixtures creates a new Fixtures instance for the given store.
func NewFixtures(t *testing.T, s store.Store) *Fixtures {
	t.Helper()
	return &Fixtures{s: s, t: t}
}

// CreateLibrary creates a test library with the given name.
func (f *Fixtures) CreateLibrary(ctx context.Context, name string) models.Library {
	f.t.Helper()
	lib := models.Library{ID: store.NewID(), Name: name, Location: "Test City"}
	if err := f.s.CreateLibrary(ctx, lib); err != nil {
		f.t.Fatalf("failed to create test library: %v", err)
	}
	return lib
}

// CreateAuthor creates a test author.
func (f *Fixtures) CreateAuthor(ctx context.Context, name, country string) models.Author {
	f.t.Helper()
	author := models.Author{ID: store.NewID(), Name: name, Country: country}
	if err := f.s.CreateAuthor(ctx, author); err != nil {
		f.t.Fatalf("failed to create test author: %v", err)
	}
	return author
}

// CreateUser creates a test user that is a member of the given libraries.
func (f *Fixtures) CreateUser(ctx context.Context, username, password, country string, libraryIDs ...string) models.User {
	f.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash password: %v", err)
	}
	if libraryIDs == nil {
		libraryIDs = []string{}
	}
	user := models.User{
		ID:           store.NewID(),
		Username:     username,
		PasswordHash: string(hash),
		Country:      country,
		Libraries:    libraryIDs,
		Role:         models.RoleUser,
	}
	if err := f.s.CreateUser(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateBook creates a test book with the author snapshot taken from author.
func (f *Fixtures) CreateBook(ctx context.Context, title string, author models.Author, library models.Library, published time.Time, pages int) models.Book {
	f.t.Helper()
	book := models.Book{
		ID:            store.NewID(),
		Title:         title,
		Author:        author.ID,
		AuthorName:    author.Name,
		AuthorCountry: author.Country,
		PublishedDate: published.UTC(),
		Pages:         pages,
		Library:       library.ID,
	}
	if err := f.s.CreateBook(ctx, book); err != nil {
		f.t.Fatalf("failed to create test book: %v", err)
	}
	return book
}
