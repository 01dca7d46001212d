// Package mongostore implements store.Store on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/isdelr/bookfeed-be/internal/models"
	"github.com/isdelr/bookfeed-be/internal/store"
)

const (
	collUsers     = "users"
	collLibraries = "libraries"
	collAuthors   = "authors"
	collBooks     = "books"
	collEvents    = "events"
)

// Store is a store.Store backed by a MongoDB database.
type Store struct {
	db *mongo.Database
}

var _ store.Store = (*Store)(nil)

// New creates a Store on db. Indexes are expected to exist already (see database.EnsureMongoIndexes).
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// Ping checks the connection to the primary.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.db.Client().Disconnect(ctx)
}

// Reset deletes every document from every collection.
func (s *Store) Reset(ctx context.Context) error {
	for _, coll := range []string{collEvents, collBooks, collUsers, collAuthors, collLibraries} {
		if _, err := s.db.Collection(coll).DeleteMany(ctx, bson.D{}); err != nil {
			return fmt.Errorf("clear %s: %w", coll, err)
		}
	}
	return nil
}

func (s *Store) insert(ctx context.Context, coll string, doc interface{}) error {
	if _, err := s.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		}
		return err
	}
	return nil
}

func (s *Store) findByID(ctx context.Context, coll, id string, out interface{}) error {
	err := s.db.Collection(coll).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

// CreateUser inserts a user document with its memberships embedded.
func (s *Store) CreateUser(ctx context.Context, user models.User) error {
	if user.Libraries == nil {
		user.Libraries = []string{}
	}
	return s.insert(ctx, collUsers, user)
}

// GetUserByUsername retrieves a user, including the password hash and memberships.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := s.db.Collection(collUsers).FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, store.ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	if user.Libraries == nil {
		user.Libraries = []string{}
	}
	return user, nil
}

// CreateLibrary inserts a library.
func (s *Store) CreateLibrary(ctx context.Context, library models.Library) error {
	return s.insert(ctx, collLibraries, library)
}

// GetLibrary retrieves a single library by its ID.
func (s *Store) GetLibrary(ctx context.Context, id string) (models.Library, error) {
	var library models.Library
	if err := s.findByID(ctx, collLibraries, id, &library); err != nil {
		return models.Library{}, err
	}
	return library, nil
}

// CreateAuthor inserts an author.
func (s *Store) CreateAuthor(ctx context.Context, author models.Author) error {
	return s.insert(ctx, collAuthors, author)
}

// GetAuthor retrieves a single author by its ID.
func (s *Store) GetAuthor(ctx context.Context, id string) (models.Author, error) {
	var author models.Author
	if err := s.findByID(ctx, collAuthors, id, &author); err != nil {
		return models.Author{}, err
	}
	return author, nil
}

// CreateBook inserts a book.
func (s *Store) CreateBook(ctx context.Context, book models.Book) error {
	book.PublishedDate = book.PublishedDate.UTC()
	return s.insert(ctx, collBooks, book)
}

// GetBook retrieves a single book by its ID.
func (s *Store) GetBook(ctx context.Context, id string) (models.Book, error) {
	var book models.Book
	if err := s.findByID(ctx, collBooks, id, &book); err != nil {
		return models.Book{}, err
	}
	book.PublishedDate = book.PublishedDate.UTC()
	return book, nil
}

// ListBooksByLibraries retrieves every book held in one of libraryIDs.
func (s *Store) ListBooksByLibraries(ctx context.Context, libraryIDs []string) ([]models.Book, error) {
	books := []models.Book{}
	if len(libraryIDs) == 0 {
		return books, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.db.Collection(collBooks).Find(ctx, bson.M{"library": bson.M{"$in": libraryIDs}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	for i := range books {
		books[i].PublishedDate = books[i].PublishedDate.UTC()
	}
	return books, nil
}

// UpdateBook replaces an existing book document.
func (s *Store) UpdateBook(ctx context.Context, book models.Book) error {
	book.PublishedDate = book.PublishedDate.UTC()
	res, err := s.db.Collection(collBooks).ReplaceOne(ctx, bson.M{"_id": book.ID}, book)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteBook removes a book.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	res, err := s.db.Collection(collBooks).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CreateEvent records a new event.
func (s *Store) CreateEvent(ctx context.Context, event models.Event) error {
	event.CreatedAt = event.CreatedAt.UTC()
	return s.insert(ctx, collEvents, event)
}

// ListEventsByLibraries retrieves the most recent events for the given libraries.
func (s *Store) ListEventsByLibraries(ctx context.Context, libraryIDs []string, limit int) ([]models.Event, error) {
	events := []models.Event{}
	if len(libraryIDs) == 0 || limit <= 0 {
		return events, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.db.Collection(collEvents).Find(ctx, bson.M{"library_id": bson.M{"$in": libraryIDs}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	for i := range events {
		events[i].CreatedAt = events[i].CreatedAt.UTC()
	}
	return events, nil
}

// PruneEventsBefore deletes events older than cutoff.
func (s *Store) PruneEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.Collection(collEvents).DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff.UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
