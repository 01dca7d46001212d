// Package seed loads the sample dataset used for local development.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/bookfeed-be/internal/models"
	"github.com/isdelr/bookfeed-be/internal/services"
	"github.com/isdelr/bookfeed-be/internal/store"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password"

type userSeed struct {
	username  string
	country   string
	role      string
	libraries []int
}

type bookSeed struct {
	title     string
	author    int
	published string
	pages     int
	library   int
}

var libraries = []models.Library{
	{Name: "Central Library", Location: "New York"},
	{Name: "Westside Library", Location: "Los Angeles"},
}

var users = []userSeed{
	{username: "admin", country: "US", role: models.RoleAdmin, libraries: []int{0, 1}},
	{username: "user1", country: "UK", role: models.RoleUser, libraries: []int{0}},
}

var authors = []models.Author{
	{Name: "F. Scott Fitzgerald", Country: "US"},
	{Name: "George Orwell", Country: "UK"},
	{Name: "Aldous Huxley", Country: "UK"},
	{Name: "J.D. Salinger", Country: "US"},
	{Name: "Stephen Hawking", Country: "UK"},
	{Name: "Harper Lee", Country: "US"},
	{Name: "Jane Austen", Country: "UK"},
	{Name: "Ernest Hemingway", Country: "US"},
	{Name: "Mark Twain", Country: "US"},
	{Name: "Virginia Woolf", Country: "UK"},
}

var books = []bookSeed{
	{"The Great Gatsby", 0, "1925-04-10", 180, 0},
	{"1984", 1, "1949-06-08", 328, 0},
	{"Brave New World", 2, "1932-01-01", 311, 1},
	{"The Catcher in the Rye", 3, "1951-07-16", 234, 1},
	{"A Brief History of Time", 4, "1988-04-01", 256, 0},
	{"To Kill a Mockingbird", 5, "1960-07-11", 281, 0},
	{"Pride and Prejudice", 6, "1813-01-28", 432, 1},
	{"The Old Man and the Sea", 7, "1952-09-01", 127, 0},
	{"Adventures of Huckleberry Finn", 8, "1884-12-10", 366, 1},
	{"Mrs Dalloway", 9, "1925-05-14", 194, 0},
	{"For Whom the Bell Tolls", 7, "1940-10-21", 471, 1},
	{"Emma", 6, "1815-12-23", 474, 0},
	{"The Adventures of Tom Sawyer", 8, "1876-06-01", 274, 1},
	{"To the Lighthouse", 9, "1927-05-05", 209, 0},
	{"Animal Farm", 1, "1945-08-17", 112, 1},
}

// Counts summarizes what Run inserted.
type Counts struct {
	Libraries int
	Users     int
	Authors   int
	Books     int
}

// Run wipes s and inserts the sample dataset.
func Run(ctx context.Context, s store.Store) (Counts, error) {
	var counts Counts
	if err := s.Reset(ctx); err != nil {
		return counts, fmt.Errorf("reset store: %w", err)
	}

	hash, err := services.HashPassword(DefaultPassword)
	if err != nil {
		return counts, err
	}

	libraryIDs := make([]string, len(libraries))
	for i, library := range libraries {
		library.ID = store.NewID()
		if err := s.CreateLibrary(ctx, library); err != nil {
			return counts, fmt.Errorf("create library %q: %w", library.Name, err)
		}
		libraryIDs[i] = library.ID
		counts.Libraries++
	}

	for _, u := range users {
		user := models.User{
			ID:           store.NewID(),
			Username:     u.username,
			PasswordHash: hash,
			Country:      u.country,
			Role:         u.role,
		}
		for _, idx := range u.libraries {
			user.Libraries = append(user.Libraries, libraryIDs[idx])
		}
		if err := s.CreateUser(ctx, user); err != nil {
			return counts, fmt.Errorf("create user %q: %w", u.username, err)
		}
		counts.Users++
	}

	created := make([]models.Author, len(authors))
	for i, author := range authors {
		author.ID = store.NewID()
		if err := s.CreateAuthor(ctx, author); err != nil {
			return counts, fmt.Errorf("create author %q: %w", author.Name, err)
		}
		created[i] = author
		counts.Authors++
	}

	for _, b := range books {
		published, err := time.Parse(time.DateOnly, b.published)
		if err != nil {
			return counts, fmt.Errorf("book %q: %w", b.title, err)
		}
		author := created[b.author]
		book := models.Book{
			ID:            store.NewID(),
			Title:         b.title,
			Author:        author.ID,
			AuthorName:    author.Name,
			AuthorCountry: author.Country,
			PublishedDate: published,
			Pages:         b.pages,
			Library:       libraryIDs[b.library],
		}
		if err := s.CreateBook(ctx, book); err != nil {
			return counts, fmt.Errorf("create book %q: %w", b.title, err)
		}
		counts.Books++
	}

	log.Info().
		Int("libraries", counts.Libraries).
		Int("users", counts.Users).
		Int("authors", counts.Authors).
		Int("books", counts.Books).
		Msg("Sample data seeded")
	return counts, nil
}
