package models

import "time"

// Event types recorded for book activity.
const (
	EventBookCreate = "book.create"
	EventBookUpdate = "book.update"
	EventBookDelete = "book.delete"
)

// Event represents a recorded action on a book within a library.
type Event struct {
	ID        string    `json:"id" bson:"_id"`
	Type      string    `json:"type" bson:"type"`   // e.g., "book.create"
	Level     string    `json:"level" bson:"level"` // e.g., "info", "warn"
	Message   string    `json:"message" bson:"message"`
	LibraryID string    `json:"libraryId" bson:"library_id"`
	BookID    string    `json:"bookId" bson:"book_id"`
	UserID    string    `json:"userId" bson:"user_id"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}
