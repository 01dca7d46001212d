package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/bookfeed-be/internal/models"
	"github.com/isdelr/bookfeed-be/internal/store"
	"github.com/isdelr/bookfeed-be/internal/websocket"
)

// Event listing bounds.
const (
	DefaultEventLimit = 20
	MaxEventLimit     = 100
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	RecordEvent(ctx context.Context, eventType, message string, book models.Book, userID string)
	GetRecentEvents(ctx context.Context, libraryIDs []string, limit int) ([]models.Event, error)
}

// Publisher fans an encoded message out to the subscribers of a library.
type Publisher interface {
	Publish(libraryID string, message []byte)
}

// EventService provides business logic for event management.
type EventService struct {
	events    store.Events
	publisher Publisher
	now       func() time.Time
}

// NewEventService creates a new EventService. publisher may be nil.
func NewEventService(events store.Events, publisher Publisher) *EventService {
	return &EventService{events: events, publisher: publisher, now: time.Now}
}

// RecordEvent persists an activity event for book and publishes it to live subscribers.
// Failures are logged; they never fail the operation that caused the event.
func (s *EventService) RecordEvent(ctx context.Context, eventType, message string, book models.Book, userID string) {
	event := models.Event{
		ID:        store.NewID(),
		Type:      eventType,
		Level:     "info",
		Message:   message,
		LibraryID: book.Library,
		BookID:    book.ID,
		UserID:    userID,
		CreatedAt: s.now().UTC(),
	}

	if err := s.events.CreateEvent(ctx, event); err != nil {
		log.Error().Err(err).Str("type", eventType).Str("book_id", book.ID).Msg("Failed to record event")
	}
	if s.publisher != nil {
		s.publisher.Publish(event.LibraryID, websocket.NewEventMessage(event))
	}
}

// GetRecentEvents retrieves the most recent events in the given libraries.
// limit is clamped to [1, MaxEventLimit]; non-positive values use DefaultEventLimit.
func (s *EventService) GetRecentEvents(ctx context.Context, libraryIDs []string, limit int) ([]models.Event, error) {
	if len(libraryIDs) == 0 {
		return []models.Event{}, nil
	}
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	if limit > MaxEventLimit {
		limit = MaxEventLimit
	}
	return s.events.ListEventsByLibraries(ctx, libraryIDs, limit)
}
