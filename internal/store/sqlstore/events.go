package sqlstore

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/isdelr/bookfeed-be/internal/models"
)

type eventRow struct {
	ID        string `db:"id"`
	Type      string `db:"type"`
	Level     string `db:"level"`
	Message   string `db:"message"`
	LibraryID string `db:"library_id"`
	BookID    string `db:"book_id"`
	UserID    string `db:"user_id"`
	CreatedAt int64  `db:"created_at"`
}

// CreateEvent records a new event.
func (s *Store) CreateEvent(ctx context.Context, event models.Event) error {
	return s.insert(ctx, tableEvents, eventRow{
		ID:        event.ID,
		Type:      event.Type,
		Level:     event.Level,
		Message:   event.Message,
		LibraryID: event.LibraryID,
		BookID:    event.BookID,
		UserID:    event.UserID,
		CreatedAt: toMillis(event.CreatedAt),
	})
}

// ListEventsByLibraries retrieves the most recent events for the given libraries.
func (s *Store) ListEventsByLibraries(ctx context.Context, libraryIDs []string, limit int) ([]models.Event, error) {
	events := []models.Event{}
	if len(libraryIDs) == 0 || limit <= 0 {
		return events, nil
	}

	var rows []eventRow
	ds := dialect.From(tableEvents).
		Select("id", "type", "level", "message", "library_id", "book_id", "user_id", "created_at").
		Where(goqu.C("library_id").In(libraryIDs)).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc()).
		Limit(uint(limit))
	if err := s.selectAll(ctx, &rows, ds); err != nil {
		return nil, err
	}

	for _, r := range rows {
		events = append(events, models.Event{
			ID:        r.ID,
			Type:      r.Type,
			Level:     r.Level,
			Message:   r.Message,
			LibraryID: r.LibraryID,
			BookID:    r.BookID,
			UserID:    r.UserID,
			CreatedAt: fromMillis(r.CreatedAt),
		})
	}
	return events, nil
}

// PruneEventsBefore deletes events older than cutoff.
func (s *Store) PruneEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := dialect.Delete(tableEvents).
		Where(goqu.C("created_at").Lt(toMillis(cutoff))).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
