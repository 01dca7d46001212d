package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/bookfeed-be/internal/apperr"
	"github.com/isdelr/bookfeed-be/internal/auth"
	"github.com/isdelr/bookfeed-be/internal/feed"
	"github.com/isdelr/bookfeed-be/internal/models"
	"github.com/isdelr/bookfeed-be/internal/store"
)

// FeedServiceProvider defines the interface for feed services.
type FeedServiceProvider interface {
	GetFeed(ctx context.Context, claims *auth.Claims, page, limit int) ([]models.FeedItem, error)
}

// FeedService builds the ranked feed of books across a caller's libraries.
type FeedService struct {
	books store.Books
	now   func() time.Time
}

// NewFeedService creates a new FeedService.
func NewFeedService(books store.Books) *FeedService {
	return &FeedService{books: books, now: time.Now}
}

// GetFeed returns the requested page of the caller's feed. page and limit must already
// be defaulted to values >= 1.
func (s *FeedService) GetFeed(ctx context.Context, claims *auth.Claims, page, limit int) ([]models.FeedItem, error) {
	if len(claims.Libraries) == 0 {
		return []models.FeedItem{}, nil
	}

	books, err := s.books.ListBooksByLibraries(ctx, claims.Libraries)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to load feed candidates")
		return nil, apperr.Wrap(apperr.RankingFailure, "Error generating feed", err)
	}
	return feed.Rank(books, claims.Country, s.now(), page, limit), nil
}
