// Package feed ranks the books visible to a user into a personalized, paginated feed.
//
// Books by authors from the caller's country always come first. Within each group books
// are ordered by a score that favours longer and older titles, and ties fall back to the
// book id in descending order (ids are time-ordered, so newer books win).
package feed

import (
	"slices"
	"strings"
	"time"

	"github.com/isdelr/bookfeed-be/internal/models"
)

// Ranking constants. Changing any of these changes every feed order.
const (
	PagesDivisor = 1000.0
	AgeDivisor   = 100.0
	PagesWeight  = 0.8
	AgeWeight    = 0.2

	// msPerYear uses a 365-day year; leap days are ignored.
	msPerYear = 1000.0 * 60 * 60 * 24 * 365
)

// Default pagination values applied by callers before ranking.
const (
	DefaultPage  = 1
	DefaultLimit = 50
)

// AgeYears returns the age of a book published at published, in 365-day years, at now.
func AgeYears(published, now time.Time) float64 {
	return float64(now.UnixMilli()-published.UnixMilli()) / msPerYear
}

// Score computes the ranking score for a book with the given page count and age.
func Score(pages int, ageYears float64) float64 {
	pagesNorm := float64(pages) / PagesDivisor
	ageNorm := ageYears / AgeDivisor
	return pagesNorm*PagesWeight + ageNorm*AgeWeight
}

// Rank scores books for a reader from country at time now, sorts them and returns the
// requested page. page and limit are expected to be >= 1; out-of-range pages yield an
// empty, non-nil slice.
func Rank(books []models.Book, country string, now time.Time, page, limit int) []models.FeedItem {
	items := make([]models.FeedItem, 0, len(books))
	for _, b := range books {
		age := AgeYears(b.PublishedDate, now)
		same := 0
		if b.AuthorCountry == country {
			same = 1
		}
		items = append(items, models.FeedItem{
			ID:            b.ID,
			Title:         b.Title,
			Author:        b.Author,
			PublishedDate: b.PublishedDate,
			Pages:         b.Pages,
			Library:       b.Library,
			AuthorName:    b.AuthorName,
			AuthorCountry: b.AuthorCountry,
			IsSameCountry: same,
			AgeYears:      age,
			Score:         Score(b.Pages, age),
		})
	}

	slices.SortFunc(items, compare)
	return paginate(items, page, limit)
}

// compare orders by same-country flag, then score, then id, all descending.
func compare(a, b models.FeedItem) int {
	if a.IsSameCountry != b.IsSameCountry {
		return b.IsSameCountry - a.IsSameCountry
	}
	if a.Score != b.Score {
		if a.Score > b.Score {
			return -1
		}
		return 1
	}
	return strings.Compare(b.ID, a.ID)
}

func paginate(items []models.FeedItem, page, limit int) []models.FeedItem {
	if limit < 1 {
		return []models.FeedItem{}
	}
	if page < 1 {
		page = 1
	}
	// Compare in pages rather than offsets so huge page numbers cannot overflow.
	pages := len(items) / limit
	if len(items)%limit != 0 {
		pages++
	}
	if page-1 >= pages {
		return []models.FeedItem{}
	}
	start := (page - 1) * limit
	end := start + limit
	if end > len(items) || end < start {
		end = len(items)
	}
	return items[start:end]
}
