package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/bookfeed-be/internal/apperr"
	"github.com/isdelr/bookfeed-be/internal/auth"
	"github.com/isdelr/bookfeed-be/internal/models"
	"github.com/isdelr/bookfeed-be/internal/services"
	"github.com/isdelr/bookfeed-be/internal/store"
	"github.com/isdelr/bookfeed-be/internal/testutil"
)

// countingBooks wraps a store.Books and counts list calls, optionally failing them.
type countingBooks struct {
	store.Books
	lists int
	err   error
}

func (c *countingBooks) ListBooksByLibraries(ctx context.Context, ids []string) ([]models.Book, error) {
	c.lists++
	if c.err != nil {
		return nil, c.err
	}
	return c.Books.ListBooksByLibraries(ctx, ids)
}

func TestGetFeed(t *testing.T) {
	s := testutil.NewStore(t)
	fx := testutil.NewFixtures(t, s)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	lib := fx.CreateLibrary(ctx, "Central Library")
	other := fx.CreateLibrary(ctx, "Elsewhere")
	us := fx.CreateAuthor(ctx, "US Author", "US")
	uk := fx.CreateAuthor(ctx, "UK Author", "UK")
	recent := time.Now().UTC()

	small := fx.CreateBook(ctx, "Small", us, lib, recent, 100)
	big := fx.CreateBook(ctx, "Big", uk, lib, recent, 900)
	fx.CreateBook(ctx, "Hidden", us, other, recent, 5000)

	svc := services.NewFeedService(s)
	claims := &auth.Claims{UserID: "u1", Country: "US", Libraries: []string{lib.ID}}

	items, err := svc.GetFeed(ctx, claims, 1, 50)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, small.ID, items[0].ID, "same-country book ranks first despite lower score")
	assert.Equal(t, 1, items[0].IsSameCountry)
	assert.Equal(t, big.ID, items[1].ID)
	assert.Greater(t, items[1].Score, items[0].Score)

	page2, err := svc.GetFeed(ctx, claims, 2, 1)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, big.ID, page2[0].ID)
}

func TestGetFeedPagination(t *testing.T) {
	s := testutil.NewStore(t)
	fx := testutil.NewFixtures(t, s)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	lib := fx.CreateLibrary(ctx, "Central Library")
	author := fx.CreateAuthor(ctx, "Author", "US")
	for i := 0; i < 25; i++ {
		fx.CreateBook(ctx, "Book", author, lib, time.Date(1900+i, 1, 1, 0, 0, 0, 0, time.UTC), 100+i)
	}

	svc := services.NewFeedService(s)
	claims := &auth.Claims{Country: "US", Libraries: []string{lib.ID}}

	all, err := svc.GetFeed(ctx, claims, 1, 100)
	require.NoError(t, err)
	require.Len(t, all, 25)

	page2, err := svc.GetFeed(ctx, claims, 2, 10)
	require.NoError(t, err)
	require.Len(t, page2, 10)
	for i := range page2 {
		assert.Equal(t, all[10+i].ID, page2[i].ID)
	}
}

func TestGetFeedEmptyMembershipSkipsStore(t *testing.T) {
	books := &countingBooks{err: errors.New("must not be called")}
	svc := services.NewFeedService(books)

	for _, libs := range [][]string{nil, {}} {
		items, err := svc.GetFeed(context.Background(), &auth.Claims{Country: "US", Libraries: libs}, 7, 3)
		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	}
	assert.Zero(t, books.lists)
}

func TestGetFeedStoreFailure(t *testing.T) {
	books := &countingBooks{err: errors.New("connection reset")}
	svc := services.NewFeedService(books)

	items, err := svc.GetFeed(context.Background(), &auth.Claims{Libraries: []string{"lib"}}, 1, 50)
	assert.Nil(t, items)
	require.Error(t, err)
	assert.Equal(t, apperr.RankingFailure, apperr.KindOf(err))
	assert.Equal(t, "Error generating feed", err.Error())
	assert.Equal(t, 1, books.lists)
}
