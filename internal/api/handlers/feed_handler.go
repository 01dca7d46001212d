package handlers

import (
	"net/http"
	"strconv"

	"github.com/isdelr/bookfeed-be/internal/feed"
	"github.com/isdelr/bookfeed-be/internal/services"
)

// FeedHandler serves the ranked book feed.
type FeedHandler struct {
	service services.FeedServiceProvider
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(service services.FeedServiceProvider) *FeedHandler {
	return &FeedHandler{service: service}
}

// Get handles GET /feed?page=&limit=.
func (h *FeedHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrReject(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	page := positiveIntOr(q.Get("page"), feed.DefaultPage)
	limit := positiveIntOr(q.Get("limit"), feed.DefaultLimit)

	items, err := h.service.GetFeed(r.Context(), claims, page, limit)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// positiveIntOr parses s, falling back to def when it is missing, malformed or below 1.
func positiveIntOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
