package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/isdelr/bookfeed-be/internal/apperr"
	"github.com/isdelr/bookfeed-be/internal/services"
)

// BookHandler handles HTTP requests for books.
type BookHandler struct {
	service services.BookServiceProvider
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(service services.BookServiceProvider) *BookHandler {
	return &BookHandler{service: service}
}

// GetAll lists the books in the caller's libraries.
func (h *BookHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrReject(w, r)
	if !ok {
		return
	}
	books, err := h.service.ListBooks(r.Context(), claims)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, books)
}

// Create adds a book.
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrReject(w, r)
	if !ok {
		return
	}
	var in services.BookInput
	if err := decodeBody(r, &in); err != nil {
		WriteError(w, r, err)
		return
	}

	book, err := h.service.CreateBook(r.Context(), claims, in)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, book)
}

// Get returns a single book.
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrReject(w, r)
	if !ok {
		return
	}
	book, err := h.service.GetBook(r.Context(), claims, chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, book)
}

// Update applies a partial update. Serves both PUT and PATCH.
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrReject(w, r)
	if !ok {
		return
	}
	var patch services.BookPatch
	if err := decodeBody(r, &patch); err != nil {
		WriteError(w, r, err)
		return
	}

	book, err := h.service.UpdateBook(r.Context(), claims, chi.URLParam(r, "id"), patch)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, book)
}

// Delete removes a book.
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrReject(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteBook(r.Context(), claims, chi.URLParam(r, "id")); err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeBody decodes a JSON object into v. Type mismatches (e.g. fractional pages) are MalformedInput.
func decodeBody(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		msg := fmt.Sprintf("%s must be a %s", typeErr.Field, expectedType(typeErr.Type.Kind().String()))
		return apperr.Wrap(apperr.MalformedInput, msg, err)
	case errors.Is(err, io.EOF):
		return apperr.Wrap(apperr.MalformedInput, "Request body is required", err)
	default:
		return apperr.Wrap(apperr.MalformedInput, "Invalid request body", err)
	}
}

func expectedType(kind string) string {
	switch kind {
	case "int", "int64":
		return "positive integer"
	case "string":
		return "string"
	default:
		return kind
	}
}
