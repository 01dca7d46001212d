package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/bookfeed-be/internal/apperr"
	"github.com/isdelr/bookfeed-be/internal/auth"
)

const internalServerError = "Internal Server Error"

type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// WriteError renders err as {"error": message} with the status of its kind.
// Unclassified errors become 500 with their own message, or a generic one if it is empty.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := kind.Status()

	msg := err.Error()
	if msg == "" {
		msg = internalServerError
	}

	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("kind", kind.String()).
		Str("path", r.URL.Path).
		Msg("Request failed")
	respondJSON(w, status, errorBody{Error: msg})
}

// claimsOrReject returns the caller's claims, writing a 401 if the auth middleware did not run.
func claimsOrReject(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, r, apperr.New(apperr.Unauthenticated, "Missing auth token"))
		return nil, false
	}
	return claims, true
}

// NotFound renders unknown routes as JSON.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusNotFound, errorBody{Error: "Not Found"})
}

// MethodNotAllowed renders unsupported methods as JSON.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method Not Allowed"})
}
