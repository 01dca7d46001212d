package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/bookfeed-be/internal/apperr"
	"github.com/isdelr/bookfeed-be/internal/services"
)

// AuthHandler handles login.
type AuthHandler struct {
	service services.UserServiceProvider
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service services.UserServiceProvider) *AuthHandler {
	return &AuthHandler{service: service}
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Login handles user authentication and JWT generation.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, r, apperr.Wrap(apperr.MalformedInput, "Invalid request body", err))
		return
	}

	token, err := h.service.Login(r.Context(), payload.Username, payload.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		log.Warn().Str("username", payload.Username).Msg("Failed authentication attempt")
		respondJSON(w, http.StatusUnauthorized, messageResponse{Message: "Invalid credentials"})
		return
	}
	if err != nil {
		WriteError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, tokenResponse{Token: token})
}
