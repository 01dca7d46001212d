package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/bookfeed-be/internal/apperr"
	"github.com/isdelr/bookfeed-be/internal/models"
	"github.com/rs/zerolog/log"
)

// DefaultTTL is the validity window of issued tokens.
const DefaultTTL = time.Hour

// Claims defines the JWT claims structure.
//
// Libraries is the membership snapshot taken at login. It is trusted until the token
// expires; membership changes are not seen before the user logs in again.
type Claims struct {
	UserID    string   `json:"userId"`
	Username  string   `json:"username"`
	Country   string   `json:"country"`
	Libraries []string `json:"libraries"`
	Role      string   `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// IsMember reports whether the claims include libraryID.
func (c *Claims) IsMember(libraryID string) bool {
	return slices.Contains(c.Libraries, libraryID)
}

// contextKey is the context key type for user claims.
type contextKey string

const UserClaimsKey = contextKey("userClaims")

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, UserClaimsKey, claims)
}

// ClaimsFromContext returns the caller's claims attached by the middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*Claims)
	return claims, ok && claims != nil
}

// Manager issues and validates signed tokens.
type Manager struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewManager creates a Manager signing with secret. A non-positive ttl uses DefaultTTL.
func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{key: []byte(secret), ttl: ttl, now: time.Now}
}

// GenerateJWT creates a new JWT for a given user.
func (m *Manager) GenerateJWT(user models.User) (string, error) {
	now := m.now()
	libraries := make([]string, len(user.Libraries))
	copy(libraries, user.Libraries)

	claims := &Claims{
		UserID:    user.ID,
		Username:  user.Username,
		Country:   user.Country,
		Libraries: libraries,
		Role:      user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.key)
}

// ValidateJWT parses and validates a JWT string.
func (m *Manager) ValidateJWT(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return m.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Libraries == nil {
		claims.Libraries = []string{}
	}
	return claims, nil
}

// Authenticate resolves the caller's claims from a raw credential.
// An empty credential is Unauthenticated, a bad one InvalidCredential.
func (m *Manager) Authenticate(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, apperr.New(apperr.Unauthenticated, "Missing auth token")
	}
	claims, err := m.ValidateJWT(tokenStr)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Wrap(apperr.InvalidCredential, "Auth token expired", err)
		}
		return nil, apperr.Wrap(apperr.InvalidCredential, "Invalid auth token", err)
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
// A value without the "Bearer " prefix is taken as the token itself.
func BearerToken(header string) string {
	if rest, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(header)
}

// ErrorWriter renders an authentication failure to the client.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// JWTMiddleware creates a middleware for protecting routes.
// Missing credentials are rejected with 401, invalid or expired ones with 403.
func JWTMiddleware(m *Manager, onError ErrorWriter) func(http.Handler) http.Handler {
	return middleware(m, onError, false)
}

// WebSocketJWTMiddleware is JWTMiddleware that also accepts the token from the
// "token" query parameter, since browsers cannot set headers on websocket upgrades.
func WebSocketJWTMiddleware(m *Manager, onError ErrorWriter) func(http.Handler) http.Handler {
	return middleware(m, onError, true)
}

func middleware(m *Manager, onError ErrorWriter, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := BearerToken(r.Header.Get("Authorization"))
			if tokenStr == "" && allowQuery {
				tokenStr = r.URL.Query().Get("token")
			}

			claims, err := m.Authenticate(tokenStr)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected request credentials")
				onError(w, r, err)
				return
			}

			log.Debug().Str("user_id", claims.UserID).Str("username", claims.Username).Msg("Authenticated user")
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}
