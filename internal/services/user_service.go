package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/isdelr/bookfeed-be/internal/apperr"
	"github.com/isdelr/bookfeed-be/internal/auth"
	"github.com/isdelr/bookfeed-be/internal/models"
	"github.com/isdelr/bookfeed-be/internal/store"
)

// ErrInvalidCredentials is returned for any failed login. Unknown usernames and wrong
// passwords are indistinguishable.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	AuthenticateUser(ctx context.Context, username, password string) (models.User, error)
	Login(ctx context.Context, username, password string) (string, error)
}

// UserService provides business logic for user accounts.
type UserService struct {
	users  store.Users
	tokens *auth.Manager
}

// NewUserService creates a new UserService.
func NewUserService(users store.Users, tokens *auth.Manager) *UserService {
	return &UserService{users: users, tokens: tokens}
}

// AuthenticateUser verifies a user's credentials.
func (s *UserService) AuthenticateUser(ctx context.Context, username, password string) (models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

// Login authenticates the user and issues a token carrying their membership snapshot.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.AuthenticateUser(ctx, username, password)
	if err != nil {
		return "", err
	}
	token, err := s.tokens.GenerateJWT(user)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "", fmt.Errorf("sign token: %w", err))
	}
	log.Info().Str("user_id", user.ID).Int("libraries", len(user.Libraries)).Msg("User logged in")
	return token, nil
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
