package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/SumukhChakkirala/chatApp/internal/core/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

// UserService handles signup, login and user search. Passwords are
// bcrypt-hashed; the stored hash never leaves this package.
type UserService struct {
	repo domain.UserRepository
	log  *slog.Logger
}

func NewUserService(log *slog.Logger, repo domain.UserRepository) *UserService {
	return &UserService{repo: repo, log: log}
}

// Register validates the form, hashes the password and creates the user
// with a generated user tag.
func (s *UserService) Register(ctx context.Context, username, password, confirm string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}
	if password != confirm {
		return nil, fmt.Errorf("%w: passwords do not match", domain.ErrValidation)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLen)
	}
	if existing, err := s.repo.GetUserByUsername(ctx, username); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: username already exists", domain.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		UserTag:      newUserTag(username),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		s.log.ErrorContext(ctx, "users - register - create failed", "username", username, "err", err)
		return nil, err
	}
	s.log.InfoContext(ctx, "users - register - account created", "user_id", user.ID.String(), "user_tag", user.UserTag)
	return user, nil
}

// Login verifies credentials. Unknown username and wrong password return
// the same error so the response does not leak which one failed.
func (s *UserService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid username or password", domain.ErrUnauthorized)
		}
		s.log.ErrorContext(ctx, "users - login - lookup failed", "username", username, "err", err)
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, fmt.Errorf("%w: invalid username or password", domain.ErrUnauthorized)
	}
	s.log.InfoContext(ctx, "users - login - success", "user_id", user.ID.String())
	return user, nil
}

// Search matches username or tag, excluding the searching user. An empty
// query returns an empty list rather than everyone.
func (s *UserService) Search(ctx context.Context, userID uuid.UUID, query string) ([]domain.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.User{}, nil
	}
	return s.repo.SearchUsers(ctx, query, userID, 20)
}

// newUserTag appends a random five-digit discriminator. Usernames are
// unique so the tag is unique whenever the username is; the discriminator
// keeps tags shareable without exposing raw usernames as identifiers.
func newUserTag(username string) string {
	return fmt.Sprintf("%s#%05d", username, rand.IntN(99999)+1)
}
