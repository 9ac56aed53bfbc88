// Package users manages accounts and profiles. Token issuance and session
// handling belong to the authentication collaborator; this package only
// stores credentials and verifies them.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"social-backend/internal/errs"
	"social-backend/internal/model"
	"social-backend/internal/store"
)

type Service struct {
	store  store.Store
	logger zerolog.Logger
}

func NewService(st store.Store, logger zerolog.Logger) *Service {
	return &Service{store: st, logger: logger}
}

// Register creates an account. Email is unique; a duplicate registration
// fails with Conflict. The returned user carries no password hash.
func (s *Service) Register(ctx context.Context, email, username, password string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", errs.ErrUnavailable, err)
	}

	now := time.Now().UTC()
	u := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Followers:    []string{},
		Following:    []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.InsertUser(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user", u.ID).Msg("user registered")
	return sanitized(u), nil
}

// Authenticate verifies email/password and returns the account. Both an
// unknown email and a wrong password produce the same error, so callers
// cannot probe registered addresses.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	invalid := fmt.Errorf("%w: invalid email or password", errs.ErrNotFound)

	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, invalid
	}
	return sanitized(u), nil
}

// Get returns a user's public profile.
func (s *Service) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitized(u), nil
}

// UpdateProfile applies the present fields of patch. The profile picture
// URL, when set, comes from a prior media resolution.
func (s *Service) UpdateProfile(ctx context.Context, userID string, patch store.ProfilePatch) (*model.User, error) {
	u, err := s.store.UpdateUserProfile(ctx, userID, patch)
	if err != nil {
		return nil, err
	}
	return sanitized(u), nil
}

func sanitized(u *model.User) *model.User {
	c := *u
	c.PasswordHash = ""
	return &c
}
