package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"lendit/internal/database"
	"lendit/internal/models"
)

// UserService is plain field mapping over the user store; it doubles as the
// user directory the booking engine consults.
type UserService struct {
	users  UserStore
	logger *zerolog.Logger
}

func NewUserService(users UserStore, logger *zerolog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// AddUser registers a new user. Email must be unique.
func (s *UserService) AddUser(ctx context.Context, name, email string) (*models.User, error) {
	user := &models.User{Name: name, Email: email}
	err := s.users.CreateUser(ctx, user)
	if errors.Is(err, database.ErrEmailTaken) {
		return nil, conflict("email %s already in use", email)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", user.ID).Msg("user registered")
	return user, nil
}

// GetUser returns a user by ID.
func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("user %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers returns all users.
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*models.User{}
	}
	return users, nil
}

// UpdateUser applies a partial update; nil fields keep their current value.
func (s *UserService) UpdateUser(ctx context.Context, id int64, name, email *string) (*models.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("user %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	if name != nil {
		user.Name = *name
	}
	if email != nil {
		user.Email = *email
	}
	err = s.users.UpdateUser(ctx, user)
	if errors.Is(err, database.ErrEmailTaken) {
		return nil, conflict("email %s already in use", user.Email)
	}
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("user %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes a user and everything hanging off it.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	err := s.users.DeleteUser(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return notFound("user %d not found", id)
	}
	return err
}
