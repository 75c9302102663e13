package storage

import (
	"context"

	"github.com/avlahov/forum-api/internal/models"
)

// UserStorage defines interface for user persistence
type UserStorage interface {
	// CreateUser stores a new user and returns its generated id.
	// Returns ErrUserAlreadyExists if the email or username is taken.
	CreateUser(ctx context.Context, user *models.User) (int64, error)

	// GetUserByID retrieves user by id
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	// GetUserByUsername retrieves user by username
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// ListUsers retrieves all users ordered by id
	ListUsers(ctx context.Context) ([]*models.User, error)

	// SetAdmin updates the admin flag of a user
	// Returns ErrUserNotFound if user doesn't exist
	SetAdmin(ctx context.Context, id int64, isAdmin bool) error
}
