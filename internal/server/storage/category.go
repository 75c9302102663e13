package storage

import (
	"context"

	"github.com/avlahov/forum-api/internal/models"
)

// CategoryStorage defines interface for category persistence
type CategoryStorage interface {
	// CreateCategory stores a new category and returns its generated id.
	// Returns ErrCategoryAlreadyExists if the name is taken.
	CreateCategory(ctx context.Context, category *models.Category) (int64, error)

	// GetCategoryByID retrieves category by id
	// Returns ErrCategoryNotFound if category doesn't exist
	GetCategoryByID(ctx context.Context, id int64) (*models.Category, error)

	// ListCategoriesFor retrieves the categories visible to the identity:
	// public categories, categories the identity owns and private categories
	// it holds a grant for. Admins see everything.
	ListCategoriesFor(ctx context.Context, identity models.Identity) ([]*models.Category, error)

	// SetCategoryLocked flips the lock flag with a single conditional update.
	// Returns ErrNoStateChange if the category is already in the requested
	// state, ErrCategoryNotFound if it doesn't exist.
	SetCategoryLocked(ctx context.Context, id int64, locked bool) error

	// SetCategoryPrivate flips the privacy flag with a single conditional
	// update. Making a category public also purges all of its access grants
	// within the same transaction.
	// Returns ErrNoStateChange if the category is already in the requested
	// state, ErrCategoryNotFound if it doesn't exist.
	SetCategoryPrivate(ctx context.Context, id int64, private bool) error
}
