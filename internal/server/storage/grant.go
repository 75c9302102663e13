package storage

import (
	"context"

	"github.com/avlahov/forum-api/internal/models"
)

// GrantOutcome reports what an UpsertGrant call did
type GrantOutcome int

const (
	// GrantCreated means a new grant row was inserted
	GrantCreated GrantOutcome = iota + 1
	// GrantUpgraded means an existing read grant became a write grant
	GrantUpgraded
	// GrantDowngraded means an existing write grant became a read grant
	GrantDowngraded
)

// GrantStorage defines interface for access grant persistence
type GrantStorage interface {
	// GetGrant retrieves the grant for the (user, category) pair
	// Returns ErrGrantNotFound if no grant exists
	GetGrant(ctx context.Context, userID, categoryID int64) (*models.AccessGrant, error)

	// UpsertGrant inserts or updates the grant with a single conditional
	// upsert, never producing a duplicate (user, category) row.
	// Returns ErrNoStateChange if the user already holds the level.
	UpsertGrant(ctx context.Context, grant *models.AccessGrant) (GrantOutcome, error)

	// DeleteGrant removes the grant for the (user, category) pair
	// Returns ErrGrantNotFound if no grant exists
	DeleteGrant(ctx context.Context, userID, categoryID int64) error

	// ListGrantsByCategory retrieves all grants of a category ordered by user
	ListGrantsByCategory(ctx context.Context, categoryID int64) ([]*models.AccessGrant, error)
}
