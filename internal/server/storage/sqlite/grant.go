package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avlahov/forum-api/internal/models"
	"github.com/avlahov/forum-api/internal/server/storage"
)

// GetGrant retrieves the grant for the (user, category) pair
func (s *Storage) GetGrant(ctx context.Context, userID, categoryID int64) (*models.AccessGrant, error) {
	query := `
		SELECT user_id, category_id, access_type
		FROM access_grants
		WHERE user_id = ? AND category_id = ?
	`

	grant := &models.AccessGrant{}

	err := s.db.QueryRowContext(ctx, query, userID, categoryID).Scan(
		&grant.UserID,
		&grant.CategoryID,
		&grant.AccessType,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrGrantNotFound
		}
		return nil, fmt.Errorf("failed to get grant: %w", err)
	}

	return grant, nil
}

// UpsertGrant inserts or updates the grant with a single conditional upsert.
// The (user_id, category_id) primary key guarantees at most one row per pair;
// the conditional DO UPDATE affects zero rows when the user already holds the
// requested level, which maps to ErrNoStateChange.
func (s *Storage) UpsertGrant(ctx context.Context, grant *models.AccessGrant) (storage.GrantOutcome, error) {
	// Prior read decides the outcome (created/upgraded/downgraded);
	// correctness of the upsert does not depend on it.
	outcome := storage.GrantCreated
	if prior, err := s.GetGrant(ctx, grant.UserID, grant.CategoryID); err == nil {
		if grant.AccessType > prior.AccessType {
			outcome = storage.GrantUpgraded
		} else {
			outcome = storage.GrantDowngraded
		}
	} else if !errors.Is(err, storage.ErrGrantNotFound) {
		return 0, err
	}

	query := `
		INSERT INTO access_grants (user_id, category_id, access_type)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, category_id) DO UPDATE SET access_type = excluded.access_type
		WHERE access_grants.access_type != excluded.access_type
	`

	result, err := s.db.ExecContext(ctx, query, grant.UserID, grant.CategoryID, grant.AccessType)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert grant: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return 0, storage.ErrNoStateChange
	}

	return outcome, nil
}

// DeleteGrant removes the grant for the (user, category) pair
func (s *Storage) DeleteGrant(ctx context.Context, userID, categoryID int64) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM access_grants WHERE user_id = ? AND category_id = ?`,
		userID, categoryID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete grant: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrGrantNotFound
	}

	return nil
}

// ListGrantsByCategory retrieves all grants of a category ordered by user
func (s *Storage) ListGrantsByCategory(ctx context.Context, categoryID int64) ([]*models.AccessGrant, error) {
	query := `
		SELECT user_id, category_id, access_type
		FROM access_grants
		WHERE category_id = ?
		ORDER BY user_id
	`

	rows, err := s.db.QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query grants: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var grants []*models.AccessGrant

	for rows.Next() {
		grant := &models.AccessGrant{}
		if err := rows.Scan(
			&grant.UserID,
			&grant.CategoryID,
			&grant.AccessType,
		); err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}
		grants = append(grants, grant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return grants, nil
}
