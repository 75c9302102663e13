package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/avlahov/forum-api/internal/models"
	"github.com/avlahov/forum-api/internal/server/storage"
)

// CreateCategory stores a new category and returns its generated id
func (s *Storage) CreateCategory(ctx context.Context, category *models.Category) (int64, error) {
	query := `
		INSERT INTO categories (name, creator_id, is_locked, is_private, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		category.Name,
		category.CreatorID,
		category.IsLocked,
		category.IsPrivate,
		category.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, storage.ErrCategoryAlreadyExists
		}
		return 0, fmt.Errorf("failed to insert category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get category id: %w", err)
	}

	return id, nil
}

// GetCategoryByID retrieves category by id
func (s *Storage) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	query := `
		SELECT id, name, creator_id, is_locked, is_private, created_at
		FROM categories
		WHERE id = ?
	`

	category := &models.Category{}

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.CreatorID,
		&category.IsLocked,
		&category.IsPrivate,
		&category.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return category, nil
}

// ListCategoriesFor retrieves the categories visible to the identity
func (s *Storage) ListCategoriesFor(ctx context.Context, identity models.Identity) ([]*models.Category, error) {
	query := `
		SELECT c.id, c.name, c.creator_id, c.is_locked, c.is_private, c.created_at
		FROM categories c
		WHERE ?
		   OR c.is_private = 0
		   OR c.creator_id = ?
		   OR EXISTS (
			SELECT 1 FROM access_grants g
			WHERE g.category_id = c.id AND g.user_id = ?
		   )
		ORDER BY c.id
	`

	rows, err := s.db.QueryContext(ctx, query, identity.IsAdmin, identity.UserID, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var categories []*models.Category

	for rows.Next() {
		category := &models.Category{}
		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.CreatorID,
			&category.IsLocked,
			&category.IsPrivate,
			&category.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return categories, nil
}

// SetCategoryLocked flips the lock flag with a single conditional update
func (s *Storage) SetCategoryLocked(ctx context.Context, id int64, locked bool) error {
	// Conditional update: zero affected rows means either a missing
	// category or one already in the requested state
	result, err := s.db.ExecContext(ctx,
		`UPDATE categories SET is_locked = ? WHERE id = ? AND is_locked = ?`,
		locked, id, !locked,
	)
	if err != nil {
		return fmt.Errorf("failed to update lock state: %w", err)
	}

	return s.checkCategoryStateChange(ctx, result, id)
}

// SetCategoryPrivate flips the privacy flag with a single conditional update.
// Making a category public purges its grants in the same transaction, keeping
// the invariant that a public category has zero grant rows.
func (s *Storage) SetCategoryPrivate(ctx context.Context, id int64, private bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx,
		`UPDATE categories SET is_private = ? WHERE id = ? AND is_private = ?`,
		private, id, !private,
	)
	if err != nil {
		return fmt.Errorf("failed to update privacy state: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		// The pool holds a single connection and the transaction owns it,
		// so the fallback read must go through tx.
		var exists int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM categories WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrCategoryNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get category: %w", err)
		}
		return storage.ErrNoStateChange
	}

	if !private {
		if _, err := tx.ExecContext(ctx, `DELETE FROM access_grants WHERE category_id = ?`, id); err != nil {
			return fmt.Errorf("failed to purge grants: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}

// checkStateChange maps a zero-affected-rows conditional update to either
// not-found or already-in-state
func (s *Storage) checkCategoryStateChange(ctx context.Context, result sql.Result, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		if _, err := s.GetCategoryByID(ctx, id); err != nil {
			return err
		}
		return storage.ErrNoStateChange
	}
	return nil
}
