package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avlahov/forum-api/internal/models"
	"github.com/avlahov/forum-api/internal/server/storage"
)

// CreateTopic stores a new topic and returns its generated id
func (s *Storage) CreateTopic(ctx context.Context, topic *models.Topic) (int64, error) {
	query := `
		INSERT INTO topics (name, category_id, creator_id, is_locked, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		topic.Name,
		topic.CategoryID,
		topic.CreatorID,
		topic.IsLocked,
		topic.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert topic: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get topic id: %w", err)
	}

	return id, nil
}

// GetTopicByID retrieves topic by id
func (s *Storage) GetTopicByID(ctx context.Context, id int64) (*models.Topic, error) {
	query := `
		SELECT id, name, category_id, creator_id, is_locked, best_reply_id, created_at
		FROM topics
		WHERE id = ?
	`

	topic := &models.Topic{}
	var bestReply sql.NullInt64

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&topic.ID,
		&topic.Name,
		&topic.CategoryID,
		&topic.CreatorID,
		&topic.IsLocked,
		&bestReply,
		&topic.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrTopicNotFound
		}
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}

	if bestReply.Valid {
		topic.BestReplyID = &bestReply.Int64
	}

	return topic, nil
}

// ListTopicsByCategory retrieves all topics of a category ordered by id
func (s *Storage) ListTopicsByCategory(ctx context.Context, categoryID int64) ([]*models.Topic, error) {
	query := `
		SELECT id, name, category_id, creator_id, is_locked, best_reply_id, created_at
		FROM topics
		WHERE category_id = ?
		ORDER BY id
	`

	return s.queryTopics(ctx, query, categoryID)
}

// ListTopicsFor retrieves the topics whose category is visible to the identity
func (s *Storage) ListTopicsFor(ctx context.Context, identity models.Identity) ([]*models.Topic, error) {
	query := `
		SELECT t.id, t.name, t.category_id, t.creator_id, t.is_locked, t.best_reply_id, t.created_at
		FROM topics t
		JOIN categories c ON c.id = t.category_id
		WHERE ?
		   OR c.is_private = 0
		   OR c.creator_id = ?
		   OR EXISTS (
			SELECT 1 FROM access_grants g
			WHERE g.category_id = c.id AND g.user_id = ?
		   )
		ORDER BY t.id
	`

	return s.queryTopics(ctx, query, identity.IsAdmin, identity.UserID, identity.UserID)
}

func (s *Storage) queryTopics(ctx context.Context, query string, args ...any) ([]*models.Topic, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query topics: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var topics []*models.Topic

	for rows.Next() {
		topic := &models.Topic{}
		var bestReply sql.NullInt64

		if err := rows.Scan(
			&topic.ID,
			&topic.Name,
			&topic.CategoryID,
			&topic.CreatorID,
			&topic.IsLocked,
			&bestReply,
			&topic.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		if bestReply.Valid {
			topic.BestReplyID = &bestReply.Int64
		}
		topics = append(topics, topic)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return topics, nil
}

// SetTopicLocked flips the lock flag with a single conditional update
func (s *Storage) SetTopicLocked(ctx context.Context, id int64, locked bool) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE topics SET is_locked = ? WHERE id = ? AND is_locked = ?`,
		locked, id, !locked,
	)
	if err != nil {
		return fmt.Errorf("failed to update lock state: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		if _, err := s.GetTopicByID(ctx, id); err != nil {
			return err
		}
		return storage.ErrNoStateChange
	}

	return nil
}

// SetBestReply marks a reply as the accepted answer of the topic
func (s *Storage) SetBestReply(ctx context.Context, topicID, replyID int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE topics SET best_reply_id = ? WHERE id = ?`,
		replyID, topicID,
	)
	if err != nil {
		return fmt.Errorf("failed to update best reply: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrTopicNotFound
	}

	return nil
}
