package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avlahov/forum-api/internal/models"
	"github.com/avlahov/forum-api/internal/server/storage"
)

// CreateReply stores a new reply and returns its generated id
func (s *Storage) CreateReply(ctx context.Context, reply *models.Reply) (int64, error) {
	query := `
		INSERT INTO replies (topic_id, author_id, reply_text, created_at)
		VALUES (?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		reply.TopicID,
		reply.AuthorID,
		reply.Text,
		reply.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert reply: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get reply id: %w", err)
	}

	return id, nil
}

// GetReplyByID retrieves reply by id
func (s *Storage) GetReplyByID(ctx context.Context, id int64) (*models.Reply, error) {
	query := `
		SELECT id, topic_id, author_id, reply_text, created_at
		FROM replies
		WHERE id = ?
	`

	reply := &models.Reply{}

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&reply.ID,
		&reply.TopicID,
		&reply.AuthorID,
		&reply.Text,
		&reply.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrReplyNotFound
		}
		return nil, fmt.Errorf("failed to get reply: %w", err)
	}

	return reply, nil
}

// ListRepliesByTopic retrieves all replies of a topic ordered by creation
func (s *Storage) ListRepliesByTopic(ctx context.Context, topicID int64) ([]*models.Reply, error) {
	query := `
		SELECT id, topic_id, author_id, reply_text, created_at
		FROM replies
		WHERE topic_id = ?
		ORDER BY created_at, id
	`

	rows, err := s.db.QueryContext(ctx, query, topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to query replies: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var replies []*models.Reply

	for rows.Next() {
		reply := &models.Reply{}
		if err := rows.Scan(
			&reply.ID,
			&reply.TopicID,
			&reply.AuthorID,
			&reply.Text,
			&reply.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reply: %w", err)
		}
		replies = append(replies, reply)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return replies, nil
}
