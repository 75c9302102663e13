package storage

import (
	"context"

	"github.com/avlahov/forum-api/internal/models"
)

// ReplyStorage defines interface for reply persistence
type ReplyStorage interface {
	// CreateReply stores a new reply and returns its generated id
	CreateReply(ctx context.Context, reply *models.Reply) (int64, error)

	// GetReplyByID retrieves reply by id
	// Returns ErrReplyNotFound if reply doesn't exist
	GetReplyByID(ctx context.Context, id int64) (*models.Reply, error)

	// ListRepliesByTopic retrieves all replies of a topic ordered by creation
	ListRepliesByTopic(ctx context.Context, topicID int64) ([]*models.Reply, error)
}
