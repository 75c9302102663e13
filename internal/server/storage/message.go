package storage

import (
	"context"

	"github.com/avlahov/forum-api/internal/models"
)

// MessageStorage defines interface for direct message persistence
type MessageStorage interface {
	// CreateMessage stores a new message and returns its generated id
	CreateMessage(ctx context.Context, message *models.Message) (int64, error)

	// ListConversation retrieves all messages exchanged between the two
	// users, oldest first
	ListConversation(ctx context.Context, userA, userB int64) ([]*models.Message, error)
}
