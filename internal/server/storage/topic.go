package storage

import (
	"context"

	"github.com/avlahov/forum-api/internal/models"
)

// TopicStorage defines interface for topic persistence
type TopicStorage interface {
	// CreateTopic stores a new topic and returns its generated id
	CreateTopic(ctx context.Context, topic *models.Topic) (int64, error)

	// GetTopicByID retrieves topic by id
	// Returns ErrTopicNotFound if topic doesn't exist
	GetTopicByID(ctx context.Context, id int64) (*models.Topic, error)

	// ListTopicsByCategory retrieves all topics of a category ordered by id
	ListTopicsByCategory(ctx context.Context, categoryID int64) ([]*models.Topic, error)

	// ListTopicsFor retrieves the topics whose category is visible to the
	// identity, using the same visibility rules as
	// CategoryStorage.ListCategoriesFor
	ListTopicsFor(ctx context.Context, identity models.Identity) ([]*models.Topic, error)

	// SetTopicLocked flips the lock flag with a single conditional update.
	// Returns ErrNoStateChange if the topic is already in the requested
	// state, ErrTopicNotFound if it doesn't exist.
	SetTopicLocked(ctx context.Context, id int64, locked bool) error

	// SetBestReply marks a reply as the accepted answer of the topic.
	// Returns ErrTopicNotFound if the topic doesn't exist.
	SetBestReply(ctx context.Context, topicID, replyID int64) error
}
