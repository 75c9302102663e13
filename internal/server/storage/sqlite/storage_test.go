package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avlahov/forum-api/internal/models"
)

func setupTestStorage(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	// In-memory database for tests
	storage, err := New(ctx, ":memory:")
	require.NoError(t, err)

	cleanup := func() {
		_ = storage.Close()
	}

	return storage, cleanup
}

func createTestUser(t *testing.T, s *Storage, username string) *models.User {
	t.Helper()
	ctx := context.Background()

	user := &models.User{
		Email:        fmt.Sprintf("%s@example.com", username),
		Username:     username,
		PasswordHash: "hash123",
		FirstName:    "Test",
		LastName:     "User",
		CreatedAt:    time.Now(),
	}

	id, err := s.CreateUser(ctx, user)
	require.NoError(t, err)
	user.ID = id

	return user
}

func createTestCategory(t *testing.T, s *Storage, creatorID int64, name string, private bool) *models.Category {
	t.Helper()
	ctx := context.Background()

	category := &models.Category{
		Name:      name,
		CreatorID: creatorID,
		IsPrivate: private,
		CreatedAt: time.Now(),
	}

	id, err := s.CreateCategory(ctx, category)
	require.NoError(t, err)
	category.ID = id

	return category
}

func createTestTopic(t *testing.T, s *Storage, categoryID, creatorID int64, name string) *models.Topic {
	t.Helper()
	ctx := context.Background()

	topic := &models.Topic{
		Name:       name,
		CategoryID: categoryID,
		CreatorID:  creatorID,
		CreatedAt:  time.Now(),
	}

	id, err := s.CreateTopic(ctx, topic)
	require.NoError(t, err)
	topic.ID = id

	return topic
}

func createTestReply(t *testing.T, s *Storage, topicID, authorID int64, text string) *models.Reply {
	t.Helper()
	ctx := context.Background()

	reply := &models.Reply{
		TopicID:   topicID,
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: time.Now(),
	}

	id, err := s.CreateReply(ctx, reply)
	require.NoError(t, err)
	reply.ID = id

	return reply
}
