package api

import "github.com/avlahov/forum-api/internal/models"

// CreateCategoryRequest is the body of POST /api/v1/categories
type CreateCategoryRequest struct {
	Name      string `json:"name"`
	IsPrivate bool   `json:"is_private"`
}

// CategoryResponse is a category together with its topics
type CategoryResponse struct {
	Category *models.Category `json:"category"`
	Topics   []*models.Topic  `json:"topics"`
}

// CreateTopicRequest is the body of POST /api/v1/topics
type CreateTopicRequest struct {
	Name       string `json:"name"`
	CategoryID int64  `json:"category_id"`
}

// TopicResponse is a topic together with its replies
type TopicResponse struct {
	Topic   *models.Topic   `json:"topic"`
	Replies []*models.Reply `json:"replies"`
}

// CreateReplyRequest is the body of POST /api/v1/replies
type CreateReplyRequest struct {
	Text    string `json:"text"`
	TopicID int64  `json:"topic_id"`
}

// VoteRequest is the body of PUT /api/v1/votes/{replyID}
type VoteRequest struct {
	Upvote bool `json:"vote"`
}

// VoteResponse reports what the vote did
type VoteResponse struct {
	Message string `json:"message"`
}

// GrantRequest is the body of PUT /api/v1/categories/{id}/access/{userID}
type GrantRequest struct {
	AccessType models.AccessLevel `json:"access_type"`
}

// GrantResponse reports what the grant upsert did
type GrantResponse struct {
	Message string              `json:"message"`
	Grant   *models.AccessGrant `json:"grant"`
}

// SendMessageRequest is the body of POST /api/v1/messages/{receiverID}
type SendMessageRequest struct {
	Text string `json:"text"`
}

// ConversationResponse is a conversation between the caller and another user
type ConversationResponse struct {
	Messages []*models.Message `json:"messages"`
	Count    int               `json:"message_count"`
}

// HealthResponse is the body of GET /api/v1/health
type HealthResponse struct {
	Status string `json:"status"`
}
