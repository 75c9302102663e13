package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/avlahov/forum-api/internal/models"
	"github.com/avlahov/forum-api/internal/server/access"
	"github.com/avlahov/forum-api/internal/server/storage"
	"github.com/avlahov/forum-api/internal/validation"
	"github.com/avlahov/forum-api/pkg/api"
)

// TopicsHandler handles topic CRUD, lock toggles and best reply selection
type TopicsHandler struct {
	logger  *slog.Logger
	topics  storage.TopicStorage
	replies storage.ReplyStorage
	engine  *access.Engine
}

// NewTopicsHandler creates a new topics handler
func NewTopicsHandler(
	logger *slog.Logger,
	topics storage.TopicStorage,
	replies storage.ReplyStorage,
	engine *access.Engine,
) *TopicsHandler {
	return &TopicsHandler{
		logger:  logger,
		topics:  topics,
		replies: replies,
		engine:  engine,
	}
}

// List handles GET /api/v1/topics
func (h *TopicsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := IdentityFrom(ctx)
	if !ok {
		sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	topics, err := h.topics.ListTopicsFor(ctx, identity)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list topics", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(w, topics, http.StatusOK)
}

// Get handles GET /api/v1/topics/{id}: the topic plus its replies
func (h *TopicsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := IdentityFrom(ctx)
	if !ok {
		sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	topicID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	topic, err := h.engine.ViewTopic(ctx, identity, topicID)
	if err != nil {
		sendAppError(w, h.logger, err)
		return
	}

	replies, err := h.replies.ListRepliesByTopic(ctx, topicID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list replies", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(w, api.TopicResponse{Topic: topic, Replies: replies}, http.StatusOK)
}

// Create handles POST /api/v1/topics
func (h *TopicsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := IdentityFrom(ctx)
	if !ok {
		sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.CreateTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateName(req.Name); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.CategoryID <= 0 {
		sendError(w, "category_id is required", http.StatusBadRequest)
		return
	}

	if err := h.engine.CreateTopic(ctx, identity, req.CategoryID); err != nil {
		sendAppError(w, h.logger, err)
		return
	}

	topic := &models.Topic{
		Name:       req.Name,
		CategoryID: req.CategoryID,
		CreatorID:  identity.UserID,
		CreatedAt:  time.Now(),
	}

	topicID, err := h.topics.CreateTopic(ctx, topic)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create topic", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	topic.ID = topicID

	h.logger.InfoContext(ctx, "topic created",
		slog.Int64("topic_id", topicID),
		slog.Int64("category_id", req.CategoryID),
		slog.Int64("creator_id", identity.UserID))

	sendJSON(w, topic, http.StatusCreated)
}

// Lock handles PUT /api/v1/topics/{id}/lock
func (h *TopicsHandler) Lock(w http.ResponseWriter, r *http.Request) {
	h.setLocked(w, r, true, "topic is already locked")
}

// Unlock handles PUT /api/v1/topics/{id}/unlock
func (h *TopicsHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	h.setLocked(w, r, false, "topic is already unlocked")
}

func (h *TopicsHandler) setLocked(w http.ResponseWriter, r *http.Request, locked bool, conflictMsg string) {
	ctx := r.Context()

	identity, ok := IdentityFrom(ctx)
	if !ok {
		sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	topicID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if _, err := h.engine.ManageTopic(ctx, identity, topicID); err != nil {
		sendAppError(w, h.logger, err)
		return
	}

	if err := h.topics.SetTopicLocked(ctx, topicID, locked); err != nil {
		switch {
		case errors.Is(err, storage.ErrNoStateChange):
			sendError(w, conflictMsg, http.StatusBadRequest)
		case errors.Is(err, storage.ErrTopicNotFound):
			sendError(w, "topic not found", http.StatusNotFound)
		default:
			h.logger.ErrorContext(ctx, "failed to toggle topic lock", slog.Any("error", err))
			sendError(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.logger.InfoContext(ctx, "topic lock state changed",
		slog.Int64("topic_id", topicID),
		slog.Bool("locked", locked),
		slog.Int64("user_id", identity.UserID))

	h.sendTopic(w, ctx, topicID)
}

// BestReply handles PUT /api/v1/topics/{id}/best-reply/{replyID}.
// The reply must belong to the topic; only the topic owner or an admin may
// choose.
func (h *TopicsHandler) BestReply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := IdentityFrom(ctx)
	if !ok {
		sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	topicID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	replyID, ok := pathID(w, r, "replyID")
	if !ok {
		return
	}

	if err := h.engine.ChooseBestReply(ctx, identity, topicID, replyID); err != nil {
		sendAppError(w, h.logger, err)
		return
	}

	if err := h.topics.SetBestReply(ctx, topicID, replyID); err != nil {
		if errors.Is(err, storage.ErrTopicNotFound) {
			sendError(w, "topic not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to set best reply", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "best reply chosen",
		slog.Int64("topic_id", topicID),
		slog.Int64("reply_id", replyID),
		slog.Int64("user_id", identity.UserID))

	h.sendTopic(w, ctx, topicID)
}

// sendTopic writes the current topic row
func (h *TopicsHandler) sendTopic(w http.ResponseWriter, ctx context.Context, topicID int64) {
	topic, err := h.topics.GetTopicByID(ctx, topicID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to reload topic", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	sendJSON(w, topic, http.StatusOK)
}
