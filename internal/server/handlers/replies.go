package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/avlahov/forum-api/internal/models"
	"github.com/avlahov/forum-api/internal/server/access"
	"github.com/avlahov/forum-api/internal/server/storage"
	"github.com/avlahov/forum-api/internal/validation"
	"github.com/avlahov/forum-api/pkg/api"
)

// RepliesHandler handles reply creation
type RepliesHandler struct {
	logger  *slog.Logger
	replies storage.ReplyStorage
	engine  *access.Engine
}

// NewRepliesHandler creates a new replies handler
func NewRepliesHandler(logger *slog.Logger, replies storage.ReplyStorage, engine *access.Engine) *RepliesHandler {
	return &RepliesHandler{
		logger:  logger,
		replies: replies,
		engine:  engine,
	}
}

// Create handles POST /api/v1/replies
func (h *RepliesHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := IdentityFrom(ctx)
	if !ok {
		sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.CreateReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateReplyText(req.Text); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.TopicID <= 0 {
		sendError(w, "topic_id is required", http.StatusBadRequest)
		return
	}

	if _, err := h.engine.CreateReply(ctx, identity, req.TopicID); err != nil {
		sendAppError(w, h.logger, err)
		return
	}

	reply := &models.Reply{
		TopicID:   req.TopicID,
		AuthorID:  identity.UserID,
		Text:      req.Text,
		CreatedAt: time.Now(),
	}

	replyID, err := h.replies.CreateReply(ctx, reply)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create reply", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	reply.ID = replyID

	h.logger.InfoContext(ctx, "reply created",
		slog.Int64("reply_id", replyID),
		slog.Int64("topic_id", req.TopicID),
		slog.Int64("author_id", identity.UserID))

	sendJSON(w, reply, http.StatusCreated)
}
