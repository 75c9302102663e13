package handlers

import (
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

// MessagesHandler handles direct messages between users
type MessagesHandler struct {
	logger   *slog.Logger
	messages storage.MessageStorage
	users    storage.UserStorage
	engine   *access.Engine
}

// NewMessagesHandler creates a new messages handler
func NewMessagesHandler(
	logger *slog.Logger,
	messages storage.MessageStorage,
	users storage.UserStorage,
	engine *access.Engine,
) *MessagesHandler {
	return &MessagesHandler{
		logger:   logger,
		messages: messages,
		users:    users,
		engine:   engine,
	}
}

// Send handles POST /api/v1/messages/{receiverID}
func (h *MessagesHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := IdentityFrom(ctx)
	if !ok {
		sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	receiverID, ok := pathID(w, r, "receiverID")
	if !ok {
		return
	}

	var req api.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateMessageText(req.Text); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if receiverID == identity.UserID {
		sendError(w, "cannot send a message to yourself", http.StatusBadRequest)
		return
	}

	if _, err := h.users.GetUserByID(ctx, receiverID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendError(w, "receiver not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to look up receiver", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	message := &models.Message{
		SenderID:   identity.UserID,
		ReceiverID: receiverID,
		Text:       req.Text,
		CreatedAt:  time.Now(),
	}

	messageID, err := h.messages.CreateMessage(ctx, message)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create message", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	message.ID = messageID

	h.logger.InfoContext(ctx, "message sent",
		slog.Int64("message_id", messageID),
		slog.Int64("sender_id", identity.UserID),
		slog.Int64("receiver_id", receiverID))

	sendJSON(w, message, http.StatusCreated)
}

// Conversation handles GET /api/v1/messages/{userID}: all messages between
// the caller and the given user, oldest first
func (h *MessagesHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := IdentityFrom(ctx)
	if !ok {
		sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	if err := h.engine.ViewConversation(ctx, identity, userID); err != nil {
		sendAppError(w, h.logger, err)
		return
	}

	messages, err := h.messages.ListConversation(ctx, identity.UserID, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list conversation", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(w, api.ConversationResponse{
		Messages: messages,
		Count:    len(messages),
	}, http.StatusOK)
}
