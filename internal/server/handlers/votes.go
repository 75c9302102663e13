package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/avlahov/forum-api/internal/models"
	"github.com/avlahov/forum-api/internal/server/access"
	"github.com/avlahov/forum-api/internal/server/storage"
	"github.com/avlahov/forum-api/pkg/api"
)

// VotesHandler handles up/down votes on replies
type VotesHandler struct {
	logger *slog.Logger
	votes  storage.VoteStorage
	engine *access.Engine
}

// NewVotesHandler creates a new votes handler
func NewVotesHandler(logger *slog.Logger, votes storage.VoteStorage, engine *access.Engine) *VotesHandler {
	return &VotesHandler{
		logger: logger,
		votes:  votes,
		engine: engine,
	}
}

// Vote handles PUT /api/v1/votes/{replyID}.
// Casting the same vote twice is a conflict; casting the opposite vote flips
// the stored one.
func (h *VotesHandler) Vote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := IdentityFrom(ctx)
	if !ok {
		sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	replyID, ok := pathID(w, r, "replyID")
	if !ok {
		return
	}

	var req api.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if _, err := h.engine.VoteOnReply(ctx, identity, replyID); err != nil {
		sendAppError(w, h.logger, err)
		return
	}

	vote := &models.Vote{
		UserID:  identity.UserID,
		ReplyID: replyID,
		Upvote:  req.Upvote,
	}

	outcome, err := h.votes.CastVote(ctx, vote)
	if err != nil {
		if errors.Is(err, storage.ErrNoStateChange) {
			sendError(w, "the vote is already "+voteWord(req.Upvote), http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to cast vote", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var msg string
	switch outcome {
	case storage.VoteChanged:
		msg = "vote changed to " + voteWord(req.Upvote)
	default:
		msg = "vote recorded"
	}

	h.logger.InfoContext(ctx, "vote cast",
		slog.Int64("reply_id", replyID),
		slog.Int64("user_id", identity.UserID),
		slog.Bool("upvote", req.Upvote))

	sendJSON(w, api.VoteResponse{Message: msg}, http.StatusOK)
}

func voteWord(upvote bool) string {
	if upvote {
		return "upvote"
	}
	return "downvote"
}
