package handlers

import (
	"log/slog"
	"net/http"

	"github.com/avlahov/forum-api/internal/server/storage"
)

// UsersHandler handles user listing
type UsersHandler struct {
	logger *slog.Logger
	users  storage.UserStorage
}

// NewUsersHandler creates a new users handler
func NewUsersHandler(logger *slog.Logger, users storage.UserStorage) *UsersHandler {
	return &UsersHandler{logger: logger, users: users}
}

// List handles GET /api/v1/users (admin only)
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := IdentityFrom(ctx)
	if !ok {
		sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if !identity.IsAdmin {
		sendError(w, "only admins may list users", http.StatusForbidden)
		return
	}

	users, err := h.users.ListUsers(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list users", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(w, users, http.StatusOK)
}
