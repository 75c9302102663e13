package handlers

import (
	"log/slog"
	"net/http"

	"github.com/avlahov/forum-api/pkg/api"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	logger *slog.Logger
}

// NewHealthHandler creates a new health check handler
func NewHealthHandler(logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		logger: logger,
	}
}

// Health handles GET /api/v1/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, api.HealthResponse{Status: "ok"}, http.StatusOK)
}
