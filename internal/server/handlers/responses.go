package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/avlahov/forum-api/internal/server/apperr"
	"github.com/avlahov/forum-api/pkg/api"
)

// sendJSON writes v as a JSON response with the given status
func sendJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// sendError writes an error response with the given status
func sendError(w http.ResponseWriter, message string, status int) {
	sendJSON(w, api.ErrorResponse{Error: message}, status)
}

// sendAppError translates an error from the authorization core into a
// transport-level status. This is the only place error kinds turn into HTTP
// codes; unknown errors are logged and masked as 500.
func sendAppError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		logger.Error("internal error", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var status int
	switch appErr.Kind {
	case apperr.KindUnauthorized:
		status = http.StatusUnauthorized
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
	}

	sendJSON(w, api.ErrorResponse{Error: appErr.Error(), Reason: appErr.Reason}, status)
}

// pathID parses an int64 path value, returning false after writing a 400
// when the value is missing or malformed
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := r.PathValue(name)
	if raw == "" {
		sendError(w, name+" is required", http.StatusBadRequest)
		return 0, false
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		sendError(w, name+" must be a positive integer", http.StatusBadRequest)
		return 0, false
	}

	return id, true
}
