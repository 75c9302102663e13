package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/avlahov/forum-api/internal/server/apperr"
	"github.com/avlahov/forum-api/internal/server/handlers"
	"github.com/avlahov/forum-api/internal/server/token"
)

// AuthMiddleware authenticates the bearer token on every request and puts
// the resulting identity into the request context
func AuthMiddleware(logger *slog.Logger, tokens *token.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("missing Authorization header")
				sendUnauthorized(w, "missing token", "")
				return
			}

			// Expected format: "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("invalid Authorization header format")
				sendUnauthorized(w, "invalid token format", "")
				return
			}

			identity, err := tokens.Authenticate(r.Context(), parts[1])
			if err != nil {
				logger.Warn("token rejected", slog.String("reason", apperr.ReasonOf(err)))
				sendUnauthorized(w, "invalid token", apperr.ReasonOf(err))
				return
			}

			logger.Debug("user authenticated",
				slog.Int64("user_id", identity.UserID),
				slog.String("username", identity.Username))

			next.ServeHTTP(w, r.WithContext(handlers.WithIdentity(r.Context(), identity)))
		})
	}
}

func sendUnauthorized(w http.ResponseWriter, message, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if reason != "" {
		_, _ = fmt.Fprintf(w, `{"error":%q,"reason":%q}`, message, reason)
		return
	}
	_, _ = fmt.Fprintf(w, `{"error":%q}`, message)
}
