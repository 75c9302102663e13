package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/avlahov/forum-api/internal/server/handlers"
	"github.com/avlahov/forum-api/internal/server/middleware"
	"github.com/avlahov/forum-api/internal/server/token"
)

// Handlers bundles the HTTP handlers the router mounts
type Handlers struct {
	Auth       *handlers.AuthHandler
	Users      *handlers.UsersHandler
	Categories *handlers.CategoriesHandler
	Topics     *handlers.TopicsHandler
	Replies    *handlers.RepliesHandler
	Votes      *handlers.VotesHandler
	Messages   *handlers.MessagesHandler
	Health     *handlers.HealthHandler
}

// RouterConfig holds the knobs the router needs beyond the handlers
type RouterConfig struct {
	LoginWindow time.Duration
	LoginRate   int
}

// NewRouter mounts all routes. Register, login and health are public;
// login and register are rate limited; everything else requires a valid
// bearer token.
func NewRouter(logger *slog.Logger, tokens *token.Service, h Handlers, cfg RouterConfig) http.Handler {
	authRequired := middleware.AuthMiddleware(logger, tokens)
	loginLimit := middleware.RateLimitMiddleware(cfg.LoginRate, cfg.LoginWindow, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", h.Health.Health)

	mux.Handle("POST /api/v1/auth/register", loginLimit(http.HandlerFunc(h.Auth.Register)))
	mux.Handle("POST /api/v1/auth/login", loginLimit(http.HandlerFunc(h.Auth.Login)))
	mux.Handle("POST /api/v1/auth/logout", authRequired(http.HandlerFunc(h.Auth.Logout)))

	mux.Handle("GET /api/v1/users", authRequired(http.HandlerFunc(h.Users.List)))

	mux.Handle("GET /api/v1/categories", authRequired(http.HandlerFunc(h.Categories.List)))
	mux.Handle("POST /api/v1/categories", authRequired(http.HandlerFunc(h.Categories.Create)))
	mux.Handle("GET /api/v1/categories/{id}", authRequired(http.HandlerFunc(h.Categories.Get)))
	mux.Handle("PUT /api/v1/categories/{id}/lock", authRequired(http.HandlerFunc(h.Categories.Lock)))
	mux.Handle("PUT /api/v1/categories/{id}/unlock", authRequired(http.HandlerFunc(h.Categories.Unlock)))
	mux.Handle("PUT /api/v1/categories/{id}/private", authRequired(http.HandlerFunc(h.Categories.MakePrivate)))
	mux.Handle("PUT /api/v1/categories/{id}/public", authRequired(http.HandlerFunc(h.Categories.MakePublic)))
	mux.Handle("GET /api/v1/categories/{id}/access", authRequired(http.HandlerFunc(h.Categories.ListGrants)))
	mux.Handle("PUT /api/v1/categories/{id}/access/{userID}", authRequired(http.HandlerFunc(h.Categories.Grant)))
	mux.Handle("DELETE /api/v1/categories/{id}/access/{userID}", authRequired(http.HandlerFunc(h.Categories.RevokeGrant)))

	mux.Handle("GET /api/v1/topics", authRequired(http.HandlerFunc(h.Topics.List)))
	mux.Handle("POST /api/v1/topics", authRequired(http.HandlerFunc(h.Topics.Create)))
	mux.Handle("GET /api/v1/topics/{id}", authRequired(http.HandlerFunc(h.Topics.Get)))
	mux.Handle("PUT /api/v1/topics/{id}/lock", authRequired(http.HandlerFunc(h.Topics.Lock)))
	mux.Handle("PUT /api/v1/topics/{id}/unlock", authRequired(http.HandlerFunc(h.Topics.Unlock)))
	mux.Handle("PUT /api/v1/topics/{id}/best-reply/{replyID}", authRequired(http.HandlerFunc(h.Topics.BestReply)))

	mux.Handle("POST /api/v1/replies", authRequired(http.HandlerFunc(h.Replies.Create)))

	mux.Handle("PUT /api/v1/votes/{replyID}", authRequired(http.HandlerFunc(h.Votes.Vote)))

	mux.Handle("POST /api/v1/messages/{receiverID}", authRequired(http.HandlerFunc(h.Messages.Send)))
	mux.Handle("GET /api/v1/messages/{userID}", authRequired(http.HandlerFunc(h.Messages.Conversation)))

	var handler http.Handler = mux
	handler = middleware.LoggingWithSkip(logger, []string{"/api/v1/health"})(handler)
	handler = middleware.RecoveryMiddleware(logger)(handler)

	return handler
}
