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

// CategoriesHandler handles category CRUD, lock/privacy toggles and
// access grant management
type CategoriesHandler struct {
	logger     *slog.Logger
	categories storage.CategoryStorage
	topics     storage.TopicStorage
	grants     storage.GrantStorage
	engine     *access.Engine
}

// NewCategoriesHandler creates a new categories handler
func NewCategoriesHandler(
	logger *slog.Logger,
	categories storage.CategoryStorage,
	topics storage.TopicStorage,
	grants storage.GrantStorage,
	engine *access.Engine,
) *CategoriesHandler {
	return &CategoriesHandler{
		logger:     logger,
		categories: categories,
		topics:     topics,
		grants:     grants,
		engine:     engine,
	}
}

// List handles GET /api/v1/categories
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := IdentityFrom(ctx)
	if !ok {
		sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	categories, err := h.categories.ListCategoriesFor(ctx, identity)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list categories", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(w, categories, http.StatusOK)
}

// Get handles GET /api/v1/categories/{id}: the category plus its topics
func (h *CategoriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := IdentityFrom(ctx)
	if !ok {
		sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	categoryID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	category, err := h.engine.ViewCategory(ctx, identity, categoryID)
	if err != nil {
		sendAppError(w, h.logger, err)
		return
	}

	topics, err := h.topics.ListTopicsByCategory(ctx, categoryID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list topics", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(w, api.CategoryResponse{Category: category, Topics: topics}, http.StatusOK)
}

// Create handles POST /api/v1/categories.
// The creating user becomes the category owner.
func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := IdentityFrom(ctx)
	if !ok {
		sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateName(req.Name); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	category := &models.Category{
		Name:      req.Name,
		CreatorID: identity.UserID,
		IsPrivate: req.IsPrivate,
		CreatedAt: time.Now(),
	}

	categoryID, err := h.categories.CreateCategory(ctx, category)
	if err != nil {
		if errors.Is(err, storage.ErrCategoryAlreadyExists) {
			sendError(w, "category name already taken", http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create category", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	category.ID = categoryID

	h.logger.InfoContext(ctx, "category created",
		slog.Int64("category_id", categoryID),
		slog.String("name", req.Name),
		slog.Int64("creator_id", identity.UserID))

	sendJSON(w, category, http.StatusCreated)
}

// Lock handles PUT /api/v1/categories/{id}/lock
func (h *CategoriesHandler) Lock(w http.ResponseWriter, r *http.Request) {
	h.setLocked(w, r, true, "category is already locked")
}

// Unlock handles PUT /api/v1/categories/{id}/unlock
func (h *CategoriesHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	h.setLocked(w, r, false, "category is already unlocked")
}

func (h *CategoriesHandler) setLocked(w http.ResponseWriter, r *http.Request, locked bool, conflictMsg string) {
	ctx := r.Context()

	identity, ok := IdentityFrom(ctx)
	if !ok {
		sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	categoryID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if _, err := h.engine.ManageCategory(ctx, identity, categoryID); err != nil {
		sendAppError(w, h.logger, err)
		return
	}

	if err := h.categories.SetCategoryLocked(ctx, categoryID, locked); err != nil {
		h.sendToggleError(w, ctx, err, conflictMsg)
		return
	}

	h.logger.InfoContext(ctx, "category lock state changed",
		slog.Int64("category_id", categoryID),
		slog.Bool("locked", locked),
		slog.Int64("user_id", identity.UserID))

	h.sendCategory(w, ctx, categoryID)
}

// MakePrivate handles PUT /api/v1/categories/{id}/private
func (h *CategoriesHandler) MakePrivate(w http.ResponseWriter, r *http.Request) {
	h.setPrivate(w, r, true, "category is already private")
}

// MakePublic handles PUT /api/v1/categories/{id}/public.
// Making a category public purges all of its access grants.
func (h *CategoriesHandler) MakePublic(w http.ResponseWriter, r *http.Request) {
	h.setPrivate(w, r, false, "category is already public")
}

func (h *CategoriesHandler) setPrivate(w http.ResponseWriter, r *http.Request, private bool, conflictMsg string) {
	ctx := r.Context()

	identity, ok := IdentityFrom(ctx)
	if !ok {
		sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	categoryID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if _, err := h.engine.ManageCategory(ctx, identity, categoryID); err != nil {
		sendAppError(w, h.logger, err)
		return
	}

	if err := h.categories.SetCategoryPrivate(ctx, categoryID, private); err != nil {
		h.sendToggleError(w, ctx, err, conflictMsg)
		return
	}

	h.logger.InfoContext(ctx, "category privacy changed",
		slog.Int64("category_id", categoryID),
		slog.Bool("private", private),
		slog.Int64("user_id", identity.UserID))

	h.sendCategory(w, ctx, categoryID)
}

// Grant handles PUT /api/v1/categories/{id}/access/{userID}.
// Granting an already-held level fails; a different level upserts.
func (h *CategoriesHandler) Grant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := IdentityFrom(ctx)
	if !ok {
		sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	categoryID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	targetUserID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	var req api.GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !req.AccessType.Valid() {
		sendError(w, "access_type must be 0 (read) or 1 (write)", http.StatusBadRequest)
		return
	}

	if err := h.engine.ManageGrant(ctx, identity, categoryID, targetUserID); err != nil {
		sendAppError(w, h.logger, err)
		return
	}

	grant := &models.AccessGrant{
		UserID:     targetUserID,
		CategoryID: categoryID,
		AccessType: req.AccessType,
	}

	outcome, err := h.grants.UpsertGrant(ctx, grant)
	if err != nil {
		if errors.Is(err, storage.ErrNoStateChange) {
			sendError(w, "user already has "+req.AccessType.String()+" access", http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to upsert grant", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var message string
	switch outcome {
	case storage.GrantUpgraded:
		message = "access upgraded to write"
	case storage.GrantDowngraded:
		message = "access downgraded to read"
	default:
		message = req.AccessType.String() + " access granted"
	}

	h.logger.InfoContext(ctx, "access grant updated",
		slog.Int64("category_id", categoryID),
		slog.Int64("target_user_id", targetUserID),
		slog.String("access_type", req.AccessType.String()))

	sendJSON(w, api.GrantResponse{Message: message, Grant: grant}, http.StatusOK)
}

// RevokeGrant handles DELETE /api/v1/categories/{id}/access/{userID}
func (h *CategoriesHandler) RevokeGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := IdentityFrom(ctx)
	if !ok {
		sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	categoryID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	targetUserID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	if err := h.engine.ManageGrant(ctx, identity, categoryID, targetUserID); err != nil {
		sendAppError(w, h.logger, err)
		return
	}

	if err := h.grants.DeleteGrant(ctx, targetUserID, categoryID); err != nil {
		if errors.Is(err, storage.ErrGrantNotFound) {
			sendError(w, "user has no access to revoke", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete grant", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "access grant revoked",
		slog.Int64("category_id", categoryID),
		slog.Int64("target_user_id", targetUserID))

	w.WriteHeader(http.StatusNoContent)
}

// ListGrants handles GET /api/v1/categories/{id}/access
func (h *CategoriesHandler) ListGrants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := IdentityFrom(ctx)
	if !ok {
		sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	categoryID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.engine.ViewGrants(ctx, identity, categoryID); err != nil {
		sendAppError(w, h.logger, err)
		return
	}

	grants, err := h.grants.ListGrantsByCategory(ctx, categoryID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list grants", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(w, grants, http.StatusOK)
}

// sendToggleError maps conditional-update failures to responses
func (h *CategoriesHandler) sendToggleError(w http.ResponseWriter, ctx context.Context, err error, conflictMsg string) {
	switch {
	case errors.Is(err, storage.ErrNoStateChange):
		sendError(w, conflictMsg, http.StatusBadRequest)
	case errors.Is(err, storage.ErrCategoryNotFound):
		sendError(w, "category not found", http.StatusNotFound)
	default:
		h.logger.ErrorContext(ctx, "failed to toggle category state", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
	}
}

// sendCategory writes the current category row
func (h *CategoriesHandler) sendCategory(w http.ResponseWriter, ctx context.Context, categoryID int64) {
	category, err := h.categories.GetCategoryByID(ctx, categoryID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to reload category", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	sendJSON(w, category, http.StatusOK)
}
