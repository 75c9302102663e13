package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avlahov/forum-api/internal/models"
	"github.com/avlahov/forum-api/internal/server/access"
	"github.com/avlahov/forum-api/internal/server/handlers"
	"github.com/avlahov/forum-api/internal/server/storage/boltdb"
	"github.com/avlahov/forum-api/internal/server/storage/sqlite"
	"github.com/avlahov/forum-api/internal/server/token"
	"github.com/avlahov/forum-api/pkg/api"
)

type testServer struct {
	router http.Handler
	store  *sqlite.Storage
	tokens *token.Service
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	blacklist, err := boltdb.New(ctx, filepath.Join(t.TempDir(), "blacklist.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = blacklist.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens := token.NewService(token.Config{
		Issuer: "forum-api-test",
		Secret: []byte("test-secret"),
		TTL:    time.Hour,
	}, store, blacklist)

	engine := access.NewEngine(store, store, store, store, store)

	router := NewRouter(logger, tokens, Handlers{
		Auth:       handlers.NewAuthHandler(logger, store, tokens),
		Users:      handlers.NewUsersHandler(logger, store),
		Categories: handlers.NewCategoriesHandler(logger, store, store, store, engine),
		Topics:     handlers.NewTopicsHandler(logger, store, store, engine),
		Replies:    handlers.NewRepliesHandler(logger, store, engine),
		Votes:      handlers.NewVotesHandler(logger, store, engine),
		Messages:   handlers.NewMessagesHandler(logger, store, store, engine),
		Health:     handlers.NewHealthHandler(logger),
	}, RouterConfig{LoginRate: 1000, LoginWindow: time.Minute})

	return &testServer{router: router, store: store, tokens: tokens}
}

// do runs a request through the router and returns the recorder
func (ts *testServer) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

// registerAndLogin creates a user through the API and returns its id and a
// session token
func (ts *testServer) registerAndLogin(t *testing.T, username string) (int64, string) {
	t.Helper()

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", api.RegisterRequest{
		Email:    username + "@example.com",
		Username: username,
		Password: "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var reg api.RegisterResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&reg))

	rec = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", api.LoginRequest{
		Username: username,
		Password: "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tok api.TokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tok))

	return reg.UserID, tok.AccessToken
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestRouter_HealthIsPublic(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/categories", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/categories", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_LogoutInvalidatesToken(t *testing.T) {
	ts := setupTestServer(t)
	_, tok := ts.registerAndLogin(t, "alice")

	rec := ts.do(t, http.MethodGet, "/api/v1/categories", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/auth/logout", tok, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// The token is dead for every subsequent request, well before expiry
	rec = ts.do(t, http.MethodGet, "/api/v1/categories", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token_revoked")

	rec = ts.do(t, http.MethodPost, "/api/v1/auth/logout", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestRouter_ForumFlow walks one forum through its whole life: lock and
// privacy toggles, grants, topics, replies, votes, best replies and direct
// messages, checking who is allowed to do what at each step.
func TestRouter_ForumFlow(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	aliceID, alice := ts.registerAndLogin(t, "alice")
	bobID, bob := ts.registerAndLogin(t, "bob")
	_, carol := ts.registerAndLogin(t, "carol")

	rootID, _ := ts.registerAndLogin(t, "root")
	require.NoError(t, ts.store.SetAdmin(ctx, rootID, true))
	// Re-login so the token carries the admin flag
	rec := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", api.LoginRequest{
		Username: "root",
		Password: "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var rootTok api.TokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rootTok))
	root := rootTok.AccessToken

	// Alice opens a category and owns it
	rec = ts.do(t, http.MethodPost, "/api/v1/categories", alice, api.CreateCategoryRequest{Name: "Cars"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var cars models.Category
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&cars))
	assert.Equal(t, aliceID, cars.CreatorID)

	carsPath := fmt.Sprintf("/api/v1/categories/%d", cars.ID)

	// Bob posts a topic while the category is open
	rec = ts.do(t, http.MethodPost, "/api/v1/topics", bob, api.CreateTopicRequest{
		Name:       "Best engine oil",
		CategoryID: cars.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var oilTopic models.Topic
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&oilTopic))

	// --- lock rules ---

	// Only the owner or an admin may lock; bob cannot
	rec = ts.do(t, http.MethodPut, carsPath+"/lock", bob, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "owner_only", decodeError(t, rec).Reason)

	rec = ts.do(t, http.MethodPut, carsPath+"/lock", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Locking twice is a state conflict
	rec = ts.do(t, http.MethodPut, carsPath+"/lock", alice, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// The lock stops new topics, even from the owner
	rec = ts.do(t, http.MethodPost, "/api/v1/topics", alice, api.CreateTopicRequest{
		Name:       "Owner topic",
		CategoryID: cars.ID,
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "category_locked", decodeError(t, rec).Reason)

	// Admins post through locks
	rec = ts.do(t, http.MethodPost, "/api/v1/topics", root, api.CreateTopicRequest{
		Name:       "Admin notice",
		CategoryID: cars.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Locked categories still read fine
	rec = ts.do(t, http.MethodGet, carsPath, bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPut, carsPath+"/unlock", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// --- privacy and grants ---

	rec = ts.do(t, http.MethodPut, carsPath+"/private", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Bob lost sight of the category
	rec = ts.do(t, http.MethodGet, carsPath, bob, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "category_private", decodeError(t, rec).Reason)

	// It also disappears from his listing
	rec = ts.do(t, http.MethodGet, "/api/v1/categories", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var visible []*models.Category
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&visible))
	assert.Empty(t, visible)

	// The owner keeps access without any grant
	rec = ts.do(t, http.MethodGet, carsPath, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Only admins hand out grants; the owner cannot
	grantPath := fmt.Sprintf("%s/access/%d", carsPath, bobID)
	rec = ts.do(t, http.MethodPut, grantPath, alice, api.GrantRequest{AccessType: models.AccessRead})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "admin_only", decodeError(t, rec).Reason)

	rec = ts.do(t, http.MethodPut, grantPath, root, api.GrantRequest{AccessType: models.AccessRead})
	require.Equal(t, http.StatusOK, rec.Code)

	// Read access lets bob in but not post
	rec = ts.do(t, http.MethodGet, carsPath, bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/topics", bob, api.CreateTopicRequest{
		Name:       "Bob topic",
		CategoryID: cars.ID,
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "read_only_access", decodeError(t, rec).Reason)

	// Same grant again is a conflict; a different level upgrades
	rec = ts.do(t, http.MethodPut, grantPath, root, api.GrantRequest{AccessType: models.AccessRead})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPut, grantPath, root, api.GrantRequest{AccessType: models.AccessWrite})
	require.Equal(t, http.StatusOK, rec.Code)
	var grantResp api.GrantResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&grantResp))
	assert.Equal(t, "access upgraded to write", grantResp.Message)

	rec = ts.do(t, http.MethodPost, "/api/v1/topics", bob, api.CreateTopicRequest{
		Name:       "Bob topic",
		CategoryID: cars.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Carol has no grant and stays out
	rec = ts.do(t, http.MethodGet, carsPath, carol, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// --- replies, votes, best reply ---

	rec = ts.do(t, http.MethodPost, "/api/v1/replies", bob, api.CreateReplyRequest{
		Text:    "Synthetic 5W-30",
		TopicID: oilTopic.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var reply models.Reply
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&reply))

	// Reply length is capped
	long := make([]byte, 201)
	for i := range long {
		long[i] = 'x'
	}
	rec = ts.do(t, http.MethodPost, "/api/v1/replies", bob, api.CreateReplyRequest{
		Text:    string(long),
		TopicID: oilTopic.ID,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	votePath := fmt.Sprintf("/api/v1/votes/%d", reply.ID)

	rec = ts.do(t, http.MethodPut, votePath, alice, api.VoteRequest{Upvote: true})
	require.Equal(t, http.StatusOK, rec.Code)
	var voteResp api.VoteResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&voteResp))
	assert.Equal(t, "vote recorded", voteResp.Message)

	rec = ts.do(t, http.MethodPut, votePath, alice, api.VoteRequest{Upvote: true})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already upvote")

	rec = ts.do(t, http.MethodPut, votePath, alice, api.VoteRequest{Upvote: false})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&voteResp))
	assert.Equal(t, "vote changed to downvote", voteResp.Message)

	// Carol cannot vote inside a private category she has no grant for
	rec = ts.do(t, http.MethodPut, votePath, carol, api.VoteRequest{Upvote: true})
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Best reply: only the topic owner (bob) or an admin
	bestPath := fmt.Sprintf("/api/v1/topics/%d/best-reply/%d", oilTopic.ID, reply.ID)

	rec = ts.do(t, http.MethodPut, bestPath, alice, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "owner_only", decodeError(t, rec).Reason)

	rec = ts.do(t, http.MethodPut, bestPath, bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.Topic
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	require.NotNil(t, updated.BestReplyID)
	assert.Equal(t, reply.ID, *updated.BestReplyID)

	// --- going public purges grants ---

	rec = ts.do(t, http.MethodPut, carsPath+"/public", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, carsPath+"/access", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var grants []*models.AccessGrant
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&grants))
	assert.Empty(t, grants)

	// Carol can read now that the category is public again
	rec = ts.do(t, http.MethodGet, carsPath, carol, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// --- direct messages ---

	msgPath := fmt.Sprintf("/api/v1/messages/%d", bobID)

	rec = ts.do(t, http.MethodPost, msgPath, alice, api.SendMessageRequest{Text: "nice thread"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/messages/%d", aliceID), alice,
		api.SendMessageRequest{Text: "talking to myself"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/messages/99999", alice, api.SendMessageRequest{Text: "hello?"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/messages/99999", alice, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/messages/%d", aliceID), bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var conv api.ConversationResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&conv))
	require.Equal(t, 1, conv.Count)
	assert.Equal(t, "nice thread", conv.Messages[0].Text)
}

func TestRouter_TopicLockFlow(t *testing.T) {
	ts := setupTestServer(t)

	_, alice := ts.registerAndLogin(t, "alice")
	_, bob := ts.registerAndLogin(t, "bob")

	rec := ts.do(t, http.MethodPost, "/api/v1/categories", alice, api.CreateCategoryRequest{Name: "General"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var category models.Category
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&category))

	rec = ts.do(t, http.MethodPost, "/api/v1/topics", bob, api.CreateTopicRequest{
		Name:       "Bob thread",
		CategoryID: category.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var topic models.Topic
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&topic))

	lockPath := fmt.Sprintf("/api/v1/topics/%d/lock", topic.ID)

	// Alice owns the category but not the topic
	rec = ts.do(t, http.MethodPut, lockPath, alice, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPut, lockPath, bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Nobody replies to a locked topic, including its owner
	rec = ts.do(t, http.MethodPost, "/api/v1/replies", bob, api.CreateReplyRequest{
		Text:    "one more thing",
		TopicID: topic.ID,
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "topic_locked", decodeError(t, rec).Reason)

	rec = ts.do(t, http.MethodPut, lockPath, bob, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPut, fmt.Sprintf("/api/v1/topics/%d/unlock", topic.ID), bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/replies", bob, api.CreateReplyRequest{
		Text:    "one more thing",
		TopicID: topic.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
}
