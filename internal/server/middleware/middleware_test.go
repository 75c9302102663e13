package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avlahov/forum-api/internal/models"
	"github.com/avlahov/forum-api/internal/server/handlers"
	"github.com/avlahov/forum-api/internal/server/storage"
	"github.com/avlahov/forum-api/internal/server/token"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixed single-user storage for auth middleware tests
type stubUserStorage struct {
	user *models.User
}

func (s *stubUserStorage) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	return 0, nil
}

func (s *stubUserStorage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, storage.ErrUserNotFound
}

func (s *stubUserStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return nil, storage.ErrUserNotFound
}

func (s *stubUserStorage) ListUsers(ctx context.Context) ([]*models.User, error) {
	return nil, nil
}

func (s *stubUserStorage) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	return nil
}

type stubBlacklist struct {
	revoked map[string]bool
}

func (s *stubBlacklist) RevokeToken(ctx context.Context, tokenString string, expiresAt time.Time) error {
	s.revoked[tokenString] = true
	return nil
}

func (s *stubBlacklist) IsTokenRevoked(ctx context.Context, tokenString string) (bool, error) {
	return s.revoked[tokenString], nil
}

func (s *stubBlacklist) DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

func TestAuthMiddleware(t *testing.T) {
	user := &models.User{ID: 1, Username: "alice"}
	tokens := token.NewService(token.Config{
		Issuer: "forum-api-test",
		Secret: []byte("test-secret"),
		TTL:    time.Hour,
	}, &stubUserStorage{user: user}, &stubBlacklist{revoked: map[string]bool{}})

	valid, _, err := tokens.Issue(1, "alice", false)
	require.NoError(t, err)

	var seen models.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := handlers.IdentityFrom(r.Context())
		require.True(t, ok)
		seen = identity
		w.WriteHeader(http.StatusOK)
	})

	wrapped := AuthMiddleware(testLogger(), tokens)(next)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{
			name:       "valid token passes identity through",
			header:     "Bearer " + valid,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			header:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed header",
			header:     "Token abc",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "garbage token",
			header:     "Bearer not.a.token",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			wrapped.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}

	assert.Equal(t, int64(1), seen.UserID)
	assert.Equal(t, "alice", seen.Username)
}

func TestRateLimiter_Allow(t *testing.T) {
	t.Run("requests within limit are allowed", func(t *testing.T) {
		limiter := NewRateLimiter(3, time.Minute, testLogger())
		defer limiter.Stop()

		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow("192.168.1.1"))
		}
		assert.False(t, limiter.Allow("192.168.1.1"))
	})

	t.Run("keys are tracked separately", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute, testLogger())
		defer limiter.Stop()

		assert.True(t, limiter.Allow("192.168.1.1"))
		assert.False(t, limiter.Allow("192.168.1.1"))
		assert.True(t, limiter.Allow("192.168.1.2"))
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	wrapped := RateLimitMiddleware(2, time.Minute, testLogger())(next)

	do := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusTooManyRequests, do())
}

func TestRecoveryMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("something went wrong")
	})
	wrapped := RecoveryMiddleware(testLogger())(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
	rec := httptest.NewRecorder()

	require.NotPanics(t, func() {
		wrapped.ServeHTTP(rec, req)
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLoggingMiddleware_CapturesStatus(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})
	wrapped := LoggingMiddleware(testLogger())(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}
