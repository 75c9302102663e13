package token

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avlahov/forum-api/internal/models"
	"github.com/avlahov/forum-api/internal/server/apperr"
	"github.com/avlahov/forum-api/internal/server/storage"
)

// mockUserStorage is a map-backed UserStorage for testing
type mockUserStorage struct {
	users map[int64]*models.User
}

func (m *mockUserStorage) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	m.users[user.ID] = user
	return user.ID, nil
}

func (m *mockUserStorage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *mockUserStorage) ListUsers(ctx context.Context) ([]*models.User, error) {
	return nil, nil
}

func (m *mockUserStorage) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	return nil
}

// mockBlacklist is an in-memory revocation ledger for testing
type mockBlacklist struct {
	revoked map[string]time.Time
}

func (m *mockBlacklist) RevokeToken(ctx context.Context, token string, expiresAt time.Time) error {
	m.revoked[token] = expiresAt
	return nil
}

func (m *mockBlacklist) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	_, ok := m.revoked[token]
	return ok, nil
}

func (m *mockBlacklist) DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error) {
	deleted := 0
	for token, expiresAt := range m.revoked {
		if expiresAt.Before(now) {
			delete(m.revoked, token)
			deleted++
		}
	}
	return deleted, nil
}

func setupTestService(ttl time.Duration) (*Service, *mockUserStorage, *mockBlacklist) {
	users := &mockUserStorage{users: map[int64]*models.User{
		1: {ID: 1, Username: "alice"},
		2: {ID: 2, Username: "admin", IsAdmin: true},
	}}
	blacklist := &mockBlacklist{revoked: map[string]time.Time{}}

	service := NewService(Config{
		Issuer: "forum-api-test",
		Secret: []byte("test-secret-key"),
		TTL:    ttl,
	}, users, blacklist)

	return service, users, blacklist
}

func TestService_IssueAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	service, _, _ := setupTestService(time.Hour)

	tokenString, expiresIn, err := service.Issue(1, "alice", false)
	require.NoError(t, err)
	assert.NotEmpty(t, tokenString)
	assert.Equal(t, int64(3600), expiresIn)

	identity, err := service.Authenticate(ctx, tokenString)
	require.NoError(t, err)
	assert.Equal(t, int64(1), identity.UserID)
	assert.Equal(t, "alice", identity.Username)
	assert.False(t, identity.IsAdmin)
}

func TestService_Authenticate_AdminFlagCarried(t *testing.T) {
	ctx := context.Background()
	service, _, _ := setupTestService(time.Hour)

	tokenString, _, err := service.Issue(2, "admin", true)
	require.NoError(t, err)

	identity, err := service.Authenticate(ctx, tokenString)
	require.NoError(t, err)
	assert.True(t, identity.IsAdmin)
}

func TestService_Authenticate_Expired(t *testing.T) {
	ctx := context.Background()
	service, _, _ := setupTestService(-time.Minute)

	tokenString, _, err := service.Issue(1, "alice", false)
	require.NoError(t, err)

	_, err = service.Authenticate(ctx, tokenString)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	assert.Equal(t, apperr.ReasonTokenExpired, apperr.ReasonOf(err))
}

func TestService_Authenticate_Garbage(t *testing.T) {
	ctx := context.Background()
	service, _, _ := setupTestService(time.Hour)

	_, err := service.Authenticate(ctx, "not.a.token")
	require.Error(t, err)
	assert.Equal(t, apperr.ReasonTokenInvalid, apperr.ReasonOf(err))
}

func TestService_Authenticate_TamperedSignature(t *testing.T) {
	ctx := context.Background()
	service, _, _ := setupTestService(time.Hour)

	other := NewService(Config{
		Issuer: "forum-api-test",
		Secret: []byte("a-different-secret"),
		TTL:    time.Hour,
	}, &mockUserStorage{users: map[int64]*models.User{}}, &mockBlacklist{revoked: map[string]time.Time{}})

	tokenString, _, err := other.Issue(1, "alice", false)
	require.NoError(t, err)

	_, err = service.Authenticate(ctx, tokenString)
	require.Error(t, err)
	assert.Equal(t, apperr.ReasonTokenInvalid, apperr.ReasonOf(err))
}

func TestService_Authenticate_UnknownUser(t *testing.T) {
	ctx := context.Background()
	service, _, _ := setupTestService(time.Hour)

	// Valid signature but the user id does not resolve
	tokenString, _, err := service.Issue(99, "ghost", false)
	require.NoError(t, err)

	_, err = service.Authenticate(ctx, tokenString)
	require.Error(t, err)
	assert.Equal(t, apperr.ReasonUnknownUser, apperr.ReasonOf(err))
}

func TestService_Authenticate_RenamedUser(t *testing.T) {
	ctx := context.Background()
	service, users, _ := setupTestService(time.Hour)

	tokenString, _, err := service.Issue(1, "alice", false)
	require.NoError(t, err)

	// The stored username no longer matches the token's claim
	users.users[1].Username = "renamed"

	_, err = service.Authenticate(ctx, tokenString)
	require.Error(t, err)
	assert.Equal(t, apperr.ReasonUnknownUser, apperr.ReasonOf(err))
}

func TestService_Revoke(t *testing.T) {
	ctx := context.Background()
	service, _, _ := setupTestService(time.Hour)

	tokenString, _, err := service.Issue(1, "alice", false)
	require.NoError(t, err)

	err = service.Revoke(ctx, tokenString)
	require.NoError(t, err)

	// A revoked token no longer authenticates even though it has not expired
	_, err = service.Authenticate(ctx, tokenString)
	require.Error(t, err)
	assert.Equal(t, apperr.ReasonTokenRevoked, apperr.ReasonOf(err))

	// Re-revocation fails for the same reason
	err = service.Revoke(ctx, tokenString)
	require.Error(t, err)
	assert.Equal(t, apperr.ReasonTokenRevoked, apperr.ReasonOf(err))
}

func TestService_Revoke_InvalidToken(t *testing.T) {
	ctx := context.Background()
	service, _, blacklist := setupTestService(time.Hour)

	err := service.Revoke(ctx, "not.a.token")
	require.Error(t, err)
	assert.Equal(t, apperr.ReasonTokenInvalid, apperr.ReasonOf(err))
	assert.Empty(t, blacklist.revoked)
}

func TestService_TokensAreUnique(t *testing.T) {
	service, _, _ := setupTestService(time.Hour)

	first, _, err := service.Issue(1, "alice", false)
	require.NoError(t, err)
	second, _, err := service.Issue(1, "alice", false)
	require.NoError(t, err)

	// The jti claim makes otherwise identical tokens distinct
	assert.NotEqual(t, first, second)
}
