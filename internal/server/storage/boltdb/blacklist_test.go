package boltdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func setupTestBlacklist(t *testing.T) *Blacklist {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "blacklist.db")

	ctx := context.Background()
	blacklist, err := New(ctx, dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, blacklist.Close())
	})

	return blacklist
}

func TestNew_Success(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "blacklist.db")

	ctx := context.Background()
	blacklist, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NotNil(t, blacklist)
	defer func() {
		require.NoError(t, blacklist.Close())
	}()

	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.False(t, info.IsDir())

	err = blacklist.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketRevoked) == nil {
			return os.ErrNotExist
		}
		return nil
	})
	require.NoError(t, err)
}

func TestBlacklist_RevokeAndCheck(t *testing.T) {
	ctx := context.Background()
	blacklist := setupTestBlacklist(t)

	revoked, err := blacklist.IsTokenRevoked(ctx, "some.token")
	require.NoError(t, err)
	assert.False(t, revoked)

	err = blacklist.RevokeToken(ctx, "some.token", time.Now().Add(time.Hour))
	require.NoError(t, err)

	revoked, err = blacklist.IsTokenRevoked(ctx, "some.token")
	require.NoError(t, err)
	assert.True(t, revoked)

	// Unrelated tokens stay valid
	revoked, err = blacklist.IsTokenRevoked(ctx, "other.token")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestBlacklist_DeleteExpiredTokens(t *testing.T) {
	ctx := context.Background()
	blacklist := setupTestBlacklist(t)

	now := time.Now()

	err := blacklist.RevokeToken(ctx, "expired.token", now.Add(-time.Hour))
	require.NoError(t, err)
	err = blacklist.RevokeToken(ctx, "live.token", now.Add(time.Hour))
	require.NoError(t, err)

	deleted, err := blacklist.DeleteExpiredTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	revoked, err := blacklist.IsTokenRevoked(ctx, "expired.token")
	require.NoError(t, err)
	assert.False(t, revoked)

	revoked, err = blacklist.IsTokenRevoked(ctx, "live.token")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestBlacklist_DeleteExpiredTokens_DropsGarbage(t *testing.T) {
	ctx := context.Background()
	blacklist := setupTestBlacklist(t)

	err := blacklist.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRevoked).Put([]byte("broken.token"), []byte("not-a-timestamp"))
	})
	require.NoError(t, err)

	deleted, err := blacklist.DeleteExpiredTokens(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
}
