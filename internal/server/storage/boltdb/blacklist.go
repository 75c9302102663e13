// Package boltdb implements the token revocation ledger on top of bbolt.
// The ledger is a plain key set: key = token string, value = the token's own
// expiry. A token present in the ledger is permanently invalid; entries are
// only removed once the token would be rejected by its expiry anyway.
package boltdb

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var bucketRevoked = []byte("revoked_tokens")

// Blacklist represents the bbolt-backed revocation ledger
type Blacklist struct {
	db *bbolt.DB
}

// New creates a new revocation ledger instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string) (*Blacklist, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	blacklist := &Blacklist{db: db}

	if err := blacklist.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return blacklist, nil
}

// Close closes the database connection
func (b *Blacklist) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// initBuckets creates the required buckets if they don't exist
func (b *Blacklist) initBuckets() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketRevoked); err != nil {
			return fmt.Errorf("failed to create revoked tokens bucket: %w", err)
		}
		return nil
	})
}

// RevokeToken inserts the token string into the ledger
func (b *Blacklist) RevokeToken(ctx context.Context, token string, expiresAt time.Time) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRevoked)
		if bucket == nil {
			return fmt.Errorf("revoked tokens bucket not found")
		}

		value := expiresAt.UTC().Format(time.RFC3339)
		if err := bucket.Put([]byte(token), []byte(value)); err != nil {
			return fmt.Errorf("failed to store revoked token: %w", err)
		}

		return nil
	})
}

// IsTokenRevoked reports whether the token string is in the ledger
func (b *Blacklist) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	var revoked bool

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRevoked)
		if bucket == nil {
			return fmt.Errorf("revoked tokens bucket not found")
		}

		revoked = bucket.Get([]byte(token)) != nil
		return nil
	})
	if err != nil {
		return false, err
	}

	return revoked, nil
}

// DeleteExpiredTokens removes ledger entries whose expiry is before now
func (b *Blacklist) DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error) {
	deleted := 0

	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRevoked)
		if bucket == nil {
			return fmt.Errorf("revoked tokens bucket not found")
		}

		cursor := bucket.Cursor()
		for key, value := cursor.First(); key != nil; key, value = cursor.Next() {
			expiresAt, err := time.Parse(time.RFC3339, string(value))
			if err != nil {
				// Unparseable entry: drop it rather than keep it forever
				if err := cursor.Delete(); err != nil {
					return fmt.Errorf("failed to delete ledger entry: %w", err)
				}
				deleted++
				continue
			}

			if expiresAt.Before(now) {
				if err := cursor.Delete(); err != nil {
					return fmt.Errorf("failed to delete ledger entry: %w", err)
				}
				deleted++
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return deleted, nil
}
