package storage

import (
	"context"
	"time"
)

// TokenBlacklist defines interface for the revocation ledger.
// A token inserted into the ledger is permanently invalid; there is no
// un-revocation. Entries become collectable once the token's own expiry
// passes, since expiry alone then rejects it.
type TokenBlacklist interface {
	// RevokeToken inserts the token string into the ledger.
	// expiresAt is the token's own expiry, kept so the entry can be swept
	// once the token would be rejected anyway.
	RevokeToken(ctx context.Context, token string, expiresAt time.Time) error

	// IsTokenRevoked reports whether the token string is in the ledger
	IsTokenRevoked(ctx context.Context, token string) (bool, error)

	// DeleteExpiredTokens removes ledger entries whose expiry is before now
	// Returns number of deleted entries
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error)
}
