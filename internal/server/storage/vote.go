package storage

import (
	"context"

	"github.com/avlahov/forum-api/internal/models"
)

// VoteOutcome reports what a CastVote call did
type VoteOutcome int

const (
	// VoteRecorded means a new vote row was inserted
	VoteRecorded VoteOutcome = iota + 1
	// VoteChanged means an existing vote was flipped
	VoteChanged
)

// VoteStorage defines interface for vote persistence
type VoteStorage interface {
	// GetVote retrieves the user's vote on a reply
	// Returns ErrVoteNotFound if no vote exists
	GetVote(ctx context.Context, userID, replyID int64) (*models.Vote, error)

	// CastVote records or flips a vote with a single conditional upsert.
	// Returns ErrNoStateChange if the same vote is already recorded.
	CastVote(ctx context.Context, vote *models.Vote) (VoteOutcome, error)
}
