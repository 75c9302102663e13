package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avlahov/forum-api/internal/models"
	"github.com/avlahov/forum-api/internal/server/storage"
)

// GetVote retrieves the user's vote on a reply
func (s *Storage) GetVote(ctx context.Context, userID, replyID int64) (*models.Vote, error) {
	query := `
		SELECT user_id, reply_id, vote
		FROM votes
		WHERE user_id = ? AND reply_id = ?
	`

	vote := &models.Vote{}

	err := s.db.QueryRowContext(ctx, query, userID, replyID).Scan(
		&vote.UserID,
		&vote.ReplyID,
		&vote.Upvote,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrVoteNotFound
		}
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}

	return vote, nil
}

// CastVote records or flips a vote with a single conditional upsert.
// The ON CONFLICT clause only fires an update when the vote actually changes,
// so a same-vote request affects zero rows and maps to ErrNoStateChange.
func (s *Storage) CastVote(ctx context.Context, vote *models.Vote) (storage.VoteOutcome, error) {
	// The prior read only decides the outcome message; correctness of the
	// upsert does not depend on it.
	outcome := storage.VoteRecorded
	if _, err := s.GetVote(ctx, vote.UserID, vote.ReplyID); err == nil {
		outcome = storage.VoteChanged
	} else if !errors.Is(err, storage.ErrVoteNotFound) {
		return 0, err
	}

	query := `
		INSERT INTO votes (user_id, reply_id, vote)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, reply_id) DO UPDATE SET vote = excluded.vote
		WHERE votes.vote != excluded.vote
	`

	result, err := s.db.ExecContext(ctx, query, vote.UserID, vote.ReplyID, vote.Upvote)
	if err != nil {
		return 0, fmt.Errorf("failed to cast vote: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return 0, storage.ErrNoStateChange
	}

	return outcome, nil
}
