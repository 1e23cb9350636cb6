package postgres

import (
	"context"
	"fmt"

	"github.com/utafrali/reviewhub/internal/domain"
	"github.com/utafrali/reviewhub/pkg/database"
)

const (
	queryListVotes = `
		SELECT user_id, review_id, is_positive
		FROM review_votes
		WHERE review_id = $1`

	queryUpsertVote = `
		INSERT INTO review_votes (user_id, review_id, is_positive)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, review_id) DO UPDATE SET is_positive = EXCLUDED.is_positive`

	queryDeleteVotes = `DELETE FROM review_votes WHERE review_id = $1`
)

// VoteRepository implements review vote persistence using PostgreSQL.
type VoteRepository struct {
	db database.DBTX
}

// NewVoteRepository creates a new PostgreSQL-backed vote repository.
func NewVoteRepository(db database.DBTX) *VoteRepository {
	return &VoteRepository{db: db}
}

// ListByReviewID returns every vote cast on the review.
func (r *VoteRepository) ListByReviewID(ctx context.Context, reviewID int64) (_ []domain.ReviewVote, err error) {
	ctx, end := database.TraceQuery(ctx, "ListVotes", queryListVotes)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, queryListVotes, reviewID)
	if err != nil {
		return nil, mapError("list votes", err)
	}
	defer rows.Close()

	var votes []domain.ReviewVote
	for rows.Next() {
		var v domain.ReviewVote
		if err = rows.Scan(&v.UserID, &v.ReviewID, &v.IsPositive); err != nil {
			return nil, fmt.Errorf("scan vote row: %w", err)
		}
		votes = append(votes, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vote rows: %w", err)
	}

	return votes, nil
}

// Upsert inserts the vote or flips the polarity of the user's existing vote.
// The unique (user_id, review_id) constraint keeps one row per pair even
// under concurrent votes.
func (r *VoteRepository) Upsert(ctx context.Context, vote *domain.ReviewVote) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpsertVote", queryUpsertVote)
	defer func() { end(err) }()

	if _, err = r.db.Exec(ctx, queryUpsertVote, vote.UserID, vote.ReviewID, vote.IsPositive); err != nil {
		return mapInsertError("upsert vote", err)
	}

	return nil
}

// DeleteByReviewID removes every vote on the review.
func (r *VoteRepository) DeleteByReviewID(ctx context.Context, reviewID int64) (err error) {
	ctx, end := database.TraceQuery(ctx, "DeleteVotes", queryDeleteVotes)
	defer func() { end(err) }()

	if _, err = r.db.Exec(ctx, queryDeleteVotes, reviewID); err != nil {
		return mapError("delete votes", err)
	}

	return nil
}
