package domain

import (
	"time"
)

// Review is a user's evaluation of a product. ProductID and UserID are fixed
// at creation; only the author may change Text, Score and the attribute set.
type Review struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	UserID    int64     `json:"user_id"`
	Text      string    `json:"text"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewAttribute is a short pro (IsPositive) or con tag on a review.
// The set of attributes is replaced wholesale on update.
type ReviewAttribute struct {
	ReviewID   int64  `json:"-"`
	Text       string `json:"text"`
	IsPositive bool   `json:"is_positive"`
}

// Photo references an uploaded image; the binary lives elsewhere.
type Photo struct {
	ID       int64 `json:"id"`
	ReviewID int64 `json:"review_id"`
}

// ReviewVote is one user's like or dislike of a review. There is at most one
// vote per (UserID, ReviewID).
type ReviewVote struct {
	UserID     int64 `json:"user_id"`
	ReviewID   int64 `json:"review_id"`
	IsPositive bool  `json:"is_positive"`
}

// ReviewSummary contains aggregate review statistics for a product.
type ReviewSummary struct {
	AverageScore float64 `json:"average_score"`
	TotalCount   int     `json:"total_count"`
}
