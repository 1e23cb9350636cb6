package domain

import "time"

// ReviewInfo is the read-only projection of a review with its attributes,
// photo ids and vote tally. It is assembled on every read and never stored.
type ReviewInfo struct {
	ID         int64             `json:"id"`
	ProductID  int64             `json:"product_id"`
	UserID     int64             `json:"user_id"`
	Text       string            `json:"text"`
	Score      int               `json:"score"`
	CreatedAt  time.Time         `json:"created_at"`
	Likes      int               `json:"likes"`
	Dislikes   int               `json:"dislikes"`
	Attributes []ReviewAttribute `json:"attributes"`
	PhotoIDs   []int64           `json:"photos"`
}

// NewReviewInfo assembles the projection. Nil slices are rendered as empty
// lists so clients always see arrays.
func NewReviewInfo(r *Review, attrs []ReviewAttribute, photos []Photo, votes []ReviewVote) *ReviewInfo {
	info := &ReviewInfo{
		ID:         r.ID,
		ProductID:  r.ProductID,
		UserID:     r.UserID,
		Text:       r.Text,
		Score:      r.Score,
		CreatedAt:  r.CreatedAt,
		Attributes: make([]ReviewAttribute, 0, len(attrs)),
		PhotoIDs:   make([]int64, 0, len(photos)),
	}
	info.Attributes = append(info.Attributes, attrs...)
	for _, p := range photos {
		info.PhotoIDs = append(info.PhotoIDs, p.ID)
	}
	info.Likes, info.Dislikes = Tally(votes)
	return info
}

// Tally counts positive and negative votes.
func Tally(votes []ReviewVote) (likes, dislikes int) {
	for _, v := range votes {
		if v.IsPositive {
			likes++
		} else {
			dislikes++
		}
	}
	return likes, dislikes
}
