package memory

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/utafrali/reviewhub/internal/domain"
	apperrors "github.com/utafrali/reviewhub/pkg/errors"
	"github.com/utafrali/reviewhub/pkg/pagination"
)

type reviewRepo struct{ t *tx }

func (r reviewRepo) Create(_ context.Context, review *domain.Review) error {
	d := r.t.data
	if _, ok := d.products[review.ProductID]; !ok {
		return fmt.Errorf("insert review: product %d: %w", review.ProductID, apperrors.ErrNotFound)
	}
	if _, ok := d.users[review.UserID]; !ok {
		return fmt.Errorf("insert review: user %d: %w", review.UserID, apperrors.ErrNotFound)
	}

	d.lastReviewID++
	review.ID = d.lastReviewID
	review.CreatedAt = r.t.now().UTC()
	d.reviews[review.ID] = *review
	return nil
}

func (r reviewRepo) GetByID(_ context.Context, id int64) (*domain.Review, error) {
	rv, ok := r.t.data.reviews[id]
	if !ok {
		return nil, fmt.Errorf("get review %d: %w", id, apperrors.ErrNotFound)
	}
	return &rv, nil
}

// GetByIDForUpdate needs no lock: units of work are already serialized.
func (r reviewRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Review, error) {
	return r.GetByID(ctx, id)
}

func (r reviewRepo) Update(_ context.Context, review *domain.Review) error {
	stored, ok := r.t.data.reviews[review.ID]
	if !ok {
		return fmt.Errorf("update review %d: %w", review.ID, apperrors.ErrNotFound)
	}
	stored.Text = review.Text
	stored.Score = review.Score
	r.t.data.reviews[review.ID] = stored
	return nil
}

// Delete refuses to orphan dependent rows, mirroring the foreign keys of the
// relational schema.
func (r reviewRepo) Delete(_ context.Context, id int64) error {
	d := r.t.data
	if _, ok := d.reviews[id]; !ok {
		return fmt.Errorf("delete review %d: %w", id, apperrors.ErrNotFound)
	}
	if len(d.attributes[id]) > 0 || len(d.photos[id]) > 0 || hasVotes(d, id) {
		return fmt.Errorf("delete review %d: dependent rows remain", id)
	}
	delete(d.reviews, id)
	return nil
}

func hasVotes(d *snapshot, reviewID int64) bool {
	for k := range d.votes {
		if k.reviewID == reviewID {
			return true
		}
	}
	return false
}

func (r reviewRepo) ListByProductID(_ context.Context, productID int64, page pagination.Params) ([]domain.Review, int, error) {
	var all []domain.Review
	for _, rv := range r.t.data.reviews {
		if rv.ProductID == productID {
			all = append(all, rv)
		}
	}
	slices.SortFunc(all, func(a, b domain.Review) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	page = page.Normalize()
	start := min(page.Offset(), len(all))
	end := min(start+page.Limit(), len(all))

	out := make([]domain.Review, 0, end-start)
	out = append(out, all[start:end]...)
	return out, len(all), nil
}

func (r reviewRepo) GetSummary(_ context.Context, productID int64) (*domain.ReviewSummary, error) {
	var summary domain.ReviewSummary
	total := 0
	for _, rv := range r.t.data.reviews {
		if rv.ProductID == productID {
			summary.TotalCount++
			total += rv.Score
		}
	}
	if summary.TotalCount > 0 {
		avg := float64(total) / float64(summary.TotalCount)
		summary.AverageScore = math.Round(avg*10) / 10
	}
	return &summary, nil
}

type attributeRepo struct{ t *tx }

func (r attributeRepo) ListByReviewID(_ context.Context, reviewID int64) ([]domain.ReviewAttribute, error) {
	return slices.Clone(r.t.data.attributes[reviewID]), nil
}

func (r attributeRepo) CreateBatch(_ context.Context, reviewID int64, attrs []domain.ReviewAttribute) error {
	if len(attrs) == 0 {
		return nil
	}
	if _, ok := r.t.data.reviews[reviewID]; !ok {
		return fmt.Errorf("insert attributes: review %d: %w", reviewID, apperrors.ErrNotFound)
	}
	for _, a := range attrs {
		a.ReviewID = reviewID
		r.t.data.attributes[reviewID] = append(r.t.data.attributes[reviewID], a)
	}
	return nil
}

func (r attributeRepo) DeleteByReviewID(_ context.Context, reviewID int64) error {
	delete(r.t.data.attributes, reviewID)
	return nil
}

type photoRepo struct{ t *tx }

func (r photoRepo) ListByReviewID(_ context.Context, reviewID int64) ([]domain.Photo, error) {
	return slices.Clone(r.t.data.photos[reviewID]), nil
}

func (r photoRepo) Create(_ context.Context, photo *domain.Photo) error {
	d := r.t.data
	if _, ok := d.reviews[photo.ReviewID]; !ok {
		return fmt.Errorf("insert photo: review %d: %w", photo.ReviewID, apperrors.ErrNotFound)
	}
	d.lastPhotoID++
	photo.ID = d.lastPhotoID
	d.photos[photo.ReviewID] = append(d.photos[photo.ReviewID], *photo)
	return nil
}

func (r photoRepo) DeleteByReviewID(_ context.Context, reviewID int64) error {
	delete(r.t.data.photos, reviewID)
	return nil
}

type voteRepo struct{ t *tx }

func (r voteRepo) ListByReviewID(_ context.Context, reviewID int64) ([]domain.ReviewVote, error) {
	var votes []domain.ReviewVote
	for k, positive := range r.t.data.votes {
		if k.reviewID == reviewID {
			votes = append(votes, domain.ReviewVote{UserID: k.userID, ReviewID: k.reviewID, IsPositive: positive})
		}
	}
	slices.SortFunc(votes, func(a, b domain.ReviewVote) int { return cmp.Compare(a.UserID, b.UserID) })
	return votes, nil
}

func (r voteRepo) Upsert(_ context.Context, vote *domain.ReviewVote) error {
	if _, ok := r.t.data.reviews[vote.ReviewID]; !ok {
		return fmt.Errorf("upsert vote: review %d: %w", vote.ReviewID, apperrors.ErrNotFound)
	}
	if _, ok := r.t.data.users[vote.UserID]; !ok {
		return fmt.Errorf("upsert vote: user %d: %w", vote.UserID, apperrors.ErrNotFound)
	}
	r.t.data.votes[voteKey{userID: vote.UserID, reviewID: vote.ReviewID}] = vote.IsPositive
	return nil
}

func (r voteRepo) DeleteByReviewID(_ context.Context, reviewID int64) error {
	for k := range r.t.data.votes {
		if k.reviewID == reviewID {
			delete(r.t.data.votes, k)
		}
	}
	return nil
}

type catalogRepo struct{ t *tx }

func (r catalogRepo) ProductExists(_ context.Context, id int64) (bool, error) {
	_, ok := r.t.data.products[id]
	return ok, nil
}

func (r catalogRepo) UserExists(_ context.Context, id int64) (bool, error) {
	_, ok := r.t.data.users[id]
	return ok, nil
}
