package postgres

import (
	"context"
	"fmt"
	"math"

	"github.com/utafrali/reviewhub/internal/domain"
	"github.com/utafrali/reviewhub/pkg/database"
	apperrors "github.com/utafrali/reviewhub/pkg/errors"
	"github.com/utafrali/reviewhub/pkg/pagination"
)

const (
	reviewColumns = `id, product_id, user_id, text, score, created_at`

	queryInsertReview = `
		INSERT INTO reviews (product_id, user_id, text, score)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	querySelectReview = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	querySelectReviewForUpdate = querySelectReview + ` FOR UPDATE`

	queryUpdateReview = `UPDATE reviews SET text = $2, score = $3 WHERE id = $1`

	queryDeleteReview = `DELETE FROM reviews WHERE id = $1`

	queryListReviews = `
		SELECT ` + reviewColumns + `,
		       count(*) OVER() AS total_count
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	queryReviewSummary = `
		SELECT COALESCE(AVG(score), 0)::float8, COUNT(*)
		FROM reviews
		WHERE product_id = $1`
)

// ReviewRepository implements review persistence operations using PostgreSQL.
type ReviewRepository struct {
	db database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a new review. Product and user must exist.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) (err error) {
	ctx, end := database.TraceQuery(ctx, "InsertReview", queryInsertReview)
	defer func() { end(err) }()

	err = r.db.QueryRow(ctx, queryInsertReview,
		review.ProductID,
		review.UserID,
		review.Text,
		review.Score,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		return mapInsertError("insert review", err)
	}

	return nil
}

// GetByID retrieves a review by its identifier.
func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	return r.get(ctx, "GetReview", querySelectReview, id)
}

// GetByIDForUpdate retrieves a review and takes a row lock on it.
func (r *ReviewRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Review, error) {
	return r.get(ctx, "GetReviewForUpdate", querySelectReviewForUpdate, id)
}

func (r *ReviewRepository) get(ctx context.Context, op, query string, id int64) (_ *domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	var rv domain.Review
	err = r.db.QueryRow(ctx, query, id).Scan(
		&rv.ID,
		&rv.ProductID,
		&rv.UserID,
		&rv.Text,
		&rv.Score,
		&rv.CreatedAt,
	)
	if err != nil {
		return nil, mapError(fmt.Sprintf("get review %d", id), err)
	}

	return &rv, nil
}

// Update overwrites the text and score of a review.
func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpdateReview", queryUpdateReview)
	defer func() { end(err) }()

	tag, err := r.db.Exec(ctx, queryUpdateReview, review.ID, review.Text, review.Score)
	if err != nil {
		return mapError("update review", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update review %d: %w", review.ID, apperrors.ErrNotFound)
	}

	return nil
}

// Delete removes the review row.
func (r *ReviewRepository) Delete(ctx context.Context, id int64) (err error) {
	ctx, end := database.TraceQuery(ctx, "DeleteReview", queryDeleteReview)
	defer func() { end(err) }()

	tag, err := r.db.Exec(ctx, queryDeleteReview, id)
	if err != nil {
		return mapError("delete review", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete review %d: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

// ListByProductID returns paginated reviews for a given product along with the total count.
func (r *ReviewRepository) ListByProductID(ctx context.Context, productID int64, page pagination.Params) (_ []domain.Review, _ int, err error) {
	ctx, end := database.TraceQuery(ctx, "ListReviews", queryListReviews)
	defer func() { end(err) }()

	page = page.Normalize()
	rows, err := r.db.Query(ctx, queryListReviews, productID, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, mapError("list reviews", err)
	}
	defer rows.Close()

	var (
		reviews    []domain.Review
		totalCount int
	)

	for rows.Next() {
		var rv domain.Review

		if err = rows.Scan(
			&rv.ID,
			&rv.ProductID,
			&rv.UserID,
			&rv.Text,
			&rv.Score,
			&rv.CreatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}

		reviews = append(reviews, rv)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, totalCount, nil
}

// GetSummary returns the average score and total count of reviews for a product.
func (r *ReviewRepository) GetSummary(ctx context.Context, productID int64) (_ *domain.ReviewSummary, err error) {
	ctx, end := database.TraceQuery(ctx, "ReviewSummary", queryReviewSummary)
	defer func() { end(err) }()

	var summary domain.ReviewSummary
	err = r.db.QueryRow(ctx, queryReviewSummary, productID).Scan(
		&summary.AverageScore,
		&summary.TotalCount,
	)
	if err != nil {
		return nil, fmt.Errorf("get review summary: %w", err)
	}

	// One decimal place.
	summary.AverageScore = math.Round(summary.AverageScore*10) / 10

	return &summary, nil
}
