package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/reviewhub/internal/domain"
	"github.com/utafrali/reviewhub/pkg/database"
)

const (
	queryListAttributes = `
		SELECT review_id, text, is_positive
		FROM review_attributes
		WHERE review_id = $1
		ORDER BY id`

	// One statement for the whole set; the arrays are zipped by unnest.
	queryInsertAttributes = `
		INSERT INTO review_attributes (review_id, text, is_positive)
		SELECT $1, t.text, t.is_positive
		FROM unnest($2::text[], $3::boolean[]) AS t(text, is_positive)`

	queryDeleteAttributes = `DELETE FROM review_attributes WHERE review_id = $1`
)

// AttributeRepository implements review attribute persistence using PostgreSQL.
type AttributeRepository struct {
	db database.DBTX
}

// NewAttributeRepository creates a new PostgreSQL-backed attribute repository.
func NewAttributeRepository(db database.DBTX) *AttributeRepository {
	return &AttributeRepository{db: db}
}

// ListByReviewID returns the attributes of a review in insertion order.
func (r *AttributeRepository) ListByReviewID(ctx context.Context, reviewID int64) (_ []domain.ReviewAttribute, err error) {
	ctx, end := database.TraceQuery(ctx, "ListAttributes", queryListAttributes)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, queryListAttributes, reviewID)
	if err != nil {
		return nil, mapError("list attributes", err)
	}

	attrs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ReviewAttribute, error) {
		var a domain.ReviewAttribute
		err := row.Scan(&a.ReviewID, &a.Text, &a.IsPositive)
		return a, err
	})
	if err != nil {
		return nil, mapError("collect attributes", err)
	}

	return attrs, nil
}

// CreateBatch inserts attrs for the review. An empty set is a no-op.
func (r *AttributeRepository) CreateBatch(ctx context.Context, reviewID int64, attrs []domain.ReviewAttribute) (err error) {
	if len(attrs) == 0 {
		return nil
	}

	ctx, end := database.TraceQuery(ctx, "InsertAttributes", queryInsertAttributes)
	defer func() { end(err) }()

	texts := make([]string, len(attrs))
	positives := make([]bool, len(attrs))
	for i, a := range attrs {
		texts[i] = a.Text
		positives[i] = a.IsPositive
	}

	if _, err = r.db.Exec(ctx, queryInsertAttributes, reviewID, texts, positives); err != nil {
		return mapInsertError("insert attributes", err)
	}

	return nil
}

// DeleteByReviewID removes every attribute of the review.
func (r *AttributeRepository) DeleteByReviewID(ctx context.Context, reviewID int64) (err error) {
	ctx, end := database.TraceQuery(ctx, "DeleteAttributes", queryDeleteAttributes)
	defer func() { end(err) }()

	if _, err = r.db.Exec(ctx, queryDeleteAttributes, reviewID); err != nil {
		return mapError("delete attributes", err)
	}

	return nil
}
