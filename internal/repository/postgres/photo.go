package postgres

import (
	"context"
	"fmt"

	"github.com/utafrali/reviewhub/internal/domain"
	"github.com/utafrali/reviewhub/pkg/database"
)

const (
	queryListPhotos   = `SELECT id, review_id FROM photos WHERE review_id = $1 ORDER BY id`
	queryInsertPhoto  = `INSERT INTO photos (review_id) VALUES ($1) RETURNING id`
	queryDeletePhotos = `DELETE FROM photos WHERE review_id = $1`
)

// PhotoRepository implements photo reference persistence using PostgreSQL.
type PhotoRepository struct {
	db database.DBTX
}

// NewPhotoRepository creates a new PostgreSQL-backed photo repository.
func NewPhotoRepository(db database.DBTX) *PhotoRepository {
	return &PhotoRepository{db: db}
}

func (r *PhotoRepository) ListByReviewID(ctx context.Context, reviewID int64) (_ []domain.Photo, err error) {
	ctx, end := database.TraceQuery(ctx, "ListPhotos", queryListPhotos)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, queryListPhotos, reviewID)
	if err != nil {
		return nil, mapError("list photos", err)
	}
	defer rows.Close()

	photos := []domain.Photo{}
	for rows.Next() {
		var p domain.Photo
		if err = rows.Scan(&p.ID, &p.ReviewID); err != nil {
			return nil, fmt.Errorf("scan photo row: %w", err)
		}
		photos = append(photos, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate photo rows: %w", err)
	}

	return photos, nil
}

func (r *PhotoRepository) Create(ctx context.Context, photo *domain.Photo) (err error) {
	ctx, end := database.TraceQuery(ctx, "InsertPhoto", queryInsertPhoto)
	defer func() { end(err) }()

	if err = r.db.QueryRow(ctx, queryInsertPhoto, photo.ReviewID).Scan(&photo.ID); err != nil {
		return mapInsertError("insert photo", err)
	}

	return nil
}

func (r *PhotoRepository) DeleteByReviewID(ctx context.Context, reviewID int64) (err error) {
	ctx, end := database.TraceQuery(ctx, "DeletePhotos", queryDeletePhotos)
	defer func() { end(err) }()

	if _, err = r.db.Exec(ctx, queryDeletePhotos, reviewID); err != nil {
		return mapError("delete photos", err)
	}

	return nil
}
