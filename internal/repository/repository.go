package repository

import (
	"context"

	"github.com/utafrali/reviewhub/internal/domain"
	"github.com/utafrali/reviewhub/pkg/pagination"
)

// ReviewRepository defines the persistence operations on reviews.
type ReviewRepository interface {
	// Create inserts a new review and fills in its ID and CreatedAt.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its identifier.
	GetByID(ctx context.Context, id int64) (*domain.Review, error)

	// GetByIDForUpdate retrieves a review and locks it until the enclosing
	// transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Review, error)

	// Update overwrites the text and score of an existing review.
	Update(ctx context.Context, review *domain.Review) error

	// Delete removes the review row only. Dependent rows must be removed first.
	Delete(ctx context.Context, id int64) error

	// ListByProductID returns a page of reviews for a product, newest first,
	// along with the total count.
	ListByProductID(ctx context.Context, productID int64, page pagination.Params) ([]domain.Review, int, error)

	// GetSummary returns the average score and review count for a product.
	GetSummary(ctx context.Context, productID int64) (*domain.ReviewSummary, error)
}

// AttributeRepository defines the persistence operations on review attributes.
type AttributeRepository interface {
	ListByReviewID(ctx context.Context, reviewID int64) ([]domain.ReviewAttribute, error)
	CreateBatch(ctx context.Context, reviewID int64, attrs []domain.ReviewAttribute) error
	DeleteByReviewID(ctx context.Context, reviewID int64) error
}

// PhotoRepository defines the persistence operations on photo references.
type PhotoRepository interface {
	ListByReviewID(ctx context.Context, reviewID int64) ([]domain.Photo, error)
	// Create inserts a photo reference and fills in its ID.
	Create(ctx context.Context, photo *domain.Photo) error
	DeleteByReviewID(ctx context.Context, reviewID int64) error
}

// VoteRepository defines the persistence operations on review votes.
type VoteRepository interface {
	ListByReviewID(ctx context.Context, reviewID int64) ([]domain.ReviewVote, error)
	// Upsert records the vote, overwriting the polarity of an existing vote
	// by the same user on the same review.
	Upsert(ctx context.Context, vote *domain.ReviewVote) error
	DeleteByReviewID(ctx context.Context, reviewID int64) error
}

// CatalogRepository gives read access to products and users owned by other
// parts of the marketplace.
type CatalogRepository interface {
	ProductExists(ctx context.Context, id int64) (bool, error)
	UserExists(ctx context.Context, id int64) (bool, error)
}

// Store groups the repositories bound to a single transaction.
type Store interface {
	Reviews() ReviewRepository
	Attributes() AttributeRepository
	Photos() PhotoRepository
	Votes() VoteRepository
	Catalog() CatalogRepository
}

// Transactor runs units of work. fn receives a Store whose repositories all
// share one read-committed transaction; it is committed when fn returns nil
// and rolled back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}
